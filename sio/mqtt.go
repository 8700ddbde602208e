/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package sio

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"

	"github.com/Comcast/sutra/util"
	"github.com/Comcast/sutra/world"
)

// MQTT is a Couplings for an MQTT client.
//
// Messages on the subscribed topics are Requests.  A Response goes to
// the Request's ReplyTo topic or else to OutTopic.
type MQTT struct {
	Client mqtt.Client

	// SubTopics is a comma-separated list of topics, each of which
	// can have a QoS suffix like "programs:1".
	SubTopics string

	// OutTopic is the default topic for Responses.  It can also
	// have a QoS suffix.
	OutTopic string

	// Quiesce is the disconnection quiescence in milliseconds.
	Quiesce uint

	InTimeout time.Duration

	incoming chan *Request
	outbound chan *Response
	done     chan bool

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewMQTT makes an MQTT with a client made from the given options.
// The options' DefaultPublishHandler is replaced.
func NewMQTT(opts *mqtt.ClientOptions, subTopics, outTopic string) *MQTT {
	c := &MQTT{
		SubTopics: subTopics,
		OutTopic:  outTopic,
		Quiesce:   100,
		InTimeout: time.Second,
		incoming:  make(chan *Request),
		outbound:  make(chan *Response),
		done:      make(chan bool),
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		util.Warn("MQTT connection lost", "err", err)
	}
	c.Client = mqtt.NewClient(opts)
	return c
}

// Decode makes a Request from an incoming message.  A Request from a
// JSON object without a ReplyTo gets none; the OutTopic applies.
func (c *MQTT) Decode(topic string, payload []byte) (*Request, error) {
	return ParseRequest(topic, payload)
}

// inHandler is a Paho publish handler, which is used to handle
// messages sent to us from the MQTT broker due to our subscriptions.
func (c *MQTT) inHandler(ctx context.Context, msg mqtt.Message) {
	util.Debug("incoming", "topic", msg.Topic(), "payload", Short(string(msg.Payload()), 70))
	req, err := c.Decode(msg.Topic(), msg.Payload())
	if err != nil {
		util.Warn("MQTT bad request", "topic", msg.Topic(), "err", err)
		return
	}

	to := time.NewTimer(c.InTimeout)
	defer to.Stop()

	select {
	case <-ctx.Done():
		util.Debug("not forwarding due to ctx.Done()")
	case c.incoming <- req:
	case <-to.C:
		util.Warn("not forwarding due to stall", "topic", msg.Topic())
	}
}

// Start connects to the broker, subscribes, and starts publishing
// Responses.
func (c *MQTT) Start(ctx context.Context) error {
	util.Info("connecting to broker")
	if token := c.Client.Connect(); token.Wait() && token.Error() != nil {
		return errors.Wrap(token.Error(), "MQTT connect")
	}

	handler := func(client mqtt.Client, msg mqtt.Message) {
		c.inHandler(ctx, msg)
	}
	for _, topic := range strings.Split(c.SubTopics, ",") {
		topic, qos := ParseTopic(strings.TrimSpace(topic))
		if topic == "" {
			continue
		}
		util.Info("subscribing", "topic", topic, "qos", qos)
		if t := c.Client.Subscribe(topic, qos, handler); t.Wait() && t.Error() != nil {
			return errors.Wrapf(t.Error(), "MQTT subscribe %s", topic)
		}
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.outLoop(ctx); err != nil {
			util.Error("MQTT out", "err", err)
		}
	}()

	return nil
}

// IO returns the channels.
func (c *MQTT) IO(ctx context.Context) (chan *Request, chan *Response, chan bool, error) {
	return c.incoming, c.outbound, c.done, nil
}

// Destination gives the topic and QoS for a Response.
func (c *MQTT) Destination(r *Response) (string, byte) {
	if r.Request != nil && r.Request.ReplyTo != "" {
		return ParseTopic(r.Request.ReplyTo)
	}
	return ParseTopic(c.OutTopic)
}

// outLoop forwards Responses to the MQTT broker.
func (c *MQTT) outLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return nil
		case r := <-c.outbound:
			if r == nil {
				return nil
			}
			topic, qos := c.Destination(r)
			js, err := json.Marshal(r)
			if err != nil {
				util.Error("MQTT marshal", "err", err)
				continue
			}
			token := c.Client.Publish(topic, qos, false, js)
			token.Wait()
			if err := token.Error(); err != nil {
				return errors.Wrapf(err, "publishing to %s", topic)
			}
		}
	}
}

// Read returns no World.
func (c *MQTT) Read(ctx context.Context) (*world.World, error) {
	return nil, nil
}

// Stop terminates the MQTT session.
func (c *MQTT) Stop(ctx context.Context) error {
	util.Info("disconnecting")
	c.closeOnce.Do(func() {
		close(c.done)
	})
	c.wg.Wait()
	c.Client.Disconnect(c.Quiesce)
	return nil
}

// ParseTopic extracts the QoS from a topic name of the form
// TOPIC:QOS.  The default QoS is zero.
func ParseTopic(s string) (string, byte) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return s, 0
	}
	var qos byte
	if _, err := fmt.Sscanf(s[i+1:], "%d", &qos); err != nil || 2 < qos {
		return s, 0
	}
	return s[:i], qos
}
