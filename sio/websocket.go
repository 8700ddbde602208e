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
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/Comcast/sutra/util"
	"github.com/Comcast/sutra/world"
)

// WebSocket is a Couplings over a WebSocket connection.
//
// Each text message is a Request (a JSON object or source text).
// Each Response is written back as a JSON text message.
type WebSocket struct {
	// URL is the server to dial.  Ignored if the connection was
	// given with Accept.
	URL string

	in   chan *Request
	out  chan *Response
	done chan bool
	conn *websocket.Conn

	// wmu serializes writes, which gorilla requires.
	wmu       sync.Mutex
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWebSocket makes a WebSocket that will dial the given URL.
func NewWebSocket(url string) *WebSocket {
	return &WebSocket{
		URL: url,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Accept upgrades an HTTP request and returns a WebSocket that's
// coupled to the new connection.
func Accept(w http.ResponseWriter, r *http.Request) (*WebSocket, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, errors.Wrap(err, "websocket upgrade")
	}
	return &WebSocket{
		conn: conn,
	}, nil
}

// Start dials (if necessary) and starts processing the connection.
func (c *WebSocket) Start(ctx context.Context) error {
	c.in = make(chan *Request)
	c.out = make(chan *Response)
	c.done = make(chan bool)

	if c.conn == nil {
		util.Info("wsconnect", "url", c.URL)
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
		if err != nil {
			return errors.Wrapf(err, "dialing %s", c.URL)
		}
		c.conn = conn
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.closeDone()
		for {
			_, bs, err := c.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					util.Debug("websocket read", "err", err)
				}
				return
			}
			if len(bs) == 0 {
				continue
			}
			util.Debug("heard", "msg", Short(string(bs), 70))

			req, err := ParseRequest("ws", bs)
			if err != nil {
				util.Warn("websocket bad request", "err", err)
				c.writeError(err)
				continue
			}

			select {
			case <-ctx.Done():
				return
			case c.in <- req:
			}
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case r := <-c.out:
				if r == nil {
					return
				}
				js, err := json.Marshal(r)
				if err != nil {
					util.Error("websocket marshal", "err", err)
					continue
				}
				if err = c.write(websocket.TextMessage, js); err != nil {
					util.Warn("websocket write", "err", err)
					return
				}
			}
		}
	}()

	return nil
}

func (c *WebSocket) writeError(err error) {
	js, _ := json.Marshal(map[string]interface{}{
		"error": map[string]string{
			"msg": err.Error(),
		},
	})
	if err := c.write(websocket.TextMessage, js); err != nil {
		util.Warn("websocket write", "err", err)
	}
}

func (c *WebSocket) write(typ int, bs []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteMessage(typ, bs)
}

func (c *WebSocket) closeDone() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// IO just returns the channels that Start() initialized.
func (c *WebSocket) IO(ctx context.Context) (chan *Request, chan *Response, chan bool, error) {
	if c.in == nil {
		return nil, nil, nil, errors.New("websocket not started")
	}
	return c.in, c.out, c.done, nil
}

// Read returns no World.
func (c *WebSocket) Read(ctx context.Context) (*world.World, error) {
	return nil, nil
}

// Stop terminates the WebSocket connection.
func (c *WebSocket) Stop(ctx context.Context) error {
	util.Debug("websocket disconnecting")
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.write(websocket.CloseMessage, msg); err != nil {
		util.Debug("websocket close", "err", err)
	}
	err := c.conn.Close()
	c.closeDone()
	return err
}
