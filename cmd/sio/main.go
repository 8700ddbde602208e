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


// Package main runs a single Session whose requests arrive over
// stdin, a WebSocket, or MQTT.
//
// Each request is source text (or a JSON object with a "source"),
// and each response reports the value, the output, and any error.
// The Session's World can be saved after each successful request.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/Comcast/sutra/crew"
	"github.com/Comcast/sutra/pipeline"
	"github.com/Comcast/sutra/sio"
	"github.com/Comcast/sutra/util"
)

func main() {

	var (
		coupling  = flag.String("io", "std", `IO protocol: "std", "mq", "ws", or "wsd"`)
		confFile  = flag.String("conf", "", "Optional YAML configuration file")
		storeKind = flag.String("store", "", `Optional world storage: "json" or "bolt"`)
		storePath = flag.String("store-path", "worlds", "Directory (json) or file (bolt) for world storage")
		worldName = flag.String("world", "default", "Name of the stored world")

		cronExpr   = flag.String("cron", "", "Optional cron expression for a recurring request")
		cronSource = flag.String("cron-source", "", "Source for the recurring request")

		wait      = flag.Duration("wait", time.Second, "Wait this long before shutting down couplings")
		haltOnEOF = flag.Bool("halt-on-eof", false, "Stop on input EOF")
		verbose   = flag.Bool("v", false, "Verbose")
		help      = flag.Bool("h", false, "Get usage")
	)

	flag.Parse()

	if *help {
		flag.PrintDefaults()

		{
			fmt.Fprintf(os.Stderr, "\n-io std (default):\n\n")
			_, fs := NewStdCouplings(nil)
			fs.PrintDefaults()
		}

		{
			fmt.Fprintf(os.Stderr, "\n-io mq:\n\n")
			_, fs := NewMQTTCouplings(nil)
			fs.PrintDefaults()
		}

		{
			fmt.Fprintf(os.Stderr, "\n-io ws:\n\n")
			_, fs := NewWebSocketCouplings(nil)
			fs.PrintDefaults()
		}

		{
			fmt.Fprintf(os.Stderr, "\n-io wsd:\n\n")
			_, fs := NewWebSocketServer(nil)
			fs.PrintDefaults()
		}

		os.Exit(0)
	}

	util.SetVerbose(*verbose)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt)
		<-sigs
		util.Info("interrupted")
		cancel()
	}()

	conf := pipeline.DefaultConf()
	if *confFile != "" {
		var err error
		if conf, err = pipeline.LoadConf(*confFile); err != nil {
			fatal(err)
		}
	}

	e, err := pipeline.Standard(ctx, conf)
	if err != nil {
		fatal(err)
	}
	defer e.Close()

	store, err := OpenStore(ctx, *storeKind, *storePath)
	if err != nil {
		fatal(err)
	}
	if store != nil {
		defer store.Close(context.Background())
	}

	if *coupling == "wsd" {
		srv, _ := NewWebSocketServer(flag.Args())
		srv.Crew = crew.NewCrew("wsd", e)
		srv.Store = store
		if err := srv.Serve(ctx); err != nil {
			fatal(err)
		}
		return
	}

	var cio sio.Couplings
	switch *coupling {
	case "std":
		c, _ := NewStdCouplings(flag.Args())
		cio = c
	case "mq", "mqtt":
		c, _ := NewMQTTCouplings(flag.Args())
		cio = c
	case "ws":
		c, _ := NewWebSocketCouplings(flag.Args())
		cio = c
	default:
		fatal(fmt.Errorf("unknown io: '%s'", *coupling))
	}

	if err := cio.Start(ctx); err != nil {
		fatal(err)
	}

	s, err := crew.NewSession(e, nil)
	if err != nil {
		fatal(err)
	}

	r, err := sio.NewRunner(ctx, s, cio, store, *worldName)
	if err != nil {
		fatal(err)
	}
	r.HaltOnInputEOF = *haltOnEOF

	if *cronExpr != "" {
		r.Timers = sio.NewTimers(nil)
		req := &sio.Request{
			Name:   "cron",
			Source: *cronSource,
		}
		if err := r.Timers.AddCron("cron", req, *cronExpr); err != nil {
			fatal(err)
		}
	}

	go func() {
		if std, is := cio.(*sio.Stdio); is && !*haltOnEOF {
			<-std.InputEOF
			util.Info("input EOF", "wait", *wait)
			time.Sleep(*wait)
			cancel()
		}
	}()

	if err := r.Loop(ctx); err != nil {
		fatal(err)
	}

	cancel()

	if err = cio.Stop(context.Background()); err != nil {
		util.Error("stop", "err", err)
	}
}

func fatal(err error) {
	util.Error("sio", "err", err)
	os.Exit(1)
}
