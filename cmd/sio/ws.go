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


package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/Comcast/sutra/crew"
	"github.com/Comcast/sutra/sio"
	"github.com/Comcast/sutra/storage"
	"github.com/Comcast/sutra/util"
)

func NewWebSocketCouplings(args []string) (*sio.WebSocket, *flag.FlagSet) {
	c := sio.NewWebSocket("")
	fs := flag.NewFlagSet("ws", flag.ExitOnError)
	fs.StringVar(&c.URL, "url", "ws://localhost:8080/ws", "Target URL for WebSocket server")
	if args == nil {
		return nil, fs
	}
	fs.Parse(args)
	return c, fs
}

// WebSocketServer accepts WebSocket connections and gives each its
// own Session in a Crew.
//
// A connection to /ws?world=NAME starts with the stored World of that
// name (if any) and saves its World under that name.
type WebSocketServer struct {
	Addr  string
	Crew  *crew.Crew
	Store storage.Storage
}

func NewWebSocketServer(args []string) (*WebSocketServer, *flag.FlagSet) {
	s := &WebSocketServer{}
	fs := flag.NewFlagSet("wsd", flag.ExitOnError)
	fs.StringVar(&s.Addr, "addr", "localhost:8080", "Port (host:port) for the HTTP service")
	if args == nil {
		return nil, fs
	}
	fs.Parse(args)
	return s, fs
}

// Handler returns the HTTP handler for the service.
func (s *WebSocketServer) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "\"pong\"\n")
	})

	mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		js, err := json.Marshal(s.Crew.Ids())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "%s\n", js)
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if err := s.serveConn(ctx, w, r); err != nil {
			util.Warn("websocket session", "err", err)
		}
	})

	return mux
}

func (s *WebSocketServer) serveConn(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	c, err := sio.Accept(w, r)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err = c.Start(ctx); err != nil {
		return err
	}
	defer c.Stop(context.Background())

	sess, err := s.Crew.Open(nil)
	if err != nil {
		return err
	}
	defer s.Crew.Remove(sess.Id)

	var store storage.Storage
	name := r.FormValue("world")
	if name != "" {
		store = s.Store
	}

	runner, err := sio.NewRunner(ctx, sess, c, store, name)
	if err != nil {
		return err
	}
	runner.HaltOnInputEOF = true

	util.Info("websocket session", "id", sess.Id, "world", name)
	return runner.Loop(ctx)
}

// Serve runs the HTTP service until the context is done.
func (s *WebSocketServer) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:           s.Addr,
		Handler:        s.Handler(ctx),
		ReadTimeout:    10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	util.Info("starting HTTP service", "addr", s.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
