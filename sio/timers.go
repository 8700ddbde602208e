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
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/Comcast/sutra/util"
)

// TimerEntry represents a pending timer.
type TimerEntry struct {
	Id      string    `json:"id"`
	Request *Request  `json:"request"`
	At      time.Time `json:"at"`

	// Cron, if not empty, is a cron expression that reschedules
	// the entry after it fires.
	Cron string `json:"cron,omitempty"`

	ctl    chan bool
	timers *Timers
}

// Timers represents pending timers, each of which will emit a
// Request later.
type Timers struct {
	Map     map[string]*TimerEntry
	Emitter func(context.Context, *Request) `json:"-"`

	sync.Mutex

	started bool
	ctx     context.Context
}

// NewTimers creates a Timers with the given function that the
// TimerEntries will use to emit their Requests.
func NewTimers(emitter func(context.Context, *Request)) *Timers {
	return &Timers{
		Map:     make(map[string]*TimerEntry, 8),
		Emitter: emitter,
	}
}

// Start starts all known timers.  Timers added before Start wait for
// it.
func (ts *Timers) Start(ctx context.Context) error {
	util.Debug("Timers.Start")
	ts.Lock()
	defer ts.Unlock()
	ts.started = true
	ts.ctx = ctx
	for _, t := range ts.Map {
		go t.run(ctx)
	}
	return nil
}

func (ts *Timers) add(e *TimerEntry) {
	if old, have := ts.Map[e.Id]; have {
		close(old.ctl)
	}
	e.timers = ts
	e.ctl = make(chan bool)
	ts.Map[e.Id] = e
	if ts.started {
		go e.run(ts.ctx)
	}
}

// Add creates a new timer that will emit the given Request later (if
// the timer isn't cancelled first).  An existing timer with the same
// id is replaced.
func (ts *Timers) Add(id string, req *Request, d time.Duration) {
	util.Debug("Timers.Add", "id", id, "in", d)
	ts.Lock()
	ts.add(&TimerEntry{
		Id:      id,
		At:      time.Now().UTC().Add(d),
		Request: req,
	})
	ts.Unlock()
}

// AddCron creates a timer that emits the Request at every time the
// cron expression describes.
func (ts *Timers) AddCron(id string, req *Request, expr string) error {
	at, err := nextCron(expr, time.Now())
	if err != nil {
		return err
	}
	util.Debug("Timers.AddCron", "id", id, "cron", expr, "at", at)
	ts.Lock()
	ts.add(&TimerEntry{
		Id:      id,
		At:      at,
		Request: req,
		Cron:    expr,
	})
	ts.Unlock()
	return nil
}

func nextCron(expr string, from time.Time) (time.Time, error) {
	c, err := cronexpr.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad cron expression %q: %s", expr, err)
	}
	at := c.Next(from)
	if at.IsZero() {
		return at, fmt.Errorf("cron expression %q never fires", expr)
	}
	return at.UTC(), nil
}

// run waits until the appointed time and then emits the entry's
// Request if the TimerEntry isn't cancelled first.
func (te *TimerEntry) run(ctx context.Context) {
	for {
		t := time.NewTimer(time.Until(te.At))
		select {
		case <-t.C:
		case <-te.ctl:
			util.Debug("canceling timer", "id", te.Id)
			t.Stop()
			return
		case <-ctx.Done():
			t.Stop()
			return
		}

		util.Debug("firing timer", "id", te.Id)
		te.timers.Emitter(ctx, te.Request)

		ts := te.timers
		ts.Lock()
		if te.Cron != "" {
			at, err := nextCron(te.Cron, time.Now())
			if err == nil {
				te.At = at
				ts.Unlock()
				continue
			}
			util.Warn("timer cron", "id", te.Id, "err", err)
		}
		if ts.Map[te.Id] == te {
			delete(ts.Map, te.Id)
		}
		ts.Unlock()
		return
	}
}

// Cancel attempts to cancel the timer with the given id.
func (ts *Timers) Cancel(id string) error {
	ts.Lock()
	defer ts.Unlock()
	t, have := ts.Map[id]
	if !have {
		return fmt.Errorf("timer '%s' doesn't exist", id)
	}
	delete(ts.Map, id)
	close(t.ctl)
	return nil
}

// Pending returns the ids of the pending timers.
func (ts *Timers) Pending() []string {
	ts.Lock()
	acc := make([]string, 0, len(ts.Map))
	for id := range ts.Map {
		acc = append(acc, id)
	}
	ts.Unlock()
	sort.Strings(acc)
	return acc
}
