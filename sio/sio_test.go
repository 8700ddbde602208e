package sio

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/crew"
	"github.com/Comcast/sutra/pipeline"
	"github.com/Comcast/sutra/storage"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

func newSession(t *testing.T) *crew.Session {
	t.Helper()
	e, err := pipeline.Standard(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Close)
	s, err := crew.NewSession(e, world.NewSeeded(world.SeedFromString("sio")))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestParseRequest(t *testing.T) {
	r, err := ParseRequest("t", []byte(`(+ 1 2)`))
	if err != nil {
		t.Fatal(err)
	}
	if r.Name != "t" || r.Source != "(+ 1 2)" {
		t.Fatal(r)
	}

	r, err = ParseRequest("t", []byte(` {"source":"(get x)","replyTo":"here"}`))
	if err != nil {
		t.Fatal(err)
	}
	if r.Name != "t" || r.Source != "(get x)" || r.ReplyTo != "here" {
		t.Fatal(r)
	}

	if _, err = ParseRequest("t", []byte(`{"source":`)); err == nil {
		t.Fatal("expected an error")
	}
}

func TestParseTopic(t *testing.T) {
	for _, c := range []struct {
		in    string
		topic string
		qos   byte
	}{
		{"a/b", "a/b", 0},
		{"a/b:1", "a/b", 1},
		{"a/b:2", "a/b", 2},
		{"a/b:7", "a/b:7", 0},
		{"a:b", "a:b", 0},
	} {
		topic, qos := ParseTopic(c.in)
		if topic != c.topic || qos != c.qos {
			t.Fatalf("%s: %s %d", c.in, topic, qos)
		}
	}
}

func TestMQTTDestination(t *testing.T) {
	c := NewMQTT(mqtt.NewClientOptions(), "in", "results:1")
	topic, qos := c.Destination(&Response{Request: &Request{}})
	if topic != "results" || qos != 1 {
		t.Fatal(topic, qos)
	}
	topic, qos = c.Destination(&Response{Request: &Request{ReplyTo: "mine"}})
	if topic != "mine" || qos != 0 {
		t.Fatal(topic, qos)
	}
}

func runStdio(t *testing.T, s *crew.Session, store storage.Storage, input string) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	std := NewStdio(false)
	std.In = strings.NewReader(input)
	std.Out = &out

	if err := std.Start(ctx); err != nil {
		t.Fatal(err)
	}
	r, err := NewRunner(ctx, s, std, store, "w")
	if err != nil {
		t.Fatal(err)
	}
	r.HaltOnInputEOF = true
	if err = r.Loop(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	if err = std.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	return out.String()
}

func TestStdio(t *testing.T) {
	input := `(set! x 1)
;; Just a comment.

(print "x is"
  (get x))
{"name":"json","source":"(+ (get x) 1)"}
(/ 1 0)
quit
(set! x 100)
`
	got := runStdio(t, newSession(t), nil, input)
	want := []string{
		"value nil",
		"out x is 1",
		"value nil",
		"value 2",
	}
	lines := strings.Split(got, "\n")
	if len(lines) < len(want)+1 {
		t.Fatal(got)
	}
	for i, line := range want {
		if lines[i] != line {
			t.Fatalf("line %d: %q in\n%s", i, lines[i], got)
		}
	}
	if !strings.HasPrefix(lines[4], "error ") || !strings.Contains(lines[4], "division by zero") {
		t.Fatal(got)
	}
}

func TestStdioUnfinished(t *testing.T) {
	got := runStdio(t, newSession(t), nil, "(+ 1\n 2")
	if !strings.Contains(got, "error ") {
		t.Fatal(got)
	}
}

func TestStdioJSON(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	std := NewStdio(false)
	std.In = strings.NewReader("(list 1 2)\n")
	std.Out = &out
	std.JSON = true

	r, err := NewRunner(ctx, newSession(t), std, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	r.HaltOnInputEOF = true
	if err = r.Loop(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	std.Stop(ctx)

	var m map[string]interface{}
	if err := json.Unmarshal(out.Bytes(), &m); err != nil {
		t.Fatal(out.String())
	}
	if xs, is := m["value"].([]interface{}); !is || len(xs) != 2 {
		t.Fatal(out.String())
	}
}

func TestRunnerStore(t *testing.T) {
	store := storage.NewMemory()
	runStdio(t, newSession(t), store, "(set! n 41)\n(inc! n)\n(/ 1 0)\n")

	w, err := store.Load(context.Background(), "w")
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := w.Get(core.Path{"n"}); !value.Equal(got, value.Num(42)) {
		t.Fatal(got)
	}

	// A new session picks up where the last one left off.
	got := runStdio(t, newSession(t), store, "(get n)\n")
	if !strings.Contains(got, "value 42") {
		t.Fatal(got)
	}
}

func TestTimers(t *testing.T) {
	var (
		mu  sync.Mutex
		got []string
	)
	ts := NewTimers(func(ctx context.Context, r *Request) {
		mu.Lock()
		got = append(got, r.Source)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ts.Add("a", &Request{Source: "a"}, 10*time.Millisecond)
	ts.Add("b", &Request{Source: "b"}, time.Hour)
	if err := ts.Start(ctx); err != nil {
		t.Fatal(err)
	}
	ts.Add("c", &Request{Source: "c"}, 20*time.Millisecond)

	if err := ts.Cancel("b"); err != nil {
		t.Fatal(err)
	}
	if err := ts.Cancel("b"); err == nil {
		t.Fatal("expected an error")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal(got)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got[0] != "a" || got[1] != "c" {
		t.Fatal(got)
	}
	if p := ts.Pending(); len(p) != 0 {
		t.Fatal(p)
	}

	if err := ts.AddCron("bad", &Request{}, "nope"); err == nil {
		t.Fatal("expected an error")
	}
	if err := ts.AddCron("hourly", &Request{}, "0 * * * *"); err != nil {
		t.Fatal(err)
	}
	if p := ts.Pending(); len(p) != 1 || p[0] != "hourly" {
		t.Fatal(p)
	}
}

func TestWebSocket(t *testing.T) {
	s := newSession(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := Accept(w, r)
		if err != nil {
			t.Error(err)
			return
		}
		if err = c.Start(ctx); err != nil {
			t.Error(err)
			return
		}
		runner, err := NewRunner(ctx, s, c, nil, "")
		if err != nil {
			t.Error(err)
			return
		}
		runner.HaltOnInputEOF = true
		runner.Loop(ctx)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	for _, c := range []struct {
		in   string
		want interface{}
	}{
		{`(set! x 20)`, nil},
		{`{"source":"(+ (get x) 22)"}`, 42.0},
	} {
		if err = conn.WriteMessage(websocket.TextMessage, []byte(c.in)); err != nil {
			t.Fatal(err)
		}
		_, bs, err := conn.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		var m map[string]interface{}
		if err = json.Unmarshal(bs, &m); err != nil {
			t.Fatal(err)
		}
		if m["value"] != c.want {
			t.Fatalf("%s: %s", c.in, bs)
		}
		if m["session"] != s.Id {
			t.Fatal(string(bs))
		}
	}

	if err = conn.WriteMessage(websocket.TextMessage, []byte(`(nope)`)); err != nil {
		t.Fatal(err)
	}
	_, bs, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(bs), `"unknown-atom"`) {
		t.Fatal(string(bs))
	}
}
