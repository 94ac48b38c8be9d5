package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

type blockingSink struct {
	release chan struct{}
	mu      sync.Mutex
	events  []Event
}

func (s *blockingSink) Emit(_ context.Context, e Event) {
	<-s.release
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *blockingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{EventType: "x"})
	d.Close()
	if d.Dropped() != 0 || d.Delivered() != 0 {
		t.Fatal("nil dispatcher must report zero counters")
	}
}

func TestDispatcherDeliversToChannelSink(t *testing.T) {
	sink := NewChannelSink(4)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4, DropIfFull: true}, sink)
	defer d.Close()

	d.Emit(context.Background(), Event{EventType: "login_success", UserID: "u1", Success: true})

	select {
	case e := <-sink.Events():
		if e.EventType != "login_success" || e.UserID != "u1" {
			t.Fatalf("unexpected event %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected event delivery")
	}
}

func TestDropIfFullCountsDrops(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// One event may sit in the sink, one in the queue; the rest drop.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: "revalidate_transient"})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a blocked sink and a full queue")
	}

	close(sink.release)
	d.Close()
	if got := uint64(sink.count()); got+d.Dropped() != 10 {
		t.Fatalf("expected delivered+dropped = 10, got %d+%d", got, d.Dropped())
	}
}

func TestCloseDrainsQueue(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	close(sink.release)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16}, sink)
	for i := 0; i < 8; i++ {
		d.Emit(context.Background(), Event{EventType: "logout"})
	}
	d.Close()
	if sink.count() != 8 || d.Delivered() != 8 {
		t.Fatalf("expected 8 delivered after Close, got %d", sink.count())
	}
	d.Emit(context.Background(), Event{EventType: "late"})
	if sink.count() != 8 {
		t.Fatal("events after Close must be ignored")
	}
}

func TestBlockingEmitHonoursContext(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)
	defer func() {
		close(sink.release)
		d.Close()
	}()

	d.Emit(context.Background(), Event{EventType: "a"})
	d.Emit(context.Background(), Event{EventType: "b"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		d.Emit(ctx, Event{EventType: "c"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected Emit to return once ctx expired")
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{EventType: "set_auth", Success: true})
	sink.Emit(context.Background(), Event{EventType: "logout", Success: true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	var e Event
	if err := json.Unmarshal([]byte(lines[0]), &e); err != nil || e.EventType != "set_auth" {
		t.Fatalf("unexpected first line %q (%v)", lines[0], err)
	}
}

func TestSlogSinkWritesAttributes(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSlogSink(slog.New(slog.NewJSONHandler(&buf, nil)), slog.LevelInfo)
	sink.Emit(context.Background(), Event{
		EventType: "payment_confirm_failed",
		Kind:      "validation",
		Error:     "card_declined",
		Metadata:  map[string]string{"flow_state": "failed"},
	})
	out := buf.String()
	for _, want := range []string{`"event_type":"payment_confirm_failed"`, `"kind":"validation"`, `"flow_state":"failed"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}
