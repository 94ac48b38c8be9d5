package goSession

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Unicash-organization/goSession/processor"
)

func auditedEngine(t *testing.T, sink AuditSink) *testEngine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 64
	cfg.Audit.DropIfFull = false
	return newTestEngine(t, func(b *Builder) {
		b.WithConfig(cfg).WithAuditSink(sink).WithMetricsEnabled(true)
	})
}

func nextEvent(t *testing.T, sink *ChannelSink) AuditEvent {
	t.Helper()
	select {
	case ev := <-sink.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for audit event")
		return AuditEvent{}
	}
}

func TestAuditLoginCarriesRequestID(t *testing.T) {
	sink := NewChannelSink(16)
	te := auditedEngine(t, sink)

	ctx := WithRequestID(context.Background(), "req-42")
	if _, err := te.Login(ctx, "a@b.com", "correct"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	ev := nextEvent(t, sink)
	if ev.EventType != AuditLoginSuccess || !ev.Success {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.UserID != "u1" || ev.RequestID != "req-42" {
		t.Fatalf("expected u1/req-42, got %q/%q", ev.UserID, ev.RequestID)
	}
}

func TestAuditFailureCodes(t *testing.T) {
	sink := NewChannelSink(16)
	te := auditedEngine(t, sink)
	ctx := context.Background()

	if _, err := te.Login(ctx, "a@b.com", "correct"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	nextEvent(t, sink)

	te.processor.err = &processor.Error{Type: processor.TypeCardError, Code: "card_declined", DeclineCode: "insufficient_funds"}
	flow := te.NewPaymentFlow()
	if err := flow.Open(ctx); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if ev := nextEvent(t, sink); ev.EventType != AuditPaymentSetupOpened {
		t.Fatalf("expected setup opened, got %+v", ev)
	}
	if _, err := flow.Confirm(ctx, testCard()); err == nil {
		t.Fatalf("expected confirm failure")
	}

	ev := nextEvent(t, sink)
	if ev.EventType != AuditPaymentConfirmFailed || ev.Success {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Error != "insufficient_funds" || ev.Kind != "validation" {
		t.Fatalf("expected insufficient_funds/validation, got %q/%q", ev.Error, ev.Kind)
	}
	if ev.RequestID == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestAuditJSONSinkNeverLeaksCard(t *testing.T) {
	var buf bytes.Buffer
	te := auditedEngine(t, NewJSONWriterSink(&buf))
	ctx := context.Background()

	if _, err := te.Login(ctx, "a@b.com", "correct"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	flow := te.NewPaymentFlow()
	if err := flow.Open(ctx); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := flow.Submit(ctx, testCard()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	te.Close()

	out := buf.String()
	if strings.Contains(out, "4242424242424242") || strings.Contains(out, "seti_1_secret_x") {
		t.Fatalf("audit output leaked instrument data: %s", out)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 4 {
		t.Fatalf("expected at least 4 events, got %d", len(lines))
	}
	var last AuditEvent
	for _, line := range lines {
		if err := json.Unmarshal([]byte(line), &last); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
	}
	if last.EventType != AuditRevalidateSuccess {
		t.Fatalf("expected post-completion revalidation last, got %q", last.EventType)
	}
}

func TestAuditDisabledByDefault(t *testing.T) {
	te := newTestEngine(t, nil)
	if te.audit != nil {
		t.Fatalf("expected no dispatcher by default")
	}
	if te.AuditDropped() != 0 {
		t.Fatalf("expected no drops")
	}
}
