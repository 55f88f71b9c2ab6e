package goGuard

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goGuard/rules"
)

func auditEngine(t *testing.T, sink AuditSink, mutate func(*Builder)) *Engine {
	t.Helper()

	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 64
	e, _ := newTestEngine(t, func(b *Builder) {
		b.WithConfig(cfg).WithAuditSink(sink)
		if mutate != nil {
			mutate(b)
		}
	})
	return e
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

func TestAuditLoginEvents(t *testing.T) {
	sink := NewChannelSink(16)
	e := auditEngine(t, sink, nil)

	ctx := WithRequestID(WithClientIP(context.Background(), "192.0.2.7"), "req-1")
	if _, err := e.Login(ctx, Credentials{Username: "linda", Password: "password"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	ev := nextEvent(t, sink)
	if ev.EventType != auditEventLoginSuccess || !ev.Success || ev.Username != "linda" {
		t.Fatalf("unexpected success event %+v", ev)
	}
	if ev.IP != "192.0.2.7" || ev.RequestID != "req-1" {
		t.Fatalf("request metadata missing: %+v", ev)
	}
	if ev.Metadata["expires_at"] == "" {
		t.Fatalf("expected expires_at metadata")
	}

	_, _ = e.Login(ctx, Credentials{Username: "ghost", Password: "password"})
	ev = nextEvent(t, sink)
	if ev.EventType != auditEventLoginFailure || ev.Success {
		t.Fatalf("unexpected failure event %+v", ev)
	}
	if ev.Error != string(auditErrInvalidCredentials) {
		t.Fatalf("failure must be recorded as invalid credentials, got %q", ev.Error)
	}
}

func TestAuditTokenRejected(t *testing.T) {
	sink := NewChannelSink(16)
	e := auditEngine(t, sink, nil)

	_, _ = e.Verify(context.Background(), "a.b.c")
	ev := nextEvent(t, sink)
	if ev.EventType != auditEventTokenRejected {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Metadata["reason"] != "invalid_signature" {
		t.Fatalf("expected signature reason, got %q", ev.Metadata["reason"])
	}
}

func TestAuditAccessDenied(t *testing.T) {
	sink := NewChannelSink(16)
	e := auditEngine(t, sink, func(b *Builder) {
		b.WithRules(rules.Rule{Method: "DELETE", Pattern: "/students/**", Requirement: rules.HasRole("ADMIN")})
	})

	p := NewPrincipal("tom", []string{"ROLE_ADMINTRAINEE"})
	d := e.Authorize(context.Background(), "DELETE", "/students/3", Authenticated(p))
	if d.Allowed {
		t.Fatalf("expected denial")
	}

	ev := nextEvent(t, sink)
	if ev.EventType != auditEventAccessDenied || ev.Username != "tom" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Method != "DELETE" || ev.Path != "/students/3" {
		t.Fatalf("route missing from event %+v", ev)
	}
	if ev.Metadata["rule"] != "0" || ev.Metadata["requirement"] != "hasRole(ROLE_ADMIN)" {
		t.Fatalf("unexpected metadata %v", ev.Metadata)
	}
}

func TestAuditDisabledEmitsNothing(t *testing.T) {
	sink := NewChannelSink(4)
	e, _ := newTestEngine(t, func(b *Builder) { b.WithAuditSink(sink) })

	_, _ = e.Login(context.Background(), Credentials{Username: "ghost", Password: "x"})
	select {
	case ev := <-sink.Events():
		t.Fatalf("unexpected event with audit disabled: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
	if e.AuditDropped() != 0 {
		t.Fatalf("expected no drops")
	}
}

func TestAuditErrorCode(t *testing.T) {
	if got := auditErrorCode(nil); got != "" {
		t.Fatalf("expected empty code, got %q", got)
	}
	if got := auditErrorCode(ErrLoginRateLimited); got != auditErrRateLimited {
		t.Fatalf("unexpected code %q", got)
	}
	if got := auditErrorCode(ErrRateLimiterUnavailable); got != auditErrUnavailable {
		t.Fatalf("unexpected code %q", got)
	}
}

func TestAuditTimestampsUseEngineClock(t *testing.T) {
	sink := NewChannelSink(4)
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 4
	e, clock := newTestEngine(t, func(b *Builder) { b.WithConfig(cfg).WithAuditSink(sink) })

	clock.Advance(90 * time.Second)
	_, _ = e.Verify(context.Background(), "a.b.c")
	ev := nextEvent(t, sink)
	if !ev.Timestamp.Equal(clock.Now()) {
		t.Fatalf("expected timestamp %v, got %v", clock.Now(), ev.Timestamp)
	}
}

type blockingAuditSink struct {
	gate chan struct{}
}

func (s *blockingAuditSink) Emit(context.Context, AuditEvent) { <-s.gate }

func TestCloseLogsDroppedAuditEvents(t *testing.T) {
	var logs bytes.Buffer
	sink := &blockingAuditSink{gate: make(chan struct{})}
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 1
	cfg.Audit.DropIfFull = true
	e, _ := newTestEngine(t, func(b *Builder) {
		b.WithConfig(cfg).
			WithAuditSink(sink).
			WithLogger(slog.New(slog.NewTextHandler(&logs, nil)))
	})

	for i := 0; i < 5; i++ {
		_, _ = e.Verify(context.Background(), "a.b.c")
	}
	if e.AuditDropped() < 3 {
		t.Fatalf("expected at least 3 drops, got %d", e.AuditDropped())
	}

	close(sink.gate)
	e.Close()
	if !strings.Contains(logs.String(), "audit events dropped") || !strings.Contains(logs.String(), "token_rejected=") {
		t.Fatalf("expected drop summary in logs, got %q", logs.String())
	}
}
