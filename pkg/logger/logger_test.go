package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextFieldsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := Wrap(zap.New(core))

	ctx := context.WithValue(context.Background(), RequestIdKey, "req-42")
	ctx = WithUserID(ctx, "user-7")
	l.InfoCtx(ctx, "hello")

	if got := RequestIDFromContext(ctx); got != "req-42" {
		t.Fatalf("RequestIDFromContext = %q", got)
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d; want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-42" || fields["user_id"] != "user-7" {
		t.Fatalf("fields = %v", fields)
	}
}

func TestNoRequestIDWithoutMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Wrap(zap.New(core)).ErrorCtx(context.Background(), "boom")

	if _, ok := logs.All()[0].ContextMap()["request_id"]; ok {
		t.Fatal("request_id logged for a context without one")
	}
	if RequestIDFromContext(context.Background()) != "" {
		t.Fatal("expected empty request id")
	}
}
