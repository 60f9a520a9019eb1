package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextAddsIdentifiers(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := FromZap(zap.New(core))

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, TenantIDKey, "tenant-1")

	log.WithContext(ctx).Info("customer deleted", "sites", 2)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-1" {
		t.Fatalf("expected request_id field, got %v", fields["request_id"])
	}
	if fields["tenant_id"] != "tenant-1" {
		t.Fatalf("expected tenant_id field, got %v", fields["tenant_id"])
	}
	if fields["sites"] != int64(2) {
		t.Fatalf("expected sites=2, got %v", fields["sites"])
	}
}

func TestWithContextWithoutValuesReturnsSameLogger(t *testing.T) {
	log := NewNop()
	if log.WithContext(context.Background()) != log {
		t.Fatal("expected the same logger when context carries no identifiers")
	}
}
