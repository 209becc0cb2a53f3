package logger

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerWritesEventField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewWithCore(core)

	log.WarnObj("invalid url skipped", "invalid_url", map[string]any{"url": "ftp://x"})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["event"] != "invalid_url" {
		t.Errorf("event field = %v", ctx["event"])
	}
	if ctx["url"] != "ftp://x" {
		t.Errorf("url field = %v", ctx["url"])
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("level = %v", entries[0].Level)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(Config{Level: "verbose"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "digest.log")
	log, err := New(Config{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.InfoObj("hello", "test", nil)
	if err := log.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}

func TestEnsure(t *testing.T) {
	if _, ok := Ensure(nil).(NopLogger); !ok {
		t.Fatal("Ensure(nil) should return NopLogger")
	}
}
