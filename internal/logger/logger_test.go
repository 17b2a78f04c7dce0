package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWriteKeepsFieldsAndLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Use(zap.New(core))
	defer Use(zap.NewNop())

	Warn("sort_invalid", map[string]any{"value": "bogus", "error": errors.New("unknown field")})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.WarnLevel || e.Message != "sort_invalid" {
		t.Fatalf("unexpected entry: %+v", e.Entry)
	}
	ctx := e.ContextMap()
	if ctx["value"] != "bogus" {
		t.Fatalf("unexpected value field: %#v", ctx["value"])
	}
	if ctx["error"] != "unknown field" {
		t.Fatalf("unexpected error field: %#v", ctx["error"])
	}
}

func TestDebugRespectsLevel(t *testing.T) {
	core, logs := observer.New(level)
	Use(zap.New(core))
	defer Use(zap.NewNop())

	SetDebug(false)
	Debug("hidden", nil)
	if logs.Len() != 0 {
		t.Fatalf("debug entry written while debug disabled")
	}

	SetDebug(true)
	defer SetDebug(false)
	Debug("shown", nil)
	if logs.Len() != 1 {
		t.Fatalf("expected debug entry once enabled, got %d", logs.Len())
	}
}
