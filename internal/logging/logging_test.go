package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spadesx/spadesx/pkg/pluginapi"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"", zapcore.InfoLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Config{Level: "info", Format: "xml"}); err == nil {
		t.Error("New() with format xml should fail")
	}
}

func TestPluginLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewPluginLogger(zap.New(core), "babel")

	l.Info("player connected", "name", "deuce")
	l.Fatal("map missing")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	first := entries[0]
	if first.Message != "player connected" {
		t.Errorf("Message = %q", first.Message)
	}
	fields := first.ContextMap()
	if fields["plugin"] != "babel" {
		t.Errorf("plugin field = %v, want babel", fields["plugin"])
	}
	if fields["name"] != "deuce" {
		t.Errorf("name field = %v, want deuce", fields["name"])
	}

	fatal := entries[1]
	if fatal.Level != zapcore.ErrorLevel {
		t.Errorf("fatal level = %v, want error", fatal.Level)
	}
	if fatal.ContextMap()["severity"] != "fatal" {
		t.Error("fatal message missing severity field")
	}
}

func TestPluginLoggerClosed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewPluginLogger(zap.New(core), "babel")

	l.Close()
	l.Log(pluginapi.LogError, "after close")

	if logs.Len() != 0 {
		t.Errorf("closed logger wrote %d entries", logs.Len())
	}
}
