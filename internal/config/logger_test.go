package config

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"DEBUG":   zapcore.DebugLevel,
		" warn ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"Error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}

	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(LogConfig{Level: "info", Format: "json"}, zapcore.AddSync(&buf))

	logger.Debug("hidden")
	logger.Info("merge done", zap.Int("returned", 3))
	_ = logger.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1 (debug filtered): %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if entry["service"] != serviceName {
		t.Errorf("service = %v, want %q", entry["service"], serviceName)
	}
	if entry["msg"] != "merge done" || entry["returned"] != float64(3) {
		t.Errorf("unexpected entry %v", entry)
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Errorf("entry has no timestamp key: %v", entry)
	}
	if _, ok := entry["caller"]; !ok {
		t.Errorf("entry has no caller key: %v", entry)
	}
}

func TestNewLogger_Console(t *testing.T) {
	for _, cfg := range []LogConfig{
		{Level: "info", Format: "console"},
		{Level: "debug", Format: "json"},
	} {
		var buf bytes.Buffer
		logger := newLogger(cfg, zapcore.AddSync(&buf))
		logger.Info("hello")
		_ = logger.Sync()

		out := buf.String()
		if json.Valid([]byte(strings.TrimSpace(out))) {
			t.Errorf("cfg %+v: expected console output, got JSON %q", cfg, out)
		}
		if !strings.Contains(out, "hello") || !strings.Contains(out, serviceName) {
			t.Errorf("cfg %+v: output %q misses message or service", cfg, out)
		}
	}
}

func TestNewLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(LogConfig{Level: "error"}, zapcore.AddSync(&buf))

	logger.Warn("skipped")
	logger.Error("kept")
	_ = logger.Sync()

	if strings.Contains(buf.String(), "skipped") {
		t.Errorf("warn written at error level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("error not written: %q", buf.String())
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "info"})
	if err != nil || logger == nil {
		t.Fatalf("NewLogger() = %v, %v", logger, err)
	}
}
