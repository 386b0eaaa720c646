package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "info", "text")
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Debug("hidden")
	logger.Info("shown", Operation("list_todos"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message should be filtered at info level, got %q", out)
	}
	if !strings.Contains(out, "operation=list_todos") {
		t.Errorf("expected operation attribute in output, got %q", out)
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "debug", "json")
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Debug("hello", RequestID("req-1"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry[KeyRequestID] != "req-1" {
		t.Errorf("request_id = %v, want req-1", entry[KeyRequestID])
	}
}

func TestNewLogger_Invalid(t *testing.T) {
	if _, err := NewLogger(&bytes.Buffer{}, "loud", "text"); err == nil {
		t.Error("expected error for invalid level")
	}
	if _, err := NewLogger(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if err != nil {
			t.Errorf("ParseLevel(%q) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestWithHelpers(t *testing.T) {
	logger := slog.Default()
	if WithOperation(logger, "op") == nil {
		t.Error("WithOperation returned nil")
	}
	if WithService(logger, "notion") == nil {
		t.Error("WithService returned nil")
	}
	if WithRequestID(logger, "abc") == nil {
		t.Error("WithRequestID returned nil")
	}
}

func TestAttrs(t *testing.T) {
	tests := []struct {
		attr slog.Attr
		key  string
		want string
	}{
		{Operation("list"), KeyOperation, "list"},
		{Service("supabase"), KeyService, "supabase"},
		{RequestID("r1"), KeyRequestID, "r1"},
		{Route("/todos"), KeyRoute, "/todos"},
		{Method("GET"), KeyMethod, "GET"},
		{Tool("todos_list"), KeyTool, "todos_list"},
		{Status(StatusSuccess), KeyStatus, StatusSuccess},
	}
	for _, tt := range tests {
		if tt.attr.Key != tt.key {
			t.Errorf("key = %q, want %q", tt.attr.Key, tt.key)
		}
		if tt.attr.Value.String() != tt.want {
			t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.want)
		}
	}

	if d := Duration(2 * time.Second); d.Key != KeyDuration {
		t.Errorf("Duration key = %q", d.Key)
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != KeyError || attr.Value.String() != "boom" {
		t.Errorf("Err() = %v", attr)
	}

	empty := Err(nil)
	if empty.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty", empty.Key)
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken(""); got != "<empty>" {
		t.Errorf("SanitizeToken(\"\") = %q", got)
	}
	got := SanitizeToken("secret_abcdef")
	if strings.Contains(got, "secret") {
		t.Errorf("SanitizeToken leaked token content: %q", got)
	}
	if got != "[token:13 chars]" {
		t.Errorf("SanitizeToken() = %q", got)
	}
}
