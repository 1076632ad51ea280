package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func lastNonEmptyLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return lines[i]
		}
	}
	return ""
}

func TestNew_IncludesStackAndServiceOnError(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "vk-messages-backup")
	log.Error().Stack().Err(errors.New("boom")).Msg("something failed")

	line := lastNonEmptyLine(buf.String())
	if line == "" {
		t.Fatalf("no output captured")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("invalid json log: %v\n%s", err, line)
	}
	if svc, ok := payload["service"].(string); !ok || svc != "vk-messages-backup" {
		t.Fatalf("expected service field, got %v", payload["service"])
	}
	if lvl, ok := payload["level"].(string); !ok || lvl != "error" {
		t.Fatalf("expected level=\"error\", got %v", payload["level"])
	}
	if _, ok := payload["stack"]; !ok {
		t.Fatalf("expected stack field in error log: %s", line)
	}
}

func TestNewConsole_PlainText(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsole(&buf)
	log.Info().Str("dir", "storage").Msg("saving messages to storage")

	out := buf.String()
	if !strings.Contains(out, "saving messages to storage") || !strings.Contains(out, "dir=storage") {
		t.Fatalf("unexpected console output: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("console output must not be colored: %q", out)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		quiet, debug bool
		want         zerolog.Level
	}{
		{false, false, zerolog.InfoLevel},
		{true, false, zerolog.WarnLevel},
		{false, true, zerolog.DebugLevel},
		{true, true, zerolog.DebugLevel},
	}
	for _, tc := range tests {
		if got := Level(tc.quiet, tc.debug); got != tc.want {
			t.Fatalf("Level(%v, %v) = %s, want %s", tc.quiet, tc.debug, got, tc.want)
		}
	}
}
