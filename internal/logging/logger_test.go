package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_DefaultsToWarn(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Config{Format: "json"})

	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info message should be filtered at default level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("expected warn message in output: %q", out)
	}
}

func TestNew_VerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Config{Level: "error", Verbose: true, Format: "json"})

	l.Debug().Msg("trace")
	if !strings.Contains(buf.String(), "trace") {
		t.Fatalf("expected debug output with verbose, got %q", buf.String())
	}
}

func TestNew_InvalidLevelFallsBack(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Config{Level: "loud", Format: "json"})

	l.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output for info at fallback level, got %q", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := WithComponent(New(&buf, Config{Format: "json"}), "resolver")
	l.Warn().Msg("x")
	if !strings.Contains(buf.String(), `"component":"resolver"`) {
		t.Fatalf("expected component field, got %q", buf.String())
	}
}
