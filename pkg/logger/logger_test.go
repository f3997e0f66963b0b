package logx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		conf Config
		want zerolog.Level
	}{
		{"default info", Config{}, zerolog.InfoLevel},
		{"debug flag", Config{Debug: true}, zerolog.DebugLevel},
		{"level wins", Config{Debug: true, Level: "WARN"}, zerolog.WarnLevel},
		{"bad level falls back", Config{Level: "loud"}, zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := New(&bytes.Buffer{}, tt.conf).GetLevel(); got != tt.want {
			t.Fatalf("%s: level = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNewWritesServiceField(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, Config{Service: "orchestrator-test"})
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level: %s", out)
	}
	if !strings.Contains(out, `"service":"orchestrator-test"`) || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output: %s", out)
	}
}
