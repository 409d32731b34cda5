package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	log := New()
	if log.GetLevel() != zerolog.InfoLevel {
		t.Errorf("Expected info level, got %s", log.GetLevel())
	}
}

func TestNewWithOptions(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantLevel zerolog.Level
		wantJSON  bool
	}{
		{"defaults", Options{}, zerolog.InfoLevel, false},
		{"debug json", Options{Level: "DEBUG", Format: "json"}, zerolog.DebugLevel, true},
		{"warn console", Options{Level: "warn", Format: "console"}, zerolog.WarnLevel, false},
		{"unknown level", Options{Level: "chatty"}, zerolog.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			log := NewWithOptions(buf, tt.opts)
			if log.GetLevel() != tt.wantLevel {
				t.Errorf("Expected level %s, got %s", tt.wantLevel, log.GetLevel())
			}

			log.Error().Msg("scan failed")
			output := buf.String()
			if !strings.Contains(output, "scan failed") {
				t.Errorf("Expected output to contain message, got: %s", output)
			}
			if got := strings.HasPrefix(output, "{"); got != tt.wantJSON {
				t.Errorf("Expected JSON output %v, got: %s", tt.wantJSON, output)
			}
		})
	}
}

func TestNewWithOptions_FiltersBelowLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithOptions(buf, Options{Level: "warn", Format: "json"})

	log.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected info message to be filtered, got: %s", buf.String())
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("test message")

	if !strings.Contains(buf.String(), "test message") {
		t.Errorf("Expected output to contain 'test message', got: %s", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	l := FromContext(ctx)
	l.Info().Msg("test")

	if buf.Len() == 0 {
		t.Error("Expected log output from retrieved logger")
	}
}

func TestFromContext_DefaultLogger(t *testing.T) {
	log := FromContext(context.Background())
	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected default logger to be enabled")
	}
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithFields(NewWithWriter(buf), map[string]interface{}{
		"job_id":  "123",
		"horizon": 30,
	})
	log.Info().Msg("test message")

	output := buf.String()
	if !strings.Contains(output, `"job_id":"123"`) || !strings.Contains(output, `"horizon":30`) {
		t.Errorf("Expected output to contain fields, got: %s", output)
	}
}
