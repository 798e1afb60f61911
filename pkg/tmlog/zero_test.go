package tmlog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewZeroLogger_ConsoleByDefault(t *testing.T) {
	var buf bytes.Buffer

	logger := NewZeroLogger("")
	l := logger.Output(&buf)
	l.Info().Msg("test message")

	out := buf.String()
	if !strings.Contains(out, "test message") {
		t.Fatalf("expected output to contain message, got: %s", out)
	}
}

func TestUpdateZeroLogLevel(t *testing.T) {
	defer func() {
		_ = UpdateZeroLogLevel("info")
	}()

	if err := UpdateZeroLogLevel("error"); err != nil {
		t.Fatal(err)
	}
	if Zero.GetLevel() != zerolog.ErrorLevel {
		t.Fatalf("expected error level, got: %v", Zero.GetLevel())
	}

	if err := UpdateZeroLogLevel("unknown"); err != nil {
		t.Fatal(err)
	}
	if Zero.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected fallback to info level, got: %v", Zero.GetLevel())
	}
}
