package shared

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  log.Level
	}{
		{name: "debug", input: "debug", want: log.DebugLevel},
		{name: "mixed case with spaces", input: "  WARN ", want: log.WarnLevel},
		{name: "unknown falls back to info", input: "verbose", want: log.InfoLevel},
		{name: "empty falls back to info", input: "", want: log.InfoLevel},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoggers(t *testing.T) {
	t.Run("NewLogger writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello", "key", "value")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output to contain message, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger writes to a rotated file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "moody.log")
		logger, closer := NewFileLogger(LogConfig{Level: "debug", File: path, MaxSizeMB: 1})
		logger.Debug("written", "n", 1)
		if err := closer.Close(); err != nil {
			t.Fatalf("failed to close log file: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "msg=written") {
			t.Errorf("expected logfmt entry, got %q", string(data))
		}
	})

	t.Run("NewFileLogger without a file", func(t *testing.T) {
		logger, closer := NewFileLogger(LogConfig{Level: "error"})
		if logger.GetLevel() != log.ErrorLevel {
			t.Errorf("expected error level, got %v", logger.GetLevel())
		}
		if err := closer.Close(); err != nil {
			t.Errorf("expected no-op close, got %v", err)
		}
	})
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}

	if got := ExpandPath("~/.moody/session.toml"); got != filepath.Join(home, ".moody/session.toml") {
		t.Errorf("unexpected expansion: %s", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute paths should be unchanged, got %s", got)
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected distinct ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string, got %s", a)
	}
}

func TestOpenBrowser(t *testing.T) {
	var got []string
	orig := startCommand
	startCommand = func(name string, args ...string) error {
		got = append([]string{name}, args...)
		return nil
	}
	t.Cleanup(func() { startCommand = orig })

	t.Run("launches the platform opener", func(t *testing.T) {
		if err := openBrowser("windows", "https://accounts.spotify.com/authorize?state=x"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"rundll32", "url.dll,FileProtocolHandler", "https://accounts.spotify.com/authorize?state=x"}
		if strings.Join(got, " ") != strings.Join(want, " ") {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("rejects non-web schemes", func(t *testing.T) {
		if err := openBrowser("linux", "file:///etc/passwd"); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("unknown platform", func(t *testing.T) {
		if err := openBrowser("plan9", "https://example.com"); !errors.Is(err, ErrNotImplemented) {
			t.Errorf("expected ErrNotImplemented, got %v", err)
		}
	})
}
