package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSinkWritesToNamedFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSink(dir, "Moderation", "info")
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	s.Info("hello from moderation")
	s.Debug("hidden at info level")
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "Moderation.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello from moderation") {
		t.Fatalf("expected message in log file, got %q", data)
	}
	if strings.Contains(string(data), "hidden at info level") {
		t.Fatal("debug line must be filtered at info level")
	}
}

func TestAttachConsoleRaisesVerbosity(t *testing.T) {
	s, err := NewSink(t.TempDir(), "Example", "warn")
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	defer s.Close()

	var buf bytes.Buffer
	s.attach(&buf)
	s.attach(os.Stderr) // second attach is a no-op

	s.Debug("now visible")
	if !s.ConsoleAttached() {
		t.Fatal("expected console attached")
	}
	if s.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", s.GetLevel())
	}
	if !strings.Contains(buf.String(), "now visible") {
		t.Fatalf("expected console output, got %q", buf.String())
	}
}

func TestNewSinkRejectsBadLevel(t *testing.T) {
	if _, err := NewSink(t.TempDir(), "x", "loud"); err == nil {
		t.Fatal("expected error")
	}
}
