// Package logging creates one named log sink per module. Each sink writes to
// <dir>/<name>.log and stays silent on the console until AttachConsole is
// called (dev mode, or a module failing before logging is configured).
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

// Sink is a module's logger plus the file behind it.
type Sink struct {
	*logrus.Logger

	name    string
	file    *os.File
	mu      sync.Mutex
	console bool
}

// NewSink opens (appending) <dir>/<name>.log and returns a logger writing to it
// at the given level.
func NewSink(dir, name, level string) (*Sink, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, name+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(lvl)
	l.AddHook(lfshook.NewHook(f, &logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	}))

	return &Sink{Logger: l, name: name, file: f}, nil
}

// Discard returns a sink that writes nowhere. Used by tests and tools that
// do not want log files.
func Discard(name string) *Sink {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Sink{Logger: l, name: name}
}

// Name returns the sink name.
func (s *Sink) Name() string { return s.name }

// AttachConsole mirrors the sink on stdout at debug level. Calling it more
// than once has no further effect.
func (s *Sink) AttachConsole() {
	s.attach(os.Stdout)
}

func (s *Sink) attach(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.console {
		return
	}
	s.console = true
	s.SetOutput(w)
	s.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true})
	s.SetLevel(logrus.DebugLevel)
}

// ConsoleAttached reports whether AttachConsole has been called.
func (s *Sink) ConsoleAttached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.console
}

// Close flushes and closes the log file.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	if err := s.file.Sync(); err != nil {
		s.file.Close()
		return fmt.Errorf("sync log file: %w", err)
	}
	return s.file.Close()
}
