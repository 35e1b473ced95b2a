// /internal/datastore/datastore.go
package datastore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Options configures a Store.
type Options struct {
	Path string
	// AutoSave is the flush period. Zero disables the background flush.
	AutoSave time.Duration
	// Backups is the number of timestamped copies kept next to Path.
	Backups int
	Log     logrus.FieldLogger
}

// DefaultOptions returns the options used by the bot.
func DefaultOptions(path string) Options {
	return Options{
		Path:     path,
		AutoSave: 10 * time.Second,
		Backups:  3,
		Log:      logrus.WithField("component", "datastore"),
	}
}

// Store is a JSON document of keyed values kept in memory and flushed to disk
// with an atomic rename.
type Store struct {
	opts Options

	mu           sync.RWMutex
	data         map[string]json.RawMessage
	lastChecksum string
	closed       bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Open loads path, creating an empty document when it does not exist.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("datastore path cannot be empty")
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create datastore dir: %w", err)
	}

	s := &Store{opts: opts, data: map[string]json.RawMessage{}}

	switch _, err := os.Stat(opts.Path); {
	case os.IsNotExist(err):
		if err := s.writeFileAtomic([]byte("{}")); err != nil {
			return nil, fmt.Errorf("create empty datastore: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("stat datastore: %w", err)
	default:
		if err := s.load(); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	if opts.AutoSave > 0 {
		s.wg.Add(1)
		go s.autoSave(ctx)
	}
	return s, nil
}

// Put stores v under key.
func (s *Store) Put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("datastore is closed")
	}
	s.data[key] = raw
	return nil
}

// Get decodes the value under key into out. It reports false when the key is
// absent.
func (s *Store) Get(key string, out any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

// Update decodes key into out (left untouched when absent), runs fn and
// stores out back, all under the write lock.
func (s *Store) Update(key string, out any, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("datastore is closed")
	}
	if raw, ok := s.data[key]; ok {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("unmarshal %s: %w", key, err)
		}
	}
	if err := fn(); err != nil {
		return err
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	s.data[key] = raw
	return nil
}

// Delete removes key.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Keys returns every key, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flush writes the document now.
func (s *Store) Flush() error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return fmt.Errorf("datastore is closed")
	}
	return s.save()
}

// Close stops the background flush and writes a final time.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	return s.save()
}

func (s *Store) save() error {
	s.mu.RLock()
	doc, err := json.MarshalIndent(s.data, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal datastore: %w", err)
	}

	sum := checksum(doc)
	s.mu.Lock()
	defer s.mu.Unlock()
	if sum == s.lastChecksum {
		return nil
	}

	if s.opts.Backups > 0 {
		if err := s.backup(); err != nil {
			s.opts.Log.WithError(err).Warn("Failed to create backup")
		}
	}
	if err := s.writeFileAtomic(doc); err != nil {
		return err
	}
	written, err := os.ReadFile(s.opts.Path)
	if err != nil {
		return fmt.Errorf("read back datastore: %w", err)
	}
	if checksum(written) != sum {
		return fmt.Errorf("datastore checksum mismatch after write")
	}
	s.lastChecksum = sum
	return nil
}

func (s *Store) load() error {
	doc, err := os.ReadFile(s.opts.Path)
	if err != nil {
		return fmt.Errorf("read datastore: %w", err)
	}
	data := map[string]json.RawMessage{}
	if err := json.Unmarshal(doc, &data); err != nil {
		return fmt.Errorf("invalid datastore %s: %w", s.opts.Path, err)
	}
	s.data = data
	s.lastChecksum = checksum(doc)
	return nil
}

func (s *Store) writeFileAtomic(doc []byte) error {
	tmp := s.opts.Path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open temp file: %w", err)
	}
	if _, err := f.Write(doc); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, s.opts.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (s *Store) backup() error {
	src, err := os.Open(s.opts.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer src.Close()

	name := fmt.Sprintf("%s.backup.%s", s.opts.Path, time.Now().Format("20060102_150405.000000000"))
	dst, err := os.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	s.pruneBackups()
	return nil
}

// pruneBackups keeps the newest opts.Backups copies. Backup names sort by
// creation time.
func (s *Store) pruneBackups() {
	matches, err := filepath.Glob(s.opts.Path + ".backup.*")
	if err != nil || len(matches) <= s.opts.Backups {
		return
	}
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-s.opts.Backups] {
		if err := os.Remove(old); err != nil {
			s.opts.Log.WithError(err).Warnf("Failed to remove backup %s", old)
		}
	}
}

func (s *Store) autoSave(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.AutoSave)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.save(); err != nil {
				s.opts.Log.WithError(err).Error("Auto-save failed")
			}
		}
	}
}

func checksum(doc []byte) string {
	sum := sha256.Sum256(doc)
	return hex.EncodeToString(sum[:])
}
