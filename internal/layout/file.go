package layout

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

const layoutFile = "layout.toml"

// FileStore is a Store backed by a TOML file.
//
// Reads are served from memory. Apply updates memory immediately and wakes a
// background flusher that rewrites the file; bursts of changes coalesce into
// a single write. Write failures are logged and otherwise ignored.
type FileStore struct {
	path   string
	logger *zap.Logger

	mu     sync.RWMutex
	values map[string]int
	dirty  bool
	closed bool

	kick chan struct{}
	done chan struct{}
}

// OpenFileStore loads path (if it exists) and starts the background flusher.
// A missing or malformed file yields an empty store.
func OpenFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("layout").With(zap.String("path", path))

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create layout directory: %w", err)
	}

	s := &FileStore{
		path:   path,
		logger: logger,
		values: readValues(path, logger),
		kick:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go s.flushLoop()
	return s, nil
}

// DefaultPath returns the layout file location under the user's config dir.
func DefaultPath() string {
	return filepath.Join(configDir(), layoutFile)
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Int returns the value stored under key.
func (s *FileStore) Int(key string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Apply records changes and schedules a flush without waiting for it.
func (s *FileStore) Apply(changes ...Change) {
	if len(changes) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	applyChanges(s.values, changes)
	s.dirty = true
	if s.closed {
		return
	}

	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Close stops the flusher and writes any pending changes. Changes applied
// after Close stay in memory only.
func (s *FileStore) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.kick)
	}
	s.mu.Unlock()

	<-s.done
	return s.flush()
}

func (s *FileStore) flushLoop() {
	defer close(s.done)
	for range s.kick {
		if err := s.flush(); err != nil {
			s.logger.Warn("Failed to persist layout", zap.Error(err))
		}
	}
}

// flush writes the current values if they changed since the last write.
func (s *FileStore) flush() error {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	values := make(map[string]int, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	s.dirty = false
	s.mu.Unlock()

	if err := writeValues(s.path, values); err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return err
	}
	s.logger.Debug("Layout persisted", zap.Int("keys", len(values)))
	return nil
}

// readValues decodes the layout file, skipping anything that is not an integer.
func readValues(path string, logger *zap.Logger) map[string]int {
	values := make(map[string]int)

	raw := make(map[string]interface{})
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("No layout file yet")
		} else {
			logger.Warn("Ignoring unreadable layout file", zap.Error(err))
		}
		return values
	}

	for k, v := range raw {
		n, ok := v.(int64)
		if !ok {
			logger.Warn("Ignoring non-integer layout value", zap.String("key", k))
			continue
		}
		values[k] = int(n)
	}
	return values
}

func writeValues(path string, values map[string]int) error {
	ordered := make(map[string]int64, len(values))
	for k, v := range values {
		ordered[k] = int64(v)
	}

	var buffer bytes.Buffer
	if err := toml.NewEncoder(&buffer).Encode(ordered); err != nil {
		return fmt.Errorf("failed to encode layout: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buffer.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write layout: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace layout: %w", err)
	}
	return nil
}

func configDir() string {
	return filepath.Join(xdgOrFallback("XDG_CONFIG_HOME", filepath.Join(os.Getenv("HOME"), ".config")), "padoverlay")
}

func xdgOrFallback(xdg string, fallback string) string {
	if dir := os.Getenv(xdg); dir != "" {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
	}
	return fallback
}
