// Package settings persists the user's configuration record as a JSON file.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const DefaultFile = "chat_config.json"

type Store struct {
	path   string
	logger *slog.Logger
}

func NewStore(path string, logger *slog.Logger) *Store {
	if path == "" {
		path = DefaultFile
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

func (s *Store) Path() string { return s.path }

// EnsureInitialized creates the file with the default record when it does
// not exist yet. An existing file is never touched.
func (s *Store) EnsureInitialized() (created, existed bool, err error) {
	_, err = os.Stat(s.path)
	if err == nil {
		return false, true, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, false, fmt.Errorf("config: stat %s: %w", s.path, err)
	}

	if err := s.save(Default()); err != nil {
		return false, false, err
	}
	s.logger.Info("configuration file created", "path", s.path)
	return true, false, nil
}

// Read returns nil when the file is absent or holds no data. Missing keys
// take their default value; anything unparsable or out of range is
// reported as ErrConfigCorrupt.
func (s *Store) Read() (*Record, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", s.path, err)
	}
	return s.decode(b)
}

func (s *Store) decode(b []byte) (*Record, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigCorrupt, s.path, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	rec := Default()
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigCorrupt, s.path, err)
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigCorrupt, s.path, err)
	}
	return &rec, nil
}

// Write merges a single field into the current record, validates the
// result and only then replaces the file.
func (s *Store) Write(key string, value any) error {
	cur, err := s.Read()
	if err != nil {
		return err
	}
	next := Default()
	if cur != nil {
		next = *cur
	}

	if err := next.set(key, value); err != nil {
		return &ValidationError{Key: key, Err: err}
	}
	if err := next.Validate(); err != nil {
		return &ValidationError{Key: key, Err: err}
	}

	if err := s.save(next); err != nil {
		return err
	}
	s.logger.Debug("configuration updated", "key", key)
	return nil
}

func (s *Store) save(rec Record) error {
	b, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	b = append(b, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".chat_config-*.tmp")
	if err != nil {
		return fmt.Errorf("config: write %s: %w", s.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("config: write %s: %w", s.path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("config: write %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: write %s: %w", s.path, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("config: write %s: %w", s.path, err)
	}
	return nil
}
