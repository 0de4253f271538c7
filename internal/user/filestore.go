package user

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// ParseError indicates the users file exists but does not contain a valid
// JSON array of records.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse users file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FileStore persists the whole user collection in a single local JSON file.
// Every save rewrites the file wholesale; there is no atomic rename, so a
// crash mid-write can leave a corrupt file. That risk is documented and
// accepted for this backend.
type FileStore struct {
	path string
	log  *slog.Logger
}

// NewFileStore returns a store backed by the JSON file at path.
func NewFileStore(path string, log *slog.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

// Path returns the location of the backing file.
func (s *FileStore) Path() string { return s.path }

// Load reads the whole collection. A missing file yields an empty slice; a
// file that cannot be parsed yields a *ParseError.
func (s *FileStore) Load() ([]User, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Info("no users file found, starting fresh", "path", s.path)
			return []User{}, nil
		}
		return nil, fmt.Errorf("read users file %s: %w", s.path, err)
	}

	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, &ParseError{Path: s.path, Err: err}
	}

	s.log.Info("loaded users from local file", "path", s.path, "count", len(users))
	return users, nil
}

// Save serializes the entire collection and overwrites the file.
func (s *FileStore) Save(users []User) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal users: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write users file %s: %w", s.path, err)
	}

	s.log.Info("saved users to local file", "path", s.path, "count", len(users))
	return nil
}
