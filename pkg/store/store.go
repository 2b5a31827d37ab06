package store

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
)

// Errors returned while loading or saving a store.
var (
	// ErrConfigRead indicates the store file exists but could not be read.
	ErrConfigRead = errors.New("store: failed to read config")
	// ErrConfigParse indicates the store file is not a valid login mapping.
	ErrConfigParse = errors.New("store: failed to parse config")
	// ErrConfigWrite indicates the store file could not be written.
	ErrConfigWrite = errors.New("store: failed to write config")
)

// Login is a named TOTP secret.
type Login struct {
	Name string
	// Secret is the BASE32 text form. It is not validated when stored.
	Secret string
}

// Store maps login names to logins. The zero value is an empty store.
type Store struct {
	logins map[string]Login
}

// New returns an empty store.
func New() *Store {
	return &Store{logins: map[string]Login{}}
}

// Load reads the store at path. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigRead, err)
	}

	records, err := codecFor(path).decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
	}

	s := New()
	for name, rec := range records {
		secret := rec.Secret
		if secret == "" {
			secret = rec.Key
		}
		s.logins[name] = Login{Name: name, Secret: secret}
	}
	return s, nil
}

// Save serializes the whole store and replaces the file at path.
// Missing parent directories are created.
func (s *Store) Save(path string) error {
	records := make(map[string]record, s.Len())
	for name, login := range s.logins {
		records[name] = record{Secret: login.Secret}
	}

	data, err := codecFor(path).encode(records)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigWrite, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigWrite, err)
	}
	if err := saveAtomically(path, data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigWrite, err)
	}
	return nil
}

// Add inserts the login, replacing any existing login with the same name.
func (s *Store) Add(name, secret string) {
	if s.logins == nil {
		s.logins = map[string]Login{}
	}
	s.logins[name] = Login{Name: name, Secret: secret}
}

// Remove deletes the login and reports whether it was present.
func (s *Store) Remove(name string) bool {
	if _, ok := s.logins[name]; !ok {
		return false
	}
	delete(s.logins, name)
	return true
}

// Lookup returns the login stored under name.
func (s *Store) Lookup(name string) (Login, bool) {
	login, ok := s.logins[name]
	return login, ok
}

// Names returns the login names in ascending order.
func (s *Store) Names() []string {
	return slices.Sorted(maps.Keys(s.logins))
}

// Len returns the number of logins.
func (s *Store) Len() int {
	return len(s.logins)
}

// saveAtomically writes data to path using temp file + rename.
func saveAtomically(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".logins-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	tmpFile = nil

	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
