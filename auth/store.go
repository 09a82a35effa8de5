package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Tokens is the credential pair issued by /api/login/.
type Tokens struct {
	Access  string `yaml:"access"`
	Refresh string `yaml:"refresh"`
}

// Store holds the current tokens. It satisfies transport.Credentials.
type Store interface {
	AccessToken() string
	RefreshToken() string
	SetAccessToken(token string) error
	SetTokens(t Tokens) error
	Clear() error
}

// MemoryStore keeps tokens for the life of the process.
type MemoryStore struct {
	mu sync.RWMutex
	t  Tokens
}

func NewMemoryStore(t Tokens) *MemoryStore { return &MemoryStore{t: t} }

func (s *MemoryStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.Access
}

func (s *MemoryStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.Refresh
}

func (s *MemoryStore) SetAccessToken(token string) error {
	s.mu.Lock()
	s.t.Access = token
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) SetTokens(t Tokens) error {
	s.mu.Lock()
	s.t = t
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.t = Tokens{}
	s.mu.Unlock()
	return nil
}

// FileStore persists tokens as YAML so a later CLI invocation reuses the
// session. Writes replace the file atomically with mode 0600.
type FileStore struct {
	mem  MemoryStore
	path string
	wmu  sync.Mutex
}

// OpenFileStore loads path if it exists. A missing file is an empty session.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var t Tokens
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("parse token file %s: %w", path, err)
	}
	s.mem.t = t
	return s, nil
}

func (s *FileStore) Path() string         { return s.path }
func (s *FileStore) AccessToken() string  { return s.mem.AccessToken() }
func (s *FileStore) RefreshToken() string { return s.mem.RefreshToken() }

func (s *FileStore) SetAccessToken(token string) error {
	_ = s.mem.SetAccessToken(token)
	return s.save()
}

func (s *FileStore) SetTokens(t Tokens) error {
	_ = s.mem.SetTokens(t)
	return s.save()
}

func (s *FileStore) Clear() error {
	_ = s.mem.Clear()
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

func (s *FileStore) save() error {
	s.mem.mu.RLock()
	t := s.mem.t
	s.mem.mu.RUnlock()

	b, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal tokens: %w", err)
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}
