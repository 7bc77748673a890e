// internal/secrets/secrets.go
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name for keyring storage
	KeyringService = "dutyscrape"
	// FallbackDir holds secrets when no keyring is available (Codespaces, CI)
	FallbackDir = ".dutyscrape/secrets"

	// DatabaseURL is the entry holding the store connection string
	DatabaseURL = "database_url"
)

// ErrNotFound is returned when no secret is stored under a name
var ErrNotFound = errors.New("secret not found")

// Store reads and writes named secrets in the OS keyring, or in 0600 files
// under Dir when the keyring cannot be used.
type Store struct {
	UseFile bool
	Dir     string
}

// Default probes the keyring once and falls back to files under the home directory
func Default() *Store {
	s := &Store{}
	if os.Getenv("CODESPACES") != "" || os.Getenv("CI") != "" || !keyringUsable() {
		s.UseFile = true
	}
	if home, err := os.UserHomeDir(); err == nil {
		s.Dir = filepath.Join(home, FallbackDir)
	}
	return s
}

func keyringUsable() bool {
	testKey := "_test_keyring_access_"
	if err := keyring.Set(KeyringService, testKey, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(KeyringService, testKey)
	return true
}

// Get returns the secret stored under name
func (s *Store) Get(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("secret name cannot be empty")
	}

	if s.UseFile {
		path, err := s.path(name)
		if err != nil {
			return "", err
		}
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		if err != nil {
			return "", fmt.Errorf("failed to read secret file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	v, err := keyring.Get(KeyringService, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load from keyring: %w", err)
	}
	return v, nil
}

// Set stores value under name
func (s *Store) Set(name, value string) error {
	if name == "" {
		return fmt.Errorf("secret name cannot be empty")
	}

	if s.UseFile {
		path, err := s.path(name)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return fmt.Errorf("failed to create secret dir: %w", err)
		}
		if err := os.WriteFile(path, []byte(value), 0600); err != nil {
			return fmt.Errorf("failed to save secret file: %w", err)
		}
		return nil
	}

	if err := keyring.Set(KeyringService, name, value); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return nil
}

// Delete removes name. Deleting a missing secret is not an error.
func (s *Store) Delete(name string) error {
	if name == "" {
		return fmt.Errorf("secret name cannot be empty")
	}

	if s.UseFile {
		path, err := s.path(name)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete secret file: %w", err)
		}
		return nil
	}

	err := keyring.Delete(KeyringService, name)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// Location describes where secrets are kept
func (s *Store) Location() string {
	if s.UseFile {
		return s.Dir
	}
	return "OS keyring (" + KeyringService + ")"
}

func (s *Store) path(name string) (string, error) {
	if s.Dir == "" {
		return "", fmt.Errorf("no secret directory available")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid secret name %q", name)
	}
	return filepath.Join(s.Dir, name), nil
}
