package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const tokenFileName = "tokens.json"

// Store persists a single Credential as a JSON file. The file is owned by
// one logical session; the advisory lock around Save only keeps two racing
// invocations from interleaving their writes.
type Store struct {
	path string
}

// NewStore creates a Store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path is the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// DefaultTokenPath returns the per-application token file location under the
// user's configuration directory.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "spotifyfetch", tokenFileName), nil
}

// Load reads the stored Credential. Any failure — missing, unreadable or
// corrupt file — means "no session" to the caller; the cases are not worth
// distinguishing upstream.
func (s *Store) Load() (Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Credential{}, err
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return Credential{}, fmt.Errorf("failed to parse token file: %w", err)
	}
	if cred.AccessToken == "" || cred.RefreshToken == "" || cred.ExpiresAt <= 0 {
		return Credential{}, fmt.Errorf("token file %s is incomplete", s.path)
	}
	return cred, nil
}

// Save writes the Credential so that a reader never observes a half-written
// file: temp file then rename, guarded by an advisory lock. The containing
// directory is created on demand.
func (s *Store) Save(cred Credential) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	lock, err := acquireFileLock(s.path)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() {
		if releaseErr := lock.release(); releaseErr != nil {
			log.Warn().Err(releaseErr).Msg("failed to release token file lock")
		}
	}()

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			return fmt.Errorf(
				"failed to rename temp token file: %v; additionally failed to remove it: %w",
				err,
				removeErr,
			)
		}
		return fmt.Errorf("failed to rename temp token file: %w", err)
	}

	return nil
}
