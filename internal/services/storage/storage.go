package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"filippo.io/age"
)

const (
	// ageHeader is the prefix of Age-encrypted files
	ageHeader = "age-encryption.org"

	// markerFile indicates encryption is enabled
	markerFile = ".encrypted"

	// verifyFile is used to validate the passphrase
	verifyFile = ".encryption-verify"

	// verifyMagic is the expected content in the verify file
	verifyMagic = `{"magic":"khazana-encryption-verify","version":1}`

	// dataExt is the extension of every per-user data file
	dataExt = ".kv"
)

// ErrLocked is returned when reading encrypted data before Unlock
var ErrLocked = errors.New("storage is encrypted and locked")

// Storage provides transparent encrypted/unencrypted file access
type Storage struct {
	baseDir   string
	encrypted bool
	identity  *age.ScryptIdentity
	recipient *age.ScryptRecipient
	mu        sync.RWMutex
}

// New creates a new Storage instance for the given base directory
func New(baseDir string) (*Storage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &Storage{baseDir: baseDir}
	if _, err := os.Stat(filepath.Join(baseDir, markerFile)); err == nil {
		s.encrypted = true
	}
	return s, nil
}

// BaseDir returns the base directory
func (s *Storage) BaseDir() string {
	return s.baseDir
}

// IsEncrypted returns true if the data directory is encrypted
func (s *Storage) IsEncrypted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.encrypted
}

// IsUnlocked returns true if the data is readable: plain, or encrypted and unlocked
func (s *Storage) IsUnlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.encrypted || s.identity != nil
}

// Unlock checks the passphrase against the verify file and keeps the key in memory
func (s *Storage) Unlock(passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.encrypted {
		return nil
	}

	identity, err := s.verify(passphrase)
	if err != nil {
		return err
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("failed to create recipient: %w", err)
	}
	s.identity = identity
	s.recipient = recipient
	return nil
}

// Lock clears the encryption key from memory
func (s *Storage) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = nil
	s.recipient = nil
}

// verify decrypts the verify file with passphrase. Callers hold s.mu.
func (s *Storage) verify(passphrase string) (*age.ScryptIdentity, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	encrypted, err := os.ReadFile(filepath.Join(s.baseDir, verifyFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read verification file: %w", err)
	}

	decrypted, err := decryptData(encrypted, identity)
	if err != nil || string(decrypted) != verifyMagic {
		return nil, fmt.Errorf("incorrect passphrase")
	}
	return identity, nil
}

// ReadFile reads and, when needed, decrypts a file
func (s *Storage) ReadFile(path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if isAgeEncrypted(data) {
		if s.identity == nil {
			return nil, ErrLocked
		}
		return decryptData(data, s.identity)
	}
	return data, nil
}

// WriteFile writes a file, encrypting it when encryption is enabled
func (s *Storage) WriteFile(path string, data []byte, perm os.FileMode) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.encrypted {
		if s.recipient == nil {
			return ErrLocked
		}
		if !s.shouldSkipEncryption(path) {
			encrypted, err := encryptData(data, s.recipient)
			if err != nil {
				return fmt.Errorf("failed to encrypt: %w", err)
			}
			data = encrypted
		}
	}

	return atomicWrite(path, data, perm)
}

// Remove removes a file. A missing file is not an error.
func (s *Storage) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// atomicWrite writes data to a file atomically using a temp file
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// shouldSkipEncryption returns true for the encryption bookkeeping files
func (s *Storage) shouldSkipEncryption(path string) bool {
	base := filepath.Base(path)
	return base == markerFile || base == verifyFile
}

// isAgeEncrypted checks if data starts with the Age encryption header
func isAgeEncrypted(data []byte) bool {
	return len(data) > len(ageHeader) && string(data[:len(ageHeader)]) == ageHeader
}
