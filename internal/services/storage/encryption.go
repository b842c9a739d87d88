package storage

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"filippo.io/age"
)

// MinPassphraseLength is the shortest passphrase EnableEncryption accepts
const MinPassphraseLength = 8

// EnableEncryption encrypts every data file in place with the given passphrase
func (s *Storage) EnableEncryption(passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encrypted {
		return fmt.Errorf("encryption is already enabled")
	}
	if len(passphrase) < MinPassphraseLength {
		return fmt.Errorf("passphrase must be at least %d characters", MinPassphraseLength)
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("failed to create recipient: %w", err)
	}
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}

	verifyPath := filepath.Join(s.baseDir, verifyFile)
	sealed, err := encryptData([]byte(verifyMagic), recipient)
	if err != nil {
		return fmt.Errorf("failed to encrypt verification file: %w", err)
	}
	if err := os.WriteFile(verifyPath, sealed, 0o600); err != nil {
		return fmt.Errorf("failed to write verification file: %w", err)
	}

	files, err := s.dataFiles()
	if err != nil {
		os.Remove(verifyPath)
		return fmt.Errorf("failed to scan files: %w", err)
	}

	seal := func(data []byte) ([]byte, error) {
		if isAgeEncrypted(data) {
			return nil, nil
		}
		return encryptData(data, recipient)
	}
	for i, path := range files {
		if err := rewriteFile(path, seal); err != nil {
			// best effort: open what was already sealed
			s.rollback(files[:i], identity)
			os.Remove(verifyPath)
			return fmt.Errorf("failed to encrypt %s: %w", filepath.Base(path), err)
		}
	}

	if err := os.WriteFile(filepath.Join(s.baseDir, markerFile), []byte("encrypted"), 0o600); err != nil {
		return fmt.Errorf("failed to create marker file: %w", err)
	}

	s.encrypted = true
	s.identity = identity
	s.recipient = recipient
	return nil
}

// DisableEncryption decrypts all data files. The current passphrase is required.
func (s *Storage) DisableEncryption(passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.encrypted {
		return fmt.Errorf("encryption is not enabled")
	}

	identity, err := s.verify(passphrase)
	if err != nil {
		return err
	}

	files, err := s.dataFiles()
	if err != nil {
		return fmt.Errorf("failed to scan files: %w", err)
	}

	open := func(data []byte) ([]byte, error) {
		if !isAgeEncrypted(data) {
			return nil, nil
		}
		return decryptData(data, identity)
	}
	for _, path := range files {
		if err := rewriteFile(path, open); err != nil {
			return fmt.Errorf("failed to decrypt %s: %w", filepath.Base(path), err)
		}
	}

	os.Remove(filepath.Join(s.baseDir, markerFile))
	os.Remove(filepath.Join(s.baseDir, verifyFile))

	s.encrypted = false
	s.identity = nil
	s.recipient = nil
	return nil
}

// dataFiles lists every per-user data file under the base directory
func (s *Storage) dataFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || s.shouldSkipEncryption(path) {
			return nil
		}
		if filepath.Ext(path) == dataExt {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// rewriteFile applies transform to a file's content. A nil result leaves the file untouched.
func rewriteFile(path string, transform func([]byte) ([]byte, error)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := transform(data)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return atomicWrite(path, out, 0o600)
}

// rollback decrypts files sealed during a failed EnableEncryption
func (s *Storage) rollback(files []string, identity *age.ScryptIdentity) {
	for _, path := range files {
		rewriteFile(path, func(data []byte) ([]byte, error) {
			if !isAgeEncrypted(data) {
				return nil, nil
			}
			return decryptData(data, identity)
		})
	}
}

// encryptData encrypts data using Age with the given recipient
func encryptData(data []byte, recipient age.Recipient) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decryptData decrypts Age-encrypted data using the given identity
func decryptData(data []byte, identity age.Identity) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
