// Package filestore implements a file-backed session KV that survives process restarts.
//
// The file holds a JSON object of key/value pairs. When a passphrase is configured the
// object is sealed with XChaCha20-Poly1305 under an Argon2id-derived key; the salt is
// stored in the file header.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/and161185/imageshop/internal/crypto"
	"github.com/and161185/imageshop/internal/errs"
	"github.com/and161185/imageshop/internal/repository"
)

var sealedMagic = []byte("ISHOP1")

var aad = []byte("imageshop/session/v1")

// ErrBadPassphrase is returned when a sealed file cannot be opened.
var ErrBadPassphrase = errors.New("session file: wrong passphrase or corrupted")

// Store is a KV persisted to a single file with 0600 permissions.
type Store struct {
	mu         sync.Mutex
	path       string
	passphrase []byte
	data       map[string]string
}

var _ repository.KV = (*Store)(nil)

// Open loads path (missing file = empty store). An empty passphrase stores plaintext JSON.
func Open(path, passphrase string) (*Store, error) {
	s := &Store{path: path, data: map[string]string{}}
	if passphrase != "" {
		s.passphrase = []byte(passphrase)
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	plain, err := s.decode(raw)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(plain, &s.data); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	if s.data == nil {
		s.data = map[string]string{}
	}
	return s, nil
}

// Get returns the value or errs.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

// Set overwrites the value and flushes the file.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.data[key]
	s.data[key] = value
	if err := s.flush(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

// Delete removes keys and flushes the file when anything changed.
func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for _, k := range keys {
		if _, ok := s.data[k]; ok {
			delete(s.data, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.flush()
}

func (s *Store) flush() error {
	plain, err := json.Marshal(s.data)
	if err != nil {
		return err
	}
	out, err := s.encode(plain)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// file layout when sealed: magic || salt(16) || nonce||ciphertext
func (s *Store) encode(plain []byte) ([]byte, error) {
	if s.passphrase == nil {
		return plain, nil
	}
	salt, err := crypto.RandBytes(crypto.SaltLen)
	if err != nil {
		return nil, err
	}
	blob, err := crypto.Seal(crypto.DeriveKey(s.passphrase, salt), plain, aad)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(sealedMagic)+len(salt)+len(blob))
	out = append(out, sealedMagic...)
	out = append(out, salt...)
	return append(out, blob...), nil
}

func (s *Store) decode(raw []byte) ([]byte, error) {
	sealed := bytes.HasPrefix(raw, sealedMagic)
	switch {
	case !sealed && s.passphrase == nil:
		return raw, nil
	case !sealed:
		return nil, fmt.Errorf("session file is not sealed but a passphrase is set")
	case s.passphrase == nil:
		return nil, fmt.Errorf("session file is sealed; set IMAGESHOP_STORE_KEY")
	}
	rest := raw[len(sealedMagic):]
	if len(rest) < crypto.SaltLen {
		return nil, ErrBadPassphrase
	}
	salt, blob := rest[:crypto.SaltLen], rest[crypto.SaltLen:]
	plain, err := crypto.Open(crypto.DeriveKey(s.passphrase, salt), blob, aad)
	if err != nil {
		return nil, ErrBadPassphrase
	}
	return plain, nil
}
