// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// encryptedPrefix marks a sealed value (format: ENC:base64(nonce|ciphertext|tag)).
	encryptedPrefix = "ENC:"

	// SaltKey is the reserved key holding the per-store PBKDF2 salt.
	SaltKey = "__kv_salt"

	// CheckKey is the reserved key holding a sealed known value that proves
	// the passphrase before any other value is read.
	CheckKey = "__kv_check"

	checkValue = "newsdesk-kv-check"

	keySize  = 32 // AES-256
	saltSize = 32

	// DefaultPBKDF2Iterations follows the OWASP 2023 guidance for PBKDF2-SHA-256.
	DefaultPBKDF2Iterations = 600000
)

var (
	// ErrReservedKey indicates a write to a key owned by the store itself.
	ErrReservedKey = errors.New("reserved key")

	// ErrWrongPassphrase indicates the passphrase does not open the store.
	// Nothing is read or written when it is returned.
	ErrWrongPassphrase = errors.New("wrong storage passphrase")
)

// =============================================================================
// ENCRYPTED STORE
// =============================================================================

// EncryptedStore seals every value with AES-256-GCM before handing it to
// the wrapped store. The key name is bound as additional data, so a sealed
// value copied under another key fails to open.
type EncryptedStore struct {
	inner Store
	aead  cipher.AEAD
}

// NewEncryptedStore wraps inner, deriving the key from passphrase.
func NewEncryptedStore(inner Store, passphrase string) (*EncryptedStore, error) {
	return newEncryptedStore(inner, passphrase, DefaultPBKDF2Iterations)
}

func newEncryptedStore(inner Store, passphrase string, iterations int) (*EncryptedStore, error) {
	if passphrase == "" {
		return nil, errors.New("encryption passphrase is empty")
	}

	salt, fresh, err := loadOrCreateSalt(inner)
	if err != nil {
		return nil, err
	}

	key := pbkdf2.Key([]byte(passphrase), salt, iterations, keySize, sha256.New)
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	e := &EncryptedStore{inner: inner, aead: aead}
	if err := e.verify(fresh); err != nil {
		return nil, err
	}
	return e, nil
}

// verify opens the check value, or writes it when the store has none yet.
// A fresh salt invalidates any old check value.
func (e *EncryptedStore) verify(fresh bool) error {
	sealed, ok, err := e.inner.Get(CheckKey)
	if err != nil {
		return fmt.Errorf("failed to read passphrase check: %w", err)
	}
	if ok && !fresh {
		plain, err := e.open(CheckKey, sealed)
		if err != nil || plain != checkValue {
			return ErrWrongPassphrase
		}
		return nil
	}

	// A store sealed before it had a check value is trusted on this open.
	sealed, err = e.seal(CheckKey, checkValue)
	if err != nil {
		return err
	}
	if err := e.inner.Set(CheckKey, sealed); err != nil {
		return fmt.Errorf("failed to store passphrase check: %w", err)
	}
	return nil
}

// loadOrCreateSalt returns the store's salt. fresh is true when a new salt
// had to be written.
func loadOrCreateSalt(inner Store) (salt []byte, fresh bool, err error) {
	encoded, ok, err := inner.Get(SaltKey)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read salt: %w", err)
	}
	if ok {
		salt, err := base64.StdEncoding.DecodeString(encoded)
		if err == nil && len(salt) == saltSize {
			return salt, false, nil
		}
		// A damaged salt makes every sealed value unreadable; start over.
	}

	salt = make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, false, fmt.Errorf("failed to generate salt: %w", err)
	}
	if err := inner.Set(SaltKey, base64.StdEncoding.EncodeToString(salt)); err != nil {
		return nil, false, fmt.Errorf("failed to store salt: %w", err)
	}
	return salt, true, nil
}

func reserved(key string) bool {
	return key == SaltKey || key == CheckKey
}

// Inner returns the wrapped store.
func (e *EncryptedStore) Inner() Store {
	return e.inner
}

// Get opens the value for key. Values that fail to open report ErrCorrupt.
func (e *EncryptedStore) Get(key string) (string, bool, error) {
	if reserved(key) {
		return "", false, nil
	}
	sealed, ok, err := e.inner.Get(key)
	if err != nil || !ok {
		return "", ok, err
	}
	plain, err := e.open(key, sealed)
	if err != nil {
		return "", false, err
	}
	return plain, true, nil
}

// Set seals value and stores it under key.
func (e *EncryptedStore) Set(key, value string) error {
	return e.Apply(Batch{Set: map[string]string{key: value}})
}

// Remove deletes key.
func (e *EncryptedStore) Remove(key string) error {
	return e.Apply(Batch{Remove: []string{key}})
}

// Apply seals every value in b and applies it to the wrapped store.
func (e *EncryptedStore) Apply(b Batch) error {
	sealed := Batch{Set: make(map[string]string, len(b.Set)), Remove: b.Remove}
	for _, k := range b.Remove {
		if reserved(k) {
			return fmt.Errorf("%w: %s", ErrReservedKey, k)
		}
	}
	for k, v := range b.Set {
		if reserved(k) {
			return fmt.Errorf("%w: %s", ErrReservedKey, k)
		}
		s, err := e.seal(k, v)
		if err != nil {
			return err
		}
		sealed.Set[k] = s
	}
	return Apply(e.inner, sealed)
}

// Close closes the wrapped store.
func (e *EncryptedStore) Close() error {
	return Close(e.inner)
}

func (e *EncryptedStore) seal(key, plaintext string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	out := e.aead.Seal(nonce, nonce, []byte(plaintext), []byte(key))
	return encryptedPrefix + base64.StdEncoding.EncodeToString(out), nil
}

func (e *EncryptedStore) open(key, sealed string) (string, error) {
	if !strings.HasPrefix(sealed, encryptedPrefix) {
		return "", fmt.Errorf("%w: %s is not sealed", ErrCorrupt, key)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, encryptedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	ns := e.aead.NonceSize()
	if len(raw) < ns+e.aead.Overhead() {
		return "", fmt.Errorf("%w: %s is truncated", ErrCorrupt, key)
	}
	plain, err := e.aead.Open(nil, raw[:ns], raw[ns:], []byte(key))
	if err != nil {
		return "", fmt.Errorf("%w: %s: authentication failed", ErrCorrupt, key)
	}
	return string(plain), nil
}

// zeroBytes clears key material.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
