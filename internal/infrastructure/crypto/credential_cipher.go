// Package crypto encrypts store gateway credentials at rest.
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	ciphertextPrefix = "v1:"
	keyInfo          = "stocksync credential encryption v1"
)

var (
	// ErrEmptyKey is returned when no master key is configured
	ErrEmptyKey = errors.New("credential encryption key is empty")
	// ErrMalformedCiphertext is returned for values that were not produced by this cipher
	ErrMalformedCiphertext = errors.New("malformed credential ciphertext")
)

// CredentialCipher seals credentials with XChaCha20-Poly1305. The AEAD key is
// derived from the configured master secret with HKDF-SHA256, so any secret
// length is accepted.
type CredentialCipher struct {
	aead cipher.AEAD
}

// NewCredentialCipher derives the AEAD key from masterKey
func NewCredentialCipher(masterKey string) (*CredentialCipher, error) {
	if masterKey == "" {
		return nil, ErrEmptyKey
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(masterKey), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive credential key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init credential cipher: %w", err)
	}
	return &CredentialCipher{aead: aead}, nil
}

// Encrypt returns "v1:" + base64(nonce || sealed). Empty input stays empty.
func (c *CredentialCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return ciphertextPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt
func (c *CredentialCipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	encoded, ok := strings.CutPrefix(ciphertext, ciphertextPrefix)
	if !ok {
		return "", ErrMalformedCiphertext
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) < c.aead.NonceSize()+c.aead.Overhead() {
		return "", ErrMalformedCiphertext
	}
	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt credential: %w", err)
	}
	return string(plain), nil
}
