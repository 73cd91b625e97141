// Package crypto provides the authenticated content cipher protecting
// clinical photographs at rest. Every payload (original and thumbnail) is
// sealed with the same process-lifetime AES-256 key supplied by
// configuration at startup.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// ErrDecrypt signals that stored bytes are malformed, truncated, or failed
// integrity verification. Callers treat it as possible corruption or
// tampering, never as a plain not-found.
var ErrDecrypt = errors.New("content decryption failed")

// ContentCipher seals and opens opaque byte payloads with AES-256-GCM.
// The key is fixed at construction and never exposed.
type ContentCipher struct {
	aead cipher.AEAD
}

// NewContentCipher creates a cipher from a 32-byte AES-256 key.
func NewContentCipher(key []byte) (*ContentCipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("content cipher: key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("content cipher: create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("content cipher: create GCM: %w", err)
	}

	return &ContentCipher{aead: aead}, nil
}

// Encrypt seals the plaintext and returns the nonce prepended to the
// ciphertext and tag.
func (c *ContentCipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("content encrypt: generate nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, so the result is nonce + ciphertext.
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt extracts the nonce from the front of data and opens the
// remainder. Any failure, including a tag mismatch, surfaces as ErrDecrypt.
func (c *ContentCipher) Decrypt(data []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plaintext, nil
}
