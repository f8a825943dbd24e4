// Package secrets seals small payloads (bot tokens, backup archives) with a
// passphrase. The wire format is a fixed magic header, a random PBKDF2 salt,
// the GCM nonce, then the ciphertext.
package secrets

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

var magic = []byte("ARKINV01")

const (
	saltLen    = 16
	nonceLen   = 12
	keyLen     = 32
	iterations = 200_000
)

var (
	ErrBadFormat     = errors.New("not a sealed payload")
	ErrBadPassphrase = errors.New("wrong passphrase or corrupted payload")
)

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, iterations, keyLen, sha256.New)
}

// Seal encrypts plaintext under the passphrase.
func Seal(plaintext []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}

	out := make([]byte, 0, len(magic)+saltLen+nonceLen+len(plaintext)+gcm.Overhead())
	out = append(out, magic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

// Open decrypts a payload produced by Seal. A missing or mismatched magic
// header means the payload was never sealed; an authentication failure means
// the passphrase is wrong or the bytes were altered.
func Open(sealed []byte, passphrase string) ([]byte, error) {
	header := len(magic) + saltLen + nonceLen
	if len(sealed) < header || !bytes.Equal(sealed[:len(magic)], magic) {
		return nil, ErrBadFormat
	}
	salt := sealed[len(magic) : len(magic)+saltLen]
	nonce := sealed[len(magic)+saltLen : header]

	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	plaintext, err := gcm.Open(nil, nonce, sealed[header:], nil)
	if err != nil {
		return nil, ErrBadPassphrase
	}
	return plaintext, nil
}

// IsSealed reports whether data carries the sealed-payload header.
func IsSealed(data []byte) bool {
	return len(data) >= len(magic) && bytes.Equal(data[:len(magic)], magic)
}
