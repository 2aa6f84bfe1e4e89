// Package fieldcrypt provides authenticated field-level encryption for
// high-sensitivity candidate attributes. The storage substrate is untrusted
// for these values: they are sealed with AES-256-GCM before any write and
// opened on read, with a literal marker prefix so decryption can recognize
// already-encrypted values and pass legacy plaintext through unchanged.
package fieldcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"

	dErrors "workbridge/pkg/domain-errors"
)

// Marker prefixes every sealed value. Values without it are treated as
// plaintext written before encryption was introduced.
const Marker = "enc::v1::"

// hkdfLabel domain-separates the field key from other uses of the supplied
// key material.
const hkdfLabel = "workbridge/fieldcrypt/v1"

// ErrTampered is wrapped into the error returned when an authentication tag
// does not verify. It always propagates; tampering is never recovered.
var ErrTampered = dErrors.New(dErrors.CodeInvariantViolation, "sensitive field failed authentication")

// Crypter seals and opens individual field values. The key is externally
// supplied; this package never generates or stores key material.
type Crypter struct {
	aead cipher.AEAD
}

// New derives the field key from the supplied 32-byte key material via
// HKDF-SHA256 and prepares the AEAD.
func New(keyMaterial []byte) (*Crypter, error) {
	if len(keyMaterial) != 32 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "key material must be 32 bytes")
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, keyMaterial, nil, []byte(hkdfLabel))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive field key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init field cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &Crypter{aead: aead}, nil
}

// Encrypt seals a single value. A fresh random nonce is generated per call;
// nonce, ciphertext, and tag are concatenated, base64-encoded, and prefixed
// with the marker. Empty and already-sealed values are returned unchanged.
func (c *Crypter) Encrypt(value string) (string, error) {
	if value == "" || strings.HasPrefix(value, Marker) {
		return value, nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(value), nil)
	return Marker + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a sealed value. Values without the marker pass through
// unchanged. A failed authentication tag fails loudly with ErrTampered.
func (c *Crypter) Decrypt(value string) (string, error) {
	if !strings.HasPrefix(value, Marker) {
		return value, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, Marker))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvariantViolation, "sensitive field is not valid base64")
	}
	if len(raw) < c.aead.NonceSize() {
		return "", ErrTampered
	}

	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrTampered
	}
	return string(plaintext), nil
}

// EncryptAll seals every element of a slice, returning a new slice.
func (c *Crypter) EncryptAll(values []string) ([]string, error) {
	return c.mapAll(values, c.Encrypt)
}

// DecryptAll opens every element of a slice, returning a new slice.
func (c *Crypter) DecryptAll(values []string) ([]string, error) {
	return c.mapAll(values, c.Decrypt)
}

func (c *Crypter) mapAll(values []string, fn func(string) (string, error)) ([]string, error) {
	if values == nil {
		return nil, nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		mapped, err := fn(v)
		if err != nil {
			return nil, err
		}
		out[i] = mapped
	}
	return out, nil
}
