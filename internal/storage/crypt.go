package storage

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// At-rest encryption for stored results: AES-256-GCM with a PBKDF2-derived
// key. Layout: magic || salt(16) || nonce(12) || ciphertext.
var cryptMagic = []byte("PSPL1")

const (
	saltLen    = 16
	pbkdf2Iter = 100_000
)

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, pbkdf2Iter, 32, sha256.New)
}

// Encrypt seals data with a key derived from password.
func Encrypt(password string, data []byte) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, len(cryptMagic)+saltLen+gcm.NonceSize()+len(data)+gcm.Overhead())
	out = append(out, cryptMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, data, nil), nil
}

// Decrypt opens data previously produced by Encrypt. It fails when the magic
// prefix is missing or the password is wrong.
func Decrypt(password string, data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, cryptMagic) {
		return nil, errors.New("not an encrypted result")
	}
	data = data[len(cryptMagic):]
	if len(data) < saltLen {
		return nil, errors.New("encrypted result truncated")
	}
	salt, data := data[:saltLen], data[saltLen:]

	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(data) < gcm.NonceSize() {
		return nil, errors.New("encrypted result truncated")
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plain, nil
}
