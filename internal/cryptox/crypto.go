// Package cryptox implements the cryptographic primitives the account core
// consumes: AES-256-GCM sealing, argon2id password hashing and argon2id key
// derivation. Callers treat these as opaque input/output contracts.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// NonceSize is the standard GCM nonce length in bytes.
	NonceSize = 12
)

var (
	ErrInvalidKeySize   = errors.New("key must be 32 bytes")
	ErrInvalidNonceSize = errors.New("nonce must be 12 bytes")
)

// GenerateAES256GCMKey returns 32 bytes from the system CSPRNG.
func GenerateAES256GCMKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptAES256GCM seals plaintext under a 32-byte key with a fresh random
// 12-byte nonce. The ciphertext carries the GCM tag.
func EncryptAES256GCM(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	// nonce
	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// DecryptAES256GCM opens ciphertext produced by EncryptAES256GCM. It fails when
// the key, nonce or ciphertext are inconsistent (wrong key, truncated or
// tampered data).
func DecryptAES256GCM(nonce, ciphertext, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonceSize
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("gcm open: %w", err)
	}
	return plaintext, nil
}

// EncryptEntry serializes the given value to JSON and encrypts it using
// AES-256-GCM. A new random 12-byte nonce is generated for each call.
//
// Example:
//
//	key, _ := GenerateAES256GCMKey()
//	ciphertext, nonce, err := EncryptEntry(session, key)
//	if err != nil {
//	    log.Fatal(err)
//	}
func EncryptEntry(entry any, key []byte) (ciphertext, nonce []byte, err error) {

	// serializing JSON
	plaintext, err := json.Marshal(entry)
	if err != nil {
		return nil, nil, err
	}

	return EncryptAES256GCM(plaintext, key)
}
