// Package envelope wraps a per-user data key under a password-derived key and
// seals user fields and session payloads under the data key.
//
// The Manager holds only KDF parameters; every key it returns lives in caller
// memory and should be wiped with common.WipeByteArray when done.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ideauth/internal/client/models"
	"github.com/dmitrijs2005/ideauth/internal/common"
	"github.com/dmitrijs2005/ideauth/internal/cryptox"
)

// DataKeySize is the only accepted length of an unwrapped data key.
const DataKeySize = cryptox.KeySize

// ErrDecryption is returned when a ciphertext, nonce and key do not belong
// together (wrong key, truncated or garbled data).
var ErrDecryption = errors.New("decryption failed")

// DerivedKey is a password-derived wrapping key with the salt it used.
type DerivedKey struct {
	Key  []byte
	Salt []byte
}

// Manager is the transformation boundary between the crypto primitives and
// the account flows.
type Manager struct {
	kdf cryptox.Argon2Params
}

// NewManager returns a Manager deriving wrapping keys with the given argon2id
// parameters.
func NewManager(kdf cryptox.Argon2Params) *Manager {
	return &Manager{kdf: kdf}
}

// DeriveKey derives the wrapping key from password. An empty salt yields a
// freshly generated one.
func (m *Manager) DeriveKey(password, salt []byte) (DerivedKey, error) {
	key, usedSalt, err := cryptox.DeriveKeyFromPassword(password, salt, m.kdf)
	if err != nil {
		return DerivedKey{}, fmt.Errorf("derive key: %w", err)
	}
	return DerivedKey{Key: key, Salt: usedSalt}, nil
}

// GenerateDataKey returns a new random 32-byte data key.
func (m *Manager) GenerateDataKey() ([]byte, error) {
	return cryptox.GenerateAES256GCMKey()
}

// WrapKey seals the data key ku under the wrapping key kd.
func (m *Manager) WrapKey(kd, ku []byte) (models.Sealed, error) {
	if len(ku) != DataKeySize {
		return models.Sealed{}, fmt.Errorf("%w: data key is %d bytes", common.ErrIntegrity, len(ku))
	}
	return m.Seal(kd, ku)
}

// UnwrapKey recovers the data key. A result of any length other than 32 bytes
// is an integrity failure and is never returned to the caller.
func (m *Manager) UnwrapKey(kd []byte, wrapped models.Sealed) ([]byte, error) {
	ku, err := m.Open(kd, wrapped)
	if err != nil {
		return nil, err
	}
	if len(ku) != DataKeySize {
		common.WipeByteArray(ku)
		return nil, fmt.Errorf("%w: unwrapped key is %d bytes", common.ErrIntegrity, len(ku))
	}
	return ku, nil
}

// Seal encrypts plaintext under key.
func (m *Manager) Seal(key, plaintext []byte) (models.Sealed, error) {
	ct, nonce, err := cryptox.EncryptAES256GCM(plaintext, key)
	if err != nil {
		return models.Sealed{}, fmt.Errorf("seal: %w", err)
	}
	return models.Sealed{Cipher: ct, Nonce: nonce}, nil
}

// Open decrypts s under key. Any inconsistency is reported as ErrDecryption.
func (m *Manager) Open(key []byte, s models.Sealed) ([]byte, error) {
	pt, err := cryptox.DecryptAES256GCM(s.Nonce, s.Cipher, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return pt, nil
}

// SealString encrypts a username, an email or any other text field.
func (m *Manager) SealString(key []byte, s string) (models.Sealed, error) {
	return m.Seal(key, []byte(s))
}

// OpenString is the inverse of SealString.
func (m *Manager) OpenString(key []byte, s models.Sealed) (string, error) {
	pt, err := m.Open(key, s)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

// SealJSON serializes v to JSON and seals it under key.
func (m *Manager) SealJSON(key []byte, v any) (models.Sealed, error) {
	ct, nonce, err := cryptox.EncryptEntry(v, key)
	if err != nil {
		return models.Sealed{}, fmt.Errorf("seal json: %w", err)
	}
	return models.Sealed{Cipher: ct, Nonce: nonce}, nil
}

// OpenJSON opens s and unmarshals it into v. A payload that decrypts but does
// not parse is an integrity failure.
func (m *Manager) OpenJSON(key []byte, s models.Sealed, v any) error {
	pt, err := m.Open(key, s)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pt)

	if err := json.Unmarshal(pt, v); err != nil {
		return fmt.Errorf("%w: payload: %v", common.ErrIntegrity, err)
	}
	return nil
}
