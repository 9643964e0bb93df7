// Package models defines the persisted shapes of the account core: user
// records, the encrypted session file and its plaintext payload, editor
// preferences and keybindings.
package models

import "time"

// Sealed is an AES-256-GCM ciphertext with its nonce. Both marshal to base64
// in JSON.
type Sealed struct {
	Cipher []byte `json:"cipher"`
	Nonce  []byte `json:"nonce"`
}

// IsZero reports whether nothing was sealed.
func (s Sealed) IsZero() bool {
	return len(s.Cipher) == 0 && len(s.Nonce) == 0
}

// User is one entry of the user table. Identifying fields are sealed under the
// user's data key; the data key itself is sealed under a password-derived key.
type User struct {
	// UserID is a UUID generated at registration; the primary key.
	UserID string `json:"user_id"`

	Username Sealed `json:"username"`
	Email    Sealed `json:"email"`

	// PasswordHash is the argon2id PHC string, used only for verification.
	PasswordHash string `json:"password"`

	// AESKeyEncrypted is the user's 32-byte data key wrapped under the key
	// derived from the password and AESSalt.
	AESKeyEncrypted Sealed `json:"aes_key_encrypted"`
	AESSalt         []byte `json:"aes_salt"`

	Preferences Preferences `json:"preferences"`
	Keybindings Keybindings `json:"keybindings"`

	CreatedAt time.Time `json:"created_at"`
}
