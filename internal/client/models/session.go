package models

import "time"

// SessionFile is the on-disk active session. UserID stays in the clear to
// index back into the user table; the payload is sealed under that user's key.
type SessionFile struct {
	Cipher []byte `json:"cipher"`
	Nonce  []byte `json:"nonce"`
	UserID string `json:"user_id"`
}

// Sealed returns the ciphertext part of the file.
func (f SessionFile) Sealed() Sealed {
	return Sealed{Cipher: f.Cipher, Nonce: f.Nonce}
}

// SessionPayload is the plaintext sealed into SessionFile.
type SessionPayload struct {
	ConnectedUser ConnectedUser `json:"connected_user"`
}

// ConnectedUser carries the session fields. Timestamps are Unix milliseconds.
type ConnectedUser struct {
	UserID           string `json:"user_id"`
	Token            string `json:"token"`
	DateOfConnection int64  `json:"date_of_connection"`
	ExpiresAt        int64  `json:"expires_at"`
	RememberMe       bool   `json:"remember_me"`
}

// ExpiresTime returns ExpiresAt as a time.Time.
func (c ConnectedUser) ExpiresTime() time.Time {
	return time.UnixMilli(c.ExpiresAt)
}

// Expired reports whether the session is stale at now: expires_at < now,
// compared at millisecond resolution.
func (c ConnectedUser) Expired(now time.Time) bool {
	return c.ExpiresAt < now.UnixMilli()
}
