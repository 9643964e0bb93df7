// Package session issues, persists and opens the encrypted session file that
// lets a user skip the login form on the next start.
package session

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/ideauth/internal/client/envelope"
	"github.com/dmitrijs2005/ideauth/internal/client/models"
	"github.com/dmitrijs2005/ideauth/internal/common"
	"github.com/google/uuid"
)

// Issuer builds session payloads and seals them under a user's data key.
type Issuer struct {
	env           *envelope.Manager
	ttl           time.Duration
	rememberMeTTL time.Duration
	now           func() time.Time
}

func NewIssuer(env *envelope.Manager, ttl, rememberMeTTL time.Duration) *Issuer {
	return &Issuer{env: env, ttl: ttl, rememberMeTTL: rememberMeTTL, now: time.Now}
}

// WithClock replaces the time source.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Now is the issuer's current time.
func (i *Issuer) Now() time.Time { return i.now() }

// Issue creates a session for userID valid for the short or remember-me
// duration and returns the plaintext payload with its sealed file form.
func (i *Issuer) Issue(userID string, ku []byte, rememberMe bool) (models.SessionPayload, models.SessionFile, error) {
	now := i.now()
	ttl := i.ttl
	if rememberMe {
		ttl = i.rememberMeTTL
	}
	expires := now.Add(ttl)

	token, err := generateToken(ku, userID, uuid.NewString(), now, expires)
	if err != nil {
		return models.SessionPayload{}, models.SessionFile{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	payload := models.SessionPayload{ConnectedUser: models.ConnectedUser{
		UserID:           userID,
		Token:            token,
		DateOfConnection: now.UnixMilli(),
		ExpiresAt:        expires.UnixMilli(),
		RememberMe:       rememberMe,
	}}

	sealed, err := i.env.SealJSON(ku, payload)
	if err != nil {
		return models.SessionPayload{}, models.SessionFile{}, fmt.Errorf("failed to seal session: %w", err)
	}

	return payload, models.SessionFile{Cipher: sealed.Cipher, Nonce: sealed.Nonce, UserID: userID}, nil
}

// Open decrypts a session file with the user's data key and checks that the
// payload and its token belong to the file's user. Expiry is left to the
// caller.
func Open(env *envelope.Manager, ku []byte, f models.SessionFile) (models.SessionPayload, error) {
	var p models.SessionPayload
	if err := env.OpenJSON(ku, f.Sealed(), &p); err != nil {
		return models.SessionPayload{}, err
	}
	if p.ConnectedUser.UserID != f.UserID {
		return models.SessionPayload{}, fmt.Errorf("%w: session user mismatch", common.ErrIntegrity)
	}
	if err := verifyToken(ku, p.ConnectedUser.Token, f.UserID); err != nil {
		return models.SessionPayload{}, err
	}
	return p, nil
}
