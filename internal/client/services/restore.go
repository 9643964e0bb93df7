package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ideauth/internal/client/envelope"
	"github.com/dmitrijs2005/ideauth/internal/client/models"
	"github.com/dmitrijs2005/ideauth/internal/client/session"
	"github.com/dmitrijs2005/ideauth/internal/common"
	"github.com/dmitrijs2005/ideauth/internal/cryptox"
	"github.com/dmitrijs2005/ideauth/internal/logging"
)

// Pending is a remembered session waiting for its password.
type Pending struct {
	File models.SessionFile
	User models.User
}

// RestoreService brings a session from a previous run back after the
// password is entered again.
type RestoreService struct {
	Deps
}

func NewRestoreService(d Deps) *RestoreService {
	if d.Log == nil {
		d.Log = logging.Discard()
	}
	return &RestoreService{Deps: d}
}

// Detect looks for a session file whose user is still in the table. No file
// or an unknown user yields nil, nil.
func (s *RestoreService) Detect(ctx context.Context) (*Pending, error) {
	f, err := s.Sessions.Load()
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, nil
	}

	u, err := s.Users.Get(ctx, f.UserID)
	if err != nil {
		return nil, persistence("restore: find user", err)
	}
	if u == nil {
		s.Log.Warn(ctx, "session file names an unknown user", "user_id", f.UserID)
		return nil, nil
	}
	return &Pending{File: *f, User: *u}, nil
}

// Revalidate unlocks p with password. A wrong password is ErrAuthentication
// and may be retried without limit. An expired session deletes the file and
// returns ErrSessionExpired.
func (s *RestoreService) Revalidate(ctx context.Context, p *Pending, password []byte) (*Connection, error) {
	if p == nil {
		return nil, common.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u := &p.User

	kd, err := s.Envelope.DeriveKey(password, u.AESSalt)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	ku, err := s.Envelope.UnwrapKey(kd.Key, u.AESKeyEncrypted)
	common.WipeByteArray(kd.Key)
	switch {
	case errors.Is(err, common.ErrIntegrity):
		return nil, fmt.Errorf("restore: %w", err)
	case err != nil:
		return nil, common.ErrAuthentication
	}

	ok, err := cryptox.VerifyPassword(u.PasswordHash, password)
	if err != nil || !ok {
		common.WipeByteArray(ku)
		return nil, common.ErrAuthentication
	}

	payload, err := session.Open(s.Envelope, ku, p.File)
	if err != nil {
		common.WipeByteArray(ku)
		if errors.Is(err, envelope.ErrDecryption) {
			err = fmt.Errorf("%w: session payload: %v", common.ErrIntegrity, err)
		}
		return nil, fmt.Errorf("restore: %w", err)
	}

	if payload.ConnectedUser.Expired(s.Issuer.Now()) {
		common.WipeByteArray(ku)
		if err := s.Sessions.Delete(); err != nil {
			return nil, err
		}
		s.Log.Info(ctx, "restored session expired", "user_id", u.UserID)
		return nil, common.ErrSessionExpired
	}

	s.Log.Info(ctx, "session restored", "user_id", u.UserID)
	return newConnection(payload.ConnectedUser, ku), nil
}
