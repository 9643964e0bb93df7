// Package services contains the account flows of the ide client:
// registration, login, session restore and the settings of the connected
// user. Every error leaving this package is one of the kinds in
// internal/common; PublicMessage turns it into text for the user.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/ideauth/internal/client/envelope"
	"github.com/dmitrijs2005/ideauth/internal/client/models"
	"github.com/dmitrijs2005/ideauth/internal/client/repositories/users"
	"github.com/dmitrijs2005/ideauth/internal/client/session"
	"github.com/dmitrijs2005/ideauth/internal/common"
	"github.com/dmitrijs2005/ideauth/internal/cryptox"
	"github.com/dmitrijs2005/ideauth/internal/logging"
	"github.com/google/uuid"
)

// KeybindingsSource supplies the default keybindings table.
type KeybindingsSource interface {
	Defaults() (models.Keybindings, error)
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register: create a user record and open its first session.
//   - Login: find the record matching email and password and open a new session.
//   - Logout: forget the session and the in-memory key.
//
// All methods must honor context cancellation.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*Connection, error)
	Login(ctx context.Context, email string, password []byte, rememberMe bool) (*Connection, error)
	Logout(ctx context.Context, conn *Connection) error
}

// Deps are the collaborators shared by the account services.
type Deps struct {
	Users       users.Repository
	Sessions    *session.FileStore
	Issuer      *session.Issuer
	Envelope    *envelope.Manager
	Keybindings KeybindingsSource
	HashParams  cryptox.Argon2Params
	Log         logging.Logger
}

type authService struct {
	Deps
}

// NewAuthService constructs an AuthService over d.
func NewAuthService(d Deps) AuthService {
	if d.Log == nil {
		d.Log = logging.Discard()
	}
	return &authService{Deps: d}
}

// Register validates the form, builds the user's key material and record,
// stores it in a single write and opens the first session.
func (a *authService) Register(ctx context.Context, req RegisterRequest) (*Connection, error) {
	// same normalisation as the login form
	req.Email = strings.TrimSpace(req.Email)

	if err := ValidateRegistration(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash, err := cryptox.HashPassword(req.Password, a.HashParams)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	ku, err := a.Envelope.GenerateDataKey()
	if err != nil {
		return nil, fmt.Errorf("register: generate key: %w", err)
	}

	kd, err := a.Envelope.DeriveKey(req.Password, nil)
	if err != nil {
		common.WipeByteArray(ku)
		return nil, fmt.Errorf("register: %w", err)
	}
	defer common.WipeByteArray(kd.Key)

	u, err := a.buildUser(ku, kd, hash, req)
	if err != nil {
		common.WipeByteArray(ku)
		return nil, err
	}

	if err := a.Users.Create(ctx, u); err != nil {
		common.WipeByteArray(ku)
		return nil, persistence("register: store user", err)
	}

	conn, err := a.openSession(u.UserID, ku, req.RememberMe)
	if err != nil {
		common.WipeByteArray(ku)
		if derr := a.Users.Delete(ctx, u.UserID); derr != nil {
			a.Log.Error(ctx, "register: rollback failed", "user_id", u.UserID, "error", derr)
			return nil, errors.Join(err, persistence("register: rollback user", derr))
		}
		return nil, err
	}

	a.Log.Info(ctx, "user registered", "user_id", u.UserID)
	return conn, nil
}

func (a *authService) buildUser(ku []byte, kd envelope.DerivedKey, hash string, req RegisterRequest) (*models.User, error) {
	wrapped, err := a.Envelope.WrapKey(kd.Key, ku)
	if err != nil {
		return nil, fmt.Errorf("register: wrap key: %w", err)
	}
	username, err := a.Envelope.SealString(ku, req.Username)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	email, err := a.Envelope.SealString(ku, req.Email)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	keys, err := a.Keybindings.Defaults()
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	return &models.User{
		UserID:          uuid.NewString(),
		Username:        username,
		Email:           email,
		PasswordHash:    hash,
		AESKeyEncrypted: wrapped,
		AESSalt:         kd.Salt,
		Preferences:     models.DefaultPreferences(),
		Keybindings:     keys.Clone(),
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// Login walks the user table in stored order and accepts the first record
// whose password hash verifies, whose key unwraps and whose email decrypts
// to email. Every way of not matching ends in the same ErrAuthentication.
func (a *authService) Login(ctx context.Context, email string, password []byte, rememberMe bool) (*Connection, error) {
	list, err := a.Users.List(ctx)
	if err != nil {
		return nil, persistence("login: list users", err)
	}

	for i := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ku, err := a.matchRecord(ctx, &list[i], email, password)
		if err != nil {
			return nil, err
		}
		if ku == nil {
			continue
		}

		conn, err := a.openSession(list[i].UserID, ku, rememberMe)
		if err != nil {
			common.WipeByteArray(ku)
			return nil, err
		}
		a.Log.Info(ctx, "login succeeded", "user_id", list[i].UserID, "remember_me", rememberMe)
		return conn, nil
	}

	a.Log.Info(ctx, "login failed", "records", len(list))
	return nil, common.ErrAuthentication
}

// matchRecord returns the unwrapped data key when u is the account for
// email/password, nil when it is not. Only integrity failures are errors.
func (a *authService) matchRecord(ctx context.Context, u *models.User, email string, password []byte) ([]byte, error) {
	ok, err := cryptox.VerifyPassword(u.PasswordHash, password)
	if err != nil {
		a.Log.Warn(ctx, "malformed password hash", "user_id", u.UserID, "error", err)
		return nil, nil
	}
	if !ok {
		return nil, nil
	}

	kd, err := a.Envelope.DeriveKey(password, u.AESSalt)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	ku, err := a.Envelope.UnwrapKey(kd.Key, u.AESKeyEncrypted)
	common.WipeByteArray(kd.Key)
	switch {
	case errors.Is(err, common.ErrIntegrity):
		a.Log.Error(ctx, "data key failed integrity check", "user_id", u.UserID)
		return nil, fmt.Errorf("login: %w", err)
	case err != nil:
		a.Log.Debug(ctx, "hash matched but key did not unwrap", "user_id", u.UserID)
		return nil, nil
	}

	plain, err := a.Envelope.OpenString(ku, u.Email)
	if err != nil || subtle.ConstantTimeCompare([]byte(plain), []byte(email)) != 1 {
		common.WipeByteArray(ku)
		return nil, nil
	}
	return ku, nil
}

// openSession issues a session for userID and overwrites the session file.
// On success the returned Connection owns ku.
func (a *authService) openSession(userID string, ku []byte, rememberMe bool) (*Connection, error) {
	payload, file, err := a.Issuer.Issue(userID, ku, rememberMe)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrIntegrity, err)
	}
	if err := a.Sessions.Save(file); err != nil {
		return nil, persistence("save session", err)
	}
	return newConnection(payload.ConnectedUser, ku), nil
}

// Logout deletes the session file and wipes the connection's key.
func (a *authService) Logout(ctx context.Context, conn *Connection) error {
	if conn == nil {
		return common.ErrNotConnected
	}
	userID := conn.UserID()
	conn.Close()

	if err := a.Sessions.Delete(); err != nil {
		return err
	}
	a.Log.Info(ctx, "logged out", "user_id", userID)
	return nil
}

// persistence keeps an error's kind when it already has one and marks it as
// a persistence failure otherwise.
func persistence(op string, err error) error {
	switch {
	case errors.Is(err, common.ErrPersistence),
		errors.Is(err, common.ErrIntegrity),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%w: %s: %v", common.ErrPersistence, op, err)
	}
}
