package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/ideauth/internal/client/envelope"
	"github.com/dmitrijs2005/ideauth/internal/client/models"
	"github.com/dmitrijs2005/ideauth/internal/client/repositories/users"
	"github.com/dmitrijs2005/ideauth/internal/client/session"
	"github.com/dmitrijs2005/ideauth/internal/cryptox"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

const (
	week    = 7 * 24 * time.Hour
	quarter = 90 * 24 * time.Hour
)

// cheap parameters keep the suite fast
var (
	testKDF  = cryptox.Argon2Params{Time: 1, Memory: 64, Threads: 1, KeyLen: 32, SaltLen: 16}
	testHash = cryptox.Argon2Params{Time: 1, Memory: 64, Threads: 1, KeyLen: 32, SaltLen: 16}
)

type staticKeys struct {
	kb  models.Keybindings
	err error
}

func (s staticKeys) Defaults() (models.Keybindings, error) { return s.kb.Clone(), s.err }

type fixture struct {
	dir  string
	now  time.Time
	deps Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{dir: t.TempDir(), now: time.UnixMilli(1_760_000_000_000)}

	env := envelope.NewManager(testKDF)
	f.deps = Deps{
		Users:       users.NewJSONRepository(filepath.Join(f.dir, "users.json")),
		Sessions:    session.NewFileStore(filepath.Join(f.dir, "session.json")),
		Issuer:      session.NewIssuer(env, week, quarter).WithClock(func() time.Time { return f.now }),
		Envelope:    env,
		Keybindings: staticKeys{kb: models.Keybindings{"control+s": "save file", "control+o": "open file"}},
		HashParams:  testHash,
	}
	return f
}

// restart returns a fixture over the same files, as after an application restart.
func (f *fixture) restart() *fixture {
	g := &fixture{dir: f.dir, now: f.now, deps: f.deps}
	g.deps.Users = users.NewJSONRepository(filepath.Join(f.dir, "users.json"))
	g.deps.Sessions = session.NewFileStore(filepath.Join(f.dir, "session.json"))
	g.deps.Issuer = session.NewIssuer(f.deps.Envelope, week, quarter).WithClock(func() time.Time { return g.now })
	return g
}

func (f *fixture) sessionPath() string { return filepath.Join(f.dir, "session.json") }

func registerReq(username, email, password string, remember bool) RegisterRequest {
	return RegisterRequest{
		Username:        username,
		Email:           email,
		Password:        []byte(password),
		ConfirmPassword: []byte(password),
		RememberMe:      remember,
	}
}

func mustRegister(t *testing.T, f *fixture, username, email, password string) *Connection {
	t.Helper()
	conn, err := NewAuthService(f.deps).Register(context.Background(), registerReq(username, email, password, false))
	require.NoError(t, err)
	return conn
}

// forgeRecord builds a record whose password hash verifies for password but
// whose wrapped key decrypts to plaintextKey under the derived key.
func forgeRecord(t *testing.T, f *fixture, id, email, password string, plaintextKey []byte) models.User {
	t.Helper()
	env := f.deps.Envelope

	hash, err := cryptox.HashPassword([]byte(password), testHash)
	require.NoError(t, err)
	kd, err := env.DeriveKey([]byte(password), nil)
	require.NoError(t, err)
	wrapped, err := env.Seal(kd.Key, plaintextKey)
	require.NoError(t, err)

	emailKey := plaintextKey
	if len(emailKey) != envelope.DataKeySize {
		emailKey, _ = env.GenerateDataKey()
	}
	sealedEmail, err := env.SealString(emailKey, email)
	require.NoError(t, err)

	return models.User{
		UserID:          id,
		Username:        sealedEmail,
		Email:           sealedEmail,
		PasswordHash:    hash,
		AESKeyEncrypted: wrapped,
		AESSalt:         kd.Salt,
		Preferences:     models.DefaultPreferences(),
		Keybindings:     models.Keybindings{},
		CreatedAt:       time.Now().UTC(),
	}
}

func sessionFor(userID string) models.ConnectedUser {
	return models.ConnectedUser{UserID: userID}
}
