package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/ideauth/internal/client/models"
	"github.com/dmitrijs2005/ideauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_ConnectedUser(t *testing.T) {
	f := newFixture(t)
	conn := mustRegister(t, f, "alice", "a@x.com", "Str0ng!Pass1")

	info, err := NewSettingsService(f.deps).ConnectedUser(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, "alice", info.Username)
	assert.Equal(t, "a@x.com", info.Email)
	assert.Equal(t, conn.UserID(), info.UserID)
	assert.Equal(t, models.DefaultPreferences(), info.Preferences)
	assert.Equal(t, conn.Session(), info.Session)
}

func TestSettings_RequiresConnection(t *testing.T) {
	f := newFixture(t)
	s := NewSettingsService(f.deps)
	ctx := context.Background()

	_, err := s.ConnectedUser(ctx, nil)
	require.ErrorIs(t, err, common.ErrNotConnected)

	conn := mustRegister(t, f, "alice", "a@x.com", "Str0ng!Pass1")
	conn.Close()
	require.ErrorIs(t, s.SavePreferences(ctx, conn, models.DefaultPreferences()), common.ErrNotConnected)
}

func TestSettings_SaveAndResetPreferences(t *testing.T) {
	f := newFixture(t)
	conn := mustRegister(t, f, "alice", "a@x.com", "Str0ng!Pass1")
	s := NewSettingsService(f.deps)
	ctx := context.Background()

	p := models.DefaultPreferences()
	p.Theme = "light"
	p.TabSize = 2
	p.FontSize.Size = 18
	require.NoError(t, s.SavePreferences(ctx, conn, p))

	u, err := f.deps.Users.Get(ctx, conn.UserID())
	require.NoError(t, err)
	assert.Equal(t, p, u.Preferences)

	bad := p
	bad.TabSize = 0
	require.ErrorIs(t, s.SavePreferences(ctx, conn, bad), common.ErrValidation)

	got, err := s.ResetPreferences(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPreferences(), got)

	u, _ = f.deps.Users.Get(ctx, conn.UserID())
	assert.Equal(t, models.DefaultPreferences(), u.Preferences)
}

func TestValidatePreferences(t *testing.T) {
	ok := models.DefaultPreferences()
	require.NoError(t, ValidatePreferences(ok))

	for _, mutate := range []func(*models.Preferences){
		func(p *models.Preferences) { p.Theme = " " },
		func(p *models.Preferences) { p.FontSize.Size = 2 },
		func(p *models.Preferences) { p.FontSize.Unit = "em" },
		func(p *models.Preferences) { p.FontFamily = "" },
		func(p *models.Preferences) { p.TabSize = 40 },
	} {
		p := ok
		mutate(&p)
		assert.ErrorIs(t, ValidatePreferences(p), common.ErrValidation)
	}
}

func TestSettings_SaveKeybindings(t *testing.T) {
	f := newFixture(t)
	conn := mustRegister(t, f, "alice", "a@x.com", "Str0ng!Pass1")
	s := NewSettingsService(f.deps)
	ctx := context.Background()

	kb, err := s.SaveKeybindings(ctx, conn, []models.Binding{
		{Action: "save file", Combo: "Ctrl+S"},
		{Action: "close ide", Combo: "cmd+q"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.Keybindings{"control+s": "save file", "meta+q": "close ide"}, kb)

	_, err = s.SaveKeybindings(ctx, conn, []models.Binding{
		{Action: "save file", Combo: "ctrl+s"},
		{Action: "new file", Combo: "control+s"},
	})
	require.ErrorIs(t, err, common.ErrKeybindingConflict)
	assert.Contains(t, err.Error(), "control+s")

	// the rejected edit left the stored table alone
	u, _ := f.deps.Users.Get(ctx, conn.UserID())
	assert.Equal(t, models.Keybindings{"control+s": "save file", "meta+q": "close ide"}, u.Keybindings)
}

func TestSettings_KeybindingEditsReturnNoTableOnError(t *testing.T) {
	f := newFixture(t)
	conn := mustRegister(t, f, "alice", "a@x.com", "Str0ng!Pass1")
	s := NewSettingsService(f.deps)
	ctx := context.Background()

	rows := []models.Binding{{Action: "save file", Combo: "ctrl+s"}}

	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "users.json"), []byte("{broken"), 0o600))

	kb, err := s.SaveKeybindings(ctx, conn, rows)
	require.ErrorIs(t, err, common.ErrPersistence)
	assert.Nil(t, kb)

	kb, err = s.ResetKeybindings(ctx, conn)
	require.ErrorIs(t, err, common.ErrPersistence)
	assert.Nil(t, kb)

	conn.Close()
	kb, err = s.SaveKeybindings(ctx, conn, rows)
	require.ErrorIs(t, err, common.ErrNotConnected)
	assert.Nil(t, kb)
}

func TestSettings_RebindAndReset(t *testing.T) {
	f := newFixture(t)
	conn := mustRegister(t, f, "alice", "a@x.com", "Str0ng!Pass1")
	s := NewSettingsService(f.deps)
	ctx := context.Background()

	kb, err := s.Rebind(ctx, conn, "save file", "ctrl+shift+s")
	require.NoError(t, err)
	assert.Equal(t, models.Keybindings{"control+shift+s": "save file", "control+o": "open file"}, kb)

	_, err = s.Rebind(ctx, conn, "save file", "ctrl+o")
	require.ErrorIs(t, err, common.ErrKeybindingConflict)

	_, err = s.Rebind(ctx, conn, " ", "ctrl+k")
	require.ErrorIs(t, err, common.ErrValidation)

	kb, err = s.ResetKeybindings(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, models.Keybindings{"control+s": "save file", "control+o": "open file"}, kb)

	u, _ := f.deps.Users.Get(ctx, conn.UserID())
	assert.Equal(t, kb, u.Keybindings)
}
