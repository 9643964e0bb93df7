package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/ideauth/internal/client/models"
	"github.com/dmitrijs2005/ideauth/internal/common"
	"github.com/dmitrijs2005/ideauth/internal/logging"
)

// UserInfo is the connected user's record with identifying fields decrypted.
type UserInfo struct {
	UserID      string
	Username    string
	Email       string
	Preferences models.Preferences
	Keybindings models.Keybindings
	Session     models.ConnectedUser
}

// SettingsService reads and edits the connected user's record.
type SettingsService struct {
	Deps
}

func NewSettingsService(d Deps) *SettingsService {
	if d.Log == nil {
		d.Log = logging.Discard()
	}
	return &SettingsService{Deps: d}
}

func (s *SettingsService) load(ctx context.Context, conn *Connection) (*models.User, []byte, error) {
	ku, err := conn.key()
	if err != nil {
		return nil, nil, err
	}
	u, err := s.Users.Get(ctx, conn.UserID())
	if err != nil {
		return nil, nil, persistence("settings: load user", err)
	}
	if u == nil {
		return nil, nil, fmt.Errorf("%w: user %s is gone", common.ErrPersistence, conn.UserID())
	}
	return u, ku, nil
}

// ConnectedUser returns the connected user's record, decrypted.
func (s *SettingsService) ConnectedUser(ctx context.Context, conn *Connection) (*UserInfo, error) {
	u, ku, err := s.load(ctx, conn)
	if err != nil {
		return nil, err
	}

	username, err := s.Envelope.OpenString(ku, u.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: username: %v", common.ErrIntegrity, err)
	}
	email, err := s.Envelope.OpenString(ku, u.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: email: %v", common.ErrIntegrity, err)
	}

	return &UserInfo{
		UserID:      u.UserID,
		Username:    username,
		Email:       email,
		Preferences: u.Preferences,
		Keybindings: u.Keybindings.Clone(),
		Session:     conn.Session(),
	}, nil
}

// ValidatePreferences rejects values the editor cannot render.
func ValidatePreferences(p models.Preferences) error {
	switch {
	case strings.TrimSpace(p.Theme) == "":
		return invalid("theme", "is required")
	case p.FontSize.Size < 6 || p.FontSize.Size > 72:
		return invalid("fontSize", "must be between 6 and 72")
	case p.FontSize.Unit != "px":
		return invalid("fontSize", "unit must be px")
	case strings.TrimSpace(p.FontFamily) == "":
		return invalid("fontFamily", "is required")
	case p.TabSize < 1 || p.TabSize > 16:
		return invalid("tabSize", "must be between 1 and 16")
	}
	return nil
}

// SavePreferences stores p on the connected user's record.
func (s *SettingsService) SavePreferences(ctx context.Context, conn *Connection, p models.Preferences) error {
	if err := ValidatePreferences(p); err != nil {
		return err
	}
	u, _, err := s.load(ctx, conn)
	if err != nil {
		return err
	}

	u.Preferences = p
	if err := s.Users.Update(ctx, u); err != nil {
		return persistence("settings: save preferences", err)
	}
	s.Log.Info(ctx, "preferences saved", "user_id", u.UserID)
	return nil
}

// ResetPreferences restores the registration defaults.
func (s *SettingsService) ResetPreferences(ctx context.Context, conn *Connection) (models.Preferences, error) {
	p := models.DefaultPreferences()
	if err := s.SavePreferences(ctx, conn, p); err != nil {
		return models.Preferences{}, err
	}
	return p, nil
}

// SaveKeybindings replaces the table with rows. A combo claimed by two
// actions rejects the whole edit with ErrKeybindingConflict.
func (s *SettingsService) SaveKeybindings(ctx context.Context, conn *Connection, rows []models.Binding) (models.Keybindings, error) {
	kb, conflicts := models.FromBindings(rows)
	if len(conflicts) > 0 {
		parts := make([]string, len(conflicts))
		for i, c := range conflicts {
			parts[i] = c.String()
		}
		return nil, fmt.Errorf("%w: %s", common.ErrKeybindingConflict, strings.Join(parts, "; "))
	}
	if err := s.storeKeybindings(ctx, conn, kb); err != nil {
		return nil, err
	}
	return kb, nil
}

// Rebind binds action to combo only. A combo held by another action is a
// conflict.
func (s *SettingsService) Rebind(ctx context.Context, conn *Connection, action, combo string) (models.Keybindings, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, invalid("action", "is required")
	}

	u, _, err := s.load(ctx, conn)
	if err != nil {
		return nil, err
	}

	c := models.CanonicalCombo(combo)
	if other, ok := u.Keybindings[c]; ok && other != action {
		return nil, fmt.Errorf("%w: %s", common.ErrKeybindingConflict,
			models.Conflict{Combo: c, ExistingAction: other, NewAction: action})
	}

	kb := u.Keybindings.Rebind(action, combo)
	if err := s.storeKeybindings(ctx, conn, kb); err != nil {
		return nil, err
	}
	return kb, nil
}

// ResetKeybindings reloads the default keybindings file.
func (s *SettingsService) ResetKeybindings(ctx context.Context, conn *Connection) (models.Keybindings, error) {
	kb, err := s.Keybindings.Defaults()
	if err != nil {
		return nil, err
	}
	if err := s.storeKeybindings(ctx, conn, kb); err != nil {
		return nil, err
	}
	return kb, nil
}

func (s *SettingsService) storeKeybindings(ctx context.Context, conn *Connection, kb models.Keybindings) error {
	u, _, err := s.load(ctx, conn)
	if err != nil {
		return err
	}

	u.Keybindings = kb.Clone()
	if err := s.Users.Update(ctx, u); err != nil {
		return persistence("settings: save keybindings", err)
	}
	s.Log.Info(ctx, "keybindings saved", "user_id", u.UserID, "count", len(kb))
	return nil
}
