package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/ideauth/internal/client/ipc"
	"github.com/dmitrijs2005/ideauth/internal/client/models"
	"github.com/dmitrijs2005/ideauth/internal/client/services"
	"github.com/dmitrijs2005/ideauth/internal/common"
)

// Request shapes of the routed operations.
type (
	LoginRequest struct {
		Email      string
		Password   []byte
		RememberMe bool
	}

	RevalidateRequest struct {
		Pending  *services.Pending
		Password []byte
	}

	PreferencesRequest struct {
		Conn        *services.Connection
		Preferences models.Preferences
	}

	KeybindingsRequest struct {
		Conn *services.Connection
		Rows []models.Binding
	}

	RebindRequest struct {
		Conn   *services.Connection
		Action string
		Combo  string
	}
)

// Backend is the set of account services behind the router.
type Backend struct {
	Auth     services.AuthService
	Form     *services.LoginForm
	Restore  *services.RestoreService
	Settings *services.SettingsService
}

// NewRouter registers every account operation on a fresh router. Errors of
// Send operations reach the UI as SignalError with their public message.
func NewRouter(b *Backend) *ipc.Router {
	r := ipc.NewRouter(services.PublicMessage)

	ipc.Handle(r, ipc.OpRegister, ipc.ModeInvoke, func(ctx context.Context, req services.RegisterRequest) (*services.Connection, error) {
		return b.Auth.Register(ctx, req)
	})

	ipc.Handle(r, ipc.OpLogin, ipc.ModeInvoke, func(ctx context.Context, req LoginRequest) (*services.Connection, error) {
		conn, err := b.Form.Submit(ctx, req.Email, req.Password, req.RememberMe)
		if errors.Is(err, common.ErrAuthentication) {
			r.Emit(ipc.Event{Signal: ipc.SignalAuthFailed, Message: services.PublicMessage(err)})
		}
		return conn, err
	})

	ipc.Handle(r, ipc.OpDetectSession, ipc.ModeInvoke, func(ctx context.Context, _ struct{}) (*services.Pending, error) {
		return b.Restore.Detect(ctx)
	})

	ipc.Handle(r, ipc.OpRevalidate, ipc.ModeInvoke, func(ctx context.Context, req RevalidateRequest) (*services.Connection, error) {
		conn, err := b.Restore.Revalidate(ctx, req.Pending, req.Password)
		switch {
		case errors.Is(err, common.ErrSessionExpired):
			r.Emit(ipc.Event{Signal: ipc.SignalRedirectToLogin, Message: services.PublicMessage(err)})
		case errors.Is(err, common.ErrAuthentication):
			r.Emit(ipc.Event{Signal: ipc.SignalAuthFailed, Message: services.PublicMessage(err)})
		}
		return conn, err
	})

	ipc.Handle(r, ipc.OpLogout, ipc.ModeSend, func(ctx context.Context, conn *services.Connection) (struct{}, error) {
		if err := b.Auth.Logout(ctx, conn); err != nil {
			return struct{}{}, err
		}
		r.Emit(ipc.Event{Signal: ipc.SignalInfo, Message: "Logged out."})
		return struct{}{}, nil
	})

	ipc.Handle(r, ipc.OpConnectedUser, ipc.ModeInvoke, func(ctx context.Context, conn *services.Connection) (*services.UserInfo, error) {
		return b.Settings.ConnectedUser(ctx, conn)
	})

	ipc.Handle(r, ipc.OpSavePreferences, ipc.ModeInvoke, func(ctx context.Context, req PreferencesRequest) (models.Preferences, error) {
		return req.Preferences, b.Settings.SavePreferences(ctx, req.Conn, req.Preferences)
	})

	ipc.Handle(r, ipc.OpResetPreferences, ipc.ModeInvoke, func(ctx context.Context, conn *services.Connection) (models.Preferences, error) {
		return b.Settings.ResetPreferences(ctx, conn)
	})

	ipc.Handle(r, ipc.OpSaveKeybindings, ipc.ModeInvoke, func(ctx context.Context, req KeybindingsRequest) (models.Keybindings, error) {
		return b.Settings.SaveKeybindings(ctx, req.Conn, req.Rows)
	})

	ipc.Handle(r, ipc.OpRebind, ipc.ModeInvoke, func(ctx context.Context, req RebindRequest) (models.Keybindings, error) {
		return b.Settings.Rebind(ctx, req.Conn, req.Action, req.Combo)
	})

	ipc.Handle(r, ipc.OpResetKeybindings, ipc.ModeInvoke, func(ctx context.Context, conn *services.Connection) (models.Keybindings, error) {
		return b.Settings.ResetKeybindings(ctx, conn)
	})

	ipc.Handle(r, ipc.OpQuit, ipc.ModeSend, func(ctx context.Context, conn *services.Connection) (struct{}, error) {
		// the session file stays for the next start; only the key goes
		if conn != nil {
			conn.Close()
		}
		return struct{}{}, nil
	})

	return r
}
