package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/ideauth/internal/client/ipc"
	"github.com/dmitrijs2005/ideauth/internal/client/services"
	"github.com/dmitrijs2005/ideauth/internal/common"
)

// getSimpleText, getPassword and getYesNo are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getYesNo      = GetYesNo
)

// errQuit ends the program from the startup prompt.
var errQuit = errors.New("quit")

// Register prompts for the sign-up form and opens the first session.
// Both password copies are wiped before returning.
func (a *App) Register(ctx context.Context) error {
	if a.isLoggedIn() {
		fmt.Fprintln(a.out, "Already logged in. Log out first.")
		return nil
	}

	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword(a.out, "Confirm password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	remember, err := getYesNo(a.reader, "Remember me?", a.out)
	if err != nil {
		return err
	}

	conn, err := ipc.InvokeAs[*services.Connection](ctx, a.router, ipc.OpRegister, services.RegisterRequest{
		Username:        username,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
		RememberMe:      remember,
	})
	if err != nil {
		return a.fail(ctx, "register", err)
	}

	a.connect(ctx, conn)
	fmt.Fprintf(a.out, "Welcome, %s!\n", a.status())
	return nil
}

// Login prompts for credentials. Wrong credentials are reported through the
// auth-failed signal after the throttle delay.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		fmt.Fprintln(a.out, "Already logged in. Log out first.")
		return nil
	}

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	remember, err := getYesNo(a.reader, "Remember me?", a.out)
	if err != nil {
		return err
	}

	conn, err := ipc.InvokeAs[*services.Connection](ctx, a.router, ipc.OpLogin, LoginRequest{
		Email:      email,
		Password:   password,
		RememberMe: remember,
	})
	if errors.Is(err, common.ErrAuthentication) {
		return err
	}
	if err != nil {
		return a.fail(ctx, "login", err)
	}

	a.connect(ctx, conn)
	fmt.Fprintf(a.out, "Logged in as %s.\n", a.status())
	return nil
}

// Logout forgets the session file and the in-memory key. Failures surface
// as error signals.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, services.MsgNotConnected)
		return nil
	}
	if err := a.router.Send(ctx, ipc.OpLogout, a.conn); err != nil {
		return err
	}
	a.conn = nil
	a.userName = ""
	return nil
}

// Restore offers a remembered session at startup. An empty password skips
// to the prompt; q or quit leaves the program with errQuit. An expired
// session continues with a fresh login.
func (a *App) Restore(ctx context.Context) error {
	pending, err := ipc.InvokeAs[*services.Pending](ctx, a.router, ipc.OpDetectSession, struct{}{})
	if err != nil {
		_ = a.fail(ctx, "detect session", err)
		return nil
	}
	if pending == nil {
		return nil
	}

	fmt.Fprintln(a.out, "A saved session was found. Enter your password to continue.")
	fmt.Fprintln(a.out, "Leave it empty to log in with another account, or type q to quit.")

	for {
		password, err := getPassword(a.out, "Password")
		if err != nil {
			return err
		}

		switch strings.TrimSpace(string(password)) {
		case "":
			common.WipeByteArray(password)
			return nil
		case "q", "quit":
			common.WipeByteArray(password)
			return errQuit
		}

		conn, err := ipc.InvokeAs[*services.Connection](ctx, a.router, ipc.OpRevalidate, RevalidateRequest{
			Pending:  pending,
			Password: password,
		})
		common.WipeByteArray(password)

		switch {
		case err == nil:
			a.connect(ctx, conn)
			fmt.Fprintf(a.out, "Welcome back, %s!\n", a.status())
			return nil
		case errors.Is(err, common.ErrAuthentication):
			continue
		case errors.Is(err, common.ErrSessionExpired):
			return a.Login(ctx)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			_ = a.fail(ctx, "revalidate", err)
			return nil
		}
	}
}

// WhoAmI prints the connected user and the session expiry.
func (a *App) WhoAmI(ctx context.Context) error {
	info, err := ipc.InvokeAs[*services.UserInfo](ctx, a.router, ipc.OpConnectedUser, a.conn)
	if err != nil {
		return a.fail(ctx, "whoami", err)
	}

	fmt.Fprintf(a.out, "User:     %s\n", info.Username)
	fmt.Fprintf(a.out, "Email:    %s\n", info.Email)
	fmt.Fprintf(a.out, "ID:       %s\n", info.UserID)
	fmt.Fprintf(a.out, "Expires:  %s\n", info.Session.ExpiresTime().Format(time.RFC1123))
	fmt.Fprintf(a.out, "Remember: %t\n", info.Session.RememberMe)
	return nil
}
