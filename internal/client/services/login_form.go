package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/ideauth/internal/client/throttle"
	"github.com/dmitrijs2005/ideauth/internal/common"
)

// LoginForm is one login screen: it submits credentials and owns the
// failed-attempt counter of that screen.
type LoginForm struct {
	auth     AuthService
	throttle *throttle.Throttle
}

func NewLoginForm(auth AuthService, th *throttle.Throttle) *LoginForm {
	return &LoginForm{auth: auth, throttle: th}
}

// Submit logs in. On an authentication failure the throttle delay runs
// before the error is returned; a success resets the counter. Empty fields
// are rejected without touching the counter.
func (f *LoginForm) Submit(ctx context.Context, email string, password []byte, rememberMe bool) (*Connection, error) {
	email = strings.TrimSpace(email)
	if email == "" || len(password) == 0 {
		return nil, invalid("form", "email and password are required")
	}

	conn, err := f.auth.Login(ctx, email, password, rememberMe)
	if errors.Is(err, common.ErrAuthentication) {
		if _, werr := f.throttle.Fail(ctx); werr != nil {
			return nil, werr
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	f.throttle.Reset()
	return conn, nil
}

// Attempts is the number of consecutive failures of this form.
func (f *LoginForm) Attempts() int { return f.throttle.Attempts() }
