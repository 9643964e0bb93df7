package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/ideauth/internal/client/envelope"
	"github.com/dmitrijs2005/ideauth/internal/common"
)

// User-facing messages, one per error kind. Raw error text is logged and
// never shown.
const (
	MsgAuthentication = "Incorrect email or password."
	MsgIntegrity      = "Your account data could not be verified. It may be damaged."
	MsgPersistence    = "Account files are missing or unreadable."
	MsgSessionExpired = "Your session has expired. Please log in again."
	MsgConflict       = "Some keybindings are assigned to more than one action."
	MsgNotConnected   = "You are not logged in."
	MsgCanceled       = "Canceled."
	MsgUnexpected     = "Something went wrong."
)

// PublicMessage maps err to the fixed message shown for its kind.
// Validation errors carry their own field message.
func PublicMessage(err error) string {
	var verr *ValidationError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, common.ErrAuthentication):
		return MsgAuthentication
	case errors.Is(err, common.ErrIntegrity), errors.Is(err, envelope.ErrDecryption):
		return MsgIntegrity
	case errors.Is(err, common.ErrPersistence):
		return MsgPersistence
	case errors.Is(err, common.ErrSessionExpired):
		return MsgSessionExpired
	case errors.Is(err, common.ErrKeybindingConflict):
		return MsgConflict
	case errors.Is(err, common.ErrNotConnected):
		return MsgNotConnected
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return MsgCanceled
	default:
		return MsgUnexpected
	}
}
