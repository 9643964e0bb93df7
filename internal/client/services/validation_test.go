package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/ideauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{"ok", registerReq("alice_01", "a@x.com", "Str0ng!Pass1", false), ""},
		{"empty", RegisterRequest{}, "form"},
		{"short username", registerReq("al", "a@x.com", "Str0ng!Pass1", false), "username"},
		{"long username", registerReq(strings.Repeat("a", 21), "a@x.com", "Str0ng!Pass1", false), "username"},
		{"username symbols", registerReq("al ice", "a@x.com", "Str0ng!Pass1", false), "username"},
		{"email no at", registerReq("alice", "ax.com", "Str0ng!Pass1", false), "email"},
		{"email short", registerReq("alice", "a@x", "Str0ng!Pass1", false), "email"},
		{"email long", registerReq("alice", strings.Repeat("a", 45)+"@x.com", "Str0ng!Pass1", false), "email"},
		{"password short", registerReq("alice", "a@x.com", "S0!a", false), "password"},
		{"password no upper", registerReq("alice", "a@x.com", "str0ng!pass1", false), "password"},
		{"password no lower", registerReq("alice", "a@x.com", "STR0NG!PASS1", false), "password"},
		{"password no digit", registerReq("alice", "a@x.com", "Strong!Pass", false), "password"},
		{"password no special", registerReq("alice", "a@x.com", "Str0ngPass1", false), "password"},
		{"mismatch", RegisterRequest{Username: "alice", Email: "a@x.com",
			Password: []byte("Str0ng!Pass1"), ConfirmPassword: []byte("Str0ng!Pass2")}, "confirm_password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegistration(tt.req)
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, common.ErrValidation)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, verr.Error(), PublicMessage(err))
		})
	}
}
