package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/ideauth/internal/client/envelope"
	"github.com/dmitrijs2005/ideauth/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestPublicMessage(t *testing.T) {
	wrap := func(err error) error { return fmt.Errorf("login: %w", err) }

	assert.Equal(t, "", PublicMessage(nil))
	assert.Equal(t, MsgAuthentication, PublicMessage(wrap(common.ErrAuthentication)))
	assert.Equal(t, MsgIntegrity, PublicMessage(wrap(common.ErrIntegrity)))
	assert.Equal(t, MsgIntegrity, PublicMessage(wrap(envelope.ErrDecryption)))
	assert.Equal(t, MsgPersistence, PublicMessage(wrap(common.ErrPersistence)))
	assert.Equal(t, MsgSessionExpired, PublicMessage(common.ErrSessionExpired))
	assert.Equal(t, MsgConflict, PublicMessage(wrap(common.ErrKeybindingConflict)))
	assert.Equal(t, MsgNotConnected, PublicMessage(common.ErrNotConnected))
	assert.Equal(t, MsgCanceled, PublicMessage(wrap(context.Canceled)))
	assert.Equal(t, MsgUnexpected, PublicMessage(errors.New("open /secret/path: permission denied")))
}
