package services

import (
	"github.com/dmitrijs2005/ideauth/internal/client/models"
	"github.com/dmitrijs2005/ideauth/internal/common"
)

// Connection is the connected-user context: the open session and the user's
// data key, held in memory only.
type Connection struct {
	session models.ConnectedUser
	dataKey []byte
}

func newConnection(s models.ConnectedUser, ku []byte) *Connection {
	return &Connection{session: s, dataKey: ku}
}

func (c *Connection) UserID() string { return c.session.UserID }

// Session returns the session fields; the token is included.
func (c *Connection) Session() models.ConnectedUser { return c.session }

// Closed reports whether Close was called.
func (c *Connection) Closed() bool { return c.dataKey == nil }

// Close wipes the data key. The connection is unusable afterwards.
func (c *Connection) Close() {
	common.WipeByteArray(c.dataKey)
	c.dataKey = nil
}

func (c *Connection) key() ([]byte, error) {
	if c == nil || c.dataKey == nil {
		return nil, common.ErrNotConnected
	}
	return c.dataKey, nil
}
