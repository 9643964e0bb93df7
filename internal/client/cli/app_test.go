package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/ideauth/internal/client/config"
	"github.com/dmitrijs2005/ideauth/internal/client/ipc"
	"github.com/dmitrijs2005/ideauth/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongPassword = "Str0ng!Pass"

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.DataDir = dir
	// cheap argon2id keeps the suite fast
	c.KDFTime, c.KDFMemory, c.KDFThreads = 1, 64, 1
	c.MaxBackoff = time.Millisecond
	return c
}

func newTestApp(t *testing.T, c *config.Config) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	a, err := newApp(context.Background(), c, logging.Discard(), strings.NewReader(""), &out)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.stores.Close() })
	return a, &out
}

// stubInputs feeds the prompts from queues. Passwords are copied per call
// since the commands wipe them.
func stubInputs(t *testing.T, texts []string, passwords []string, yes bool) {
	t.Helper()
	origST, origGP, origYN := getSimpleText, getPassword, getYesNo
	t.Cleanup(func() {
		getSimpleText, getPassword, getYesNo = origST, origGP, origYN
	})

	getSimpleText = func(_ *bufio.Reader, prompt string, _ io.Writer) (string, error) {
		if len(texts) == 0 {
			return "", io.EOF
		}
		s := texts[0]
		texts = texts[1:]
		return s, nil
	}
	getPassword = func(_ io.Writer, _ string) ([]byte, error) {
		if len(passwords) == 0 {
			return nil, io.EOF
		}
		s := passwords[0]
		passwords = passwords[1:]
		return []byte(s), nil
	}
	getYesNo = func(*bufio.Reader, string, io.Writer) (bool, error) { return yes, nil }
}

func registerAlice(t *testing.T, a *App, remember bool) {
	t.Helper()
	stubInputs(t, []string{"alice", "alice@example.org"}, []string{strongPassword, strongPassword}, remember)
	require.NoError(t, a.Register(context.Background()))
	require.True(t, a.isLoggedIn())
}

func TestNewApp_WiresEveryOperation(t *testing.T) {
	c := testConfig(t, t.TempDir())
	a, _ := newTestApp(t, c)

	ops := a.router.Ops()
	for _, op := range []ipc.Op{
		ipc.OpRegister, ipc.OpLogin, ipc.OpDetectSession, ipc.OpRevalidate,
		ipc.OpConnectedUser, ipc.OpSavePreferences, ipc.OpResetPreferences,
		ipc.OpSaveKeybindings, ipc.OpRebind, ipc.OpResetKeybindings,
	} {
		assert.Equal(t, ipc.ModeInvoke, ops[op], op)
	}
	assert.Equal(t, ipc.ModeSend, ops[ipc.OpLogout])
	assert.Equal(t, ipc.ModeSend, ops[ipc.OpQuit])

	_, err := os.Stat(c.KeybindingsPath())
	assert.NoError(t, err, "default keybindings seeded")
}

func TestNewApp_SQLiteBackend(t *testing.T) {
	c := testConfig(t, t.TempDir())
	c.StoreBackend = config.BackendSQLite
	a, _ := newTestApp(t, c)

	registerAlice(t, a, false)
	_, err := os.Stat(filepath.Join(c.DataDir, c.SQLiteFile))
	assert.NoError(t, err)
}

func TestNewApp_UnknownBackend(t *testing.T) {
	c := testConfig(t, t.TempDir())
	c.StoreBackend = "tape"
	_, err := newApp(context.Background(), c, logging.Discard(), strings.NewReader(""), io.Discard)
	require.Error(t, err)
}

func TestIsLoggedIn(t *testing.T) {
	a, _ := newTestApp(t, testConfig(t, t.TempDir()))
	assert.False(t, a.isLoggedIn())
	assert.Equal(t, "not logged in", a.status())

	registerAlice(t, a, false)
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "alice", a.status())

	a.conn.Close()
	assert.False(t, a.isLoggedIn())
}

func TestClose_KeepsSessionFile(t *testing.T) {
	c := testConfig(t, t.TempDir())
	a, _ := newTestApp(t, c)
	registerAlice(t, a, true)
	conn := a.conn

	a.Close(context.Background())

	assert.True(t, conn.Closed())
	assert.Nil(t, a.conn)
	_, err := os.Stat(c.SessionPath())
	assert.NoError(t, err)
}
