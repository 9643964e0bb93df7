package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/ideauth/internal/client/config"
	"github.com/dmitrijs2005/ideauth/internal/client/envelope"
	"github.com/dmitrijs2005/ideauth/internal/client/ipc"
	"github.com/dmitrijs2005/ideauth/internal/client/services"
	"github.com/dmitrijs2005/ideauth/internal/client/session"
	"github.com/dmitrijs2005/ideauth/internal/client/storage"
	"github.com/dmitrijs2005/ideauth/internal/client/throttle"
	"github.com/dmitrijs2005/ideauth/internal/logging"
)

// App is the terminal front end. Every account operation goes through the
// router; the App only keeps the current connection.
type App struct {
	config   *config.Config
	log      logging.Logger
	router   *ipc.Router
	notifier *Notifier
	stores   *storage.Stores
	conn     *services.Connection
	userName string
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp opens the stores selected by c, seeds the default keybindings file
// and wires the services behind a router.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	return newApp(ctx, c, log, os.Stdin, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	stores, err := storage.Open(ctx, c)
	if err != nil {
		log.Error(ctx, "error opening stores", "error", err)
		return nil, err
	}

	keys := storage.NewKeybindingsFile(c.KeybindingsPath())
	created, err := keys.EnsureExists()
	if err != nil {
		_ = stores.Close()
		return nil, err
	}
	if created {
		log.Info(ctx, "default keybindings written", "path", c.KeybindingsPath())
	}

	env := envelope.NewManager(c.KDFParams())
	deps := services.Deps{
		Users:       stores.Users,
		Sessions:    session.NewFileStore(c.SessionPath()),
		Issuer:      session.NewIssuer(env, c.SessionTTL, c.RememberMeTTL),
		Envelope:    env,
		Keybindings: keys,
		HashParams:  c.HashParams(),
		Log:         log,
	}

	a := &App{
		config:   c,
		log:      log,
		stores:   stores,
		reader:   bufio.NewReader(in),
		out:      out,
		notifier: NewNotifier(out),
	}

	auth := services.NewAuthService(deps)
	th := throttle.New(c.MaxBackoff, func(d time.Duration) {
		a.router.Emit(ipc.Event{Signal: ipc.SignalBackoffPending, Delay: d})
	})

	a.router = NewRouter(&Backend{
		Auth:     auth,
		Form:     services.NewLoginForm(auth, th),
		Restore:  services.NewRestoreService(deps),
		Settings: services.NewSettingsService(deps),
	})
	a.router.Subscribe(a.notifier.Handle)

	return a, nil
}

// Run restores a remembered session, if any, and then serves the prompt
// until EOF or exit.
func (a *App) Run(ctx context.Context) error {
	defer a.Close(ctx)

	if err := a.Restore(ctx); err != nil {
		if err == errQuit {
			return nil
		}
		return err
	}

	runREPL(ctx, a, a.status, bufio.NewScanner(a.reader))
	return nil
}

// Close drops the in-memory key and releases the stores. The session file
// stays for the next start.
func (a *App) Close(ctx context.Context) {
	if err := a.router.Send(ctx, ipc.OpQuit, a.conn); err != nil {
		a.log.Warn(ctx, "quit", "error", err)
	}
	a.notifier.Stop()
	a.conn = nil
	if err := a.stores.Close(); err != nil {
		a.log.Warn(ctx, "error closing stores", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.conn != nil && !a.conn.Closed()
}

func (a *App) status() string {
	if !a.isLoggedIn() {
		return "not logged in"
	}
	if a.userName != "" {
		return a.userName
	}
	return a.conn.UserID()
}

func (a *App) connect(ctx context.Context, conn *services.Connection) {
	a.conn = conn
	a.userName = ""

	info, err := ipc.InvokeAs[*services.UserInfo](ctx, a.router, ipc.OpConnectedUser, conn)
	if err != nil {
		a.log.Warn(ctx, "could not read connected user", "error", err)
		return
	}
	a.userName = info.Username
}

// fail prints the public message of err; the raw error goes to the log.
func (a *App) fail(ctx context.Context, op string, err error) error {
	a.log.Debug(ctx, op+" failed", "error", err)
	fmt.Fprintln(a.out, services.PublicMessage(err))
	return err
}
