package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dmitrijs2005/ideauth/internal/client/ipc"
	"github.com/fatih/color"
)

// Notifier renders router signals on the terminal. A pending backoff shows
// a spinner until the next signal or Stop.
type Notifier struct {
	mu      sync.Mutex
	w       io.Writer
	spin    *spinner.Spinner
	spinOn  bool
	onEvent func(ipc.Event)
}

func NewNotifier(w io.Writer) *Notifier {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	_ = s.Color("cyan")
	return &Notifier{w: w, spin: s}
}

// OnEvent hooks fn to every handled event, after it is rendered.
func (n *Notifier) OnEvent(fn func(ipc.Event)) { n.onEvent = fn }

// Handle is the router listener.
func (n *Notifier) Handle(e ipc.Event) {
	n.mu.Lock()
	n.stopLocked()

	switch e.Signal {
	case ipc.SignalBackoffPending:
		n.spin.Suffix = fmt.Sprintf(" Too many attempts, please wait %s", e.Delay.Round(100*time.Millisecond))
		n.spin.Start()
		n.spinOn = true
	case ipc.SignalAuthFailed:
		fmt.Fprintln(n.w, color.RedString("✗")+" "+e.Message)
	case ipc.SignalRedirectToLogin:
		fmt.Fprintln(n.w, color.YellowString("!")+" "+e.Message)
	case ipc.SignalError:
		fmt.Fprintln(n.w, color.RedString("✗")+" "+e.Message)
	case ipc.SignalInfo:
		fmt.Fprintln(n.w, color.GreenString("✓")+" "+e.Message)
	}
	n.mu.Unlock()

	if n.onEvent != nil {
		n.onEvent(e)
	}
}

// Stop ends a running spinner.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopLocked()
}

func (n *Notifier) stopLocked() {
	if n.spinOn {
		n.spin.Stop()
		n.spinOn = false
	}
}
