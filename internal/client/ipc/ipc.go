// Package ipc is the typed dispatch table between the host UI and the account
// flows. Every operation is registered once under an Op with its request and
// response types and a mode: Send for fire-and-forget notifications, Invoke
// for request/reply calls. Flows talk back to the UI through Signals.
package ipc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Op names an operation.
type Op string

const (
	OpRegister         Op = "register"
	OpLogin            Op = "login"
	OpDetectSession    Op = "detect-session"
	OpRevalidate       Op = "revalidate"
	OpLogout           Op = "logout"
	OpConnectedUser    Op = "connected-user"
	OpSavePreferences  Op = "save-preferences"
	OpResetPreferences Op = "reset-preferences"
	OpSaveKeybindings  Op = "save-keybindings"
	OpRebind           Op = "rebind"
	OpResetKeybindings Op = "reset-keybindings"
	OpQuit             Op = "quit"
)

// Mode is how an Op is called.
type Mode int

const (
	ModeSend Mode = iota
	ModeInvoke
)

func (m Mode) String() string {
	if m == ModeInvoke {
		return "invoke"
	}
	return "send"
}

// Signal is a notification from the flows to the UI.
type Signal string

const (
	SignalBackoffPending  Signal = "backoff-pending"
	SignalAuthFailed      Signal = "auth-failed"
	SignalRedirectToLogin Signal = "redirect-to-login"
	SignalError           Signal = "error"
	SignalInfo            Signal = "info"
)

// Event carries a Signal. Delay is set for SignalBackoffPending.
type Event struct {
	Signal  Signal
	Message string
	Delay   time.Duration
}

var (
	ErrUnknownOp   = errors.New("unknown operation")
	ErrWrongMode   = errors.New("operation called in the wrong mode")
	ErrRequestType = errors.New("request type mismatch")
	ErrDuplicateOp = errors.New("operation already registered")
)

type handler struct {
	mode Mode
	call func(ctx context.Context, req any) (any, error)
}

// Router dispatches operations to their handlers and fans signals out to
// listeners.
type Router struct {
	mu        sync.RWMutex
	handlers  map[Op]handler
	listeners []func(Event)
	message   func(error) string
}

// NewRouter returns an empty Router. message renders errors from Send
// handlers into SignalError events; nil uses err.Error().
func NewRouter(message func(error) string) *Router {
	if message == nil {
		message = func(err error) string { return err.Error() }
	}
	return &Router{handlers: make(map[Op]handler), message: message}
}

// Handle registers fn for op. It panics when op is already taken, which is
// a wiring bug.
func Handle[Req, Resp any](r *Router, op Op, mode Mode, fn func(ctx context.Context, req Req) (Resp, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[op]; ok {
		panic(fmt.Errorf("%w: %s", ErrDuplicateOp, op))
	}

	r.handlers[op] = handler{
		mode: mode,
		call: func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(Req)
			if !ok {
				var zero Req
				if req != nil {
					return nil, fmt.Errorf("%w: %s wants %T, got %T", ErrRequestType, op, zero, req)
				}
				typed = zero
			}
			return fn(ctx, typed)
		},
	}
}

func (r *Router) lookup(op Op, mode Mode) (handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[op]
	if !ok {
		return handler{}, fmt.Errorf("%w: %s", ErrUnknownOp, op)
	}
	if h.mode != mode {
		return handler{}, fmt.Errorf("%w: %s is %s", ErrWrongMode, op, h.mode)
	}
	return h, nil
}

// Invoke calls a request/reply operation and returns its response.
func (r *Router) Invoke(ctx context.Context, op Op, req any) (any, error) {
	h, err := r.lookup(op, ModeInvoke)
	if err != nil {
		return nil, err
	}
	return h.call(ctx, req)
}

// InvokeAs is Invoke with the response asserted to Resp.
func InvokeAs[Resp any](ctx context.Context, r *Router, op Op, req any) (Resp, error) {
	var zero Resp

	out, err := r.Invoke(ctx, op, req)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	resp, ok := out.(Resp)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T", ErrRequestType, op, out)
	}
	return resp, nil
}

// Send runs a fire-and-forget operation. Handler errors are not returned;
// they surface as SignalError events. Only dispatch problems are returned.
func (r *Router) Send(ctx context.Context, op Op, req any) error {
	h, err := r.lookup(op, ModeSend)
	if err != nil {
		return err
	}
	if _, err := h.call(ctx, req); err != nil {
		r.Emit(Event{Signal: SignalError, Message: r.message(err)})
	}
	return nil
}

// Subscribe adds a listener for every emitted Event.
func (r *Router) Subscribe(fn func(Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Emit delivers e to all listeners in subscription order.
func (r *Router) Emit(e Event) {
	r.mu.RLock()
	listeners := append(([]func(Event))(nil), r.listeners...)
	r.mu.RUnlock()

	for _, fn := range listeners {
		fn(e)
	}
}

// Ops lists the registered operations with their modes.
func (r *Router) Ops() map[Op]Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[Op]Mode, len(r.handlers))
	for op, h := range r.handlers {
		out[op] = h.mode
	}
	return out
}
