// Package cli provides the interactive ide account client.
//
// It wires configuration, the user store, the account services and an
// interactive REPL. Every command goes through the ipc.Router, the same
// typed dispatch table a desktop shell would use. Typical flow: look for a
// remembered session and ask for its password, otherwise wait for register
// or login, then serve settings commands for the connected user.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
