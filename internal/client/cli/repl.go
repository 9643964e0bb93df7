package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Preferences(ctx context.Context) error
	SetPreference(ctx context.Context, key, value string) error
	ResetPreferences(ctx context.Context) error
	Keybindings(ctx context.Context) error
	Bind(ctx context.Context, combo, action string) error
	ResetKeybindings(ctx context.Context) error
}

// runREPL reads commands line by line and dispatches them to a. The loop
// exits on scanner EOF or when the user types "exit" or "quit".
//
//	Not logged in:
//	  register, login, help, exit | quit
//
//	Logged in:
//	  whoami
//	  prefs | prefs set <key> <value> | prefs reset
//	  keys | bind <combo> <action...> | resetkeys
//	  logout, help, exit | quit
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("ide> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}
		if cmd == "help" {
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, prefs [set <key> <value> | reset], keys, bind <combo> <action>, resetkeys, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}
			continue
		}

		if !a.isLoggedIn() {
			switch cmd {
			case "register":
				_ = a.Register(ctx)
			case "login":
				_ = a.Login(ctx)
			default:
				printlnFn("Unknown command:", cmd)
			}
			continue
		}

		switch cmd {
		case "whoami":
			_ = a.WhoAmI(ctx)

		case "prefs":
			switch {
			case len(args) == 0:
				_ = a.Preferences(ctx)
			case args[0] == "reset":
				_ = a.ResetPreferences(ctx)
			case args[0] == "set" && len(args) >= 3:
				_ = a.SetPreference(ctx, args[1], strings.Join(args[2:], " "))
			default:
				printlnFn("Usage: prefs [set <key> <value> | reset]")
			}

		case "keys":
			_ = a.Keybindings(ctx)

		case "bind":
			if len(args) < 2 {
				printlnFn("Usage: bind <combo> <action>")
				continue
			}
			_ = a.Bind(ctx, args[0], strings.Join(args[1:], " "))

		case "resetkeys":
			_ = a.ResetKeybindings(ctx)

		case "logout":
			_ = a.Logout(ctx)

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
