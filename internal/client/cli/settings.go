package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/ideauth/internal/client/ipc"
	"github.com/dmitrijs2005/ideauth/internal/client/models"
	"github.com/dmitrijs2005/ideauth/internal/client/services"
)

// Preferences prints the connected user's editor settings.
func (a *App) Preferences(ctx context.Context) error {
	info, err := ipc.InvokeAs[*services.UserInfo](ctx, a.router, ipc.OpConnectedUser, a.conn)
	if err != nil {
		return a.fail(ctx, "preferences", err)
	}
	printPreferences(a.out, info.Preferences)
	return nil
}

// SetPreference changes one setting by its JSON name and saves the record.
func (a *App) SetPreference(ctx context.Context, key, value string) error {
	info, err := ipc.InvokeAs[*services.UserInfo](ctx, a.router, ipc.OpConnectedUser, a.conn)
	if err != nil {
		return a.fail(ctx, "preferences", err)
	}

	p := info.Preferences
	if err := setPreference(&p, key, value); err != nil {
		return a.fail(ctx, "set preference", err)
	}

	saved, err := ipc.InvokeAs[models.Preferences](ctx, a.router, ipc.OpSavePreferences, PreferencesRequest{Conn: a.conn, Preferences: p})
	if err != nil {
		return a.fail(ctx, "save preferences", err)
	}
	printPreferences(a.out, saved)
	return nil
}

func (a *App) ResetPreferences(ctx context.Context) error {
	p, err := ipc.InvokeAs[models.Preferences](ctx, a.router, ipc.OpResetPreferences, a.conn)
	if err != nil {
		return a.fail(ctx, "reset preferences", err)
	}
	printPreferences(a.out, p)
	return nil
}

// Keybindings prints the connected user's table sorted by action.
func (a *App) Keybindings(ctx context.Context) error {
	info, err := ipc.InvokeAs[*services.UserInfo](ctx, a.router, ipc.OpConnectedUser, a.conn)
	if err != nil {
		return a.fail(ctx, "keybindings", err)
	}
	printKeybindings(a.out, info.Keybindings)
	return nil
}

// Bind moves action to combo.
func (a *App) Bind(ctx context.Context, combo, action string) error {
	kb, err := ipc.InvokeAs[models.Keybindings](ctx, a.router, ipc.OpRebind, RebindRequest{Conn: a.conn, Action: action, Combo: combo})
	if err != nil {
		return a.fail(ctx, "bind", err)
	}
	printKeybindings(a.out, kb)
	return nil
}

func (a *App) ResetKeybindings(ctx context.Context) error {
	kb, err := ipc.InvokeAs[models.Keybindings](ctx, a.router, ipc.OpResetKeybindings, a.conn)
	if err != nil {
		return a.fail(ctx, "reset keybindings", err)
	}
	printKeybindings(a.out, kb)
	return nil
}

func setPreference(p *models.Preferences, key, value string) error {
	value = strings.TrimSpace(value)

	switch key {
	case "theme":
		p.Theme = value
	case "fontFamily":
		p.FontFamily = value
	case "language":
		p.Language = value
	case "fontSize":
		n, err := strconv.Atoi(strings.TrimSuffix(value, "px"))
		if err != nil {
			return &services.ValidationError{Field: key, Message: "must be a number of px"}
		}
		p.FontSize = models.FontSize{Size: n, Unit: "px"}
	case "tabSize":
		n, err := strconv.Atoi(value)
		if err != nil {
			return &services.ValidationError{Field: key, Message: "must be a number"}
		}
		p.TabSize = n
	case "autoSave", "autocomplete", "showSuggestions", "syntaxHighlighting", "showLineNumbers":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return &services.ValidationError{Field: key, Message: "must be true or false"}
		}
		*boolPreference(p, key) = b
	default:
		return &services.ValidationError{Field: key, Message: "unknown setting"}
	}
	return nil
}

func boolPreference(p *models.Preferences, key string) *bool {
	switch key {
	case "autoSave":
		return &p.AutoSave
	case "autocomplete":
		return &p.Autocomplete
	case "showSuggestions":
		return &p.ShowSuggestions
	case "syntaxHighlighting":
		return &p.SyntaxHighlighting
	default:
		return &p.ShowLineNumbers
	}
}

func printPreferences(w io.Writer, p models.Preferences) {
	rows := [][2]string{
		{"theme", p.Theme},
		{"fontSize", fmt.Sprintf("%d%s", p.FontSize.Size, p.FontSize.Unit)},
		{"fontFamily", p.FontFamily},
		{"language", p.Language},
		{"autoSave", strconv.FormatBool(p.AutoSave)},
		{"tabSize", strconv.Itoa(p.TabSize)},
		{"autocomplete", strconv.FormatBool(p.Autocomplete)},
		{"showSuggestions", strconv.FormatBool(p.ShowSuggestions)},
		{"syntaxHighlighting", strconv.FormatBool(p.SyntaxHighlighting)},
		{"showLineNumbers", strconv.FormatBool(p.ShowLineNumbers)},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-20s %s\n", r[0], r[1])
	}
}

func printKeybindings(w io.Writer, kb models.Keybindings) {
	combos := make([]string, 0, len(kb))
	for c := range kb {
		combos = append(combos, c)
	}
	sort.Slice(combos, func(i, j int) bool {
		if kb[combos[i]] != kb[combos[j]] {
			return kb[combos[i]] < kb[combos[j]]
		}
		return combos[i] < combos[j]
	})
	for _, c := range combos {
		fmt.Fprintf(w, "  %-20s %s\n", kb[c], c)
	}
}
