package models

import (
	"fmt"
	"sort"
	"strings"
)

// Keybindings maps a canonical key combo ("control+s") to an action name
// ("save file").
type Keybindings map[string]string

// Binding is one action/combo row as edited by the user.
type Binding struct {
	Action string `json:"action"`
	Combo  string `json:"combo"`
}

// Conflict is a combo claimed by two different actions.
type Conflict struct {
	Combo          string
	ExistingAction string
	NewAction      string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s → %q / %q", c.Combo, c.ExistingAction, c.NewAction)
}

var keyAliases = map[string]string{
	"ctrl": "control", "control": "control",
	"cmd": "meta", "meta": "meta", "command": "meta",
	"altgr": "altgraph", "alt": "alt", "shift": "shift",
	"esc": "esc", "escape": "esc",
	"enter": "enter", "space": "space", "tab": "tab",
	"backspace": "backspace", "del": "delete", "delete": "delete",
	"^": "dead",
}

// CanonicalCombo lower-cases each "+"-separated token and maps aliases
// (ctrl→control, cmd→meta, escape→esc, ...). A literal plus key is written
// "++" at the end of a combo ("control++").
func CanonicalCombo(combo string) string {
	combo = strings.TrimSpace(combo)
	if combo == "" {
		return ""
	}

	plusKey := false
	if strings.HasSuffix(combo, "++") {
		plusKey = true
		combo = strings.TrimSuffix(combo, "++")
	} else if combo == "+" {
		return "+"
	}

	var parts []string
	for _, tok := range strings.Split(combo, "+") {
		low := strings.ToLower(strings.TrimSpace(tok))
		if low == "" {
			continue
		}
		if alias, ok := keyAliases[low]; ok {
			low = alias
		}
		parts = append(parts, low)
	}
	if plusKey {
		parts = append(parts, "+")
	}
	return strings.Join(parts, "+")
}

// FromBindings builds a Keybindings table from edited rows. Rows with an empty
// action or combo are skipped. A combo bound to two different actions is a
// conflict; the first binding is kept and all conflicts are returned.
func FromBindings(rows []Binding) (Keybindings, []Conflict) {
	kb := make(Keybindings, len(rows))
	var conflicts []Conflict

	for _, row := range rows {
		action := strings.TrimSpace(row.Action)
		combo := CanonicalCombo(row.Combo)
		if action == "" || combo == "" {
			continue
		}
		if existing, ok := kb[combo]; ok && existing != action {
			conflicts = append(conflicts, Conflict{Combo: combo, ExistingAction: existing, NewAction: action})
			continue
		}
		kb[combo] = action
	}
	return kb, conflicts
}

// Rebind returns a copy of kb where action is bound only to combo. An empty
// combo just unbinds the action.
func (kb Keybindings) Rebind(action, combo string) Keybindings {
	out := kb.Clone()
	for k, v := range out {
		if v == action {
			delete(out, k)
		}
	}
	if c := CanonicalCombo(combo); c != "" {
		out[c] = action
	}
	return out
}

// Clone returns an independent copy; nil stays an empty table.
func (kb Keybindings) Clone() Keybindings {
	out := make(Keybindings, len(kb))
	for k, v := range kb {
		out[k] = v
	}
	return out
}

// Bindings lists the table as rows sorted by action, then combo.
func (kb Keybindings) Bindings() []Binding {
	rows := make([]Binding, 0, len(kb))
	for combo, action := range kb {
		rows = append(rows, Binding{Action: action, Combo: combo})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Action != rows[j].Action {
			return rows[i].Action < rows[j].Action
		}
		return rows[i].Combo < rows[j].Combo
	})
	return rows
}
