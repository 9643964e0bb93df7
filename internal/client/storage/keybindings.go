package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/ideauth/internal/client/models"
	"github.com/dmitrijs2005/ideauth/internal/common"
	"github.com/dmitrijs2005/ideauth/internal/filex"
)

// builtinKeybindings seeds a data directory that has no keybindings file yet.
var builtinKeybindings = models.Keybindings{
	"control+n": "new file",
	"control+o": "open file",
	"control+s": "save file",
	"control+w": "close file",
	"control+q": "close ide",
}

// KeybindingsFile reads the default keybindings assigned at registration and
// on reset.
type KeybindingsFile struct {
	path string
}

func NewKeybindingsFile(path string) *KeybindingsFile {
	return &KeybindingsFile{path: path}
}

// Defaults loads the table. A missing or unreadable file is a persistence
// error; combos are canonicalised on the way in.
func (f *KeybindingsFile) Defaults() (models.Keybindings, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: keybindings file %s is missing", common.ErrPersistence, f.path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read keybindings: %v", common.ErrPersistence, err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: corrupt keybindings file: %v", common.ErrPersistence, err)
	}

	rows := make([]models.Binding, 0, len(raw))
	for combo, action := range raw {
		rows = append(rows, models.Binding{Action: action, Combo: combo})
	}
	kb, conflicts := models.FromBindings(rows)
	if len(conflicts) > 0 {
		return nil, fmt.Errorf("%w: default keybindings: %v", common.ErrKeybindingConflict, conflicts)
	}
	return kb, nil
}

// EnsureExists writes the built-in table when no file is present. It reports
// whether a file was created.
func (f *KeybindingsFile) EnsureExists() (bool, error) {
	if _, err := os.Stat(f.path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to stat keybindings: %w", err)
	}

	data, err := json.MarshalIndent(builtinKeybindings, "", "  ")
	if err != nil {
		return false, err
	}
	if err := filex.ReplaceAtomic(f.path, data); err != nil {
		return false, fmt.Errorf("failed to write keybindings: %w", err)
	}
	return true, nil
}
