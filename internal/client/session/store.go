package session

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

// FileStore persists the single active session file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

// Save fully overwrites the file with mode 0600.
func (s *FileStore) Save(f models.SessionFile) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := filex.OverwriteOwnerOnly(s.path, data); err != nil {
		return fmt.Errorf("%w: failed to write session: %v", common.ErrPersistence, err)
	}
	return nil
}

// Load returns nil, nil when there is no session file.
func (s *FileStore) Load() (*models.SessionFile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read session: %v", common.ErrPersistence, err)
	}

	var f models.SessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: corrupt session file: %v", common.ErrPersistence, err)
	}
	if f.UserID == "" {
		return nil, fmt.Errorf("%w: session file has no user id", common.ErrPersistence)
	}
	return &f, nil
}

// Delete removes the file; a missing file is not an error.
func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: failed to delete session: %v", common.ErrPersistence, err)
	}
	return nil
}
