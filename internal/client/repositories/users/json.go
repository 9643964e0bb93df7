package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/dmitrijs2005/ideauth/internal/client/models"
	"github.com/dmitrijs2005/ideauth/internal/common"
	"github.com/dmitrijs2005/ideauth/internal/filex"
)

// JSONRepository keeps the whole user table as one JSON array on disk.
type JSONRepository struct {
	mu   sync.Mutex
	path string
}

func NewJSONRepository(path string) *JSONRepository {
	return &JSONRepository{path: path}
}

// read loads the table; a missing file is an empty table.
func (r *JSONRepository) read() ([]models.User, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.User{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read users: %v", common.ErrPersistence, err)
	}
	if len(data) == 0 {
		return []models.User{}, nil
	}

	var list []models.User
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: corrupt users file: %v", common.ErrPersistence, err)
	}
	return list, nil
}

func (r *JSONRepository) write(list []models.User) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode users: %w", err)
	}
	if err := filex.ReplaceAtomic(r.path, data); err != nil {
		return fmt.Errorf("%w: failed to write users: %v", common.ErrPersistence, err)
	}
	return nil
}

func (r *JSONRepository) Create(ctx context.Context, u *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.read()
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].UserID == u.UserID {
			return fmt.Errorf("failed to create user[%s]: duplicate id", u.UserID)
		}
	}

	return r.write(append(list, *u))
}

func (r *JSONRepository) List(ctx context.Context) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.read()
}

func (r *JSONRepository) Get(ctx context.Context, userID string) (*models.User, error) {
	list, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].UserID == userID {
			return &list[i], nil
		}
	}
	return nil, nil
}

func (r *JSONRepository) Update(ctx context.Context, u *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.read()
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].UserID == u.UserID {
			list[i] = *u
			return r.write(list)
		}
	}
	return fmt.Errorf("failed to update user[%s]: %w", u.UserID, common.ErrorNotFound)
}

func (r *JSONRepository) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.read()
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].UserID == userID {
			return r.write(append(list[:i], list[i+1:]...))
		}
	}
	return fmt.Errorf("failed to delete user[%s]: %w", userID, common.ErrorNotFound)
}
