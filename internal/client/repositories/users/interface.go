package users

import (
	"context"

	"github.com/dmitrijs2005/ideauth/internal/client/models"
)

type Repository interface {
	// Create appends a new record in a single write.
	Create(ctx context.Context, u *models.User) error
	// List returns every record in stored order.
	List(ctx context.Context) ([]models.User, error)
	// Get returns nil, nil when no record has the id.
	Get(ctx context.Context, userID string) (*models.User, error)
	// Update replaces the record with the same id; common.ErrorNotFound if absent.
	Update(ctx context.Context, u *models.User) error
	// Delete removes the record with the id; common.ErrorNotFound if absent.
	Delete(ctx context.Context, userID string) error
}
