package repositories

import (
	"context"

	"archivist/internal/domain/models"
)

// UserRepository reads users owned by the identity provider
type UserRepository interface {
	// GetByID retrieves a user by ID, active or not
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// Upsert creates or refreshes a user row (used when seeding)
	Upsert(ctx context.Context, user *models.User) error
}
