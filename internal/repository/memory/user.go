package memory

import (
	"context"

	"archivist/internal/domain"
	"archivist/internal/domain/models"
	"archivist/internal/domain/repositories"
)

// UserRepository is an in-memory UserRepository
type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) repositories.UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.data.users[id]
	if !ok {
		return nil, domain.NewNotFoundError("user", id)
	}
	return &u, nil
}

func (r *UserRepository) Upsert(_ context.Context, u *models.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, existing := range r.store.data.users {
		if existing.Username == u.Username {
			u.ID = id
			r.store.data.users[id] = *u
			return nil
		}
	}
	u.ID = r.store.data.id()
	r.store.data.users[u.ID] = *u
	return nil
}

// AuditRepository is an in-memory AuditRepository
type AuditRepository struct {
	store *Store
}

func NewAuditRepository(store *Store) repositories.AuditRepository {
	return &AuditRepository{store: store}
}

func (r *AuditRepository) Insert(_ context.Context, entry *models.AuditEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	entry.ID = r.store.data.id()
	r.store.data.audit = append(r.store.data.audit, *entry)
	return nil
}
