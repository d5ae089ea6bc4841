package user

import (
	"context"
	"strings"

	"gorm.io/gorm"

	domain "parley-server/chat-api/internal/domain/user"
	"parley-server/chat-api/internal/infrastructure/database/entities"
	"parley-server/chat-api/internal/utils/platformerrors"
)

// Repository resolves auth subjects against the users table.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a user repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ domain.Repository = (*Repository)(nil)

// ResolveSubject finds or creates the user row for a subject. The unique
// index on subject makes concurrent first-sight resolution converge on one
// row.
func (r *Repository) ResolveSubject(ctx context.Context, subject string) (*domain.User, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = domain.GuestSubject
	}

	var entity entities.User
	err := r.db.WithContext(ctx).
		Where(entities.User{Subject: subject}).
		FirstOrCreate(&entity).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to resolve user",
			err,
			"resolve-subject-db-error",
		)
	}

	return entity.EtoD(), nil
}
