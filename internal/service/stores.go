package service

import (
	"context"

	"github.com/sumire/identity/internal/domain"
)

// UserStore defines the user data access interface consumed by the services.
// FindByLogin returns domain.ErrNotFound when no user has the login.
// Create never touches an existing row and returns domain.ErrConflict when
// the login is already taken.
type UserStore interface {
	FindByLogin(ctx context.Context, login string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user domain.User) (*domain.User, error)
	Upsert(ctx context.Context, user domain.User) (*domain.User, error)
}

// ProjectStore defines the project data access interface.
// FindPersonalProjectName returns domain.ErrNotFound when the user has none,
// Save returns domain.ErrConflict when a unique constraint rejects the project.
type ProjectStore interface {
	FindPersonalProjectName(ctx context.Context, login string) (string, error)
	Exists(ctx context.Context, name string) (bool, error)
	Save(ctx context.Context, project domain.Project) (string, error)
}

// BinaryStore persists binary resources such as user photos.
type BinaryStore interface {
	Store(ctx context.Context, data domain.BinaryData) (string, error)
	Delete(ctx context.Context, id string) error
}
