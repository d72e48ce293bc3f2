package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sumire/identity/internal/domain"
)

// ProjectRepository handles project data access operations.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// FindPersonalProjectName returns the name of the personal project owned by login.
func (r *ProjectRepository) FindPersonalProjectName(ctx context.Context, login string) (string, error) {
	var name string
	err := r.db.GetContext(ctx, &name,
		`SELECT id FROM projects WHERE owner_login = $1 AND type = $2`,
		login, domain.ProjectTypePersonal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("find personal project of %s: %w", login, err)
	}
	return name, nil
}

// Exists reports whether a project with the given name exists.
func (r *ProjectRepository) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, name)
	if err != nil {
		return false, fmt.Errorf("check project %s: %w", name, err)
	}
	return exists, nil
}

// Save inserts a project and returns its id. Name or personal-project
// collisions yield domain.ErrConflict.
func (r *ProjectRepository) Save(ctx context.Context, project domain.Project) (string, error) {
	var id string
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO projects (id, type, owner_login, description, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		project.ID, project.Type, project.OwnerLogin, project.Description, project.CreatedAt,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err, "") {
			return "", fmt.Errorf("%w: project %q", domain.ErrConflict, project.ID)
		}
		return "", fmt.Errorf("save project %s: %w", project.ID, err)
	}
	return id, nil
}
