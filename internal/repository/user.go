package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sumire/identity/internal/domain"
)

const userColumns = `login, email, full_name, provider_type, role, last_login,
		        synchronization_date, photo_id, default_project, is_expired`

// UserRepository handles user data access operations.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userRow struct {
	Login               string         `db:"login"`
	Email               string         `db:"email"`
	FullName            sql.NullString `db:"full_name"`
	ProviderType        string         `db:"provider_type"`
	Role                string         `db:"role"`
	LastLogin           time.Time      `db:"last_login"`
	SynchronizationDate time.Time      `db:"synchronization_date"`
	PhotoID             *string        `db:"photo_id"`
	DefaultProject      string         `db:"default_project"`
	IsExpired           bool           `db:"is_expired"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		Login:        r.Login,
		Email:        r.Email,
		FullName:     r.FullName.String,
		ProviderType: domain.ProviderType(r.ProviderType),
		Role:         domain.Role(r.Role),
		MetaInfo: domain.MetaInfo{
			LastLogin:           r.LastLogin,
			SynchronizationDate: r.SynchronizationDate,
		},
		PhotoID:          r.PhotoID,
		DefaultProjectID: r.DefaultProject,
		IsExpired:        r.IsExpired,
	}
}

// FindByLogin retrieves a user by normalized login.
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+userColumns+`
		 FROM users WHERE login = $1`, login)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user by login %s: %w", login, err)
	}
	return row.toDomain(), nil
}

// ExistsByEmail reports whether any user holds the normalized email.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email)
	if err != nil {
		return false, fmt.Errorf("check user email %s: %w", email, err)
	}
	return exists, nil
}

// Create inserts a new user. An existing row with the same login is left
// untouched and domain.ErrConflict is returned. A duplicate email yields
// domain.ErrEmailAlreadyExists.
func (r *UserRepository) Create(ctx context.Context, user domain.User) (*domain.User, error) {
	var row userRow
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (login, email, full_name, provider_type, role, last_login,
		                    synchronization_date, photo_id, default_project, is_expired)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (login) DO NOTHING
		 RETURNING `+userColumns,
		user.Login, user.Email, nullString(user.FullName), user.ProviderType, user.Role,
		user.MetaInfo.LastLogin, user.MetaInfo.SynchronizationDate, user.PhotoID,
		user.DefaultProjectID, user.IsExpired,
	).StructScan(&row)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("%w: login %q already taken", domain.ErrConflict, user.Login)
		case isUniqueViolation(err, "users_email_key"):
			return nil, fmt.Errorf("%w: user with email %q already exists", domain.ErrEmailAlreadyExists, user.Email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return row.toDomain(), nil
}

// Upsert creates a user or updates the mutable fields of an existing one.
// The provider type of an existing row is never changed: when it differs the
// update is skipped and domain.ErrIdentityConflict is returned. A duplicate
// email yields domain.ErrEmailAlreadyExists.
func (r *UserRepository) Upsert(ctx context.Context, user domain.User) (*domain.User, error) {
	var row userRow
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (login, email, full_name, provider_type, role, last_login,
		                    synchronization_date, photo_id, default_project, is_expired)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (login)
		 DO UPDATE SET full_name = EXCLUDED.full_name,
		               last_login = EXCLUDED.last_login,
		               synchronization_date = EXCLUDED.synchronization_date,
		               photo_id = EXCLUDED.photo_id
		 WHERE users.provider_type = EXCLUDED.provider_type
		 RETURNING `+userColumns,
		user.Login, user.Email, nullString(user.FullName), user.ProviderType, user.Role,
		user.MetaInfo.LastLogin, user.MetaInfo.SynchronizationDate, user.PhotoID,
		user.DefaultProjectID, user.IsExpired,
	).StructScan(&row)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("%w: user with login %q already exists", domain.ErrIdentityConflict, user.Login)
		case isUniqueViolation(err, "users_email_key"):
			return nil, fmt.Errorf("%w: user with email %q already exists", domain.ErrEmailAlreadyExists, user.Email)
		}
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return row.toDomain(), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
