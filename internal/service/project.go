package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/sumire/identity/internal/domain"
)

const maxProjectNameAttempts = 100

var unsafeProjectChars = regexp.MustCompile(`[^a-z0-9_-]`)

// PersonalProjectName returns the base personal project name for login.
func PersonalProjectName(login string) string {
	return unsafeProjectChars.ReplaceAllString(domain.NormalizeID(login), "_") + "_personal"
}

// ProjectProvisioner creates the personal project of a user on demand.
//
// The lookup and the insert are not atomic. Two first logins of the same
// user racing each other are settled by the unique personal-project index:
// the loser gets domain.ErrConflict from the store and reads the winner's
// project instead.
type ProjectProvisioner struct {
	projects ProjectStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewProjectProvisioner creates a new ProjectProvisioner.
func NewProjectProvisioner(projects ProjectStore, logger *slog.Logger) *ProjectProvisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectProvisioner{projects: projects, logger: logger, now: time.Now}
}

// EnsurePersonalProject returns the id of user's personal project, creating it if needed.
func (p *ProjectProvisioner) EnsurePersonalProject(ctx context.Context, user domain.User) (string, error) {
	name, err := p.projects.FindPersonalProjectName(ctx, user.Login)
	if err == nil {
		return name, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("find personal project of %q: %w", user.Login, err)
	}

	name, err = p.freeName(ctx, user.Login)
	if err != nil {
		return "", err
	}

	description := "Personal project of " + displayName(user)
	id, err := p.projects.Save(ctx, domain.Project{
		ID:          name,
		Type:        domain.ProjectTypePersonal,
		OwnerLogin:  user.Login,
		Description: &description,
		CreatedAt:   p.now().UTC(),
	})
	if errors.Is(err, domain.ErrConflict) {
		if existing, findErr := p.projects.FindPersonalProjectName(ctx, user.Login); findErr == nil {
			p.logger.Warn("personal project created concurrently", "login", user.Login, "project", existing)
			return existing, nil
		}
	}
	if err != nil {
		return "", fmt.Errorf("save personal project %q: %w", name, err)
	}

	p.logger.Info("personal project created", "login", user.Login, "project", id)
	return id, nil
}

func (p *ProjectProvisioner) freeName(ctx context.Context, login string) (string, error) {
	base := PersonalProjectName(login)
	candidate := base
	for i := 1; i <= maxProjectNameAttempts; i++ {
		exists, err := p.projects.Exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check project %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", base, i)
	}
	return "", fmt.Errorf("%w: no free personal project name for %q", domain.ErrConflict, login)
}

func displayName(user domain.User) string {
	if user.FullName != "" {
		return user.FullName
	}
	return user.Login
}
