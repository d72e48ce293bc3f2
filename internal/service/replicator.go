package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sumire/identity/internal/domain"
	"github.com/sumire/identity/internal/provider"
)

// Replicator maps external provider identities onto internal users.
//
// The email uniqueness check before insert is a fast path only; two
// concurrent first logins resolving to the same email are settled by the
// unique index on users.email, surfaced by UserStore.Create as
// domain.ErrEmailAlreadyExists. The personal project provisioned before such
// a rejected insert is kept and reused by the next login of that login.
//
// Two concurrent first logins of the same identity race on UserStore.Create;
// the loser adopts the winner's record and discards its own photo.
type Replicator struct {
	users    UserStore
	projects *ProjectProvisioner
	avatars  *AvatarIngestor
	logger   *slog.Logger
	now      func() time.Time
}

var _ provider.Replicator = (*Replicator)(nil)

// NewReplicator creates a new Replicator.
func NewReplicator(users UserStore, projects *ProjectProvisioner, avatars *AvatarIngestor, logger *slog.Logger) *Replicator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Replicator{
		users:    users,
		projects: projects,
		avatars:  avatars,
		logger:   logger,
		now:      time.Now,
	}
}

// Replicate returns the internal user for the identity behind client,
// creating it (with personal project and photo) on first login. An existing
// user of the same provider type is returned untouched.
func (r *Replicator) Replicate(ctx context.Context, providerType domain.ProviderType, client provider.Client) (*domain.User, error) {
	profile, err := client.Profile(ctx)
	if err != nil {
		return nil, providerError("fetch profile", err)
	}

	login := domain.NormalizeID(profile.Login)
	if login == "" {
		return nil, fmt.Errorf("%w: provider returned an empty login", domain.ErrProviderCommunication)
	}

	existing, err := r.users.FindByLogin(ctx, login)
	switch {
	case err == nil:
		if existing.ProviderType != providerType {
			return nil, fmt.Errorf("%w: user with login %q already exists", domain.ErrIdentityConflict, login)
		}
		return existing, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("find user %q: %w", login, err)
	}

	return r.create(ctx, providerType, login, profile, client)
}

func (r *Replicator) create(ctx context.Context, providerType domain.ProviderType, login string, profile *provider.Profile, client provider.Client) (*domain.User, error) {
	email, err := r.resolveEmail(ctx, login, profile, client)
	if err != nil {
		return nil, err
	}

	exists, err := r.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email %q: %w", email, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: user with email %q already exists", domain.ErrEmailAlreadyExists, email)
	}

	user := domain.User{
		Login:        login,
		Email:        email,
		FullName:     strings.TrimSpace(profile.Name),
		ProviderType: providerType,
		Role:         domain.RoleUser,
		MetaInfo:     domain.NewMetaInfo(r.now().UTC()),
		IsExpired:    false,
	}

	photoID := r.avatars.Ingest(ctx, client, login, profile.AvatarURL)
	if photoID != "" {
		user.PhotoID = &photoID
	}

	projectID, err := r.projects.EnsurePersonalProject(ctx, user)
	if err != nil {
		r.discardPhoto(ctx, photoID)
		return nil, err
	}
	user.DefaultProjectID = projectID

	saved, err := r.users.Create(ctx, user)
	if errors.Is(err, domain.ErrConflict) {
		saved, err = r.concurrentlyCreated(ctx, providerType, login)
	}
	if err != nil {
		r.discardPhoto(ctx, photoID)
		return nil, fmt.Errorf("save user %q: %w", login, err)
	}
	if saved.PhotoID == nil || *saved.PhotoID != photoID {
		r.discardPhoto(ctx, photoID)
	}

	r.logger.Info("user replicated",
		"login", saved.Login,
		"provider", providerType,
		"project", saved.DefaultProjectID,
		"photo", saved.PhotoID != nil,
	)
	return saved, nil
}

// concurrentlyCreated returns the user inserted by a concurrent first login.
func (r *Replicator) concurrentlyCreated(ctx context.Context, providerType domain.ProviderType, login string) (*domain.User, error) {
	winner, err := r.users.FindByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("reload concurrently created user: %w", err)
	}
	if winner.ProviderType != providerType {
		return nil, fmt.Errorf("%w: user with login %q already exists", domain.ErrIdentityConflict, login)
	}
	r.logger.Info("user created concurrently, adopting existing record", "login", login)
	return winner, nil
}

// Synchronize refreshes the full name, timestamps and photo of an existing
// user from the provider. The photo is only replaced when the new one was
// ingested successfully.
func (r *Replicator) Synchronize(ctx context.Context, providerType domain.ProviderType, login string, client provider.Client) (*domain.User, error) {
	key := domain.NormalizeID(login)

	user, err := r.users.FindByLogin(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", domain.ErrUserNotFound, key)
		}
		return nil, fmt.Errorf("find user %q: %w", key, err)
	}
	if user.ProviderType != providerType {
		return nil, fmt.Errorf("%w: user %q is not a %s user", domain.ErrIncorrectAuthenticationType, key, providerType)
	}

	profile, err := client.Profile(ctx)
	if err != nil {
		return nil, providerError("fetch profile", err)
	}
	if domain.NormalizeID(profile.Login) != key {
		return nil, fmt.Errorf("%w: credential belongs to %q, not %q", domain.ErrIdentityConflict, domain.NormalizeID(profile.Login), key)
	}

	now := r.now().UTC()
	user.FullName = strings.TrimSpace(profile.Name)
	user.MetaInfo.SynchronizationDate = now
	user.MetaInfo.LastLogin = now

	previousPhoto := user.PhotoID
	newPhoto := r.avatars.Ingest(ctx, client, key, profile.AvatarURL)
	if newPhoto != "" {
		user.PhotoID = &newPhoto
	}

	saved, err := r.users.Upsert(ctx, *user)
	if err != nil {
		r.discardPhoto(ctx, newPhoto)
		return nil, fmt.Errorf("save user %q: %w", key, err)
	}

	if newPhoto != "" && previousPhoto != nil && *previousPhoto != newPhoto {
		r.avatars.Discard(ctx, *previousPhoto)
	}

	r.logger.Info("user synchronized", "login", key, "photo_updated", newPhoto != "")
	return saved, nil
}

func (r *Replicator) resolveEmail(ctx context.Context, login string, profile *provider.Profile, client provider.Client) (string, error) {
	if email := domain.NormalizeID(profile.Email); email != "" {
		return email, nil
	}

	emails, err := client.VerifiedEmails(ctx)
	if err != nil {
		return "", providerError("fetch emails", err)
	}
	for _, e := range emails {
		if e.Verified && e.Primary {
			if email := domain.NormalizeID(e.Address); email != "" {
				return email, nil
			}
		}
	}
	return "", fmt.Errorf("%w: login %q", domain.ErrEmailResolutionFailed, login)
}

func (r *Replicator) discardPhoto(ctx context.Context, id string) {
	if id != "" {
		r.avatars.Discard(ctx, id)
	}
}

func providerError(op string, err error) error {
	if errors.Is(err, domain.ErrProviderCommunication) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrProviderCommunication, op, err)
}
