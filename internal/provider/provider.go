// Package provider defines the contract between the identity replication
// core and the external identity providers (GitHub and friends), along with
// a registry that selects a provider by name.
package provider

import (
	"context"
	"io"

	"github.com/sumire/identity/internal/domain"
)

// Profile is the authenticated external profile reported by a provider.
type Profile struct {
	Login     string
	Name      string
	Email     string
	AvatarURL string
}

// Email is one of the addresses a provider knows for the user.
type Email struct {
	Address  string
	Verified bool
	Primary  bool
}

// Resource is a downloaded remote resource. Callers close Body.
type Resource struct {
	ContentType string
	Length      int64
	Body        io.ReadCloser
}

// Client talks to a provider's API on behalf of one access credential.
type Client interface {
	Profile(ctx context.Context) (*Profile, error)
	VerifiedEmails(ctx context.Context) ([]Email, error)
	DownloadResource(ctx context.Context, ref string) (*Resource, error)
	Organizations(ctx context.Context) ([]string, error)
}

// Replicator turns a provider identity into an internal user.
type Replicator interface {
	Replicate(ctx context.Context, providerType domain.ProviderType, client Client) (*domain.User, error)
	Synchronize(ctx context.Context, providerType domain.ProviderType, login string, client Client) (*domain.User, error)
}

// Principal is the internal identity an access credential represents.
type Principal struct {
	Login string
	Role  domain.Role
	User  *domain.User
}

// TokenService answers which internal user an access credential belongs to.
type TokenService interface {
	LoadPrincipal(ctx context.Context, accessToken string) (*Principal, error)
	Synchronize(ctx context.Context, login, accessToken string) (*domain.User, error)
}

// Adapter is implemented once per provider.
type Adapter interface {
	// Name is the registry key, e.g. "github".
	Name() string
	// ApplyDefaults fills unset fields of details. Configured values win.
	ApplyDefaults(details *LoginDetails)
	TokenService(details LoginDetails) TokenService
	UserClient(accessToken string) Client
}
