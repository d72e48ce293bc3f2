package github

import (
	"time"

	"github.com/sumire/identity/internal/provider"
)

// Name is the registry key of the GitHub provider.
const Name = "github"

const (
	DefaultAPIURL   = "https://api.github.com"
	DefaultTokenURL = "https://github.com/login/oauth/access_token"
	DefaultAuthURL  = "https://github.com/login/oauth/authorize"
)

// Config holds the endpoint overrides of the GitHub provider.
// Empty fields fall back to the public github.com endpoints.
type Config struct {
	APIURL   string
	TokenURL string
	AuthURL  string
	Timeout  time.Duration
}

// Adapter plugs GitHub into the provider registry.
type Adapter struct {
	apiURL     string
	tokenURL   string
	authURL    string
	timeout    time.Duration
	replicator provider.Replicator
}

var _ provider.Adapter = (*Adapter)(nil)

// NewAdapter creates a GitHub Adapter.
func NewAdapter(cfg Config, replicator provider.Replicator) *Adapter {
	return &Adapter{
		apiURL:     valueOr(cfg.APIURL, DefaultAPIURL),
		tokenURL:   valueOr(cfg.TokenURL, DefaultTokenURL),
		authURL:    valueOr(cfg.AuthURL, DefaultAuthURL),
		timeout:    cfg.Timeout,
		replicator: replicator,
	}
}

func (a *Adapter) Name() string { return Name }

// ApplyDefaults fills the GitHub defaults into details.
func (a *Adapter) ApplyDefaults(details *provider.LoginDetails) {
	details.Merge(provider.LoginDetails{
		Scopes:                     []string{"read:user", "user:email"},
		GrantType:                  "authorization_code",
		AccessTokenURI:             a.tokenURL,
		UserAuthorizationURI:       a.authURL,
		ClientAuthenticationScheme: provider.AuthSchemeForm,
	})
}

// TokenService returns a token service bound to details' restrictions.
func (a *Adapter) TokenService(details provider.LoginDetails) provider.TokenService {
	return &TokenService{
		replicator:   a.replicator,
		restrictions: details.Restrictions,
		clientFor:    a.UserClient,
	}
}

// UserClient returns a GitHub API client authenticated with accessToken.
func (a *Adapter) UserClient(accessToken string) provider.Client {
	return NewClient(accessToken, a.apiURL, a.timeout)
}

func valueOr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
