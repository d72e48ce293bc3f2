package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/oauth2"

	"github.com/sumire/identity/internal/domain"
)

type entry struct {
	adapter Adapter
	details LoginDetails
}

// Registry holds the configured providers keyed by name.
type Registry struct {
	mu        sync.RWMutex
	entries   map[string]entry
	validator *validator.Validate
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:   make(map[string]entry),
		validator: validator.New(),
	}
}

// Register applies the adapter's defaults to details, validates the result
// and makes the provider available under adapter.Name().
func (r *Registry) Register(adapter Adapter, details LoginDetails) error {
	adapter.ApplyDefaults(&details)
	if err := r.validator.Struct(details); err != nil {
		return fmt.Errorf("%w: provider %s: %v", domain.ErrInvalidInput, adapter.Name(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[adapter.Name()] = entry{adapter: adapter, details: details}
	return nil
}

// Lookup returns the adapter and effective login details for name.
func (r *Registry) Lookup(name string) (Adapter, LoginDetails, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, LoginDetails{}, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, name)
	}
	return e.adapter, e.details, nil
}

// Names lists the registered providers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TokenService returns the token service of the named provider.
func (r *Registry) TokenService(name string) (TokenService, error) {
	adapter, details, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return adapter.TokenService(details), nil
}

// OAuth2Config builds the authorization-code configuration of the named provider.
func (r *Registry) OAuth2Config(name string) (*oauth2.Config, error) {
	_, details, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return OAuth2Config(details), nil
}

// OAuth2Config converts login details into an oauth2.Config.
func OAuth2Config(d LoginDetails) *oauth2.Config {
	style := oauth2.AuthStyleInParams
	if d.ClientAuthenticationScheme == AuthSchemeHeader {
		style = oauth2.AuthStyleInHeader
	}
	return &oauth2.Config{
		ClientID:     d.ClientID,
		ClientSecret: d.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   d.UserAuthorizationURI,
			TokenURL:  d.AccessTokenURI,
			AuthStyle: style,
		},
		Scopes:      d.Scopes,
		RedirectURL: d.RedirectURL,
	}
}
