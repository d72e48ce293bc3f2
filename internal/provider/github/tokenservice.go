package github

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sumire/identity/internal/domain"
	"github.com/sumire/identity/internal/provider"
)

// TokenService resolves GitHub access tokens into internal principals,
// replicating the account on first login.
type TokenService struct {
	replicator   provider.Replicator
	restrictions provider.Restrictions
	clientFor    func(accessToken string) provider.Client
}

// LoadPrincipal checks provider restrictions and replicates the user.
func (s *TokenService) LoadPrincipal(ctx context.Context, accessToken string) (*provider.Principal, error) {
	client := s.clientFor(accessToken)

	if err := s.checkOrganizations(ctx, client); err != nil {
		return nil, err
	}

	user, err := s.replicator.Replicate(ctx, domain.ProviderGitHub, client)
	if err != nil {
		return nil, err
	}

	return &provider.Principal{
		Login: user.Login,
		Role:  user.Role,
		User:  user,
	}, nil
}

// Synchronize refreshes an existing GitHub account.
func (s *TokenService) Synchronize(ctx context.Context, login, accessToken string) (*domain.User, error) {
	return s.replicator.Synchronize(ctx, domain.ProviderGitHub, login, s.clientFor(accessToken))
}

func (s *TokenService) checkOrganizations(ctx context.Context, client provider.Client) error {
	allowed := s.restrictions.Organizations
	if len(allowed) == 0 {
		return nil
	}

	orgs, err := client.Organizations(ctx)
	if err != nil {
		return fmt.Errorf("fetch github organizations: %w", err)
	}

	for _, org := range orgs {
		if slices.ContainsFunc(allowed, func(a string) bool { return strings.EqualFold(a, org) }) {
			return nil
		}
	}
	return fmt.Errorf("%w: user is not a member of %s", domain.ErrAccessDenied, strings.Join(allowed, ", "))
}
