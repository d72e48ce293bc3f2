package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sumire/identity/internal/domain"
	"github.com/sumire/identity/internal/provider"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// AuthConfig holds token signing configuration.
type AuthConfig struct {
	JWTSecret string
}

// AuthService handles authentication logic.
type AuthService struct {
	users     UserStore
	providers *provider.Registry
	jwtSecret []byte
	logger    *slog.Logger
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, providers *provider.Registry, cfg AuthConfig, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:     users,
		providers: providers,
		jwtSecret: []byte(cfg.JWTSecret),
		logger:    logger,
		now:       time.Now,
	}
}

// TokenPair holds an access token and refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthURL returns the authorization URL of the named provider.
func (s *AuthService) AuthURL(providerName, state string) (string, error) {
	cfg, err := s.providers.OAuth2Config(providerName)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state), nil
}

// Callback exchanges the authorization code, replicates the user and returns a JWT pair.
func (s *AuthService) Callback(ctx context.Context, providerName, code string) (*domain.User, *TokenPair, error) {
	cfg, err := s.providers.OAuth2Config(providerName)
	if err != nil {
		return nil, nil, err
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s token exchange: %v", domain.ErrProviderCommunication, providerName, err)
	}

	tokens, err := s.providers.TokenService(providerName)
	if err != nil {
		return nil, nil, err
	}

	principal, err := tokens.LoadPrincipal(ctx, token.AccessToken)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s principal: %w", providerName, err)
	}

	pair, err := s.generateTokenPair(principal.Login)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user logged in", "login", principal.Login, "provider", providerName)
	return principal.User, pair, nil
}

// Synchronize refreshes the profile of login from the named provider using accessToken.
func (s *AuthService) Synchronize(ctx context.Context, providerName, login, accessToken string) (*domain.User, error) {
	tokens, err := s.providers.TokenService(providerName)
	if err != nil {
		return nil, err
	}
	user, err := tokens.Synchronize(ctx, login, accessToken)
	if err != nil {
		return nil, fmt.Errorf("synchronize %s user: %w", providerName, err)
	}
	return user, nil
}

// ValidateToken validates a JWT access token and returns the user login.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	return s.parseToken(tokenString, "access")
}

// RefreshAccessToken validates a refresh token and returns a new token pair.
func (s *AuthService) RefreshAccessToken(refreshToken string) (*TokenPair, error) {
	login, err := s.parseToken(refreshToken, "refresh")
	if err != nil {
		return nil, err
	}
	return s.generateTokenPair(login)
}

// GetUser retrieves a user by login.
func (s *AuthService) GetUser(ctx context.Context, login string) (*domain.User, error) {
	return s.users.FindByLogin(ctx, login)
}

func (s *AuthService) parseToken(tokenString, wantType string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: parse %s token: %v", domain.ErrUnauthorized, wantType, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", domain.ErrUnauthorized
	}

	tokenType, _ := claims["type"].(string)
	if tokenType != wantType {
		return "", domain.ErrUnauthorized
	}

	login, _ := claims["sub"].(string)
	if login == "" {
		return "", domain.ErrUnauthorized
	}

	return login, nil
}

func (s *AuthService) generateTokenPair(login string) (*TokenPair, error) {
	now := s.now()

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  login,
		"type": "access",
		"iat":  now.Unix(),
		"exp":  now.Add(accessTokenTTL).Unix(),
	})
	accessStr, err := accessToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  login,
		"type": "refresh",
		"iat":  now.Unix(),
		"exp":  now.Add(refreshTokenTTL).Unix(),
	})
	refreshStr, err := refreshToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessStr,
		RefreshToken: refreshStr,
	}, nil
}
