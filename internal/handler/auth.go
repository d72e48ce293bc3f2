package handler

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/identity/internal/domain"
	"github.com/sumire/identity/internal/service"
)

const stateCookie = "oauth_state"

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Redirect sends the user to the provider's OAuth consent page.
func (h *AuthHandler) Redirect(c echo.Context) error {
	state, err := generateState()
	if err != nil {
		return err
	}

	url, err := h.auth.AuthURL(c.Param("provider"), state)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})
	return c.Redirect(http.StatusTemporaryRedirect, url)
}

type callbackRequest struct {
	Code  string `query:"code" validate:"required"`
	State string `query:"state" validate:"required"`
}

// Callback handles the OAuth callback from the provider.
func (h *AuthHandler) Callback(c echo.Context) error {
	var req callbackRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := validateOAuthState(c, req.State); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	user, tokens, err := h.auth.Callback(c.Request().Context(), c.Param("provider"), req.Code)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, map[string]any{
		"user":   user,
		"tokens": tokens,
	})
}

type synchronizeRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}

// Synchronize refreshes the authenticated user's profile from the provider.
func (h *AuthHandler) Synchronize(c echo.Context) error {
	login, ok := GetLogin(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	var req synchronizeRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.auth.Synchronize(c.Request().Context(), c.Param("provider"), login, req.AccessToken)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, user)
}

// Me returns the currently authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	login, ok := GetLogin(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	user, err := h.auth.GetUser(c.Request().Context(), login)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, user)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh generates a new token pair from a refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tokens, err := h.auth.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, tokens)
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func validateOAuthState(c echo.Context, state string) error {
	cookie, err := c.Cookie(stateCookie)
	if err != nil {
		return fmt.Errorf("missing oauth_state cookie")
	}
	if state != cookie.Value {
		return fmt.Errorf("state mismatch")
	}
	return nil
}
