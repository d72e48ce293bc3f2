package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 10*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 5*time.Second, cfg.AvatarTimeout)
	assert.Equal(t, int64(1<<20), cfg.AvatarMaxBytes)
	assert.Equal(t, "photos", cfg.S3.Bucket)
	assert.Empty(t, cfg.GitHub.APIURL)
	assert.Empty(t, cfg.GitHub.Scopes)
	assert.False(t, cfg.GitHub.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("GITHUB_CLIENT_ID", "id")
	t.Setenv("GITHUB_CLIENT_SECRET", "secret")
	t.Setenv("GITHUB_API_URL", "https://ghe.example.com/api/v3")
	t.Setenv("GITHUB_TOKEN_URL", "https://ghe.example.com/login/oauth/access_token")
	t.Setenv("GITHUB_AUTH_URL", "https://ghe.example.com/login/oauth/authorize")
	t.Setenv("GITHUB_SCOPES", "read:user,user:email,read:org")
	t.Setenv("GITHUB_ALLOWED_ORGS", "acme,umbrella")
	t.Setenv("PROVIDER_TIMEOUT", "3s")
	t.Setenv("S3_BUCKET", "avatars")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.GitHub.Enabled())
	assert.Equal(t, "https://ghe.example.com/api/v3", cfg.GitHub.APIURL)
	assert.Equal(t, "https://ghe.example.com/login/oauth/access_token", cfg.GitHub.TokenURL)
	assert.Equal(t, "https://ghe.example.com/login/oauth/authorize", cfg.GitHub.AuthURL)
	assert.Equal(t, []string{"read:user", "user:email", "read:org"}, cfg.GitHub.Scopes)
	assert.Equal(t, []string{"acme", "umbrella"}, cfg.GitHub.AllowedOrgs)
	assert.Equal(t, 3*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, "avatars", cfg.S3.Bucket)
}

func TestLoadValidation(t *testing.T) {
	t.Run("missing jwt secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		require.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "x")
		t.Setenv("PROVIDER_TIMEOUT", "soon")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("non-positive avatar limit", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "x")
		t.Setenv("AVATAR_MAX_BYTES", "0")
		_, err := Load()
		require.ErrorContains(t, err, "AVATAR_MAX_BYTES")
	})
}
