package github

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sumire/identity/internal/provider"
)

func TestApplyDefaults(t *testing.T) {
	a := NewAdapter(Config{}, nil)

	var d provider.LoginDetails
	a.ApplyDefaults(&d)

	assert.Equal(t, []string{"read:user", "user:email"}, d.Scopes)
	assert.Equal(t, "authorization_code", d.GrantType)
	assert.Equal(t, DefaultTokenURL, d.AccessTokenURI)
	assert.Equal(t, DefaultAuthURL, d.UserAuthorizationURI)
	assert.Equal(t, provider.AuthSchemeForm, d.ClientAuthenticationScheme)
}

func TestApplyDefaultsKeepsConfiguredValues(t *testing.T) {
	a := NewAdapter(Config{}, nil)

	d := provider.LoginDetails{
		Scopes:                     []string{"read:org"},
		GrantType:                  "custom",
		AccessTokenURI:             "https://ghe.example.com/token",
		UserAuthorizationURI:       "https://ghe.example.com/authorize",
		ClientAuthenticationScheme: provider.AuthSchemeHeader,
	}
	want := d
	a.ApplyDefaults(&d)

	assert.Equal(t, want, d)
}

func TestEndpointOverrides(t *testing.T) {
	a := NewAdapter(Config{
		APIURL:   "https://ghe.example.com/api/v3",
		TokenURL: "https://ghe.example.com/login/oauth/access_token",
		AuthURL:  "https://ghe.example.com/login/oauth/authorize",
		Timeout:  time.Second,
	}, nil)

	var d provider.LoginDetails
	a.ApplyDefaults(&d)
	assert.Equal(t, "https://ghe.example.com/login/oauth/access_token", d.AccessTokenURI)
	assert.Equal(t, "https://ghe.example.com/login/oauth/authorize", d.UserAuthorizationURI)

	c, ok := a.UserClient("tok").(*Client)
	if assert.True(t, ok) {
		assert.Equal(t, "https://ghe.example.com/api/v3", c.baseURL)
		assert.Equal(t, time.Second, c.http.Timeout)
	}
}

func TestDefaultAPIURL(t *testing.T) {
	c := NewAdapter(Config{}, nil).UserClient("tok").(*Client)
	assert.Equal(t, DefaultAPIURL, c.baseURL)
	assert.Equal(t, Name, NewAdapter(Config{}, nil).Name())
}
