package provider

import "slices"

// Client authentication schemes for the token endpoint.
const (
	AuthSchemeForm   = "form"
	AuthSchemeHeader = "header"
)

// Restrictions narrow who may log in through a provider.
type Restrictions struct {
	Organizations []string
}

// LoginDetails is the OAuth2 login configuration of one provider.
type LoginDetails struct {
	ClientID                   string   `validate:"required"`
	ClientSecret               string   `validate:"required"`
	Scopes                     []string `validate:"required,min=1"`
	GrantType                  string   `validate:"required"`
	AccessTokenURI             string   `validate:"required,url"`
	UserAuthorizationURI       string   `validate:"required,url"`
	ClientAuthenticationScheme string   `validate:"required,oneof=form header"`
	RedirectURL                string   `validate:"omitempty,url"`
	Restrictions               Restrictions
}

// Merge fills every unset field of d from defaults.
func (d *LoginDetails) Merge(defaults LoginDetails) {
	if len(d.Scopes) == 0 {
		d.Scopes = slices.Clone(defaults.Scopes)
	}
	d.GrantType = orDefault(d.GrantType, defaults.GrantType)
	d.AccessTokenURI = orDefault(d.AccessTokenURI, defaults.AccessTokenURI)
	d.UserAuthorizationURI = orDefault(d.UserAuthorizationURI, defaults.UserAuthorizationURI)
	d.ClientAuthenticationScheme = orDefault(d.ClientAuthenticationScheme, defaults.ClientAuthenticationScheme)
	d.RedirectURL = orDefault(d.RedirectURL, defaults.RedirectURL)
	if len(d.Restrictions.Organizations) == 0 {
		d.Restrictions.Organizations = slices.Clone(defaults.Restrictions.Organizations)
	}
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
