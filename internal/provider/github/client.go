// Package github implements the identity provider contract for GitHub.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sumire/identity/internal/domain"
	"github.com/sumire/identity/internal/provider"
)

// perPage is the largest page size GitHub accepts on list endpoints.
const perPage = 100

// maxPages caps how many pages a single list call follows.
const maxPages = 50

// Client is a GitHub API client bound to a single access token.
// The token is only sent to the API host; downloads from other hosts use an
// unauthenticated client with the same timeout.
type Client struct {
	baseURL string
	apiHost string
	http    *http.Client
	plain   *http.Client
}

var _ provider.Client = (*Client)(nil)

// NewClient creates a Client that authenticates every request with accessToken.
// A zero timeout means no per-request deadline beyond the caller's context.
func NewClient(accessToken, baseURL string, timeout time.Duration) *Client {
	base := &http.Client{Timeout: timeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	hc.Timeout = timeout

	baseURL = strings.TrimRight(baseURL, "/")
	var apiHost string
	if u, err := url.Parse(baseURL); err == nil {
		apiHost = u.Host
	}

	return &Client{
		baseURL: baseURL,
		apiHost: apiHost,
		http:    hc,
		plain:   base,
	}
}

type userResource struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// Profile fetches the authenticated user.
func (c *Client) Profile(ctx context.Context) (*provider.Profile, error) {
	var u userResource
	if err := c.getJSON(ctx, "/user", &u); err != nil {
		return nil, err
	}
	if u.Login == "" {
		return nil, fmt.Errorf("%w: github user has no login", domain.ErrProviderCommunication)
	}
	return &provider.Profile{
		Login:     u.Login,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}, nil
}

type emailResource struct {
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
	Primary  bool   `json:"primary"`
}

// VerifiedEmails lists the user's email addresses with their flags.
func (c *Client) VerifiedEmails(ctx context.Context) ([]provider.Email, error) {
	res, err := getAll[emailResource](ctx, c, "/user/emails")
	if err != nil {
		return nil, err
	}
	emails := make([]provider.Email, 0, len(res))
	for _, e := range res {
		emails = append(emails, provider.Email{
			Address:  e.Email,
			Verified: e.Verified,
			Primary:  e.Primary,
		})
	}
	return emails, nil
}

type orgResource struct {
	Login string `json:"login"`
}

// Organizations lists the logins of the organizations the user belongs to.
func (c *Client) Organizations(ctx context.Context) ([]string, error) {
	res, err := getAll[orgResource](ctx, c, "/user/orgs")
	if err != nil {
		return nil, err
	}
	orgs := make([]string, 0, len(res))
	for _, o := range res {
		orgs = append(orgs, o.Login)
	}
	return orgs, nil
}

// DownloadResource fetches an absolute URL such as an avatar. The access
// token is attached only when ref points at the API host.
func (c *Client) DownloadResource(ctx context.Context, ref string) (*provider.Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	hc := c.plain
	if c.onAPIHost(ref) {
		hc = c.http
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: download %s: %v", domain.ErrProviderCommunication, ref, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: download %s returned status %d", domain.ErrProviderCommunication, ref, resp.StatusCode)
	}

	return &provider.Resource{
		ContentType: resp.Header.Get("Content-Type"),
		Length:      resp.ContentLength,
		Body:        resp.Body,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	_, err := c.get(ctx, c.baseURL+path, out)
	return err
}

// getAll reads every page of a GitHub list endpoint by following the
// rel="next" links of the Link header.
func getAll[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	next := c.baseURL + path + "?per_page=" + strconv.Itoa(perPage)

	var all []T
	for page := 0; next != ""; page++ {
		if page == maxPages {
			return nil, fmt.Errorf("%w: GET %s: more than %d pages", domain.ErrProviderCommunication, path, maxPages)
		}

		var items []T
		header, err := c.get(ctx, next, &items)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)

		next = nextPageURL(header.Get("Link"))
		if next != "" && !c.onAPIHost(next) {
			return nil, fmt.Errorf("%w: GET %s: unexpected next page %q", domain.ErrProviderCommunication, path, next)
		}
	}
	return all, nil
}

func (c *Client) onAPIHost(target string) bool {
	u, err := url.Parse(target)
	return err == nil && u.Host == c.apiHost
}

func (c *Client) get(ctx context.Context, target string, out any) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	path := req.URL.Path
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", domain.ErrProviderCommunication, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s returned status %d", domain.ErrProviderCommunication, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrProviderCommunication, path, err)
	}
	return resp.Header, nil
}

// nextPageURL extracts the rel="next" target of a Link header such as
// `<https://api.github.com/user/orgs?page=2>; rel="next", <...>; rel="last"`.
func nextPageURL(link string) string {
	for _, part := range strings.Split(link, ",") {
		target, params, ok := strings.Cut(strings.TrimSpace(part), ";")
		if !ok {
			continue
		}
		for _, param := range strings.Split(params, ";") {
			if strings.TrimSpace(param) == `rel="next"` {
				return strings.Trim(strings.TrimSpace(target), "<>")
			}
		}
	}
	return ""
}
