package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gitmax/gitmax/backend/go-services/internal/config"
	"golang.org/x/time/rate"
)

var (
	// ErrExchangeFailed covers every failure of the code-for-token exchange:
	// transport error, provider-reported error, or a response without a token.
	ErrExchangeFailed = errors.New("github token exchange failed")
	// ErrIdentityFetchFailed is returned when the authenticated /user call fails.
	ErrIdentityFetchFailed = errors.New("github identity fetch failed")
	// ErrUpstream is returned for failed data reads (repos, languages).
	ErrUpstream = errors.New("github api unavailable")
)

// Profile is the subset of the GitHub /user payload this service consumes.
type Profile struct {
	ID          string
	Login       string
	Email       string
	AvatarURL   string
	HTMLURL     string
	PublicRepos int
	Followers   int
	Following   int
}

// Repository mirrors the fields of a GitHub repository used by analysis.
type Repository struct {
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description string   `json:"description"`
	Stars       int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	OpenIssues  int      `json:"open_issues_count"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	Topics      []string `json:"topics"`
}

// Client drives the OAuth authorization-code flow against GitHub and performs
// authenticated API reads. All outbound calls carry a bounded timeout and pass
// through a shared token bucket so a burst of analysis requests cannot blow
// the GitHub API quota.
type Client struct {
	cfg        config.GitHubConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient constructs a GitHub client from the OAuth app configuration.
func NewClient(cfg config.GitHubConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(10), 20),
	}
}

// BuildAuthorizeURL returns the provider authorize URL for the configured app.
// Pure computation; the same inputs always yield the same URL.
func (c *Client) BuildAuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("scope", c.cfg.Scope)
	if state != "" {
		q.Set("state", state)
	}
	return c.cfg.AuthorizeURL + "?" + q.Encode()
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ExchangeCode performs the single, non-retried POST that trades the
// authorization code for a provider access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrExchangeFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: status %d: %s", ErrExchangeFailed, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrExchangeFailed, err)
	}
	if tr.Error != "" {
		return "", fmt.Errorf("%w: provider error: %s", ErrExchangeFailed, tr.Error)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: response missing access_token", ErrExchangeFailed)
	}
	return tr.AccessToken, nil
}

// FetchUser loads the authenticated identity profile for the given token.
func (c *Client) FetchUser(ctx context.Context, accessToken string) (*Profile, error) {
	var raw struct {
		ID          int64  `json:"id"`
		Login       string `json:"login"`
		Email       string `json:"email"`
		AvatarURL   string `json:"avatar_url"`
		HTMLURL     string `json:"html_url"`
		PublicRepos int    `json:"public_repos"`
		Followers   int    `json:"followers"`
		Following   int    `json:"following"`
	}
	if err := c.getJSON(ctx, accessToken, "/user", &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityFetchFailed, err)
	}
	if raw.ID == 0 {
		return nil, fmt.Errorf("%w: response missing id", ErrIdentityFetchFailed)
	}
	return &Profile{
		ID:          strconv.FormatInt(raw.ID, 10),
		Login:       raw.Login,
		Email:       raw.Email,
		AvatarURL:   raw.AvatarURL,
		HTMLURL:     raw.HTMLURL,
		PublicRepos: raw.PublicRepos,
		Followers:   raw.Followers,
		Following:   raw.Following,
	}, nil
}

// ListRepositories returns the user's 10 most recently updated repositories.
func (c *Client) ListRepositories(ctx context.Context, accessToken string) ([]Repository, error) {
	var repos []Repository
	if err := c.getJSON(ctx, accessToken, "/user/repos?sort=updated&per_page=10", &repos); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return repos, nil
}

// GetRepository returns a single repository by owner and name.
func (c *Client) GetRepository(ctx context.Context, accessToken, owner, name string) (*Repository, error) {
	var repo Repository
	path := "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(name)
	if err := c.getJSON(ctx, accessToken, path, &repo); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return &repo, nil
}

// ListLanguages returns the language byte counts for a repository.
func (c *Client) ListLanguages(ctx context.Context, accessToken, fullName string) (map[string]int64, error) {
	langs := map[string]int64{}
	if err := c.getJSON(ctx, accessToken, "/repos/"+fullName+"/languages", &langs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return langs, nil
}

func (c *Client) getJSON(ctx context.Context, accessToken, path string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIBaseURL+path, nil)
	if err != nil {
		return err
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
