package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gitmax/gitmax/backend/go-services/internal/config"
	"github.com/gitmax/gitmax/backend/go-services/internal/github"
	"github.com/gitmax/gitmax/backend/go-services/internal/loginstate"
	"github.com/gitmax/gitmax/backend/go-services/internal/models"
	"github.com/gitmax/gitmax/backend/go-services/internal/users"
	"github.com/gitmax/gitmax/backend/go-services/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// in-memory user repo
type fakeUserRepo struct {
	rows map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo { return &fakeUserRepo{rows: map[string]*models.User{}} }

func (f *fakeUserRepo) FindByGithubID(ctx context.Context, githubID string) (*models.User, error) {
	u, ok := f.rows[githubID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) Upsert(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	existing, ok := f.rows[u.GithubID]
	if !ok {
		stored := *u
		stored.ID = "id-" + u.GithubID
		stored.IsActive = true
		stored.CreatedAt = now
		stored.UpdatedAt = now
		f.rows[u.GithubID] = &stored
	} else {
		existing.GithubUsername = u.GithubUsername
		existing.GithubToken = u.GithubToken
		existing.UpdatedAt = now
	}
	cp := *f.rows[u.GithubID]
	return &cp, nil
}

func (f *fakeUserRepo) UpdateFields(ctx context.Context, githubID string, upd users.Update) (*models.User, error) {
	u, ok := f.rows[githubID]
	if !ok {
		return nil, nil
	}
	if upd.GithubUsername != nil {
		u.GithubUsername = *upd.GithubUsername
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

// fake GitHub: token endpoint + /user
func newFakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.Form.Get("code") != "abc" {
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad_verification_code"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "ghp_xxx", "token_type": "bearer"})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer ghp_xxx" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": 7, "login": "bob"})
	})
	return httptest.NewServer(mux)
}

func testAuthConfig(providerURL string) *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "auth-test-secret-32-bytes-xxxxxxxx"
	cfg.JWT.AccessTokenTTL = 30 * time.Minute
	cfg.Frontend.URL = "http://frontend.test"
	cfg.GitHub = config.GitHubConfig{
		ClientID:     "cid",
		ClientSecret: "csecret",
		RedirectURI:  "http://localhost:8000/api/auth/callback",
		Scope:        "user:email",
		AuthorizeURL: providerURL + "/login/oauth/authorize",
		TokenURL:     providerURL + "/login/oauth/access_token",
		APIBaseURL:   providerURL,
	}
	return cfg
}

func newAuthEnv(t *testing.T) (*gin.Engine, *AuthHandler, *loginstate.Service, *fakeUserRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := newFakeGitHub(t)
	t.Cleanup(srv.Close)

	cfg := testAuthConfig(srv.URL)
	repo := newFakeUserRepo()
	states := loginstate.NewService(loginstate.NewMemoryRepository())
	h := NewAuthHandler(cfg, github.NewClient(cfg.GitHub), users.NewService(repo), states)

	r := gin.New()
	h.Register(r.Group("/api"))
	return r, h, states, repo
}

func TestLogin_RedirectsWithState(t *testing.T) {
	r, _, states, _ := newAuthEnv(t)

	req := httptest.NewRequest("GET", "/api/auth/login", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login/oauth/authorize", loc.Path)
	assert.Equal(t, "cid", loc.Query().Get("client_id"))

	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	ok, err := states.Consume(context.Background(), state)
	require.NoError(t, err)
	assert.True(t, ok, "issued state should be outstanding")
}

// full flow: code "abc" -> provider token -> identity {7, bob} -> user row -> JWT sub "7"
func TestCallback_JSONSuccess(t *testing.T) {
	r, h, states, repo := newAuthEnv(t)
	state, err := states.Issue(context.Background())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/auth/callback?code=abc&state="+state, nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got struct {
		AccessToken string       `json:"access_token"`
		TokenType   string       `json:"token_type"`
		IsNew       bool         `json:"is_new"`
		User        *models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "bearer", got.TokenType)
	assert.True(t, got.IsNew)
	require.NotNil(t, got.User)
	assert.Equal(t, "7", got.User.GithubID)
	assert.Equal(t, "bob", got.User.GithubUsername)

	sub, err := h.issuer.Verify(got.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "7", sub)

	// provider token stored but never serialized
	assert.Equal(t, "ghp_xxx", repo.rows["7"].GithubToken)
	assert.NotContains(t, w.Body.String(), "ghp_xxx")
}

func TestCallback_BrowserRedirectSetsCookie(t *testing.T) {
	r, _, states, _ := newAuthEnv(t)
	state, err := states.Issue(context.Background())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/auth/callback?code=abc&state="+state, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "http://frontend.test/auth/callback?token="))

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "session cookie must be set")
	assert.True(t, strings.HasPrefix(cookie.Value, "Bearer "))
}

func TestCallback_SecondLoginUpdatesNotCreates(t *testing.T) {
	r, _, states, repo := newAuthEnv(t)

	for i := 0; i < 2; i++ {
		state, err := states.Issue(context.Background())
		require.NoError(t, err)
		req := httptest.NewRequest("GET", "/api/auth/callback?code=abc&state="+state, nil)
		req.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, i == 0, got["is_new"])
	}
	assert.Len(t, repo.rows, 1)
}

func TestCallback_MissingCode(t *testing.T) {
	r, _, _, _ := newAuthEnv(t)

	req := httptest.NewRequest("GET", "/api/auth/callback", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallback_UnknownState(t *testing.T) {
	r, _, _, repo := newAuthEnv(t)

	req := httptest.NewRequest("GET", "/api/auth/callback?code=abc&state=never-issued", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid state")
	assert.Empty(t, repo.rows, "no user may be written before the exchange")
}

func TestCallback_StateIsOneShot(t *testing.T) {
	r, _, states, _ := newAuthEnv(t)
	state, err := states.Issue(context.Background())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/auth/callback?code=abc&state="+state, nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// replaying the same callback must fail on the consumed state
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest("GET", "/api/auth/callback?code=abc&state="+state, nil))
	assert.Equal(t, http.StatusBadRequest, w2.Code)
}

func TestCallback_ExchangeFailure(t *testing.T) {
	r, _, states, repo := newAuthEnv(t)
	state, err := states.Issue(context.Background())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/auth/callback?code=wrong&state="+state, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "failed to get access token")
	assert.Empty(t, repo.rows)
}

func TestLogout_ClearsCookie(t *testing.T) {
	r, _, _, _ := newAuthEnv(t)

	req := httptest.NewRequest("GET", "/api/auth/logout", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var cleared *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.CookieName {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.True(t, cleared.MaxAge < 0)
}
