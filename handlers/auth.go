package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gitmax/gitmax/backend/go-services/internal/config"
	"github.com/gitmax/gitmax/backend/go-services/internal/github"
	"github.com/gitmax/gitmax/backend/go-services/internal/loginstate"
	"github.com/gitmax/gitmax/backend/go-services/internal/tokens"
	"github.com/gitmax/gitmax/backend/go-services/internal/users"
	"github.com/gitmax/gitmax/backend/go-services/pkg/logger"
	"github.com/gitmax/gitmax/backend/go-services/pkg/metrics"
	"github.com/gitmax/gitmax/backend/go-services/pkg/middleware"
)

// AuthHandler drives the GitHub OAuth login flow.
type AuthHandler struct {
	cfg      *config.Config
	gh       *github.Client
	usersSvc *users.Service
	states   *loginstate.Service
	issuer   tokens.Issuer
}

func NewAuthHandler(cfg *config.Config, gh *github.Client, u *users.Service, st *loginstate.Service) *AuthHandler {
	return &AuthHandler{
		cfg:      cfg,
		gh:       gh,
		usersSvc: u,
		states:   st,
		issuer:   tokens.Issuer{Secret: cfg.JWT.Secret, DefaultTTL: cfg.JWT.AccessTokenTTL},
	}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.GET("/login", h.Login)
	a.GET("/callback", h.Callback)
	a.GET("/logout", h.Logout)
}

// Login mints a one-shot state nonce and redirects the browser to GitHub.
func (h *AuthHandler) Login(c *gin.Context) {
	state, err := h.states.Issue(c.Request.Context())
	if err != nil {
		logger.Errorf("failed to issue login state: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start login"})
		return
	}
	c.Redirect(http.StatusFound, h.gh.BuildAuthorizeURL(state))
}

// Callback completes the authorization-code flow: consume the state nonce,
// exchange the code, fetch the GitHub identity, upsert the user, mint the
// session token. The user upsert is the only write and happens last, so a
// failed exchange or identity fetch leaves no trace.
//
// Response shape is driven by the Accept header: clients asking for
// application/json get the token in the body, everything else (a browser
// arriving from GitHub) gets the session cookie plus a redirect to the
// frontend with the token in the query string.
func (h *AuthHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	code := c.Query("code")
	if code == "" {
		metrics.OAuthCallbacks.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}
	ok, err := h.states.Consume(ctx, c.Query("state"))
	if err != nil {
		logger.Errorf("state lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "state lookup failed"})
		return
	}
	if !ok {
		metrics.OAuthCallbacks.WithLabelValues("invalid_state").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
		return
	}

	providerToken, err := h.gh.ExchangeCode(ctx, code)
	if err != nil {
		logger.Errorf("token exchange failed: %v", err)
		metrics.OAuthCallbacks.WithLabelValues("exchange_failed").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to get access token"})
		return
	}

	profile, err := h.gh.FetchUser(ctx, providerToken)
	if err != nil {
		logger.Errorf("identity fetch failed: %v", err)
		metrics.OAuthCallbacks.WithLabelValues("identity_failed").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to get user info"})
		return
	}

	u, isNew, err := h.usersSvc.ResolveOrCreate(ctx, profile, providerToken)
	if err != nil {
		logger.Errorf("user upsert failed for github id %s: %v", profile.ID, err)
		metrics.OAuthCallbacks.WithLabelValues("store_failed").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user upsert failed"})
		return
	}

	access, err := h.issuer.Issue(map[string]interface{}{"sub": u.GithubID}, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		logger.Errorf("failed to mint access token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}

	metrics.OAuthCallbacks.WithLabelValues("ok").Inc()
	logger.Infof("login completed for github user %s (new=%t)", u.GithubUsername, isNew)

	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		c.JSON(http.StatusOK, gin.H{
			"access_token": access,
			"token_type":   "bearer",
			"is_new":       isNew,
			"user":         u,
		})
		return
	}

	// http.SetCookie directly: gin's helper query-escapes the value, which
	// would mangle the literal "Bearer " prefix the middleware requires.
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "Bearer " + access,
		MaxAge:   int(h.cfg.JWT.AccessTokenTTL.Seconds()),
		Path:     "/",
		HttpOnly: true,
	})
	c.Redirect(http.StatusFound, h.cfg.Frontend.URL+"/auth/callback?token="+access)
}

// Logout clears the session cookie. Tokens are stateless, so there is nothing
// to revoke server-side; an in-flight token stays valid until it expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
	})
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
