package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gitmax/gitmax/backend/go-services/internal/models"
	"github.com/gitmax/gitmax/backend/go-services/pkg/metrics"
)

// CookieName is the session cookie; its value carries the "Bearer " prefix so
// the same string works when copied into an Authorization header.
const CookieName = "access_token"

const bearerPrefix = "Bearer "

// Verifier is the minimal token capability the middleware depends on
type Verifier interface {
	Verify(token string) (string, error)
}

// UserSource resolves a verified subject to a stored user
type UserSource interface {
	GetByGithubID(ctx context.Context, githubID string) (*models.User, error)
}

// AuthMiddleware returns a Gin middleware that authenticates requests from a
// bearer token. The Authorization header wins; the session cookie is tried
// next, and a cookie value without the "Bearer " prefix counts as no token.
// Every failure except a disabled account collapses to 401.
func AuthMiddleware(ver Verifier, us UserSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			reject(c)
			return
		}

		sub, err := ver.Verify(token)
		if err != nil {
			reject(c)
			return
		}

		u, err := us.GetByGithubID(c.Request.Context(), sub)
		if err != nil || u == nil {
			reject(c)
			return
		}
		if !u.IsActive {
			metrics.AuthRequests.WithLabelValues("forbidden").Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "inactive user"})
			return
		}

		metrics.AuthRequests.WithLabelValues("ok").Inc()
		c.Set("user", u)
		c.Next()
	}
}

// CurrentUser returns the user set by AuthMiddleware.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get("user")
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

func extractToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, bearerPrefix) {
		if t := strings.TrimSpace(strings.TrimPrefix(auth, bearerPrefix)); t != "" {
			return t
		}
	}
	if cookie, err := c.Cookie(CookieName); err == nil && strings.HasPrefix(cookie, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(cookie, bearerPrefix))
	}
	return ""
}

func reject(c *gin.Context) {
	metrics.AuthRequests.WithLabelValues("unauthenticated").Inc()
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "could not validate credentials"})
}
