package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gitmax/gitmax/backend/go-services/internal/models"
	"github.com/gitmax/gitmax/backend/go-services/internal/tokens"
	"github.com/stretchr/testify/assert"
)

type fakeUsers struct {
	users map[string]*models.User
	err   error
}

func (f *fakeUsers) GetByGithubID(ctx context.Context, githubID string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[githubID], nil
}

func newTestRouter(ver Verifier, us UserSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(ver, us), func(c *gin.Context) {
		u := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"github_id": u.GithubID})
	})
	return r
}

func activeUser(id string) *models.User {
	return &models.User{ID: "oid", GithubID: id, GithubUsername: "bob", IsActive: true}
}

func TestAuthMiddleware_HeaderToken(t *testing.T) {
	iss := tokens.Issuer{Secret: "mw-secret-32-bytes-xxxxxxxxxxxxxxxxx"}
	tok, _ := iss.Issue(map[string]interface{}{"sub": "42"}, time.Minute)
	r := newTestRouter(iss, &fakeUsers{users: map[string]*models.User{"42": activeUser("42")}})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"github_id":"42"`)
}

func TestAuthMiddleware_CookieToken(t *testing.T) {
	iss := tokens.Issuer{Secret: "mw-secret-32-bytes-xxxxxxxxxxxxxxxxx"}
	tok, _ := iss.Issue(map[string]interface{}{"sub": "42"}, time.Minute)
	r := newTestRouter(iss, &fakeUsers{users: map[string]*models.User{"42": activeUser("42")}})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "Bearer " + tok})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// header wins even when the cookie is garbage
func TestAuthMiddleware_HeaderPrecedence(t *testing.T) {
	iss := tokens.Issuer{Secret: "mw-secret-32-bytes-xxxxxxxxxxxxxxxxx"}
	tok, _ := iss.Issue(map[string]interface{}{"sub": "42"}, time.Minute)
	r := newTestRouter(iss, &fakeUsers{users: map[string]*models.User{"42": activeUser("42")}})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "Bearer not-a-token"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_CookieWithoutPrefixIgnored(t *testing.T) {
	iss := tokens.Issuer{Secret: "mw-secret-32-bytes-xxxxxxxxxxxxxxxxx"}
	tok, _ := iss.Issue(map[string]interface{}{"sub": "42"}, time.Minute)
	r := newTestRouter(iss, &fakeUsers{users: map[string]*models.User{"42": activeUser("42")}})

	// raw token in the cookie, no "Bearer " prefix: treated as absent
	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: tok})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	iss := tokens.Issuer{Secret: "mw-secret-32-bytes-xxxxxxxxxxxxxxxxx"}
	r := newTestRouter(iss, &fakeUsers{users: map[string]*models.User{}})

	req := httptest.NewRequest("GET", "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_UnknownUser(t *testing.T) {
	iss := tokens.Issuer{Secret: "mw-secret-32-bytes-xxxxxxxxxxxxxxxxx"}
	tok, _ := iss.Issue(map[string]interface{}{"sub": "404"}, time.Minute)
	r := newTestRouter(iss, &fakeUsers{users: map[string]*models.User{}})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// unknown user is indistinguishable from a bad token
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_InactiveUserForbidden(t *testing.T) {
	iss := tokens.Issuer{Secret: "mw-secret-32-bytes-xxxxxxxxxxxxxxxxx"}
	tok, _ := iss.Issue(map[string]interface{}{"sub": "42"}, time.Minute)
	inactive := activeUser("42")
	inactive.IsActive = false
	r := newTestRouter(iss, &fakeUsers{users: map[string]*models.User{"42": inactive}})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "inactive user")
}

func TestAuthMiddleware_StoreErrorRejected(t *testing.T) {
	iss := tokens.Issuer{Secret: "mw-secret-32-bytes-xxxxxxxxxxxxxxxxx"}
	tok, _ := iss.Issue(map[string]interface{}{"sub": "42"}, time.Minute)
	r := newTestRouter(iss, &fakeUsers{err: errors.New("store down")})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
