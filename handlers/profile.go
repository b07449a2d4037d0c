package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gitmax/gitmax/backend/go-services/internal/users"
	"github.com/gitmax/gitmax/backend/go-services/pkg/logger"
	"github.com/gitmax/gitmax/backend/go-services/pkg/middleware"
)

// ProfileHandler serves the authenticated user's own record.
type ProfileHandler struct {
	usersSvc *users.Service
}

func NewProfileHandler(u *users.Service) *ProfileHandler {
	return &ProfileHandler{usersSvc: u}
}

// Register routes under /profile; auth is the middleware chain applied to them.
func (h *ProfileHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	p := rg.Group("/profile", auth)
	p.GET("", h.Get)
	p.PUT("", h.Update)
}

func (h *ProfileHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

type profileUpdateRequest struct {
	GithubUsername *string `json:"github_username"`
	IsActive       *bool   `json:"is_active"`
}

// Update applies a partial update to the caller's record. Absent fields are
// left untouched.
func (h *ProfileHandler) Update(c *gin.Context) {
	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u := middleware.CurrentUser(c)
	updated, err := h.usersSvc.Update(c.Request.Context(), u.GithubID, users.Update{
		GithubUsername: req.GithubUsername,
		IsActive:       req.IsActive,
	})
	if err != nil {
		logger.Errorf("profile update failed for github id %s: %v", u.GithubID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile update failed"})
		return
	}
	if updated == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, updated)
}
