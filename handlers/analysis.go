package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gitmax/gitmax/backend/go-services/internal/analysis"
	"github.com/gitmax/gitmax/backend/go-services/internal/github"
	"github.com/gitmax/gitmax/backend/go-services/internal/scoring"
	"github.com/gitmax/gitmax/backend/go-services/pkg/logger"
	"github.com/gitmax/gitmax/backend/go-services/pkg/middleware"
)

// ProfileAPI is the slice of the GitHub client the scoring endpoints need to
// assemble fresh profile context.
type ProfileAPI interface {
	FetchUser(ctx context.Context, accessToken string) (*github.Profile, error)
	ListRepositories(ctx context.Context, accessToken string) ([]github.Repository, error)
}

// AnalysisHandler serves repository analysis, profile scoring and
// recommendations for the authenticated user.
type AnalysisHandler struct {
	gh          ProfileAPI
	analysisSvc *analysis.Service
	scoringSvc  *scoring.Service
}

func NewAnalysisHandler(gh ProfileAPI, a *analysis.Service, s *scoring.Service) *AnalysisHandler {
	return &AnalysisHandler{gh: gh, analysisSvc: a, scoringSvc: s}
}

// Register routes under /analysis; auth is the middleware chain applied to them.
func (h *AnalysisHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	a := rg.Group("/analysis", auth)
	a.GET("/repositories", h.Repositories)
	a.GET("/repository/:name", h.Repository)
	a.GET("/profile-scoring", h.ProfileScoring)
	a.GET("/recommendations", h.Recommendations)
}

// Repositories analyzes the user's most recently updated repositories. A
// failed listing is the only hard failure; per-repository degradation is
// reported inside each entry.
func (h *AnalysisHandler) Repositories(c *gin.Context) {
	u := middleware.CurrentUser(c)
	results, err := h.analysisSvc.AnalyzeAll(c.Request.Context(), u.GithubToken)
	if err != nil {
		logger.Errorf("repository listing failed for %s: %v", u.GithubUsername, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "github unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"repositories": results, "count": len(results)})
}

// Repository analyzes a single repository owned by the caller.
func (h *AnalysisHandler) Repository(c *gin.Context) {
	u := middleware.CurrentUser(c)
	res, err := h.analysisSvc.AnalyzeOne(c.Request.Context(), u.GithubToken, u.GithubUsername, c.Param("name"))
	if err != nil {
		logger.Errorf("repository fetch failed for %s/%s: %v", u.GithubUsername, c.Param("name"), err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "github unavailable"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// ProfileScoring scores the caller's profile for a job role. Always 200: any
// upstream failure degrades the inputs or the score, never the response.
func (h *AnalysisHandler) ProfileScoring(c *gin.Context) {
	u := middleware.CurrentUser(c)
	jobRole := c.DefaultQuery("job_role", "software_engineer")
	stats, repos := h.profileContext(c.Request.Context(), u.GithubToken, u.GithubUsername)
	c.JSON(http.StatusOK, h.scoringSvc.ScoreProfile(c.Request.Context(), stats, repos, jobRole))
}

// Recommendations returns actionable profile improvements. Always 200.
func (h *AnalysisHandler) Recommendations(c *gin.Context) {
	u := middleware.CurrentUser(c)
	jobRole := c.DefaultQuery("job_role", "software_engineer")
	stats, repos := h.profileContext(c.Request.Context(), u.GithubToken, u.GithubUsername)
	c.JSON(http.StatusOK, h.scoringSvc.Recommendations(c.Request.Context(), stats, repos, jobRole))
}

// profileContext gathers fresh profile stats and repository summaries for the
// scoring prompts. Either fetch may fail; the scorer works with what it gets.
func (h *AnalysisHandler) profileContext(ctx context.Context, token, username string) (scoring.ProfileStats, []scoring.RepoSummary) {
	stats := scoring.ProfileStats{Username: username}
	if p, err := h.gh.FetchUser(ctx, token); err == nil {
		stats.Username = p.Login
		stats.PublicRepos = p.PublicRepos
		stats.Followers = p.Followers
		stats.Following = p.Following
	} else {
		logger.Warnf("profile stats fetch failed for %s: %v", username, err)
	}

	var summaries []scoring.RepoSummary
	repos, err := h.gh.ListRepositories(ctx, token)
	if err != nil {
		logger.Warnf("repository listing for scoring failed for %s: %v", username, err)
		return stats, nil
	}
	for _, r := range repos {
		summaries = append(summaries, scoring.RepoSummary{Name: r.Name, Stars: r.Stars})
	}
	return stats, summaries
}
