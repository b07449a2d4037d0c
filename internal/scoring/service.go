package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gitmax/gitmax/backend/go-services/pkg/metrics"
)

// Source values distinguish AI-backed results from fallback results.
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Invoker is the generative-text capability the service depends on.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// ProfileStats is the slice of the GitHub profile fed into the prompts.
type ProfileStats struct {
	Username    string `json:"github_username"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
}

// RepoSummary is the per-repository context included in scoring prompts.
type RepoSummary struct {
	Name      string           `json:"name"`
	Languages map[string]int64 `json:"languages,omitempty"`
	Stars     int              `json:"stars"`
}

// ScoreResult is always returned, never an error: when the model call or the
// score parse fails the result degrades to the fixed formula and says so.
type ScoreResult struct {
	JobRole           string `json:"job_role"`
	OverallScore      int    `json:"overall_score"`
	Analysis          string `json:"analysis"`
	RepositoriesCount int    `json:"repositories_count"`
	FollowersCount    int    `json:"followers_count"`
	Source            string `json:"source"`
	Cause             string `json:"cause,omitempty"`
}

type Recommendation struct {
	ID       int    `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

type RecommendationsResult struct {
	JobRole         string           `json:"job_role"`
	Recommendations []Recommendation `json:"recommendations"`
	Source          string           `json:"source"`
	Cause           string           `json:"cause,omitempty"`
}

var (
	scoreRe = regexp.MustCompile(`(?i)overall score:?\s*\**\s*(\d{1,3})`)
	itemRe  = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+(.+)$`)
)

// Service scores GitHub profiles and generates recommendations.
type Service struct {
	invoker Invoker
}

func NewService(inv Invoker) *Service {
	return &Service{invoker: inv}
}

// ScoreProfile asks the model for a 0-100 job-readiness score. Degrades to
// min(100, repos*5 + followers*2) when the model is unavailable or its output
// carries no parseable score.
func (s *Service) ScoreProfile(ctx context.Context, stats ProfileStats, repos []RepoSummary, jobRole string) ScoreResult {
	result := ScoreResult{
		JobRole:           jobRole,
		RepositoriesCount: len(repos),
		FollowersCount:    stats.Followers,
	}

	summary, _ := json.Marshal(struct {
		ProfileStats
		Repositories []RepoSummary `json:"repositories"`
		JobRole      string        `json:"job_role"`
	}{stats, repos, jobRole})
	prompt := fmt.Sprintf(
		"You are a GitHub profile analyzer that scores profiles for job readiness. "+
			"Score this GitHub profile for the %s role on a scale of 0-100. "+
			"Provide a breakdown of scores in different categories and an overall score "+
			"formatted as 'Overall Score: N': %s", jobRole, summary)

	analysis, err := s.invoker.Invoke(ctx, prompt)
	if err == nil {
		if m := scoreRe.FindStringSubmatch(analysis); m != nil {
			if score, convErr := strconv.Atoi(m[1]); convErr == nil && score <= 100 {
				result.OverallScore = score
				result.Analysis = analysis
				result.Source = SourceAI
				metrics.AIResults.WithLabelValues("score", SourceAI).Inc()
				return result
			}
		}
		err = fmt.Errorf("model output carried no parseable overall score")
	}

	result.OverallScore = fallbackScore(stats)
	result.Analysis = "Score derived from repository and follower counts."
	result.Source = SourceFallback
	result.Cause = err.Error()
	metrics.AIResults.WithLabelValues("score", SourceFallback).Inc()
	return result
}

// Recommendations asks the model for five actionable profile improvements,
// parsed from a numbered list. Degrades to the canned set.
func (s *Service) Recommendations(ctx context.Context, stats ProfileStats, repos []RepoSummary, jobRole string) RecommendationsResult {
	result := RecommendationsResult{JobRole: jobRole}

	contextJSON, _ := json.Marshal(struct {
		ProfileStats
		Repositories []RepoSummary `json:"repositories"`
		JobRole      string        `json:"job_role"`
	}{stats, repos, jobRole})
	prompt := fmt.Sprintf(
		"You are a GitHub profile advisor that provides actionable recommendations to "+
			"improve a profile for job applications. Based on this GitHub profile for a %s "+
			"role, provide 5 specific, actionable recommendations as a numbered list: %s",
		jobRole, contextJSON)

	text, err := s.invoker.Invoke(ctx, prompt)
	if err == nil {
		var recs []Recommendation
		for i, m := range itemRe.FindAllStringSubmatch(text, -1) {
			recs = append(recs, Recommendation{ID: i + 1, Text: strings.TrimSpace(m[1]), Category: "general"})
		}
		if len(recs) > 0 {
			result.Recommendations = recs
			result.Source = SourceAI
			metrics.AIResults.WithLabelValues("recommendations", SourceAI).Inc()
			return result
		}
		err = fmt.Errorf("model output carried no numbered recommendations")
	}

	result.Recommendations = fallbackRecommendations()
	result.Source = SourceFallback
	result.Cause = err.Error()
	metrics.AIResults.WithLabelValues("recommendations", SourceFallback).Inc()
	return result
}

func fallbackScore(stats ProfileStats) int {
	score := stats.PublicRepos*5 + stats.Followers*2
	if score > 100 {
		score = 100
	}
	return score
}

func fallbackRecommendations() []Recommendation {
	return []Recommendation{
		{ID: 1, Text: "Create more public repositories to showcase your skills.", Category: "general"},
		{ID: 2, Text: "Add detailed README files to your projects.", Category: "documentation"},
		{ID: 3, Text: "Contribute to open-source projects related to your target job role.", Category: "community"},
		{ID: 4, Text: "Add topics and descriptions to your repositories.", Category: "metadata"},
		{ID: 5, Text: "Increase your GitHub activity with regular commits.", Category: "activity"},
	}
}
