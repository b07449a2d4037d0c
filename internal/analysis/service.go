package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gitmax/gitmax/backend/go-services/internal/github"
	"github.com/gitmax/gitmax/backend/go-services/internal/scoring"
	"github.com/gitmax/gitmax/backend/go-services/pkg/metrics"
)

// GitHubAPI is the repository-read capability the service depends on.
type GitHubAPI interface {
	ListRepositories(ctx context.Context, accessToken string) ([]github.Repository, error)
	GetRepository(ctx context.Context, accessToken, owner, name string) (*github.Repository, error)
	ListLanguages(ctx context.Context, accessToken, fullName string) (map[string]int64, error)
}

// Metrics carries the headline repository numbers.
type Metrics struct {
	Stars  int `json:"stars"`
	Forks  int `json:"forks"`
	Issues int `json:"issues"`
}

// RepositoryAnalysis is the per-repository result. Source tells whether the
// narrative came from the model or from the degraded placeholder.
type RepositoryAnalysis struct {
	Repository string           `json:"repository"`
	Analysis   string           `json:"analysis"`
	Languages  map[string]int64 `json:"languages"`
	Metrics    Metrics          `json:"metrics"`
	Source     string           `json:"source"`
	Cause      string           `json:"cause,omitempty"`
}

// Service analyzes GitHub repositories with generative-text narratives.
type Service struct {
	gh      GitHubAPI
	invoker scoring.Invoker
}

func NewService(gh GitHubAPI, inv scoring.Invoker) *Service {
	return &Service{gh: gh, invoker: inv}
}

// AnalyzeAll analyzes the user's most recently updated repositories. A failed
// repository listing is the only fatal outcome; per-repository language or
// model failures degrade that entry and the rest proceed.
func (s *Service) AnalyzeAll(ctx context.Context, accessToken string) ([]RepositoryAnalysis, error) {
	repos, err := s.gh.ListRepositories(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	results := make([]RepositoryAnalysis, 0, len(repos))
	for i := range repos {
		results = append(results, s.analyze(ctx, accessToken, &repos[i]))
	}
	return results, nil
}

// AnalyzeOne analyzes a single repository owned by the given login.
func (s *Service) AnalyzeOne(ctx context.Context, accessToken, owner, name string) (*RepositoryAnalysis, error) {
	repo, err := s.gh.GetRepository(ctx, accessToken, owner, name)
	if err != nil {
		return nil, err
	}
	res := s.analyze(ctx, accessToken, repo)
	return &res, nil
}

// Summaries converts analysis results into the compact form scoring prompts use.
func Summaries(results []RepositoryAnalysis) []scoring.RepoSummary {
	out := make([]scoring.RepoSummary, 0, len(results))
	for _, r := range results {
		out = append(out, scoring.RepoSummary{
			Name:      r.Repository,
			Languages: r.Languages,
			Stars:     r.Metrics.Stars,
		})
	}
	return out
}

func (s *Service) analyze(ctx context.Context, accessToken string, repo *github.Repository) RepositoryAnalysis {
	langs, err := s.gh.ListLanguages(ctx, accessToken, repo.FullName)
	if err != nil {
		langs = map[string]int64{}
	}

	result := RepositoryAnalysis{
		Repository: repo.Name,
		Languages:  langs,
		Metrics:    Metrics{Stars: repo.Stars, Forks: repo.Forks, Issues: repo.OpenIssues},
	}

	summary, _ := json.Marshal(struct {
		Name        string           `json:"name"`
		Description string           `json:"description"`
		Languages   map[string]int64 `json:"languages"`
		Stars       int              `json:"stars"`
		Forks       int              `json:"forks"`
		Issues      int              `json:"issues"`
		CreatedAt   string           `json:"created_at"`
		UpdatedAt   string           `json:"updated_at"`
		Topics      []string         `json:"topics"`
	}{repo.Name, repo.Description, langs, repo.Stars, repo.Forks, repo.OpenIssues, repo.CreatedAt, repo.UpdatedAt, repo.Topics})
	prompt := fmt.Sprintf(
		"You are a GitHub repository analyzer that provides insights for career development. "+
			"Analyze this GitHub repository and provide insights on code quality, project "+
			"significance, and career relevance: %s", summary)

	narrative, err := s.invoker.Invoke(ctx, prompt)
	if err != nil {
		result.Analysis = "Analysis unavailable; showing repository metrics only."
		result.Source = scoring.SourceFallback
		result.Cause = err.Error()
		metrics.AIResults.WithLabelValues("repo_analysis", scoring.SourceFallback).Inc()
		return result
	}
	result.Analysis = narrative
	result.Source = scoring.SourceAI
	metrics.AIResults.WithLabelValues("repo_analysis", scoring.SourceAI).Inc()
	return result
}
