package users

import (
	"context"
	"errors"

	"github.com/gitmax/gitmax/backend/go-services/internal/github"
	"github.com/gitmax/gitmax/backend/go-services/internal/models"
)

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// ResolveOrCreate maps a GitHub identity profile onto the user store. The
// returned bool reports whether the user was created by this call. This is the
// only mutating step of the login flow; the upsert itself is atomic per
// githubId, so a lost race degrades into an update rather than a second row.
func (s *Service) ResolveOrCreate(ctx context.Context, p *github.Profile, providerToken string) (*models.User, bool, error) {
	if p == nil || p.ID == "" {
		return nil, false, errors.New("identity profile missing id")
	}
	existing, err := s.repo.FindByGithubID(ctx, p.ID)
	if err != nil {
		return nil, false, err
	}
	u := &models.User{
		GithubID:       p.ID,
		GithubUsername: p.Login,
		GithubToken:    providerToken,
	}
	resolved, err := s.repo.Upsert(ctx, u)
	if errors.Is(err, ErrConflict) {
		// lost the creation race; the row now exists, retry as an update
		resolved, err = s.repo.Upsert(ctx, u)
	}
	if err != nil {
		return nil, false, err
	}
	return resolved, existing == nil, nil
}

func (s *Service) GetByGithubID(ctx context.Context, githubID string) (*models.User, error) {
	return s.repo.FindByGithubID(ctx, githubID)
}

// Update applies a partial profile update and returns the new record, or nil
// when no user with that githubId exists.
func (s *Service) Update(ctx context.Context, githubID string, upd Update) (*models.User, error) {
	return s.repo.UpdateFields(ctx, githubID, upd)
}
