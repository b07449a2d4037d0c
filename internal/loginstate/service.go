package loginstate

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

const stateTTL = 10 * time.Minute

// Service issues and consumes the one-shot state nonce carried through the
// OAuth redirect. A callback presenting an unknown or already-used state is
// rejected before any provider call is made.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

// Issue mints a fresh nonce and records it for the login-attempt window.
func (s *Service) Issue(ctx context.Context) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := hex.EncodeToString(b)
	if err := s.repo.Put(ctx, state, stateTTL); err != nil {
		return "", err
	}
	return state, nil
}

// Consume reports whether the state was outstanding and removes it.
func (s *Service) Consume(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	return s.repo.Take(ctx, state)
}
