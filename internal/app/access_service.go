package app

import (
	"context"

	"healthdash/internal/domain"

	log "github.com/sirupsen/logrus"
)

// AccessService manages the user's answer to the health data access prompt.
type AccessService struct {
	repo  domain.AccessRepository
	cache DashboardCache
}

// NewAccessService creates an AccessService storing grants in repo.
func NewAccessService(repo domain.AccessRepository) *AccessService {
	return &AccessService{repo: repo}
}

// WithCache makes grant changes drop the user's cached dashboards.
func (s *AccessService) WithCache(c DashboardCache) *AccessService {
	s.cache = c
	return s
}

// Status returns the stored grant, or a zero grant when the user never
// answered.
func (s *AccessService) Status(ctx context.Context, userID int64) (*domain.AccessGrant, error) {
	g, err := s.repo.GetGrant(ctx, userID)
	if err != nil {
		return nil, domain.UnableToComplete(err)
	}
	if g == nil {
		return &domain.AccessGrant{UserID: userID}, nil
	}
	return g, nil
}

// Grant stores the user's answer and returns the resulting grant.
func (s *AccessService) Grant(ctx context.Context, userID int64, read, share bool) (*domain.AccessGrant, error) {
	if err := s.repo.SaveGrant(ctx, userID, read, share); err != nil {
		return nil, domain.UnableToComplete(err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			log.Warnf("invalidate dashboards for user %d: %s", userID, err)
		}
	}
	return s.Status(ctx, userID)
}
