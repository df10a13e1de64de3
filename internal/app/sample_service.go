package app

import (
	"context"
	"fmt"

	"healthdash/internal/domain"
	"healthdash/internal/metrics"

	log "github.com/sirupsen/logrus"
)

const maxRecent = 100

// SampleService records and lists manually entered samples.
type SampleService struct {
	store   *HealthStore
	repo    domain.SampleRepository
	cache   DashboardCache
	metrics *metrics.Manager
}

// NewSampleService creates a SampleService writing to repo. Access checks and
// day handling go through store.
func NewSampleService(store *HealthStore, repo domain.SampleRepository) *SampleService {
	return &SampleService{store: store, repo: repo}
}

// WithCache makes every write drop the user's cached dashboards.
func (s *SampleService) WithCache(c DashboardCache) *SampleService {
	s.cache = c
	return s
}

// WithMetrics counts recorded samples per kind on m.
func (s *SampleService) WithMetrics(m *metrics.Manager) *SampleService {
	s.metrics = m
	return s
}

// Record stores raw as a new sample of kind on day (YYYY-MM-DD, empty for
// today). Weights accept "kg" or "lb"; other kinds are stored in their
// default unit.
func (s *SampleService) Record(ctx context.Context, userID int64, kind domain.MetricKind, day, raw, unit string) (*domain.Sample, error) {
	if err := s.store.CheckShare(ctx, userID, kind); err != nil {
		return nil, err
	}

	value, err := domain.ParseValue(kind, raw)
	if err != nil {
		return nil, err
	}

	switch {
	case unit == "":
		unit = kind.DefaultUnit()
	case kind == domain.MetricWeight:
		if !domain.IsWeightUnit(unit) {
			return nil, ErrInvalidUnit
		}
	case unit != kind.DefaultUnit():
		return nil, fmt.Errorf("%s are recorded in %s: %w", kind.Title(), kind.DefaultUnit(), ErrInvalidUnit)
	}

	at, err := s.store.SampleTime(day)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.AddSample(ctx, userID, kind, value, unit, at)
	if err != nil {
		return nil, domain.UnableToComplete(err)
	}

	if s.metrics != nil {
		s.metrics.CounterSamplesRecorded.WithLabelValues(string(kind)).Inc()
	}
	s.invalidate(ctx, userID)

	return &domain.Sample{ID: id, UserID: userID, Kind: kind, Date: at, Value: value, Unit: unit}, nil
}

// ListRecent returns up to limit samples of kind, newest first. limit is
// capped at 100.
func (s *SampleService) ListRecent(ctx context.Context, userID int64, kind domain.MetricKind, limit int) ([]domain.Sample, error) {
	if err := s.store.CheckRead(ctx, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxRecent {
		limit = maxRecent
	}

	out, err := s.repo.ListRecentSamples(ctx, userID, kind, limit)
	if err != nil {
		return nil, domain.UnableToComplete(err)
	}
	if out == nil {
		out = []domain.Sample{}
	}
	return out, nil
}

// UndoLast removes the most recent sample of kind. It reports false when
// there was nothing to remove.
func (s *SampleService) UndoLast(ctx context.Context, userID int64, kind domain.MetricKind) (bool, error) {
	if err := s.store.CheckShare(ctx, userID, kind); err != nil {
		return false, err
	}

	deleted, err := s.repo.DeleteLatestSample(ctx, userID, kind)
	if err != nil {
		return false, domain.UnableToComplete(err)
	}
	if deleted {
		s.invalidate(ctx, userID)
	}
	return deleted, nil
}

func (s *SampleService) invalidate(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		log.Warnf("invalidate dashboards for user %d: %s", userID, err)
	}
}
