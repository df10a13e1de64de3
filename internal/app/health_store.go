package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"healthdash/internal/chartmath"
	"healthdash/internal/domain"
)

const dayLayout = "2006-01-02"

var (
	// ErrFutureDay is returned when a sample is dated after today.
	ErrFutureDay = errors.New("date must not be in the future")
	// ErrInvalidDay is returned for a day that is not a YYYY-MM-DD date.
	ErrInvalidDay = errors.New("day must be YYYY-MM-DD")
)

// HealthStore is the data source the dashboard reads from. It enforces access
// grants, cuts the trailing window into local days and guarantees at most one
// sample per day in every series it returns.
type HealthStore struct {
	samples domain.SampleRepository
	access  domain.AccessRepository
	loc     *time.Location
	now     func() time.Time
}

// NewHealthStore creates a HealthStore over the given repositories. Days are
// calendar days in loc.
func NewHealthStore(samples domain.SampleRepository, access domain.AccessRepository, loc *time.Location) *HealthStore {
	if loc == nil {
		loc = time.Local
	}
	return &HealthStore{samples: samples, access: access, loc: loc, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (h *HealthStore) WithClock(now func() time.Time) *HealthStore {
	h.now = now
	return h
}

// Location returns the location days are cut in.
func (h *HealthStore) Location() *time.Location {
	return h.loc
}

// Today returns the current local day as YYYY-MM-DD.
func (h *HealthStore) Today() string {
	return h.now().In(h.loc).Format(dayLayout)
}

// Window returns the [from, to) range covering the last days days, today
// included.
func (h *HealthStore) Window(days int) (time.Time, time.Time) {
	now := h.now().In(h.loc)
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.loc)
	to := startOfToday.AddDate(0, 0, 1)
	return to.AddDate(0, 0, -days), to
}

// FetchDaily returns one sample per day for kind over the trailing window,
// oldest first. It fails with domain.ErrAuthNotDetermined without read
// access, domain.ErrNoData when the window is empty and
// domain.ErrUnableToComplete when the store cannot be read.
func (h *HealthStore) FetchDaily(ctx context.Context, userID int64, kind domain.MetricKind, days int) ([]domain.Sample, error) {
	if err := h.CheckRead(ctx, userID); err != nil {
		return nil, err
	}

	from, to := h.Window(days)
	raw, err := h.samples.ListSamples(ctx, userID, kind, from, to)
	if err != nil {
		return nil, domain.UnableToComplete(err)
	}
	if len(raw) == 0 {
		return nil, domain.ErrNoData
	}
	return chartmath.CollapseDaily(raw, h.loc, kind.DailyAggregation()), nil
}

// CheckRead fails unless the user granted read access.
func (h *HealthStore) CheckRead(ctx context.Context, userID int64) error {
	grant, err := h.access.GetGrant(ctx, userID)
	if err != nil {
		return domain.UnableToComplete(err)
	}
	if grant == nil || !grant.Read {
		return domain.ErrAuthNotDetermined
	}
	return nil
}

// CheckShare fails unless the user granted share access for writing samples.
func (h *HealthStore) CheckShare(ctx context.Context, userID int64, kind domain.MetricKind) error {
	grant, err := h.access.GetGrant(ctx, userID)
	if err != nil {
		return domain.UnableToComplete(err)
	}
	if grant == nil {
		return domain.ErrAuthNotDetermined
	}
	if !grant.Share {
		return domain.SharingDenied(kind.Title())
	}
	return nil
}

// SampleTime turns a YYYY-MM-DD day into the timestamp a new sample is stored
// at: that day at the current local time of day. An empty day means now.
func (h *HealthStore) SampleTime(day string) (time.Time, error) {
	now := h.now().In(h.loc)
	if day == "" {
		return now, nil
	}
	d, err := time.ParseInLocation(dayLayout, day, h.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDay, err)
	}
	if d.Format(dayLayout) > now.Format(dayLayout) {
		return time.Time{}, ErrFutureDay
	}
	return time.Date(d.Year(), d.Month(), d.Day(), now.Hour(), now.Minute(), now.Second(), 0, h.loc), nil
}
