package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"healthdash/internal/chartmath"
	"healthdash/internal/domain"
	"healthdash/internal/metrics"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultDays = 28
	maxDays     = 366
)

// ErrInvalidUnit is returned for a unit the metric cannot be shown or stored in.
var ErrInvalidUnit = errors.New("unit must be \"kg\" or \"lb\"")

// DashboardCache stores built dashboards per user. Invalidate drops every
// dashboard of the user and advances the user's generation. Build puts the
// generation read before fetching into the key, so a dashboard built from data
// older than the last write is stored under a key no later build asks for.
type DashboardCache interface {
	Generation(ctx context.Context, userID int64) (int64, error)
	Get(ctx context.Context, userID int64, key string) (*Dashboard, bool, error)
	Set(ctx context.Context, userID int64, key string, d *Dashboard) error
	Invalidate(ctx context.Context, userID int64) error
}

// Panel is everything one metric section of the dashboard renders.
type Panel struct {
	Kind            domain.MetricKind      `json:"kind"`
	Title           string                 `json:"title"`
	Unit            string                 `json:"unit"`
	FractionDigits  int                    `json:"fractionDigits"`
	Samples         []domain.Sample        `json:"samples"`
	Average         float64                `json:"average"`
	Latest          *domain.Sample         `json:"latest"`
	WeekdayAverages []domain.WeekdayBucket `json:"weekdayAverages,omitempty"`
	WeekdayDiffs    []domain.WeekdayBucket `json:"weekdayDiffs,omitempty"`
}

// Dashboard is the aggregated view over the trailing window.
type Dashboard struct {
	Days         int       `json:"days"`
	Unit         string    `json:"unit"`
	Today        string    `json:"today"`
	GeneratedAt  time.Time `json:"generatedAt"`
	Steps        Panel     `json:"steps"`
	Weight       Panel     `json:"weight"`
	ActiveEnergy Panel     `json:"activeEnergy"`
}

// Panels returns the panels in display order.
func (d *Dashboard) Panels() []*Panel {
	return []*Panel{&d.Steps, &d.Weight, &d.ActiveEnergy}
}

// DashboardService builds dashboards from the health store.
type DashboardService struct {
	store   *HealthStore
	cache   DashboardCache
	metrics *metrics.Manager
}

// NewDashboardService creates a DashboardService reading from store.
func NewDashboardService(store *HealthStore) *DashboardService {
	return &DashboardService{store: store}
}

// WithCache enables read-through caching of built dashboards.
func (s *DashboardService) WithCache(c DashboardCache) *DashboardService {
	s.cache = c
	return s
}

// WithMetrics records build timings and cache results on m.
func (s *DashboardService) WithMetrics(m *metrics.Manager) *DashboardService {
	s.metrics = m
	return s
}

// Build returns the dashboard for the last days days with weights in unit.
// Steps, weight, weight history (one extra day for diffs) and active energy
// are fetched concurrently. A series without data renders as an empty panel;
// any other fetch failure fails the whole build.
func (s *DashboardService) Build(ctx context.Context, userID int64, days int, unit string) (*Dashboard, error) {
	if !domain.IsWeightUnit(unit) {
		return nil, ErrInvalidUnit
	}
	days = clampDays(days)

	// Access is checked before the cache so revoking it takes effect at once.
	if err := s.store.CheckRead(ctx, userID); err != nil {
		return nil, err
	}

	today := s.store.Today()
	key, useCache := s.cacheKey(ctx, userID, today, days, unit)
	if useCache {
		if d, ok := s.cached(ctx, userID, key); ok {
			return d, nil
		}
	}

	start := time.Now()
	var steps, weights, weightHistory, energy []domain.Sample

	g, gctx := errgroup.WithContext(ctx)
	fetch := func(dst *[]domain.Sample, kind domain.MetricKind, n int) {
		g.Go(func() error {
			series, err := s.store.FetchDaily(gctx, userID, kind, n)
			if errors.Is(err, domain.ErrNoData) {
				*dst = []domain.Sample{}
				return nil
			}
			if err != nil {
				return fmt.Errorf("fetch %s: %w", kind, err)
			}
			*dst = series
			return nil
		})
	}
	fetch(&steps, domain.MetricSteps, days)
	fetch(&weights, domain.MetricWeight, days)
	fetch(&weightHistory, domain.MetricWeight, days+1)
	fetch(&energy, domain.MetricActiveEnergy, days)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	weights = convertWeights(weights, unit)
	weightHistory = convertWeights(weightHistory, unit)

	d := &Dashboard{
		Days:         days,
		Unit:         unit,
		Today:        today,
		GeneratedAt:  time.Now().UTC(),
		Steps:        newPanel(domain.MetricSteps, domain.MetricSteps.DefaultUnit(), steps),
		Weight:       newPanel(domain.MetricWeight, unit, weights),
		ActiveEnergy: newPanel(domain.MetricActiveEnergy, domain.MetricActiveEnergy.DefaultUnit(), energy),
	}
	d.Steps.WeekdayAverages = chartmath.AverageByWeekday(steps)
	d.ActiveEnergy.WeekdayAverages = chartmath.AverageByWeekday(energy)
	d.Weight.WeekdayDiffs = chartmath.AverageDailyDiffByWeekday(weightHistory)

	if s.metrics != nil {
		s.metrics.HistDashboardBuild.Observe(time.Since(start).Seconds())
	}
	if useCache {
		if err := s.cache.Set(ctx, userID, key, d); err != nil {
			log.Warnf("dashboard cache set for user %d: %s", userID, err)
		}
	}
	return d, nil
}

// cacheKey reports false when there is no cache or the user's generation
// cannot be read; the dashboard is then built without touching the cache.
func (s *DashboardService) cacheKey(ctx context.Context, userID int64, today string, days int, unit string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	gen, err := s.cache.Generation(ctx, userID)
	if err != nil {
		log.Warnf("dashboard cache generation for user %d: %s", userID, err)
		return "", false
	}
	return fmt.Sprintf("%d:%s:%d:%s", gen, today, days, unit), true
}

func (s *DashboardService) cached(ctx context.Context, userID int64, key string) (*Dashboard, bool) {
	d, ok, err := s.cache.Get(ctx, userID, key)
	if err != nil {
		log.Warnf("dashboard cache get for user %d: %s", userID, err)
		return nil, false
	}
	if s.metrics != nil {
		result := "miss"
		if ok {
			result = "hit"
		}
		s.metrics.CounterDashboardCache.WithLabelValues(result).Inc()
	}
	return d, ok
}

func newPanel(kind domain.MetricKind, unit string, series []domain.Sample) Panel {
	p := Panel{
		Kind:           kind,
		Title:          kind.Title(),
		Unit:           unit,
		FractionDigits: kind.FractionDigits(),
		Samples:        series,
		Average:        chartmath.Average(series),
	}
	if latest, ok := chartmath.Latest(series); ok {
		p.Latest = &latest
	}
	return p
}

func convertWeights(series []domain.Sample, unit string) []domain.Sample {
	out := make([]domain.Sample, len(series))
	for i, s := range series {
		if s.Unit != unit {
			s.Value = domain.ConvertWeight(s.Value, s.Unit, unit)
			s.Unit = unit
		}
		out[i] = s
	}
	return out
}

func clampDays(days int) int {
	if days < 1 {
		return 1
	}
	if days > maxDays {
		return maxDays
	}
	return days
}
