package domain

import (
	"context"
	"fmt"
	"time"
)

// MetricKind identifies a tracked health quantity.
type MetricKind string

const (
	MetricSteps        MetricKind = "steps"
	MetricWeight       MetricKind = "weight"
	MetricActiveEnergy MetricKind = "active_energy"
)

// MetricKinds lists every kind in dashboard order.
var MetricKinds = []MetricKind{MetricSteps, MetricWeight, MetricActiveEnergy}

// DailyAggregation says how several samples recorded on the same day collapse
// into the single daily value.
type DailyAggregation int

const (
	// AggregateSum adds up every sample of the day (cumulative quantities).
	AggregateSum DailyAggregation = iota
	// AggregateLatest keeps the most recent sample of the day.
	AggregateLatest
)

// ParseMetricKind returns the kind named by s.
func ParseMetricKind(s string) (MetricKind, error) {
	switch k := MetricKind(s); k {
	case MetricSteps, MetricWeight, MetricActiveEnergy:
		return k, nil
	}
	return "", fmt.Errorf("unknown metric kind %q", s)
}

// Title is the display name of the kind.
func (k MetricKind) Title() string {
	switch k {
	case MetricSteps:
		return "Steps"
	case MetricWeight:
		return "Weight"
	case MetricActiveEnergy:
		return "Calories"
	}
	return string(k)
}

// DefaultUnit is the unit samples of this kind are stored in when none is given.
func (k MetricKind) DefaultUnit() string {
	switch k {
	case MetricWeight:
		return "lb"
	case MetricActiveEnergy:
		return "kcal"
	}
	return "count"
}

// DailyAggregation reports how the kind is reduced to one value per day.
func (k MetricKind) DailyAggregation() DailyAggregation {
	if k == MetricWeight {
		return AggregateLatest
	}
	return AggregateSum
}

// FractionDigits is the number of decimals used when listing values.
func (k MetricKind) FractionDigits() int {
	switch k {
	case MetricWeight:
		return 2
	case MetricActiveEnergy:
		return 1
	}
	return 0
}

// Sample is one observation of a metric. ID is a surrogate used by list views
// and is zero for derived samples.
type Sample struct {
	ID     int64      `json:"id,omitempty"`
	UserID int64      `json:"-"`
	Kind   MetricKind `json:"kind,omitempty"`
	Date   time.Time  `json:"date"`
	Value  float64    `json:"value"`
	Unit   string     `json:"unit,omitempty"`
}

// WeekdayBucket is the mean value for one day of the week across a window.
// Date is the first sample that landed in the bucket and is only meant for
// labelling.
type WeekdayBucket struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Weekday returns the day of week the bucket aggregates.
func (b WeekdayBucket) Weekday() time.Weekday {
	return b.Date.Weekday()
}

// SampleRepository is the port for sample persistence.
type SampleRepository interface {
	AddSample(ctx context.Context, userID int64, kind MetricKind, value float64, unit string, sampledAt time.Time) (int64, error)
	DeleteLatestSample(ctx context.Context, userID int64, kind MetricKind) (bool, error)
	// ListSamples returns samples with from <= sampled_at < to, oldest first.
	ListSamples(ctx context.Context, userID int64, kind MetricKind, from, to time.Time) ([]Sample, error)
	// ListRecentSamples returns up to limit samples, newest first.
	ListRecentSamples(ctx context.Context, userID int64, kind MetricKind, limit int) ([]Sample, error)
}
