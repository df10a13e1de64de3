package chartmath_test

import (
	"testing"
	"time"

	"healthdash/internal/chartmath"
	"healthdash/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverage(t *testing.T) {
	assert.Equal(t, 0.0, chartmath.Average(nil))
	assert.InDelta(t, 4.0, chartmath.Average([]domain.Sample{sample(1, 2), sample(2, 6)}), 1e-9)
}

func TestLatest(t *testing.T) {
	_, ok := chartmath.Latest(nil)
	assert.False(t, ok)

	got, ok := chartmath.Latest([]domain.Sample{sample(1, 2), sample(2, 6)})
	require.True(t, ok)
	assert.Equal(t, 6.0, got.Value)
}

func TestCollapseDaily_Sum(t *testing.T) {
	loc := time.UTC
	in := []domain.Sample{
		{ID: 1, Kind: domain.MetricSteps, Date: time.Date(2026, 2, 2, 8, 0, 0, 0, loc), Value: 1000, Unit: "count"},
		{ID: 2, Kind: domain.MetricSteps, Date: time.Date(2026, 2, 2, 18, 0, 0, 0, loc), Value: 2500, Unit: "count"},
		{ID: 3, Kind: domain.MetricSteps, Date: time.Date(2026, 2, 1, 9, 0, 0, 0, loc), Value: 400, Unit: "count"},
	}

	got := chartmath.CollapseDaily(in, loc, domain.AggregateSum)
	require.Len(t, got, 2)

	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, loc), got[0].Date)
	assert.Equal(t, 400.0, got[0].Value)
	assert.Equal(t, time.Date(2026, 2, 2, 0, 0, 0, 0, loc), got[1].Date)
	assert.Equal(t, 3500.0, got[1].Value)
	assert.Zero(t, got[1].ID)
	assert.Equal(t, domain.MetricSteps, got[1].Kind)
}

func TestCollapseDaily_Latest(t *testing.T) {
	loc := time.UTC
	in := []domain.Sample{
		{Date: time.Date(2026, 2, 2, 20, 0, 0, 0, loc), Value: 181.2, Unit: "lb"},
		{Date: time.Date(2026, 2, 2, 7, 0, 0, 0, loc), Value: 180.4, Unit: "lb"},
	}

	got := chartmath.CollapseDaily(in, loc, domain.AggregateLatest)
	require.Len(t, got, 1)
	assert.Equal(t, 181.2, got[0].Value)
}

func TestCollapseDaily_UsesLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 03:00 UTC on Feb 3 is still Feb 2 in New York.
	in := []domain.Sample{{Date: time.Date(2026, 2, 3, 3, 0, 0, 0, time.UTC), Value: 5}}

	got := chartmath.CollapseDaily(in, ny, domain.AggregateSum)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Date.Day())
	assert.Equal(t, time.Monday, got[0].Date.Weekday())
}
