// Package chartmath turns metric series into the aggregates the dashboard
// charts render. Every function is pure and safe for concurrent use on
// independent inputs; none of them modify their arguments.
package chartmath

import (
	"cmp"
	"slices"

	"healthdash/internal/domain"
)

// AverageByWeekday collapses samples into one mean per day of the week.
// Buckets come back in ascending weekday order (Sunday first). Each bucket's
// Date is taken from the first sample of that weekday in input order.
// Weekdays without samples produce no bucket.
func AverageByWeekday(samples []domain.Sample) []domain.WeekdayBucket {
	buckets := make([]domain.WeekdayBucket, 0, 7)
	if len(samples) == 0 {
		return buckets
	}

	sorted := slices.Clone(samples)
	slices.SortStableFunc(sorted, func(a, b domain.Sample) int {
		return cmp.Compare(a.Date.Weekday(), b.Date.Weekday())
	})

	for _, run := range chunkByWeekday(sorted) {
		var total float64
		for _, s := range run {
			total += s.Value
		}
		buckets = append(buckets, domain.WeekdayBucket{
			Date:  run[0].Date,
			Value: total / float64(len(run)),
		})
	}
	return buckets
}

// AverageDailyDiffByWeekday computes the change between consecutive samples,
// each diff dated on the later day, and averages those diffs per weekday.
// Supplying N+1 days of history yields N diffs. Fewer than two samples
// yields an empty result.
//
// Samples are ordered by date before differencing, so callers handing in an
// unsorted series still get deltas between neighbouring days.
func AverageDailyDiffByWeekday(samples []domain.Sample) []domain.WeekdayBucket {
	if len(samples) < 2 {
		return []domain.WeekdayBucket{}
	}

	ordered := slices.Clone(samples)
	slices.SortStableFunc(ordered, func(a, b domain.Sample) int {
		return a.Date.Compare(b.Date)
	})

	diffs := make([]domain.Sample, 0, len(ordered)-1)
	for i := 1; i < len(ordered); i++ {
		diffs = append(diffs, domain.Sample{
			Date:  ordered[i].Date,
			Value: ordered[i].Value - ordered[i-1].Value,
		})
	}
	return AverageByWeekday(diffs)
}

// chunkByWeekday splits a weekday-sorted slice into runs sharing a weekday.
// The runs alias sorted.
func chunkByWeekday(sorted []domain.Sample) [][]domain.Sample {
	var runs [][]domain.Sample
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || sorted[i].Date.Weekday() != sorted[start].Date.Weekday() {
			runs = append(runs, sorted[start:i])
			start = i
		}
	}
	return runs
}
