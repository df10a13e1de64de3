package chartmath

import (
	"slices"
	"time"

	"healthdash/internal/domain"
)

// Average returns the mean value of samples, or 0 for an empty series.
func Average(samples []domain.Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var total float64
	for _, s := range samples {
		total += s.Value
	}
	return total / float64(len(samples))
}

// Latest returns the last sample of a chronologically ordered series.
func Latest(samples []domain.Sample) (domain.Sample, bool) {
	if len(samples) == 0 {
		return domain.Sample{}, false
	}
	return samples[len(samples)-1], true
}

// CollapseDaily reduces raw samples to one sample per calendar day in loc,
// oldest day first. Each output sample is dated at local midnight. With
// AggregateSum the day's values are added; with AggregateLatest the sample
// with the latest timestamp wins, later input breaking ties.
func CollapseDaily(samples []domain.Sample, loc *time.Location, agg domain.DailyAggregation) []domain.Sample {
	if loc == nil {
		loc = time.Local
	}

	type day struct {
		sample domain.Sample
		at     time.Time
	}
	byDay := make(map[time.Time]*day)
	var order []time.Time

	for _, s := range samples {
		local := s.Date.In(loc)
		key := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

		d, ok := byDay[key]
		if !ok {
			out := s
			out.ID = 0
			out.Date = key
			byDay[key] = &day{sample: out, at: s.Date}
			order = append(order, key)
			continue
		}

		switch agg {
		case domain.AggregateSum:
			d.sample.Value += s.Value
		case domain.AggregateLatest:
			if !s.Date.Before(d.at) {
				d.sample.Value = s.Value
				d.sample.Unit = s.Unit
				d.at = s.Date
			}
		}
	}

	slices.SortFunc(order, func(a, b time.Time) int { return a.Compare(b) })
	out := make([]domain.Sample, 0, len(order))
	for _, key := range order {
		out = append(out, byDay[key].sample)
	}
	return out
}
