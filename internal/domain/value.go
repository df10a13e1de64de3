package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var valuePattern = regexp.MustCompile(`^\d+(\.\d?)?$`)

// ParseValue parses a user-entered sample value for kind. Values must be
// non-negative with at most one decimal place; steps must be whole and
// weights strictly positive. Anything else is ErrInvalidValue.
func ParseValue(kind MetricKind, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if !valuePattern.MatchString(raw) {
		return 0, ErrInvalidValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, ErrInvalidValue
	}
	switch kind {
	case MetricSteps:
		if v != math.Trunc(v) {
			return 0, ErrInvalidValue
		}
	case MetricWeight:
		if v <= 0 {
			return 0, ErrInvalidValue
		}
	}
	return v, nil
}
