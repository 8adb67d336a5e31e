package city

import (
	"errors"
	"fmt"
	"time"

	"github.com/FACorreiaa/isitsafe/internal/types"
)

const (
	safeThreshold    = 7.0
	cautionThreshold = 5.0

	isoDateLayout  = "2006-01-02"
	longDateLayout = "January 2, 2006"
)

// ErrInvalidDate is returned by FormatDate when the input is not a YYYY-MM-DD calendar date.
var ErrInvalidDate = errors.New("invalid date")

// ScoreTier buckets a score into a tier. Each band includes its lower bound;
// the function is defined for every float, including values outside 0-10.
func ScoreTier(score float64) types.Tier {
	if score >= safeThreshold {
		return types.TierSafe
	}
	if score >= cautionThreshold {
		return types.TierCaution
	}
	return types.TierDanger
}

// ParseDate reads a YYYY-MM-DD date as local midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(isoDateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate renders a YYYY-MM-DD date in long US form, e.g. "February 15, 2026".
func FormatDate(s string) (string, error) {
	t, err := ParseDate(s, time.Local)
	if err != nil {
		return "", err
	}
	return t.Format(longDateLayout), nil
}
