// Package horizon computes how many days a study plan has to cover.
package horizon

import (
	"time"

	"github.com/prepia/tutor/internal/domain"
)

// DefaultDays is used when the target is unusable or already past.
const DefaultDays = 30

// Days returns the whole days between now and target, floored. Targets that
// do not parse or are not in the future yield DefaultDays, so the result is
// always at least 1. Naive targets are read in now's location.
func Days(target string, now time.Time) int {
	t, err := domain.ParseTime(target, now.Location())
	if err != nil {
		return DefaultDays
	}
	days := int(t.Sub(now) / (24 * time.Hour))
	if days <= 0 {
		return DefaultDays
	}
	return days
}
