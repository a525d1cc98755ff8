package performance

import (
	"time"

	"github.com/prepia/tutor/internal/domain"
)

// StudyMinutes sums whole minutes spent across records. Sessions with a
// missing or unparseable timestamp contribute nothing, and so do sessions
// whose end precedes their start.
func StudyMinutes(records []domain.SessionRecord, loc *time.Location) int {
	total := 0
	for _, rec := range records {
		d, ok := rec.Interval(loc)
		if !ok || d < 0 {
			continue
		}
		total += int(d / time.Minute)
	}
	return total
}

// Time-of-day buckets used in study pattern reports.
const (
	Morning   = "mañana"
	Afternoon = "tarde"
	Evening   = "noche"
	Overnight = "madrugada"
)

// PreferredTimes returns the time-of-day buckets the learner starts sessions
// in, most frequent first. Ties keep the day order above. Records with no
// parsed start are ignored.
func PreferredTimes(records []domain.SessionRecord, loc *time.Location) []string {
	order := []string{Morning, Afternoon, Evening, Overnight}
	counts := make(map[string]int, len(order))
	for _, rec := range records {
		if rec.StartedAt.IsZero() {
			continue
		}
		counts[bucket(rec.StartedAt.In(loc).Hour())]++
	}

	var out []string
	for len(counts) > 0 {
		best := ""
		for _, b := range order {
			if n, ok := counts[b]; ok && (best == "" || n > counts[best]) {
				best = b
			}
		}
		out = append(out, best)
		delete(counts, best)
	}
	return out
}

func bucket(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 19:
		return Afternoon
	case hour >= 19:
		return Evening
	default:
		return Overnight
	}
}
