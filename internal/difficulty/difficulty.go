// Package difficulty maps recent accuracy to a question difficulty tier.
package difficulty

import "fmt"

// Tier is an adaptive difficulty level.
type Tier int

const (
	Easy Tier = iota
	Medium
	Hard
)

// Accuracy bounds, in percent. Values equal to a bound resolve to Medium.
const (
	HardAbove = 80.0
	EasyBelow = 50.0
)

// Select picks the tier for an accuracy percentage. Input outside 0..100
// is not validated.
func Select(accuracy float64) Tier {
	switch {
	case accuracy > HardAbove:
		return Hard
	case accuracy < EasyBelow:
		return Easy
	default:
		return Medium
	}
}

func (t Tier) String() string {
	switch t {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// Label is the learner-facing name used in prompts and generated questions.
func (t Tier) Label() string {
	switch t {
	case Easy:
		return "fácil"
	case Hard:
		return "difícil"
	default:
		return "medio"
	}
}

// MarshalText renders the tier as its String form.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
