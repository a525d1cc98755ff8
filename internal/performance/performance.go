// Package performance turns practice sessions into accuracy figures and
// weak-topic sets.
package performance

import (
	"sort"

	"github.com/prepia/tutor/internal/domain"
)

// TopicStat counts answers for a single topic.
type TopicStat struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Accuracy returns Correct/Total in [0,1], or 0 with no observations.
func (t TopicStat) Accuracy() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Correct) / float64(t.Total)
}

// Snapshot aggregates a window of sessions. It is rebuilt from scratch on
// every call to Aggregate and never updated in place.
type Snapshot struct {
	TotalQuestions int                  `json:"totalQuestions"`
	CorrectAnswers int                  `json:"correctAnswers"`
	TopicStats     map[string]TopicStat `json:"topicStats"`
}

// Accuracy returns the percentage of correct answers. An empty history
// reports 0.
func (s Snapshot) Accuracy() float64 {
	if s.TotalQuestions == 0 {
		return 0
	}
	return float64(s.CorrectAnswers) / float64(s.TotalQuestions) * 100
}

// Aggregate folds records into a Snapshot. Questions without a topic count
// toward the totals only.
func Aggregate(records []domain.SessionRecord) Snapshot {
	snap := Snapshot{TopicStats: make(map[string]TopicStat)}
	for _, rec := range records {
		for _, q := range rec.Questions {
			snap.TotalQuestions++
			if q.Correct {
				snap.CorrectAnswers++
			}
			if q.Topic == "" {
				continue
			}
			ts := snap.TopicStats[q.Topic]
			ts.Total++
			if q.Correct {
				ts.Correct++
			}
			snap.TopicStats[q.Topic] = ts
		}
	}
	return snap
}

// Thresholds decide when a topic counts as weak.
type Thresholds struct {
	// MinSamples is the fewest answers a topic needs before it can be weak.
	MinSamples int
	// MaxAccuracy is the ratio below which a sampled topic is weak.
	MaxAccuracy float64
}

// DefaultThresholds: at least 3 answers and under 60% correct.
func DefaultThresholds() Thresholds {
	return Thresholds{MinSamples: 3, MaxAccuracy: 0.6}
}

// WeakTopics returns the sorted topics with enough samples and low accuracy.
// The result is empty, not nil-padded, when nothing qualifies.
func WeakTopics(stats map[string]TopicStat, th Thresholds) []string {
	weak := []string{}
	for topic, ts := range stats {
		if ts.Total >= th.MinSamples && ts.Accuracy() < th.MaxAccuracy {
			weak = append(weak, topic)
		}
	}
	sort.Strings(weak)
	return weak
}
