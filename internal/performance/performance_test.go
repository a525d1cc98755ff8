package performance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepia/tutor/internal/domain"
)

func answers(topic string, correct, wrong int) []domain.QuestionResult {
	var out []domain.QuestionResult
	for range correct {
		out = append(out, domain.QuestionResult{Topic: topic, Correct: true})
	}
	for range wrong {
		out = append(out, domain.QuestionResult{Topic: topic})
	}
	return out
}

func TestAggregateEmpty(t *testing.T) {
	snap := Aggregate(nil)
	assert.Zero(t, snap.TotalQuestions)
	assert.Zero(t, snap.CorrectAnswers)
	assert.Empty(t, snap.TopicStats)
	assert.Zero(t, snap.Accuracy())
}

func TestAggregateCountsTopicsAndTotals(t *testing.T) {
	records := []domain.SessionRecord{
		{Questions: append(answers("algebra", 2, 1), domain.QuestionResult{Correct: true})},
		{Questions: answers("geometria", 1, 1)},
	}

	snap := Aggregate(records)

	assert.Equal(t, 6, snap.TotalQuestions)
	assert.Equal(t, 4, snap.CorrectAnswers)
	assert.Equal(t, TopicStat{Correct: 2, Total: 3}, snap.TopicStats["algebra"])
	assert.Equal(t, TopicStat{Correct: 1, Total: 2}, snap.TopicStats["geometria"])
	assert.NotContains(t, snap.TopicStats, "")
	assert.InDelta(t, 66.666, snap.Accuracy(), 0.01)
}

func TestAggregateIsIdempotent(t *testing.T) {
	records := []domain.SessionRecord{{Questions: answers("algebra", 3, 4)}}
	assert.Equal(t, Aggregate(records), Aggregate(records))
}

func TestWeakTopics(t *testing.T) {
	stats := map[string]TopicStat{
		"algebra":    {Correct: 2, Total: 10},
		"geometria":  {Correct: 0, Total: 2}, // too few samples
		"fracciones": {Correct: 3, Total: 5}, // exactly 0.6 is not weak
		"analogias":  {Correct: 1, Total: 3},
		"series":     {Correct: 9, Total: 10},
	}

	weak := WeakTopics(stats, DefaultThresholds())

	assert.Equal(t, []string{"algebra", "analogias"}, weak)
}

func TestWeakTopicsNeverBelowMinSamples(t *testing.T) {
	for total := 0; total < 3; total++ {
		stats := map[string]TopicStat{"x": {Correct: 0, Total: total}}
		assert.Empty(t, WeakTopics(stats, DefaultThresholds()), "total=%d", total)
	}
}

func TestWeakTopicsEmptyIsNotNil(t *testing.T) {
	weak := WeakTopics(nil, DefaultThresholds())
	require.NotNil(t, weak)
	assert.Empty(t, weak)
}

func TestStudyMinutesAbsorbsBadTimestamps(t *testing.T) {
	records := []domain.SessionRecord{
		{StartTime: "2025-03-01T10:00:00Z", EndTime: "2025-03-01T10:30:59Z"},
		{StartTime: "2025-03-01T12:00:00", EndTime: "2025-03-01T12:15:00"},
		{StartTime: "garbage", EndTime: "2025-03-01T12:15:00Z"},
		{StartTime: "2025-03-01T12:00:00Z"},
		{StartTime: "2025-03-01T12:00:00Z", EndTime: "2025-03-01T11:00:00Z"},
	}

	assert.Equal(t, 45, StudyMinutes(records, time.UTC))
}

func TestPreferredTimes(t *testing.T) {
	at := func(hour int) domain.SessionRecord {
		return domain.SessionRecord{StartedAt: time.Date(2025, 3, 1, hour, 0, 0, 0, time.UTC)}
	}
	records := []domain.SessionRecord{at(20), at(9), at(21), at(15), {}}

	assert.Equal(t, []string{Evening, Morning, Afternoon}, PreferredTimes(records, time.UTC))
	assert.Empty(t, PreferredTimes(nil, time.UTC))
}
