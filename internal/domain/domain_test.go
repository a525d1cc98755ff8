package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeForms(t *testing.T) {
	lima := time.FixedZone("PET", -5*3600)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-01T10:00:00Z", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2025-03-01T10:00:00+00:00", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2025-03-01T10:00:00.123456", time.Date(2025, 3, 1, 10, 0, 0, 123456000, lima)},
		{"2025-03-01", time.Date(2025, 3, 1, 0, 0, 0, 0, lima)},
	}
	for _, tt := range tests {
		got, err := ParseTime(tt.in, lima)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %v want %v", tt.in, got, tt.want)
	}
}

func TestParseTimeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "not-a-date", "2025/03/01"} {
		_, err := ParseTime(in, time.UTC)
		assert.Error(t, err, in)
	}
}

func TestSessionInterval(t *testing.T) {
	s := SessionRecord{StartTime: "2025-03-01T10:00:00Z", EndTime: "2025-03-01T10:45:30Z"}
	d, ok := s.Interval(time.UTC)
	require.True(t, ok)
	assert.Equal(t, 45*time.Minute+30*time.Second, d)

	s.EndTime = "yesterday"
	_, ok = s.Interval(time.UTC)
	assert.False(t, ok)

	_, ok = SessionRecord{StartTime: "2025-03-01T10:00:00Z"}.Interval(time.UTC)
	assert.False(t, ok)
}

func TestSessionCorrect(t *testing.T) {
	s := SessionRecord{Questions: []QuestionResult{{Correct: true}, {}, {Correct: true}}}
	assert.Equal(t, 2, s.Correct())
}

func TestDefaults(t *testing.T) {
	assert.Len(t, DefaultScores(), 3)
	assert.Equal(t, DefaultLevel, (&User{}).LevelOrDefault())
	assert.Equal(t, "avanzado", (&User{Level: "avanzado"}).LevelOrDefault())
}

func TestStatisticsRecord(t *testing.T) {
	var st Statistics
	day := func(d int) time.Time { return time.Date(2025, 3, d, 18, 0, 0, 0, time.UTC) }
	sess := SessionRecord{Questions: []QuestionResult{{Correct: true}, {}, {Correct: true}, {Correct: true}}}

	st.Record(sess, 30, day(1))
	assert.Equal(t, 4, st.QuestionsAnswered)
	assert.Equal(t, 3, st.CorrectAnswers)
	assert.InDelta(t, 75.0, st.AverageScore, 0.001)
	assert.Equal(t, 30, st.TotalTimeStudied)
	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, "2025-03-01", st.LastStudyDate)

	st.Record(SessionRecord{}, 0, day(1))
	assert.Equal(t, 1, st.CurrentStreak, "same day holds")

	st.Record(SessionRecord{}, -5, day(2))
	assert.Equal(t, 2, st.CurrentStreak)
	assert.Equal(t, 30, st.TotalTimeStudied, "negative minutes are ignored")

	st.Record(SessionRecord{}, 0, day(1))
	assert.Equal(t, 2, st.CurrentStreak, "backfilled session keeps streak")
	assert.Equal(t, "2025-03-02", st.LastStudyDate)

	st.Record(SessionRecord{}, 0, day(5))
	assert.Equal(t, 1, st.CurrentStreak, "gap restarts")
}

func TestStatisticsStreakAcrossMonth(t *testing.T) {
	st := Statistics{LastStudyDate: "2025-01-31", CurrentStreak: 4}
	st.Record(SessionRecord{}, 0, time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, 5, st.CurrentStreak)
}
