// Package domain holds the records shared by the store, the tutor and the
// HTTP layer: learners and their practice sessions.
package domain

import (
	"encoding/json"
	"time"
)

// DefaultLevel is the level assigned to learners who do not state one.
const DefaultLevel = "principiante"

// Subjects tracked in every learner's score map.
const (
	SubjectMath          = "matematica"
	SubjectVerbal        = "razonamientoVerbal"
	SubjectMathReasoning = "razonamientoMatematico"
)

// Scores maps a subject to its latest score in percent.
type Scores map[string]float64

// DefaultScores returns the zeroed score map a new learner starts with.
func DefaultScores() Scores {
	return Scores{
		SubjectMath:          0,
		SubjectVerbal:        0,
		SubjectMathReasoning: 0,
	}
}

// Statistics are the running totals kept on a learner.
type Statistics struct {
	QuestionsAnswered int     `json:"questionsAnswered"`
	CorrectAnswers    int     `json:"correctAnswers"`
	TotalTimeStudied  int     `json:"totalTimeStudied"` // minutes
	CurrentStreak     int     `json:"currentStreak"`    // consecutive study days
	AverageScore      float64 `json:"averageScore"`
	LastStudyDate     string  `json:"lastStudyDate,omitempty"` // YYYY-MM-DD
}

// Goals are optional learner targets.
type Goals struct {
	TargetUniversity string `json:"targetUniversity,omitempty"`
	TargetDate       string `json:"targetDate,omitempty"`
}

// User is a learner.
type User struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Level        string          `json:"level"`
	PasswordHash string          `json:"-"`
	Scores       Scores          `json:"scores"`
	Statistics   Statistics      `json:"statistics"`
	Goals        Goals           `json:"goals"`
	StudyPlan    json.RawMessage `json:"studyPlan,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// LevelOrDefault returns the learner's level, or DefaultLevel when unset.
func (u *User) LevelOrDefault() string {
	if u.Level == "" {
		return DefaultLevel
	}
	return u.Level
}

// QuestionResult is one answered question inside a practice session.
type QuestionResult struct {
	QuestionID string `json:"questionId,omitempty"`
	Question   string `json:"question"`
	UserAnswer int    `json:"userAnswer"`
	Correct    bool   `json:"correct"`
	TimeSpent  int    `json:"timeSpent"` // seconds
	Topic      string `json:"topic,omitempty"`
}

// SessionRecord is a completed practice session.
//
// StartTime and EndTime keep the text the client sent, so malformed or
// legacy values survive storage and are absorbed where durations are
// computed. StartedAt is the parsed start used for ordering; it is the zero
// time when StartTime does not parse.
type SessionRecord struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Subject   string           `json:"subject"`
	Questions []QuestionResult `json:"questions"`
	StartTime string           `json:"startTime"`
	EndTime   string           `json:"endTime"`
	Score     float64          `json:"score"`
	StartedAt time.Time        `json:"-"`
}

// Correct counts the correctly answered questions.
func (s SessionRecord) Correct() int {
	n := 0
	for _, q := range s.Questions {
		if q.Correct {
			n++
		}
	}
	return n
}

// Interval returns EndTime minus StartTime. ok is false when either value is
// missing or does not parse. Naive timestamps are read in loc.
func (s SessionRecord) Interval(loc *time.Location) (d time.Duration, ok bool) {
	if s.StartTime == "" || s.EndTime == "" {
		return 0, false
	}
	start, err := ParseTime(s.StartTime, loc)
	if err != nil {
		return 0, false
	}
	end, err := ParseTime(s.EndTime, loc)
	if err != nil {
		return 0, false
	}
	return end.Sub(start), true
}
