package tutor

import (
	"encoding/json"

	"github.com/prepia/tutor/internal/difficulty"
	"github.com/prepia/tutor/internal/domain"
)

// ExplainRequest asks why an answer was right or wrong.
type ExplainRequest struct {
	UserID        string `json:"userId"`
	Question      string `json:"question"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	Subject       string `json:"subject"`
}

// Explanation is the collaborator's explanation text.
type Explanation struct {
	Text string `json:"explanation"`
}

// AdaptiveQuestionRequest asks for a question tuned to recent performance.
type AdaptiveQuestionRequest struct {
	UserID  string `json:"userId"`
	Subject string `json:"subject"`
}

// Question is a generated multiple-choice question. Correct indexes Options.
type Question struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Correct     int      `json:"correct"`
	Explanation string   `json:"explanation"`
	Difficulty  string   `json:"difficulty"`
	Topic       string   `json:"topic"`
}

// AdaptiveQuestion is a generated question plus the signals that shaped it.
type AdaptiveQuestion struct {
	Question Question `json:"question"`
	// Tier was selected from Accuracy over the recent window.
	Tier     difficulty.Tier `json:"tier"`
	Accuracy float64         `json:"accuracy"`
	// WeakTopics is the classifier output; empty when nothing is weak.
	WeakTopics []string `json:"weakTopics"`
}

// ChatRequest is one learner message to the tutor.
type ChatRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// ChatReply is the tutor's answer.
type ChatReply struct {
	Message string `json:"message"`
	// Turns is the transcript length after the exchange was committed.
	Turns int `json:"turns"`
}

// NotEnoughData is the analysis returned for learners with no sessions.
const NotEnoughData = "🎓 Aún no tienes suficientes datos para un análisis completo. ¡Empieza a practicar!"

// Analysis is a study pattern report.
type Analysis struct {
	Text           string        `json:"analysis"`
	SessionsCount  int           `json:"sessionsCount"`
	TotalMinutes   int           `json:"totalMinutes"`
	Streak         int           `json:"streak"`
	PreferredTimes []string      `json:"preferredTimes"`
	SubjectScores  domain.Scores `json:"subjectScores"`
}

// StudyPlanRequest asks for a plan towards TargetScore by TargetDate.
type StudyPlanRequest struct {
	UserID      string `json:"userId"`
	TargetDate  string `json:"targetDate"`
	TargetScore int    `json:"targetScore"`
}

// DaySchedule is one day of a study plan.
type DaySchedule struct {
	Day           string   `json:"day"`
	Subjects      []string `json:"subjects"`
	Topics        []string `json:"topics"`
	EstimatedTime int      `json:"estimatedTime"` // minutes
	Goals         []string `json:"goals"`
}

// Milestone is a weekly checkpoint of a study plan.
type Milestone struct {
	Week          int     `json:"week"`
	Goal          string  `json:"goal"`
	ExpectedScore float64 `json:"expectedScore"`
}

// Plan is the decoded study plan.
type Plan struct {
	Summary       string        `json:"summary"`
	WeeklyGoals   []string      `json:"weeklyGoals"`
	DailySchedule []DaySchedule `json:"dailySchedule"`
	Milestones    []Milestone   `json:"milestones"`
	Tips          []string      `json:"tips"`
}

// StudyPlan is a generated plan. Raw is exactly what was stored on the
// learner.
type StudyPlan struct {
	Plan Plan            `json:"-"`
	Raw  json.RawMessage `json:"plan"`
	Days int             `json:"days"`
}

// Trend compares today's accuracy with the learner's average.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendSteady Trend = "steady"
)

// Label is the Spanish wording used in prompts.
func (t Trend) Label() string {
	switch t {
	case TrendUp:
		return "en ascenso"
	case TrendDown:
		return "en descenso"
	default:
		return "estable"
	}
}

// Mood is the learner mood assumed by feedback.
const Mood = "motivado"

// DefaultGoal is used when the learner has no target university.
const DefaultGoal = "ingresar a la universidad"

// Feedback is a motivational message about today's practice.
type Feedback struct {
	Text              string `json:"feedback"`
	QuestionsAnswered int    `json:"questionsAnswered"`
	CorrectAnswers    int    `json:"correctAnswers"`
	TimeSpent         int    `json:"timeSpent"` // minutes
	Streak            int    `json:"streak"`
	Trend             Trend  `json:"trend"`
	Mood              string `json:"mood"`
	Goal              string `json:"goal"`
}
