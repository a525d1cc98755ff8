package tutor

import (
	"time"

	"github.com/prepia/tutor/internal/performance"
)

// Config controls the decisions and collaborator calls of a Service.
type Config struct {
	// RecentWindow is how many of the most recent sessions feed accuracy,
	// weak topics and the difficulty tier.
	RecentWindow int

	// AnalysisWindow bounds the sessions loaded for pattern analysis.
	AnalysisWindow int

	// TodayWindow bounds the sessions loaded for daily feedback.
	TodayWindow int

	// Thresholds classify weak topics.
	Thresholds performance.Thresholds

	// WeakSubjectScore is the subject score below which a subject is
	// reported as weak in the chat context. Independent of Thresholds.
	WeakSubjectScore float64

	// TrendMargin is how many accuracy points today must differ from the
	// historical average before feedback reports a trend.
	TrendMargin float64

	// CollaboratorTimeout bounds each generative call. Zero disables it.
	CollaboratorTimeout time.Duration

	// ExamContext names the exam learners prepare for, used in prompts.
	ExamContext string

	// MaxTokens and Temperature are passed to every generative call.
	MaxTokens   int
	Temperature float64

	// Location decides local midnight and interprets naive timestamps.
	Location *time.Location

	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		RecentWindow:        10,
		AnalysisWindow:      1000,
		TodayWindow:         100,
		Thresholds:          performance.DefaultThresholds(),
		WeakSubjectScore:    60,
		TrendMargin:         5,
		CollaboratorTimeout: 60 * time.Second,
		ExamContext:         "examen de admisión universitaria peruana",
		MaxTokens:           2048,
		Temperature:         0.7,
		Location:            time.Local,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RecentWindow <= 0 {
		c.RecentWindow = d.RecentWindow
	}
	if c.AnalysisWindow <= 0 {
		c.AnalysisWindow = d.AnalysisWindow
	}
	if c.TodayWindow <= 0 {
		c.TodayWindow = d.TodayWindow
	}
	if c.Thresholds == (performance.Thresholds{}) {
		c.Thresholds = d.Thresholds
	}
	if c.WeakSubjectScore == 0 {
		c.WeakSubjectScore = d.WeakSubjectScore
	}
	if c.TrendMargin == 0 {
		c.TrendMargin = d.TrendMargin
	}
	if c.ExamContext == "" {
		c.ExamContext = d.ExamContext
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.Location == nil {
		c.Location = d.Location
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}
