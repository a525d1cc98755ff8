package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prepia/tutor/internal/domain"
	"github.com/prepia/tutor/internal/store"
	"github.com/prepia/tutor/internal/tutor"
)

func TestPrintStats(t *testing.T) {
	u := &domain.User{
		Name:  "Ana",
		Level: "intermedio",
		Scores: domain.Scores{
			domain.SubjectMath:   45,
			domain.SubjectVerbal: 80,
		},
		Statistics: domain.Statistics{QuestionsAnswered: 40, CorrectAnswers: 30, AverageScore: 75, CurrentStreak: 4},
	}
	qs := make([]domain.QuestionResult, 10)
	for i := range qs {
		qs[i] = domain.QuestionResult{Question: "q", Correct: i < 2, Topic: "algebra"}
	}
	recent := []domain.SessionRecord{{UserID: "u1", Subject: domain.SubjectMath, Questions: qs}}

	var buf bytes.Buffer
	printStats(&buf, u, recent, tutor.DefaultConfig())
	out := buf.String()

	assert.Contains(t, out, "Ana")
	assert.Contains(t, out, "20.0% en 1 sesiones")
	assert.Contains(t, out, "fácil")
	assert.Contains(t, out, "algebra")
	assert.Contains(t, out, domain.SubjectVerbal)
}

func TestPrintStatsNoWeakTopics(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, &domain.User{Name: "Luis"}, nil, tutor.DefaultConfig())

	assert.Contains(t, buf.String(), "ninguno")
	assert.Contains(t, buf.String(), "principiante")
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf,
		[]store.LLMUsage{
			{Key: "chat", Requests: 3, Failures: 1, InputTokens: 1000, OutputTokens: 500},
			{Key: "explain", Requests: 2, InputTokens: 400, OutputTokens: 200},
		},
		[]store.LLMUsage{
			{Key: "gemini-2.0-flash", Requests: 4, InputTokens: 1200, OutputTokens: 600},
			{Key: "homegrown-model", Requests: 1, InputTokens: 200, OutputTokens: 100},
		},
	)
	out := buf.String()

	assert.Contains(t, out, "Usage by Purpose")
	assert.Contains(t, out, "TOTAL (partial)")
	assert.Contains(t, out, "homegrown-model")
	assert.Contains(t, out, "Pricing unavailable for: homegrown-model")
}

func TestPrintUsageEmpty(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf, nil, nil)
	assert.Contains(t, buf.String(), "No provider usage recorded yet.")
}

func TestPrintEvents(t *testing.T) {
	var buf bytes.Buffer
	printEvents(&buf, []store.LLMRequestEvent{{
		ID:        7,
		Timestamp: time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC),
		LLMRequestEventData: store.LLMRequestEventData{
			Model: "mock", Purpose: "adaptive-question", InputTokens: 12, OutputTokens: 34, Success: true,
		},
	}})

	assert.Contains(t, buf.String(), "adaptive-question")
	assert.Contains(t, buf.String(), "✓")
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "$0.0012", formatCost(0.0012))
	assert.Equal(t, "$1.50", formatCost(1.5))
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "prepia (devel)\n", buf.String())
}
