package llm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/prepia/tutor/internal/logger"
	"github.com/prepia/tutor/internal/store"
)

type fakeEventRepo struct {
	store.EventRepo
	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (f *fakeEventRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, data)
	return f.err
}

func TestLogging_RecordsSuccess(t *testing.T) {
	repo := &fakeEventRepo{}
	mock := NewMockProvider(MockResponse{Content: []byte("hola"), Usage: Usage{InputTokens: 7, OutputTokens: 3}})
	p := WithLogging(mock, "gemini", repo, nil)

	ctx := WithPurpose(context.Background(), "chat")
	_, err := p.Generate(ctx, Request{
		System:   "Eres un tutor",
		Messages: []Message{{Role: RoleUser, Content: "¿Qué es una fracción?"}},
		Schema:   &Schema{Name: "s", Definition: map[string]any{"type": "object"}},
	})
	require.NoError(t, err)

	require.Len(t, repo.events, 1)
	ev := repo.events[0]
	assert.Equal(t, "gemini", ev.Provider)
	assert.Equal(t, "chat", ev.Purpose)
	assert.True(t, ev.Success)
	assert.Equal(t, 7, ev.InputTokens)
	assert.Equal(t, "hola", ev.ResponseBody)
	assert.Contains(t, ev.RequestBody, "[system]\nEres un tutor")
	assert.Contains(t, ev.RequestBody, "[user]\n¿Qué es una fracción?")
	assert.Contains(t, ev.RequestBody, "[schema: s]")
}

func TestLogging_RecordsFailureAndWarns(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	repo := &fakeEventRepo{err: errors.New("disk full")}
	p := WithLogging(NewMockProvider(ErrorResponse(&ErrRateLimit{})), "openai", repo, logger.FromZap(zap.New(core)))

	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err, "the provider error is returned unchanged")

	require.Len(t, repo.events, 1)
	assert.False(t, repo.events[0].Success)
	assert.NotEmpty(t, repo.events[0].ErrorMessage)
	assert.Equal(t, 1, logs.FilterMessage("llm request failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("failed to record llm request event").Len())
}

func TestLogging_NilRepo(t *testing.T) {
	p := WithLogging(NewMockProvider(TextResponse("ok")), "mock", nil, nil)
	_, err := p.Generate(context.Background(), Request{})
	assert.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())
}
