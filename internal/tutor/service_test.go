package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepia/tutor/internal/conversation"
	"github.com/prepia/tutor/internal/difficulty"
	"github.com/prepia/tutor/internal/domain"
	"github.com/prepia/tutor/internal/llm"
	"github.com/prepia/tutor/internal/performance"
	"github.com/prepia/tutor/internal/store"
)

// fakeRepo is an in-memory Repository.
type fakeRepo struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	sessions map[string][]domain.SessionRecord
	plans    map[string][]byte
	err      error
}

func newFakeRepo(users ...*domain.User) *fakeRepo {
	r := &fakeRepo{
		users:    make(map[string]*domain.User),
		sessions: make(map[string][]domain.SessionRecord),
		plans:    make(map[string][]byte),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeRepo) CreateUser(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeRepo) GetUser(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *fakeRepo) SaveStudyPlan(_ context.Context, userID string, plan []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return store.ErrNotFound
	}
	r.plans[userID] = plan
	return nil
}

func (r *fakeRepo) InsertSession(_ context.Context, rec *domain.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[rec.UserID] = append(r.sessions[rec.UserID], *rec)
	return nil
}

func (r *fakeRepo) sorted(userID string) []domain.SessionRecord {
	out := append([]domain.SessionRecord(nil), r.sessions[userID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

func (r *fakeRepo) RecentSessions(_ context.Context, userID string, limit int) ([]domain.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := r.sorted(userID)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRepo) SessionsSince(_ context.Context, userID string, since time.Time, limit int) ([]domain.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.SessionRecord
	for _, s := range r.sorted(userID) {
		if !s.StartedAt.Before(since) {
			out = append(out, s)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var testNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Location = time.UTC
	cfg.Now = func() time.Time { return testNow }
	return cfg
}

func testUser(id string) *domain.User {
	return &domain.User{
		ID:     id,
		Name:   "Ana",
		Email:  id + "@example.com",
		Level:  "intermedio",
		Scores: domain.Scores{domain.SubjectMath: 40, domain.SubjectVerbal: 75, domain.SubjectMathReasoning: 59.5},
		Statistics: domain.Statistics{
			QuestionsAnswered: 20,
			CorrectAnswers:    10,
			AverageScore:      50,
			CurrentStreak:     3,
		},
	}
}

// session builds a record starting at start and lasting minutes, with
// correct answers first.
func session(userID, topic string, start time.Time, minutes, total, correct int) domain.SessionRecord {
	qs := make([]domain.QuestionResult, total)
	for i := range qs {
		qs[i] = domain.QuestionResult{Question: fmt.Sprintf("q%d", i), Correct: i < correct, Topic: topic}
	}
	return domain.SessionRecord{
		UserID:    userID,
		Subject:   domain.SubjectMath,
		Questions: qs,
		StartTime: start.Format(time.RFC3339),
		EndTime:   start.Add(time.Duration(minutes) * time.Minute).Format(time.RFC3339),
		StartedAt: start,
	}
}

func newService(t *testing.T, repo *fakeRepo, responses ...llm.MockResponse) (*Service, *llm.MockProvider) {
	t.Helper()
	mock := llm.NewMockProvider(responses...)
	return New(repo, mock, conversation.New(), testConfig(), nil), mock
}

func validQuestion() map[string]any {
	return map[string]any{
		"question":    "Si 2x + 3 = 7, ¿cuánto vale x?",
		"options":     []string{"1", "2", "3", "4"},
		"correct":     1,
		"explanation": "Resta 3 y divide entre 2.",
		"difficulty":  "fácil",
		"topic":       "algebra",
	}
}

const validPlan = `{"summary":"Plan intensivo de cuatro semanas","weeklyGoals":["Reforzar álgebra"],` +
	`"dailySchedule":[{"day":"Lunes","subjects":["Matemática"],"topics":["Álgebra básica"],"estimatedTime":90,"goals":["Resolver 20 problemas"]}],` +
	`"milestones":[{"week":1,"goal":"Bases sólidas","expectedScore":65}],"tips":["Descansa bien"]}`

func requireKind(t *testing.T, err error, want Kind) {
	t.Helper()
	require.Error(t, err)
	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, want, te.Kind, "error: %v", err)
}

func TestAdaptiveQuestion_WeakAlgebraIsEasy(t *testing.T) {
	repo := newFakeRepo(testUser("u1"))
	base := testNow.Add(-72 * time.Hour)
	repo.sessions["u1"] = []domain.SessionRecord{
		session("u1", "algebra", base, 20, 4, 1),
		session("u1", "algebra", base.Add(24*time.Hour), 20, 3, 1),
		session("u1", "algebra", base.Add(48*time.Hour), 20, 3, 0),
	}
	svc, mock := newService(t, repo, llm.JSONResponse(validQuestion()))

	got, err := svc.AdaptiveQuestion(context.Background(), AdaptiveQuestionRequest{UserID: "u1", Subject: "matemática"})
	require.NoError(t, err)

	assert.Equal(t, []string{"algebra"}, got.WeakTopics)
	assert.InDelta(t, 20.0, got.Accuracy, 1e-9)
	assert.Equal(t, difficulty.Easy, got.Tier)
	assert.Equal(t, 1, got.Question.Correct)
	assert.Len(t, got.Question.Options, 4)

	call := mock.LastCall()
	assert.Same(t, QuestionSchema, call.Schema)
	prompt := call.Messages[0].Content
	assert.Contains(t, prompt, "temas débiles: algebra")
	assert.Contains(t, prompt, "Dificultad requerida: fácil")
	assert.Contains(t, prompt, "20% de aciertos")
	assert.Contains(t, prompt, "Nivel del estudiante: intermedio")
}

func TestAdaptiveQuestion_GeneralFallbackAndWindow(t *testing.T) {
	repo := newFakeRepo(testUser("u1"))
	// Twelve sessions; only the ten most recent count. The two oldest are
	// all wrong and would drag accuracy down if included.
	for i := range 12 {
		start := testNow.Add(-time.Duration(12-i) * time.Hour)
		correct := 5
		if i < 2 {
			correct = 0
		}
		repo.sessions["u1"] = append(repo.sessions["u1"], session("u1", "", start, 10, 5, correct))
	}
	svc, mock := newService(t, repo, llm.JSONResponse(validQuestion()))

	got, err := svc.AdaptiveQuestion(context.Background(), AdaptiveQuestionRequest{UserID: "u1", Subject: "matemática"})
	require.NoError(t, err)

	assert.Empty(t, got.WeakTopics)
	assert.InDelta(t, 100.0, got.Accuracy, 1e-9)
	assert.Equal(t, difficulty.Hard, got.Tier)
	assert.Contains(t, mock.LastCall().Messages[0].Content, "temas débiles: general")
}

func TestAdaptiveQuestion_NoHistoryIsEasy(t *testing.T) {
	svc, _ := newService(t, newFakeRepo(testUser("u1")), llm.JSONResponse(validQuestion()))
	got, err := svc.AdaptiveQuestion(context.Background(), AdaptiveQuestionRequest{UserID: "u1", Subject: "verbal"})
	require.NoError(t, err)
	assert.Equal(t, difficulty.Easy, got.Tier)
	assert.Zero(t, got.Accuracy)
}

func TestAdaptiveQuestion_MalformedOutput(t *testing.T) {
	threeOptions := validQuestion()
	threeOptions["options"] = []string{"1", "2", "3"}

	blank := validQuestion()
	blank["question"] = "   "

	tests := []struct {
		name string
		resp llm.MockResponse
	}{
		{"not json", llm.TextResponse("la respuesta es 2")},
		{"missing field", llm.MockResponse{Content: json.RawMessage(`{"question":"q"}`)}},
		{"three options", llm.JSONResponse(threeOptions)},
		{"blank question", llm.JSONResponse(blank)},
		{"provider says invalid", llm.ErrorResponse(&llm.ErrInvalidResponse{Err: errors.New("bad")})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t, newFakeRepo(testUser("u1")), tt.resp)
			_, err := svc.AdaptiveQuestion(context.Background(), AdaptiveQuestionRequest{UserID: "u1", Subject: "x"})
			requireKind(t, err, KindValidationFailure)
		})
	}
}

func TestOperations_UnknownUser(t *testing.T) {
	svc, mock := newService(t, newFakeRepo())
	ctx := context.Background()

	_, err := svc.Explain(ctx, ExplainRequest{UserID: "ghost", Question: "q"})
	requireKind(t, err, KindNotFound)
	_, err = svc.AdaptiveQuestion(ctx, AdaptiveQuestionRequest{UserID: "ghost", Subject: "x"})
	requireKind(t, err, KindNotFound)
	_, err = svc.Chat(ctx, ChatRequest{UserID: "ghost", Message: "hola"})
	requireKind(t, err, KindNotFound)
	_, err = svc.AnalyzePatterns(ctx, "ghost")
	requireKind(t, err, KindNotFound)
	_, err = svc.StudyPlan(ctx, StudyPlanRequest{UserID: "ghost", TargetDate: "2027-01-01"})
	requireKind(t, err, KindNotFound)
	_, err = svc.Feedback(ctx, "ghost")
	requireKind(t, err, KindNotFound)

	assert.Zero(t, mock.CallCount())
}

func TestOperations_InvalidInput(t *testing.T) {
	svc, mock := newService(t, newFakeRepo(testUser("u1")))
	ctx := context.Background()

	_, err := svc.Explain(ctx, ExplainRequest{Question: "q"})
	requireKind(t, err, KindInvalidInput)
	_, err = svc.AdaptiveQuestion(ctx, AdaptiveQuestionRequest{UserID: "u1"})
	requireKind(t, err, KindInvalidInput)
	_, err = svc.Chat(ctx, ChatRequest{UserID: "u1", Message: "  "})
	requireKind(t, err, KindInvalidInput)
	_, err = svc.AnalyzePatterns(ctx, "")
	requireKind(t, err, KindInvalidInput)
	_, err = svc.Feedback(ctx, "")
	requireKind(t, err, KindInvalidInput)

	assert.Zero(t, mock.CallCount())
}

func TestOperations_DatabaseFailureIsUnavailable(t *testing.T) {
	repo := newFakeRepo(testUser("u1"))
	repo.err = errors.New("database is locked")
	svc, _ := newService(t, repo)

	_, err := svc.Feedback(context.Background(), "u1")
	requireKind(t, err, KindCollaboratorUnavailable)
}

func TestExplain(t *testing.T) {
	svc, mock := newService(t, newFakeRepo(testUser("u1")), llm.TextResponse("  Porque 2 + 2 = 4 😊\n"))

	got, err := svc.Explain(context.Background(), ExplainRequest{
		UserID:        "u1",
		Question:      "¿Cuánto es 2 + 2?",
		UserAnswer:    "5",
		CorrectAnswer: "4",
		Subject:       "matemática",
	})
	require.NoError(t, err)
	assert.Equal(t, "Porque 2 + 2 = 4 😊", got.Text)

	call := mock.LastCall()
	assert.Nil(t, call.Schema)
	prompt := call.Messages[0].Content
	assert.Contains(t, prompt, "tutor experto en matemática")
	assert.Contains(t, prompt, "de nivel intermedio")
	assert.Contains(t, prompt, "Respuesta del estudiante: 5")
	assert.Contains(t, prompt, "Respuesta correcta: 4")
	assert.Equal(t, 2048, call.MaxTokens)
}

func TestExplain_EmptyReplyIsValidationFailure(t *testing.T) {
	svc, _ := newService(t, newFakeRepo(testUser("u1")), llm.TextResponse("   "))
	_, err := svc.Explain(context.Background(), ExplainRequest{UserID: "u1", Question: "q"})
	requireKind(t, err, KindValidationFailure)
}

func TestExplain_RateLimitIsUnavailable(t *testing.T) {
	svc, _ := newService(t, newFakeRepo(testUser("u1")), llm.ErrorResponse(&llm.ErrRateLimit{}))
	_, err := svc.Explain(context.Background(), ExplainRequest{UserID: "u1", Question: "q"})
	requireKind(t, err, KindCollaboratorUnavailable)
}

func TestNoProvider(t *testing.T) {
	svc := New(newFakeRepo(testUser("u1")), nil, nil, testConfig(), nil)
	assert.False(t, svc.Available())

	_, err := svc.Explain(context.Background(), ExplainRequest{UserID: "u1", Question: "q"})
	requireKind(t, err, KindCollaboratorUnavailable)
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestChat_PrimesAndCommitsTurns(t *testing.T) {
	repo := newFakeRepo(testUser("u1"))
	repo.sessions["u1"] = []domain.SessionRecord{session("u1", "", testNow.Add(-time.Hour), 10, 4, 3)}
	svc, mock := newService(t, repo, llm.TextResponse("¡Hola Ana! 👋"), llm.TextResponse("Claro, veamos."))
	ctx := context.Background()

	reply, err := svc.Chat(ctx, ChatRequest{UserID: "u1", Message: "Hola"})
	require.NoError(t, err)
	assert.Equal(t, "¡Hola Ana! 👋", reply.Message)
	assert.Equal(t, 4, reply.Turns)

	first := mock.LastCall().Messages
	require.Len(t, first, 3)
	assert.Equal(t, llm.RoleUser, first[0].Role)
	assert.Contains(t, first[0].Content, "Nombre: Ana")
	assert.Contains(t, first[0].Content, "Materias débiles: matematica, razonamientoMatematico")
	assert.Contains(t, first[0].Content, "Precisión general: 75.0%")
	assert.Equal(t, llm.RoleAssistant, first[1].Role)
	assert.Equal(t, chatAck, first[1].Content)
	assert.Equal(t, "Hola", first[2].Content)

	reply, err = svc.Chat(ctx, ChatRequest{UserID: "u1", Message: "¿Me ayudas con fracciones?"})
	require.NoError(t, err)
	assert.Equal(t, 6, reply.Turns)

	second := mock.LastCall().Messages
	require.Len(t, second, 5)
	assert.Equal(t, first[0].Content, second[0].Content, "the priming context is kept")
	assert.Equal(t, "¡Hola Ana! 👋", second[3].Content)

	turns, ok := svc.Conversations().Read("u1")
	require.True(t, ok)
	require.Len(t, turns, 6)
	assert.Equal(t, conversation.AssistantTurn("Claro, veamos."), turns[5])
}

func TestChat_NoWeakSubjects(t *testing.T) {
	u := testUser("u1")
	u.Scores = domain.Scores{domain.SubjectMath: 90}
	svc, mock := newService(t, newFakeRepo(u), llm.TextResponse("ok"))

	_, err := svc.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "hola"})
	require.NoError(t, err)
	assert.Contains(t, mock.LastCall().Messages[0].Content, "Materias débiles: no identificadas")
}

func TestChat_FailureCommitsNothing(t *testing.T) {
	svc, _ := newService(t, newFakeRepo(testUser("u1")),
		llm.TextResponse("primera"),
		llm.ErrorResponse(&llm.ErrProviderUnavailable{Err: errors.New("down")}),
	)
	ctx := context.Background()

	_, err := svc.Chat(ctx, ChatRequest{UserID: "u1", Message: "uno"})
	require.NoError(t, err)

	_, err = svc.Chat(ctx, ChatRequest{UserID: "u1", Message: "dos"})
	requireKind(t, err, KindCollaboratorUnavailable)

	turns, _ := svc.Conversations().Read("u1")
	assert.Len(t, turns, 4)
}

func TestChat_FirstTurnFailureLeavesNoTranscript(t *testing.T) {
	svc, _ := newService(t, newFakeRepo(testUser("u1")), llm.ErrorResponse(&llm.ErrRateLimit{}))

	_, err := svc.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "uno"})
	requireKind(t, err, KindCollaboratorUnavailable)

	_, ok := svc.Conversations().Read("u1")
	assert.False(t, ok)
}

func TestChat_TimeoutCommitsNothing(t *testing.T) {
	cfg := testConfig()
	cfg.CollaboratorTimeout = 20 * time.Millisecond
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage("tarde"), Delay: time.Second})
	svc := New(newFakeRepo(testUser("u1")), mock, nil, cfg, nil)

	start := time.Now()
	_, err := svc.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "hola"})
	requireKind(t, err, KindCollaboratorUnavailable)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	_, ok := svc.Conversations().Read("u1")
	assert.False(t, ok)
}

func TestChat_ConcurrentTurnsAreSerialized(t *testing.T) {
	const n = 8
	responses := make([]llm.MockResponse, n)
	for i := range responses {
		responses[i] = llm.TextResponse(fmt.Sprintf("respuesta %d", i))
	}
	svc, mock := newService(t, newFakeRepo(testUser("u1")), responses...)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Chat(context.Background(), ChatRequest{UserID: "u1", Message: fmt.Sprintf("mensaje %d", i)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	turns, ok := svc.Conversations().Read("u1")
	require.True(t, ok)
	require.Len(t, turns, 2+2*n)

	// Every exchange is adjacent and each call saw all earlier exchanges.
	for i := 2; i < len(turns); i += 2 {
		assert.Equal(t, conversation.RoleUser, turns[i].Role)
		assert.Equal(t, conversation.RoleAssistant, turns[i+1].Role)
	}
	calls := mock.Calls()
	for i, c := range calls {
		assert.Len(t, c.Messages, 3+2*i)
	}
}

func TestAnalyzePatterns_NoSessions(t *testing.T) {
	svc, mock := newService(t, newFakeRepo(testUser("u1")))

	got, err := svc.AnalyzePatterns(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, NotEnoughData, got.Text)
	assert.Zero(t, got.SessionsCount)
	assert.Zero(t, mock.CallCount())
}

func TestAnalyzePatterns(t *testing.T) {
	repo := newFakeRepo(testUser("u1"))
	morning := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	broken := session("u1", "", morning.Add(-24*time.Hour), 0, 2, 1)
	broken.EndTime = "not a time"
	repo.sessions["u1"] = []domain.SessionRecord{
		session("u1", "", morning, 45, 5, 4),
		session("u1", "", morning.Add(-48*time.Hour), 30, 5, 2),
		session("u1", "", time.Date(2026, 3, 8, 16, 0, 0, 0, time.UTC), 20, 5, 5),
		broken,
	}
	svc, mock := newService(t, repo, llm.TextResponse("Vas muy bien 🎯"))

	got, err := svc.AnalyzePatterns(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Vas muy bien 🎯", got.Text)
	assert.Equal(t, 4, got.SessionsCount)
	assert.Equal(t, 95, got.TotalMinutes)
	assert.Equal(t, 3, got.Streak)
	assert.Equal(t, []string{performance.Morning, performance.Afternoon}, got.PreferredTimes)

	prompt := mock.LastCall().Messages[0].Content
	assert.Contains(t, prompt, "Sesiones completadas: 4")
	assert.Contains(t, prompt, "Tiempo total de estudio: 95 minutos")
	assert.Contains(t, prompt, "Racha actual: 3 días")
	assert.Contains(t, prompt, "Horarios preferidos: mañana, tarde")
	assert.Contains(t, prompt, "- matematica: 40%")
	assert.Contains(t, prompt, "- razonamientoMatematico: 59.5%")
}

func TestStudyPlan_SavesVerbatim(t *testing.T) {
	repo := newFakeRepo(testUser("u1"))
	svc, mock := newService(t, repo, llm.MockResponse{Content: json.RawMessage(validPlan)})

	got, err := svc.StudyPlan(context.Background(), StudyPlanRequest{
		UserID:      "u1",
		TargetDate:  "2026-05-09T15:00:00Z",
		TargetScore: 80,
	})
	require.NoError(t, err)

	assert.Equal(t, 60, got.Days)
	assert.Equal(t, "Plan intensivo de cuatro semanas", got.Plan.Summary)
	require.Len(t, got.Plan.DailySchedule, 1)
	assert.Equal(t, 90, got.Plan.DailySchedule[0].EstimatedTime)
	assert.Equal(t, 65.0, got.Plan.Milestones[0].ExpectedScore)
	assert.Equal(t, validPlan, string(repo.plans["u1"]))
	assert.Equal(t, validPlan, string(got.Raw))

	call := mock.LastCall()
	assert.Same(t, StudyPlanSchema, call.Schema)
	prompt := call.Messages[0].Content
	assert.Contains(t, prompt, "Días disponibles: 60")
	assert.Contains(t, prompt, "Puntaje actual: 50.0%")
	assert.Contains(t, prompt, "Puntaje objetivo: 80%")
}

func TestStudyPlan_UnusableDateFallsBack(t *testing.T) {
	for _, target := range []string{"", "pronto", "2020-01-01"} {
		t.Run(target, func(t *testing.T) {
			svc, mock := newService(t, newFakeRepo(testUser("u1")), llm.MockResponse{Content: json.RawMessage(validPlan)})
			got, err := svc.StudyPlan(context.Background(), StudyPlanRequest{UserID: "u1", TargetDate: target, TargetScore: 70})
			require.NoError(t, err)
			assert.Equal(t, 30, got.Days)
			assert.Contains(t, mock.LastCall().Messages[0].Content, "Días disponibles: 30")
		})
	}
}

func TestStudyPlan_InvalidPlanNotSaved(t *testing.T) {
	repo := newFakeRepo(testUser("u1"))
	svc, _ := newService(t, repo, llm.MockResponse{Content: json.RawMessage(`{"summary":"solo esto"}`)})

	_, err := svc.StudyPlan(context.Background(), StudyPlanRequest{UserID: "u1", TargetDate: "2026-06-01"})
	requireKind(t, err, KindValidationFailure)
	assert.Empty(t, repo.plans)
}

func TestFeedback_Today(t *testing.T) {
	u := testUser("u1")
	u.Goals.TargetUniversity = "UNI"
	repo := newFakeRepo(u)
	repo.sessions["u1"] = []domain.SessionRecord{
		session("u1", "", time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), 25, 5, 5),
		session("u1", "", time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC), 15, 5, 4),
		session("u1", "", time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC), 60, 10, 0),
	}
	svc, mock := newService(t, repo, llm.TextResponse("¡Excelente día! 🚀"))

	got, err := svc.Feedback(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "¡Excelente día! 🚀", got.Text)
	assert.Equal(t, 10, got.QuestionsAnswered)
	assert.Equal(t, 9, got.CorrectAnswers)
	assert.Equal(t, 40, got.TimeSpent)
	assert.Equal(t, TrendUp, got.Trend)
	assert.Equal(t, Mood, got.Mood)
	assert.Equal(t, "UNI", got.Goal)

	prompt := mock.LastCall().Messages[0].Content
	assert.Contains(t, prompt, "Preguntas respondidas: 10")
	assert.Contains(t, prompt, "Tiempo estudiado: 40 minutos")
	assert.Contains(t, prompt, "Tendencia: en ascenso")
	assert.Contains(t, prompt, "Estado de ánimo: motivado")
	assert.Contains(t, prompt, "Objetivo: UNI")
}

func TestFeedback_NothingToday(t *testing.T) {
	svc, mock := newService(t, newFakeRepo(testUser("u1")), llm.TextResponse("¡Vamos!"))

	got, err := svc.Feedback(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, got.QuestionsAnswered)
	assert.Equal(t, TrendSteady, got.Trend)
	assert.Equal(t, DefaultGoal, got.Goal)
	assert.True(t, strings.Contains(mock.LastCall().Messages[0].Content, "Objetivo: ingresar a la universidad"))
}

func TestTrend(t *testing.T) {
	snap := func(total, correct int) performance.Snapshot {
		return performance.Snapshot{TotalQuestions: total, CorrectAnswers: correct}
	}
	tests := []struct {
		name    string
		today   performance.Snapshot
		average float64
		want    Trend
	}{
		{"no answers", snap(0, 0), 90, TrendSteady},
		{"well above", snap(10, 9), 60, TrendUp},
		{"well below", snap(10, 3), 60, TrendDown},
		{"within margin", snap(10, 6), 58, TrendSteady},
		{"exactly margin", snap(10, 7), 65, TrendSteady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trend(tt.today, tt.average, 5))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", fmt.Errorf("get user: %w", store.ErrNotFound), KindNotFound},
		{"invalid output", &llm.ErrInvalidResponse{Err: errors.New("x")}, KindValidationFailure},
		{"rate limit", &llm.ErrRateLimit{}, KindCollaboratorUnavailable},
		{"truncated", &llm.ErrMaxTokensExceeded{}, KindCollaboratorUnavailable},
		{"deadline", context.DeadlineExceeded, KindCollaboratorUnavailable},
		{"canceled", context.Canceled, KindCollaboratorUnavailable},
		{"database", errors.New("disk I/O error"), KindCollaboratorUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("op", tt.err)
			assert.Equal(t, tt.want, KindOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	already := invalidInput("op", "bad")
	assert.Same(t, already, classify("other", already))
	assert.Nil(t, classify("op", nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, "collaborator_unavailable", KindCollaboratorUnavailable.String())
}
