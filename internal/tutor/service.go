// Package tutor composes performance signals, the conversation store and
// the generative collaborator into the six tutoring operations.
package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/prepia/tutor/internal/conversation"
	"github.com/prepia/tutor/internal/difficulty"
	"github.com/prepia/tutor/internal/domain"
	"github.com/prepia/tutor/internal/horizon"
	"github.com/prepia/tutor/internal/llm"
	"github.com/prepia/tutor/internal/logger"
	"github.com/prepia/tutor/internal/performance"
)

// Repository is the persistence the tutor reads learners and sessions from.
// Missing learners are reported as store.ErrNotFound.
type Repository interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	SaveStudyPlan(ctx context.Context, userID string, plan []byte) error

	InsertSession(ctx context.Context, rec *domain.SessionRecord) error
	RecentSessions(ctx context.Context, userID string, limit int) ([]domain.SessionRecord, error)
	SessionsSince(ctx context.Context, userID string, since time.Time, limit int) ([]domain.SessionRecord, error)
}

// generalTopic stands in for an empty weak-topic set.
const generalTopic = "general"

// Service implements the tutoring operations. It is safe for concurrent use.
type Service struct {
	repo     Repository
	provider llm.Provider
	conv     *conversation.Store
	cfg      Config
	log      *logger.Logger
}

// New creates a Service. provider may be nil, in which case every
// operation that needs it fails with KindCollaboratorUnavailable. conv may
// be nil for a fresh store.
func New(repo Repository, provider llm.Provider, conv *conversation.Store, cfg Config, log *logger.Logger) *Service {
	if conv == nil {
		conv = conversation.New()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		provider: provider,
		conv:     conv,
		cfg:      cfg.withDefaults(),
		log:      log,
	}
}

// Conversations exposes the transcript store for display and clearing.
func (s *Service) Conversations() *conversation.Store {
	return s.conv
}

// Available reports whether a generative collaborator is configured.
func (s *Service) Available() bool {
	return s.provider != nil
}

// Explain returns the collaborator's explanation of an answer.
func (s *Service) Explain(ctx context.Context, req ExplainRequest) (*Explanation, error) {
	const op = "explain"
	if strings.TrimSpace(req.UserID) == "" {
		return nil, invalidInput(op, "userId is required")
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, invalidInput(op, "question is required")
	}

	user, err := s.repo.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, classify(op, err)
	}

	resp, err := s.generate(ctx, op, llm.Request{
		Messages: userMessage(buildExplainPrompt(req, user.LevelOrDefault(), s.cfg.ExamContext)),
	})
	if err != nil {
		return nil, classify(op, err)
	}
	return &Explanation{Text: resp.Text()}, nil
}

// AdaptiveQuestion generates a question whose difficulty follows accuracy
// over the recent window and whose focus is the learner's weak topics.
func (s *Service) AdaptiveQuestion(ctx context.Context, req AdaptiveQuestionRequest) (*AdaptiveQuestion, error) {
	const op = "adaptive-question"
	if strings.TrimSpace(req.UserID) == "" {
		return nil, invalidInput(op, "userId is required")
	}
	if strings.TrimSpace(req.Subject) == "" {
		return nil, invalidInput(op, "subject is required")
	}

	user, recent, err := s.loadLearner(ctx, req.UserID, s.cfg.RecentWindow)
	if err != nil {
		return nil, classify(op, err)
	}

	snap := performance.Aggregate(recent)
	accuracy := snap.Accuracy()
	tier := difficulty.Select(accuracy)
	weak := performance.WeakTopics(snap.TopicStats, s.cfg.Thresholds)

	// The classifier may find nothing weak; the prompt still needs a focus.
	focus := weak
	if len(focus) == 0 {
		focus = []string{generalTopic}
	}

	s.log.Debug("adaptive question",
		"user_id", req.UserID, "accuracy", accuracy, "tier", tier.String(), "weak_topics", weak)

	resp, err := s.generate(ctx, op, llm.Request{
		Messages: userMessage(buildQuestionPrompt(questionInput{
			Subject:  req.Subject,
			Level:    user.LevelOrDefault(),
			Exam:     s.cfg.ExamContext,
			Accuracy: accuracy,
			Tier:     tier,
			Focus:    focus,
		})),
		Schema: QuestionSchema,
	})
	if err != nil {
		return nil, classify(op, err)
	}

	var q Question
	if err := json.Unmarshal(resp.Content, &q); err != nil {
		return nil, invalidOutput(op, resp.Content, fmt.Errorf("decode question: %w", err))
	}
	if err := checkQuestion(q); err != nil {
		return nil, invalidOutput(op, resp.Content, err)
	}

	return &AdaptiveQuestion{
		Question:   q,
		Tier:       tier,
		Accuracy:   accuracy,
		WeakTopics: weak,
	}, nil
}

// checkQuestion rejects questions the schema lets through but a learner
// could not answer.
func checkQuestion(q Question) error {
	if strings.TrimSpace(q.Question) == "" {
		return errors.New("question text is empty")
	}
	if len(q.Options) != 4 {
		return fmt.Errorf("want 4 options, got %d", len(q.Options))
	}
	if q.Correct < 0 || q.Correct >= len(q.Options) {
		return fmt.Errorf("correct index %d out of range", q.Correct)
	}
	return nil
}

// Chat sends one learner message with the learner's transcript and commits
// the message and the reply together. A failed call leaves the transcript
// untouched. Turns for the same learner are serialized.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	const op = "chat"
	if strings.TrimSpace(req.UserID) == "" {
		return nil, invalidInput(op, "userId is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, invalidInput(op, "message is required")
	}

	user, recent, err := s.loadLearner(ctx, req.UserID, s.cfg.RecentWindow)
	if err != nil {
		return nil, classify(op, err)
	}
	snap := performance.Aggregate(recent)

	sess, err := s.conv.Acquire(ctx, req.UserID)
	if err != nil {
		return nil, classify(op, err)
	}
	defer sess.Release()

	history := sess.Turns()
	var primer string
	if len(history) == 0 {
		primer = buildChatPrimer(chatContext{
			Name:         user.Name,
			Level:        user.LevelOrDefault(),
			WeakSubjects: weakSubjects(user.Scores, s.cfg.WeakSubjectScore),
			Accuracy:     snap.Accuracy(),
		})
		history = []conversation.Turn{conversation.UserTurn(primer), conversation.AssistantTurn(chatAck)}
	}

	msgs := make([]llm.Message, 0, len(history)+1)
	for _, t := range history {
		msgs = append(msgs, llm.Message{Role: llmRole(t.Role), Content: t.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: req.Message})

	resp, err := s.generate(ctx, op, llm.Request{Messages: msgs})
	if err != nil {
		return nil, classify(op, err)
	}
	reply := resp.Text()

	if primer != "" {
		sess.Prime(primer, chatAck)
	}
	sess.Append(conversation.UserTurn(req.Message), conversation.AssistantTurn(reply))

	return &ChatReply{Message: reply, Turns: sess.Len()}, nil
}

func llmRole(r conversation.Role) llm.Role {
	if r == conversation.RoleAssistant {
		return llm.RoleAssistant
	}
	return llm.RoleUser
}

// AnalyzePatterns reports on the learner's study habits. Learners with no
// sessions get NotEnoughData without a collaborator call.
func (s *Service) AnalyzePatterns(ctx context.Context, userID string) (*Analysis, error) {
	const op = "analyze"
	if strings.TrimSpace(userID) == "" {
		return nil, invalidInput(op, "userId is required")
	}

	user, sessions, err := s.loadLearner(ctx, userID, s.cfg.AnalysisWindow)
	if err != nil {
		return nil, classify(op, err)
	}
	if len(sessions) == 0 {
		return &Analysis{Text: NotEnoughData, SubjectScores: user.Scores}, nil
	}

	a := &Analysis{
		SessionsCount:  len(sessions),
		TotalMinutes:   performance.StudyMinutes(sessions, s.cfg.Location),
		Streak:         user.Statistics.CurrentStreak,
		PreferredTimes: performance.PreferredTimes(sessions, s.cfg.Location),
		SubjectScores:  user.Scores,
	}

	resp, err := s.generate(ctx, op, llm.Request{Messages: userMessage(buildAnalysisPrompt(a))})
	if err != nil {
		return nil, classify(op, err)
	}
	a.Text = resp.Text()
	return a, nil
}

// StudyPlan generates a plan for the days left until the target date and
// stores it on the learner exactly as received.
func (s *Service) StudyPlan(ctx context.Context, req StudyPlanRequest) (*StudyPlan, error) {
	const op = "study-plan"
	if strings.TrimSpace(req.UserID) == "" {
		return nil, invalidInput(op, "userId is required")
	}

	user, err := s.repo.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, classify(op, err)
	}

	days := horizon.Days(req.TargetDate, s.cfg.Now().In(s.cfg.Location))

	resp, err := s.generate(ctx, op, llm.Request{
		Messages: userMessage(buildPlanPrompt(planInput{
			Level:        user.LevelOrDefault(),
			Exam:         s.cfg.ExamContext,
			CurrentScore: user.Statistics.AverageScore,
			TargetScore:  req.TargetScore,
			Days:         days,
			Scores:       user.Scores,
		})),
		Schema: StudyPlanSchema,
	})
	if err != nil {
		return nil, classify(op, err)
	}

	var plan Plan
	if err := json.Unmarshal(resp.Content, &plan); err != nil {
		return nil, invalidOutput(op, resp.Content, fmt.Errorf("decode plan: %w", err))
	}

	raw := append(json.RawMessage(nil), resp.Content...)
	if err := s.repo.SaveStudyPlan(ctx, req.UserID, raw); err != nil {
		return nil, classify(op, err)
	}
	s.log.Info("study plan saved", "user_id", req.UserID, "days", days)

	return &StudyPlan{Plan: plan, Raw: raw, Days: days}, nil
}

// Feedback writes a motivational message about today's sessions, where
// today starts at local midnight.
func (s *Service) Feedback(ctx context.Context, userID string) (*Feedback, error) {
	const op = "feedback"
	if strings.TrimSpace(userID) == "" {
		return nil, invalidInput(op, "userId is required")
	}

	now := s.cfg.Now().In(s.cfg.Location)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.cfg.Location)

	var (
		user  *domain.User
		today []domain.SessionRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.repo.GetUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		today, err = s.repo.SessionsSince(gctx, userID, midnight, s.cfg.TodayWindow)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, classify(op, err)
	}

	snap := performance.Aggregate(today)
	goal := user.Goals.TargetUniversity
	if goal == "" {
		goal = DefaultGoal
	}

	fb := &Feedback{
		QuestionsAnswered: snap.TotalQuestions,
		CorrectAnswers:    snap.CorrectAnswers,
		TimeSpent:         performance.StudyMinutes(today, s.cfg.Location),
		Streak:            user.Statistics.CurrentStreak,
		Trend:             trend(snap, user.Statistics.AverageScore, s.cfg.TrendMargin),
		Mood:              Mood,
		Goal:              goal,
	}

	resp, err := s.generate(ctx, op, llm.Request{Messages: userMessage(buildFeedbackPrompt(fb))})
	if err != nil {
		return nil, classify(op, err)
	}
	fb.Text = resp.Text()
	return fb, nil
}

// trend compares today's accuracy with the learner's running average.
// Without answers today there is nothing to compare.
func trend(today performance.Snapshot, average, margin float64) Trend {
	if today.TotalQuestions == 0 {
		return TrendSteady
	}
	switch diff := today.Accuracy() - average; {
	case diff > margin:
		return TrendUp
	case diff < -margin:
		return TrendDown
	default:
		return TrendSteady
	}
}

// loadLearner fetches the learner and their most recent sessions together.
func (s *Service) loadLearner(ctx context.Context, userID string, window int) (*domain.User, []domain.SessionRecord, error) {
	var (
		user     *domain.User
		sessions []domain.SessionRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.repo.GetUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		sessions, err = s.repo.RecentSessions(gctx, userID, window)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return user, sessions, nil
}

// generate calls the collaborator under the configured timeout and checks
// its output: structured output against the schema, text for emptiness.
func (s *Service) generate(ctx context.Context, purpose string, req llm.Request) (*llm.Response, error) {
	if s.provider == nil {
		return nil, ErrNoProvider
	}

	ctx = llm.WithPurpose(ctx, purpose)
	if s.cfg.CollaboratorTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CollaboratorTimeout)
		defer cancel()
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = s.cfg.MaxTokens
	}
	if req.Temperature == 0 {
		req.Temperature = s.cfg.Temperature
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		s.log.Warn("collaborator call failed", "purpose", purpose, "error", err)
		return nil, err
	}

	if req.Schema != nil {
		if err := llm.Validate(req.Schema, resp.Content); err != nil {
			return nil, err
		}
	} else if resp.Text() == "" {
		return nil, &llm.ErrInvalidResponse{Err: errors.New("empty reply")}
	}
	return resp, nil
}

func userMessage(content string) []llm.Message {
	return []llm.Message{{Role: llm.RoleUser, Content: content}}
}
