package store

import (
	"context"
	"errors"
	"time"

	"github.com/prepia/tutor/internal/domain"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when registering an email already in use.
	ErrDuplicateEmail = errors.New("email already registered")
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match when set
}

// LLMRequestEventData captures the data for a single collaborator request.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored collaborator request.
type LLMRequestEvent struct {
	LLMRequestEventData
	ID        int
	Sequence  int64
	Timestamp time.Time
}

// LLMUsage summarises requests sharing a grouping key (purpose or model).
type LLMUsage struct {
	Key          string
	Requests     int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs float64
}

// EventRepo records and queries collaborator requests.
type EventRepo interface {
	// AppendLLMRequest records a collaborator call.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns one event by id or ErrNotFound.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)

	// LLMUsageByPurpose and LLMUsageByModel aggregate the whole log.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}

// UserRepo stores learners.
type UserRepo interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	SaveStudyPlan(ctx context.Context, userID string, plan []byte) error
}

// SessionRepo stores practice sessions.
type SessionRepo interface {
	// InsertSession stores rec and folds it into the owner's statistics.
	InsertSession(ctx context.Context, rec *domain.SessionRecord) error

	// RecentSessions returns up to limit sessions, most recent start first.
	RecentSessions(ctx context.Context, userID string, limit int) ([]domain.SessionRecord, error)

	// SessionsSince returns up to limit sessions started at or after since.
	SessionsSince(ctx context.Context, userID string, since time.Time, limit int) ([]domain.SessionRecord, error)

	// CountSessions returns how many sessions the learner has recorded.
	CountSessions(ctx context.Context, userID string) (int, error)

	// AllSessions returns every session of the learner, most recent first.
	AllSessions(ctx context.Context, userID string) ([]domain.SessionRecord, error)
}

var (
	_ EventRepo   = (*eventRepo)(nil)
	_ UserRepo    = (*Store)(nil)
	_ SessionRepo = (*Store)(nil)
)
