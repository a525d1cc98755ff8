package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/prepia/tutor/internal/domain"
)

var userColumns = []string{
	"id", "name", "email", "level", "password_hash",
	"scores", "statistics", "goals", "study_plan", "created_at",
}

// CreateUser stores u, filling in the id, level, scores and creation time
// when they are empty.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Level == "" {
		u.Level = domain.DefaultLevel
	}
	if u.Scores == nil {
		u.Scores = domain.DefaultScores()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}
	u.Email = normalizeEmail(u.Email)

	if _, err := s.GetUserByEmail(ctx, u.Email); err == nil {
		return ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	vals, err := encodeUser(u)
	if err != nil {
		return err
	}
	query, args := builder().Insert(UsersTable.Name).Columns(userColumns...).Values(vals...).Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser returns the learner with id, or ErrNotFound.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getUserWhere(ctx, s.db, entsql.EQ("id", id))
}

// GetUserByEmail returns the learner registered with email, or ErrNotFound.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUserWhere(ctx, s.db, entsql.EQ("email", normalizeEmail(email)))
}

// SaveStudyPlan replaces the learner's stored plan with plan, verbatim.
func (s *Store) SaveStudyPlan(ctx context.Context, userID string, plan []byte) error {
	query, args := builder().Update(UsersTable.Name).
		Set("study_plan", string(plan)).
		Where(entsql.EQ("id", userID)).
		Query()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save study plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) getUserWhere(ctx context.Context, q queryer, pred *entsql.Predicate) (*domain.User, error) {
	b := builder()
	query, args := b.Select(userColumns...).
		From(b.Table(UsersTable.Name)).
		Where(pred).
		Query()

	var (
		u                    domain.User
		scores, stats, goals string
		plan                 sql.NullString
		createdAt            int64
	)
	err := q.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Name, &u.Email, &u.Level, &u.PasswordHash,
		&scores, &stats, &goals, &plan, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	if err := json.Unmarshal([]byte(scores), &u.Scores); err != nil {
		return nil, fmt.Errorf("decode scores of %s: %w", u.ID, err)
	}
	if err := json.Unmarshal([]byte(stats), &u.Statistics); err != nil {
		return nil, fmt.Errorf("decode statistics of %s: %w", u.ID, err)
	}
	if err := json.Unmarshal([]byte(goals), &u.Goals); err != nil {
		return nil, fmt.Errorf("decode goals of %s: %w", u.ID, err)
	}
	if plan.Valid && plan.String != "" {
		u.StudyPlan = json.RawMessage(plan.String)
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &u, nil
}

func encodeUser(u *domain.User) ([]any, error) {
	scores, err := json.Marshal(u.Scores)
	if err != nil {
		return nil, fmt.Errorf("encode scores: %w", err)
	}
	stats, err := json.Marshal(u.Statistics)
	if err != nil {
		return nil, fmt.Errorf("encode statistics: %w", err)
	}
	goals, err := json.Marshal(u.Goals)
	if err != nil {
		return nil, fmt.Errorf("encode goals: %w", err)
	}
	var plan any
	if len(u.StudyPlan) > 0 {
		plan = string(u.StudyPlan)
	}
	return []any{
		u.ID, u.Name, u.Email, u.Level, u.PasswordHash,
		string(scores), string(stats), string(goals), plan, u.CreatedAt.UnixMilli(),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
