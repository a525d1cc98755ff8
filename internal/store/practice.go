package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/prepia/tutor/internal/domain"
)

var sessionColumns = []string{
	"id", "user_id", "subject", "questions", "start_time", "end_time",
	"started_at", "score", "created_at",
}

// InsertSession stores rec and, in the same transaction, updates the
// owner's statistics and sets the subject score to rec.Score. The owner
// must exist.
func (s *Store) InsertSession(ctx context.Context, rec *domain.SessionRecord) (err error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Questions == nil {
		rec.Questions = []domain.QuestionResult{}
	}
	if t, perr := domain.ParseTime(rec.StartTime, time.Local); perr == nil {
		rec.StartedAt = t
	}

	questions, err := json.Marshal(rec.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	u, err := s.getUserWhere(ctx, tx, entsql.EQ("id", rec.UserID))
	if err != nil {
		return err
	}

	query, args := builder().Insert(PracticeSessionsTable.Name).
		Columns(sessionColumns...).
		Values(rec.ID, rec.UserID, rec.Subject, string(questions), rec.StartTime, rec.EndTime,
			unixMilli(rec.StartedAt), rec.Score, s.now().UnixMilli()).
		Query()
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	minutes := 0
	if d, ok := rec.Interval(time.Local); ok && d > 0 {
		minutes = int(d / time.Minute)
	}
	day := rec.StartedAt
	if day.IsZero() {
		day = s.now()
	}
	u.Statistics.Record(*rec, minutes, day.In(time.Local))
	if u.Scores == nil {
		u.Scores = domain.DefaultScores()
	}
	if rec.Subject != "" {
		u.Scores[rec.Subject] = rec.Score
	}

	stats, err := json.Marshal(u.Statistics)
	if err != nil {
		return fmt.Errorf("encode statistics: %w", err)
	}
	scores, err := json.Marshal(u.Scores)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	query, args = builder().Update(UsersTable.Name).
		Set("statistics", string(stats)).
		Set("scores", string(scores)).
		Where(entsql.EQ("id", u.ID)).
		Query()
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update statistics: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RecentSessions returns up to limit sessions, most recent start first.
func (s *Store) RecentSessions(ctx context.Context, userID string, limit int) ([]domain.SessionRecord, error) {
	return s.querySessions(ctx, limit, entsql.EQ("user_id", userID))
}

// SessionsSince returns up to limit sessions that started at or after since.
// Sessions whose start did not parse are never included.
func (s *Store) SessionsSince(ctx context.Context, userID string, since time.Time, limit int) ([]domain.SessionRecord, error) {
	return s.querySessions(ctx, limit, entsql.And(
		entsql.EQ("user_id", userID),
		entsql.GTE("started_at", since.UnixMilli()),
	))
}

// AllSessions returns every session of the learner, most recent first.
func (s *Store) AllSessions(ctx context.Context, userID string) ([]domain.SessionRecord, error) {
	return s.querySessions(ctx, 0, entsql.EQ("user_id", userID))
}

// CountSessions returns how many sessions the learner has recorded.
func (s *Store) CountSessions(ctx context.Context, userID string) (int, error) {
	b := builder()
	query, args := b.Select(entsql.Count("*")).
		From(b.Table(PracticeSessionsTable.Name)).
		Where(entsql.EQ("user_id", userID)).
		Query()
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

func (s *Store) querySessions(ctx context.Context, limit int, pred *entsql.Predicate) ([]domain.SessionRecord, error) {
	b := builder()
	sel := b.Select(sessionColumns...).
		From(b.Table(PracticeSessionsTable.Name)).
		Where(pred).
		OrderBy(entsql.Desc("started_at"), entsql.Desc("created_at"))
	if limit > 0 {
		sel.Limit(limit)
	}

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := []domain.SessionRecord{}
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanSession(rows *sql.Rows) (domain.SessionRecord, error) {
	var (
		rec       domain.SessionRecord
		questions string
		startedAt int64
		createdAt int64
	)
	err := rows.Scan(&rec.ID, &rec.UserID, &rec.Subject, &questions, &rec.StartTime, &rec.EndTime,
		&startedAt, &rec.Score, &createdAt)
	if err != nil {
		return rec, fmt.Errorf("scan session: %w", err)
	}
	if err := json.Unmarshal([]byte(questions), &rec.Questions); err != nil {
		return rec, fmt.Errorf("decode questions of %s: %w", rec.ID, err)
	}
	if startedAt != 0 {
		rec.StartedAt = time.UnixMilli(startedAt)
	}
	return rec, nil
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
