package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"interviewprep/internal/gateway/ent/migrate"
	"interviewprep/internal/interview"
)

var (
	sessionColumns  = []string{"id", "role", "experience", "topics", "description", "created_at", "updated_at"}
	questionColumns = []string{"id", "session_id", "question", "answer", "is_pinned", "created_at"}
)

// PostgresStore keeps sessions in two tables managed by ent's migrator.
// Queries are built with ent's SQL builder and run on database/sql.
type PostgresStore struct {
	db   *sql.DB
	now  func() time.Time
	once sync.Once
	err  error
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.Postgres)
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.once.Do(func() {
		s.err = migrate.Create(ctx, entsql.OpenDB(dialect.Postgres, s.db))
	})
	return s.err
}

// Migrate applies the schema immediately.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return s.ensureSchema(ctx)
}

func (s *PostgresStore) Create(ctx context.Context, in interview.Session) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	topics, err := json.Marshal(nonNilTopics(in.Topics))
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query, args := s.builder().Insert(migrate.SessionsTableName).
		Columns(sessionColumns...).
		Values(id, in.Role, in.Experience, string(topics), in.Description, in.CreatedAt.UTC(), in.UpdatedAt.UTC()).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	if err := s.insertQuestions(ctx, tx, id, in.Questions); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PostgresStore) insertQuestions(ctx context.Context, tx *sql.Tx, sessionID string, qs []interview.QuestionAnswer) error {
	if len(qs) == 0 {
		return nil
	}
	ins := s.builder().Insert(migrate.QuestionsTableName).Columns(questionColumns...)
	for _, q := range qs {
		if strings.TrimSpace(q.ID) == "" {
			return fmt.Errorf("question id is required")
		}
		ins.Values(q.ID, sessionID, q.Question, q.Answer, q.IsPinned, q.CreatedAt.UTC())
	}
	query, args := ins.Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert questions: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (interview.Session, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return interview.Session{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return interview.Session{}, ErrNotFound
	}
	sessions, err := s.selectSessions(ctx, entsql.EQ("id", id))
	if err != nil {
		return interview.Session{}, err
	}
	if len(sessions) == 0 {
		return interview.Session{}, ErrNotFound
	}
	return sessions[0], nil
}

func (s *PostgresStore) List(ctx context.Context) ([]interview.Session, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s.selectSessions(ctx, nil)
}

func (s *PostgresStore) selectSessions(ctx context.Context, where *entsql.Predicate) ([]interview.Session, error) {
	sel := s.builder().Select(sessionColumns...).
		From(entsql.Table(migrate.SessionsTableName)).
		OrderBy(entsql.Desc("created_at"), "id")
	if where != nil {
		sel.Where(where)
	}
	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out   []interview.Session
		ids   []any
		index = map[string]int{}
	)
	for rows.Next() {
		var (
			sess   interview.Session
			topics []byte
		)
		if err := rows.Scan(&sess.ID, &sess.Role, &sess.Experience, &topics, &sess.Description, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, err
		}
		if len(topics) > 0 {
			if err := json.Unmarshal(topics, &sess.Topics); err != nil {
				return nil, fmt.Errorf("decode topics for %s: %w", sess.ID, err)
			}
		}
		index[sess.ID] = len(out)
		ids = append(ids, sess.ID)
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	qs, err := s.selectQuestions(ctx, entsql.In("session_id", ids...))
	if err != nil {
		return nil, err
	}
	for _, q := range qs {
		i := index[q.SessionID]
		out[i].Questions = append(out[i].Questions, q)
	}
	for i := range out {
		interview.SortQuestions(out[i].Questions)
	}
	return out, nil
}

func (s *PostgresStore) selectQuestions(ctx context.Context, where *entsql.Predicate) ([]interview.QuestionAnswer, error) {
	query, args := s.builder().Select(questionColumns...).
		From(entsql.Table(migrate.QuestionsTableName)).
		Where(where).
		OrderBy("created_at", "id").
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []interview.QuestionAnswer
	for rows.Next() {
		var q interview.QuestionAnswer
		if err := rows.Scan(&q.ID, &q.SessionID, &q.Question, &q.Answer, &q.IsPinned, &q.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Delete removes the session; its questions go with it through the cascading key.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	query, args := s.builder().Delete(migrate.SessionsTableName).
		Where(entsql.EQ("id", id)).
		Query()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AppendQuestions(ctx context.Context, sessionID string, qs []interview.QuestionAnswer) (interview.Session, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return interview.Session{}, err
	}
	sessionID = strings.TrimSpace(sessionID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return interview.Session{}, err
	}
	defer tx.Rollback()

	query, args := s.builder().Select("id").
		From(entsql.Table(migrate.SessionsTableName)).
		Where(entsql.EQ("id", sessionID)).
		ForUpdate().
		Query()
	var locked string
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return interview.Session{}, ErrNotFound
		}
		return interview.Session{}, err
	}
	if err := s.insertQuestions(ctx, tx, sessionID, qs); err != nil {
		return interview.Session{}, err
	}
	if err := s.touch(ctx, tx, sessionID); err != nil {
		return interview.Session{}, err
	}
	if err := tx.Commit(); err != nil {
		return interview.Session{}, err
	}
	return s.Get(ctx, sessionID)
}

func (s *PostgresStore) TogglePin(ctx context.Context, questionID string) (interview.QuestionAnswer, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return interview.QuestionAnswer{}, err
	}
	questionID = strings.TrimSpace(questionID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return interview.QuestionAnswer{}, err
	}
	defer tx.Rollback()

	query, args := s.builder().Select(questionColumns...).
		From(entsql.Table(migrate.QuestionsTableName)).
		Where(entsql.EQ("id", questionID)).
		ForUpdate().
		Query()
	var q interview.QuestionAnswer
	err = tx.QueryRowContext(ctx, query, args...).
		Scan(&q.ID, &q.SessionID, &q.Question, &q.Answer, &q.IsPinned, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return interview.QuestionAnswer{}, ErrQuestionNotFound
		}
		return interview.QuestionAnswer{}, err
	}
	q.IsPinned = !q.IsPinned

	query, args = s.builder().Update(migrate.QuestionsTableName).
		Set("is_pinned", q.IsPinned).
		Where(entsql.EQ("id", questionID)).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return interview.QuestionAnswer{}, err
	}
	if err := s.touch(ctx, tx, q.SessionID); err != nil {
		return interview.QuestionAnswer{}, err
	}
	if err := tx.Commit(); err != nil {
		return interview.QuestionAnswer{}, err
	}
	return q, nil
}

func (s *PostgresStore) touch(ctx context.Context, tx *sql.Tx, sessionID string) error {
	query, args := s.builder().Update(migrate.SessionsTableName).
		Set("updated_at", s.now().UTC()).
		Where(entsql.EQ("id", sessionID)).
		Query()
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func nonNilTopics(topics []string) []string {
	if topics == nil {
		return []string{}
	}
	return topics
}
