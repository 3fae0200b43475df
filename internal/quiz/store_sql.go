package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// SQLStore persists quizzes and attempts in SQL (sqlite or postgres).
// Question sets and label sequences live in JSON text columns; attempt
// updates are guarded by a version column so concurrent writers conflict
// instead of overwriting each other.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutQuiz(ctx context.Context, q Quiz) error {
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quizzes (id,owner_id,title,topic,difficulty_level,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		q.ID, q.OwnerID, q.Title, q.Topic, q.DifficultyLevel, string(qj), q.CreatedAt.Unix())
	return err
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,owner_id,title,topic,difficulty_level,questions_json,created_at
		FROM quizzes WHERE id=$1`, id)
	return scanQuiz(row)
}

func (s *SQLStore) ListQuizzes(ctx context.Context, ownerID string, offset, limit int) ([]Quiz, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quizzes WHERE owner_id=$1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,owner_id,title,topic,difficulty_level,questions_json,created_at
		FROM quizzes WHERE owner_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, q)
	}
	return out, total, rows.Err()
}

func (s *SQLStore) DeleteQuiz(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQuizNotFound
	}
	// attempts go with the quiz via ON DELETE CASCADE
	return nil
}

func (s *SQLStore) PutAttempt(ctx context.Context, a Attempt) error {
	cj, err := json.Marshal(a.CorrectAnswers)
	if err != nil {
		return err
	}
	uj, err := json.Marshal(a.UserAnswers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO attempts (id,quiz_id,user_id,started_at,completed_at,score,correct_answers_json,user_answers_json,version)
		VALUES ($1,$2,$3,$4,NULL,NULL,$5,$6,0)`,
		a.ID, a.QuizID, a.UserID, a.StartedAt.Unix(), string(cj), string(uj))
	return err
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,quiz_id,user_id,started_at,completed_at,score,correct_answers_json,user_answers_json,version
		FROM attempts WHERE id=$1`, id)
	var a Attempt
	var started int64
	var completed sql.NullInt64
	var score sql.NullFloat64
	var cj, uj string
	if err := row.Scan(&a.ID, &a.QuizID, &a.UserID, &started, &completed, &score, &cj, &uj, &a.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, err
	}
	a.StartedAt = time.Unix(started, 0).UTC()
	if completed.Valid {
		t := time.Unix(completed.Int64, 0).UTC()
		a.CompletedAt = &t
	}
	if score.Valid {
		v := score.Float64
		a.Score = &v
	}
	if err := json.Unmarshal([]byte(cj), &a.CorrectAnswers); err != nil {
		return Attempt{}, err
	}
	if err := json.Unmarshal([]byte(uj), &a.UserAnswers); err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) UpdateAttempt(ctx context.Context, a Attempt) error {
	uj, err := json.Marshal(a.UserAnswers)
	if err != nil {
		return err
	}
	var completed sql.NullInt64
	if a.CompletedAt != nil {
		completed = sql.NullInt64{Int64: a.CompletedAt.Unix(), Valid: true}
	}
	var score sql.NullFloat64
	if a.Score != nil {
		score = sql.NullFloat64{Float64: *a.Score, Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `UPDATE attempts
		SET user_answers_json=$1, completed_at=$2, score=$3, version=version+1
		WHERE id=$4 AND version=$5`,
		string(uj), completed, score, a.ID, a.Version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM attempts WHERE id=$1`, a.ID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAttemptNotFound
			}
			return err
		}
		return ErrVersionConflict
	}
	return nil
}

func (s *SQLStore) RecentScores(ctx context.Context, userID, topic string, limit int) ([]float64, error) {
	if limit <= 0 {
		limit = DefaultHistoryWindow
	}
	rows, err := s.db.QueryContext(ctx, `SELECT a.score FROM attempts a
		JOIN quizzes q ON q.id = a.quiz_id
		WHERE a.user_id=$1 AND q.topic=$2 AND a.completed_at IS NOT NULL
		ORDER BY a.completed_at DESC LIMIT $3`, userID, topic, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLStore) TopicProgress(ctx context.Context, userID string) ([]TopicProgress, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT q.topic, COUNT(a.id), AVG(a.score), MAX(a.score), MIN(a.score)
		FROM attempts a JOIN quizzes q ON q.id = a.quiz_id
		WHERE a.user_id=$1 AND a.completed_at IS NOT NULL
		GROUP BY q.topic ORDER BY q.topic`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TopicProgress
	for rows.Next() {
		var tp TopicProgress
		if err := rows.Scan(&tp.Topic, &tp.TotalAttempts, &tp.AvgScore, &tp.MaxScore, &tp.MinScore); err != nil {
			return nil, err
		}
		out = append(out, tp)
	}
	return out, rows.Err()
}

func (s *SQLStore) RecentPerformance(ctx context.Context, userID string, limit int) ([]PerformanceEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `SELECT a.id, a.quiz_id, q.title, q.topic, q.difficulty_level, a.score, a.completed_at
		FROM attempts a JOIN quizzes q ON q.id = a.quiz_id
		WHERE a.user_id=$1 AND a.completed_at IS NOT NULL
		ORDER BY a.completed_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PerformanceEntry
	for rows.Next() {
		var e PerformanceEntry
		var completed int64
		if err := rows.Scan(&e.AttemptID, &e.QuizID, &e.QuizTitle, &e.Topic, &e.DifficultyLevel, &e.Score, &completed); err != nil {
			return nil, err
		}
		e.CompletedAt = time.Unix(completed, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) SummaryStats(ctx context.Context, userID string) (SummaryStats, error) {
	var st SummaryStats
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quizzes WHERE owner_id=$1`, userID).Scan(&st.TotalQuizzes); err != nil {
		return st, err
	}
	var avg, best sql.NullFloat64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(score), MAX(score) FROM attempts WHERE user_id=$1 AND completed_at IS NOT NULL`,
		userID).Scan(&st.TotalCompletedAttempts, &avg, &best); err != nil {
		return st, err
	}
	st.AvgScore = avg.Float64
	st.BestScore = best.Float64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT q.topic) FROM quizzes q JOIN attempts a ON a.quiz_id = q.id
		 WHERE a.user_id=$1 AND a.completed_at IS NOT NULL`, userID).Scan(&st.UniqueTopics); err != nil {
		return st, err
	}
	return st, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuiz(row rowScanner) (Quiz, error) {
	var q Quiz
	var qj string
	var created int64
	if err := row.Scan(&q.ID, &q.OwnerID, &q.Title, &q.Topic, &q.DifficultyLevel, &qj, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, ErrQuizNotFound
		}
		return Quiz{}, err
	}
	q.CreatedAt = time.Unix(created, 0).UTC()
	if err := json.Unmarshal([]byte(qj), &q.Questions); err != nil {
		return Quiz{}, err
	}
	return q, nil
}
