package quiz

import (
	"context"
	"sort"
	"sync"
)

// Store persists quizzes and attempts. Implementations must make
// UpdateAttempt an atomic compare-and-swap on Attempt.Version so the
// engine's concurrency contract holds: of two concurrent updates to the
// same row, exactly one succeeds and the other observes
// ErrVersionConflict.
type Store interface {
	PutQuiz(ctx context.Context, q Quiz) error
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	ListQuizzes(ctx context.Context, ownerID string, offset, limit int) ([]Quiz, int, error)
	DeleteQuiz(ctx context.Context, id string) error // cascades to attempts

	PutAttempt(ctx context.Context, a Attempt) error
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	// UpdateAttempt writes a back if the stored version still equals
	// a.Version, incrementing the version. Returns ErrVersionConflict
	// otherwise.
	UpdateAttempt(ctx context.Context, a Attempt) error

	// RecentScores returns scores of the user's most recent completed
	// attempts for a topic, newest first, at most limit entries.
	RecentScores(ctx context.Context, userID, topic string, limit int) ([]float64, error)
	TopicProgress(ctx context.Context, userID string) ([]TopicProgress, error)
	RecentPerformance(ctx context.Context, userID string, limit int) ([]PerformanceEntry, error)
	SummaryStats(ctx context.Context, userID string) (SummaryStats, error)
}

type memoryStore struct {
	mu       sync.RWMutex
	quizzes  map[string]Quiz
	attempts map[string]Attempt
}

// NewInMemoryStore returns a Store backed by process memory. Used in tests
// and offline development.
func NewInMemoryStore() Store {
	return &memoryStore{
		quizzes:  map[string]Quiz{},
		attempts: map[string]Attempt{},
	}
}

func (m *memoryStore) PutQuiz(_ context.Context, q Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes[q.ID] = q
	return nil
}

func (m *memoryStore) GetQuiz(_ context.Context, id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, ErrQuizNotFound
	}
	return q, nil
}

func (m *memoryStore) ListQuizzes(_ context.Context, ownerID string, offset, limit int) ([]Quiz, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []Quiz
	for _, q := range m.quizzes {
		if q.OwnerID == ownerID {
			all = append(all, q)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *memoryStore) DeleteQuiz(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[id]; !ok {
		return ErrQuizNotFound
	}
	delete(m.quizzes, id)
	for aid, a := range m.attempts {
		if a.QuizID == id {
			delete(m.attempts, aid)
		}
	}
	return nil
}

func (m *memoryStore) PutAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[a.ID] = cloneAttempt(a)
	return nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return cloneAttempt(a), nil
}

func (m *memoryStore) UpdateAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.attempts[a.ID]
	if !ok {
		return ErrAttemptNotFound
	}
	if cur.Version != a.Version {
		return ErrVersionConflict
	}
	a.Version++
	m.attempts[a.ID] = cloneAttempt(a)
	return nil
}

func (m *memoryStore) RecentScores(_ context.Context, userID, topic string, limit int) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var done []Attempt
	for _, a := range m.attempts {
		if a.UserID != userID || !a.Completed() || a.Score == nil {
			continue
		}
		if q, ok := m.quizzes[a.QuizID]; !ok || q.Topic != topic {
			continue
		}
		done = append(done, a)
	}
	sort.Slice(done, func(i, j int) bool { return done[i].CompletedAt.After(*done[j].CompletedAt) })
	if limit > 0 && len(done) > limit {
		done = done[:limit]
	}
	out := make([]float64, len(done))
	for i, a := range done {
		out[i] = *a.Score
	}
	return out, nil
}

func (m *memoryStore) TopicProgress(_ context.Context, userID string) ([]TopicProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byTopic := map[string]*TopicProgress{}
	for _, a := range m.attempts {
		if a.UserID != userID || !a.Completed() || a.Score == nil {
			continue
		}
		q, ok := m.quizzes[a.QuizID]
		if !ok {
			continue
		}
		tp, ok := byTopic[q.Topic]
		if !ok {
			tp = &TopicProgress{Topic: q.Topic, MinScore: *a.Score, MaxScore: *a.Score}
			byTopic[q.Topic] = tp
		}
		tp.TotalAttempts++
		tp.AvgScore += *a.Score // sum for now, divided below
		if *a.Score > tp.MaxScore {
			tp.MaxScore = *a.Score
		}
		if *a.Score < tp.MinScore {
			tp.MinScore = *a.Score
		}
	}
	out := make([]TopicProgress, 0, len(byTopic))
	for _, tp := range byTopic {
		tp.AvgScore /= float64(tp.TotalAttempts)
		out = append(out, *tp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out, nil
}

func (m *memoryStore) RecentPerformance(_ context.Context, userID string, limit int) ([]PerformanceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var done []Attempt
	for _, a := range m.attempts {
		if a.UserID == userID && a.Completed() && a.Score != nil {
			done = append(done, a)
		}
	}
	sort.Slice(done, func(i, j int) bool { return done[i].CompletedAt.After(*done[j].CompletedAt) })
	if limit > 0 && len(done) > limit {
		done = done[:limit]
	}
	out := make([]PerformanceEntry, 0, len(done))
	for _, a := range done {
		e := PerformanceEntry{
			AttemptID:   a.ID,
			QuizID:      a.QuizID,
			Score:       *a.Score,
			CompletedAt: *a.CompletedAt,
		}
		if q, ok := m.quizzes[a.QuizID]; ok {
			e.QuizTitle = q.Title
			e.Topic = q.Topic
			e.DifficultyLevel = q.DifficultyLevel
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memoryStore) SummaryStats(_ context.Context, userID string) (SummaryStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var s SummaryStats
	topics := map[string]struct{}{}
	var sum float64
	for _, q := range m.quizzes {
		if q.OwnerID == userID {
			s.TotalQuizzes++
		}
	}
	for _, a := range m.attempts {
		if a.UserID != userID || !a.Completed() || a.Score == nil {
			continue
		}
		s.TotalCompletedAttempts++
		sum += *a.Score
		if *a.Score > s.BestScore {
			s.BestScore = *a.Score
		}
		if q, ok := m.quizzes[a.QuizID]; ok {
			topics[q.Topic] = struct{}{}
		}
	}
	if s.TotalCompletedAttempts > 0 {
		s.AvgScore = sum / float64(s.TotalCompletedAttempts)
	}
	s.UniqueTopics = len(topics)
	return s, nil
}

func cloneAttempt(a Attempt) Attempt {
	a.CorrectAnswers = append([]Label(nil), a.CorrectAnswers...)
	a.UserAnswers = append([]Label(nil), a.UserAnswers...)
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		a.CompletedAt = &t
	}
	if a.Score != nil {
		s := *a.Score
		a.Score = &s
	}
	return a
}
