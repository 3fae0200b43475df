package quiz

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func seededEngine(store Store, seed int64) *Engine {
	e := NewEngine(store)
	e.newRand = func() *rand.Rand { return rand.New(rand.NewSource(seed)) }
	return e
}

func testQuiz(t *testing.T, store Store, n int) Quiz {
	t.Helper()
	qs := make(QuestionSet, n)
	for i := range qs {
		qs[i] = QuestionSpec{
			Prompt:       "prompt",
			Options:      [4]string{"right", "close", "wrong", "also wrong"},
			CorrectIndex: 0,
			Explanation:  "because",
		}
	}
	q := Quiz{
		ID:              uuid.NewString(),
		OwnerID:         "owner",
		Title:           "t",
		Topic:           "topic",
		DifficultyLevel: 3,
		CreatedAt:       time.Now().UTC(),
		Questions:       qs,
	}
	if err := store.PutQuiz(context.Background(), q); err != nil {
		t.Fatal(err)
	}
	return q
}

func TestStartAttempt(t *testing.T) {
	store := NewInMemoryStore()
	e := seededEngine(store, 1)
	q := testQuiz(t, store, 3)

	a, rendered, err := e.StartAttempt(context.Background(), q, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(a.CorrectAnswers) != 3 || len(a.UserAnswers) != 3 {
		t.Fatalf("label slices sized %d/%d, want 3/3", len(a.CorrectAnswers), len(a.UserAnswers))
	}
	if len(rendered) != 3 {
		t.Fatalf("rendered %d questions", len(rendered))
	}
	for i, rq := range rendered {
		if rq.Index != i {
			t.Errorf("question %d has index %d", i, rq.Index)
		}
		if rq.Options[a.CorrectAnswers[i]] != "right" {
			t.Errorf("question %d: correct label %s maps to %q", i, a.CorrectAnswers[i], rq.Options[a.CorrectAnswers[i]])
		}
	}

	// Persisted copy matches.
	got, err := store.GetAttempt(context.Background(), a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Completed() || got.Score != nil {
		t.Error("fresh attempt should not be completed")
	}
}

func TestStartAttemptEmptyQuiz(t *testing.T) {
	store := NewInMemoryStore()
	e := seededEngine(store, 1)
	_, _, err := e.StartAttempt(context.Background(), Quiz{ID: "x"}, "user-1")
	if !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("err = %v, want ErrQuizNotFound", err)
	}
}

func TestRecordAnswer(t *testing.T) {
	store := NewInMemoryStore()
	e := seededEngine(store, 2)
	q := testQuiz(t, store, 2)
	a, _, err := e.StartAttempt(context.Background(), q, "user-1")
	if err != nil {
		t.Fatal(err)
	}

	ok, score, err := e.RecordAnswer(context.Background(), a.ID, 0, a.CorrectAnswers[0])
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("correct label judged incorrect")
	}
	if score != 50 {
		t.Errorf("score after 1/2 correct = %v, want 50", score)
	}

	// Same question again: idempotency violation is rejected.
	if _, _, err := e.RecordAnswer(context.Background(), a.ID, 0, LabelA); !errors.Is(err, ErrAlreadyAnswered) {
		t.Errorf("err = %v, want ErrAlreadyAnswered", err)
	}

	// Wrong answer on the other question.
	wrong := LabelA
	if wrong == a.CorrectAnswers[1] {
		wrong = LabelB
	}
	ok, score, err = e.RecordAnswer(context.Background(), a.ID, 1, wrong)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("wrong label judged correct")
	}
	if score != 50 {
		t.Errorf("score = %v, want 50", score)
	}

	if _, _, err := e.RecordAnswer(context.Background(), a.ID, 5, LabelA); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
	if _, _, err := e.RecordAnswer(context.Background(), "missing", 0, LabelA); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("err = %v, want ErrAttemptNotFound", err)
	}
}

func TestCompleteAttempt(t *testing.T) {
	store := NewInMemoryStore()
	e := seededEngine(store, 3)
	q := testQuiz(t, store, 4)
	a, _, err := e.StartAttempt(context.Background(), q, "user-1")
	if err != nil {
		t.Fatal(err)
	}

	// No answers yet.
	if _, err := e.CompleteAttempt(context.Background(), a.ID); !errors.Is(err, ErrNoAnswers) {
		t.Fatalf("err = %v, want ErrNoAnswers", err)
	}

	// Answer 3 of 4 correctly, skip the last: unanswered counts as wrong.
	for i := 0; i < 3; i++ {
		if _, _, err := e.RecordAnswer(context.Background(), a.ID, i, a.CorrectAnswers[i]); err != nil {
			t.Fatal(err)
		}
	}
	done, err := e.CompleteAttempt(context.Background(), a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.Score == nil || *done.Score != 75 {
		t.Fatalf("score = %v, want 75", done.Score)
	}
	if !done.Completed() {
		t.Error("completed_at not set")
	}

	// Terminal state: both mutations fail.
	if _, err := e.CompleteAttempt(context.Background(), a.ID); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("second complete: err = %v, want ErrAlreadyCompleted", err)
	}
	if _, _, err := e.RecordAnswer(context.Background(), a.ID, 3, LabelA); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("answer after complete: err = %v, want ErrAlreadyCompleted", err)
	}
}

func TestBuildResults(t *testing.T) {
	store := NewInMemoryStore()
	e := seededEngine(store, 4)
	q := testQuiz(t, store, 3)
	a, _, err := e.StartAttempt(context.Background(), q, "user-1")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.BuildResults(context.Background(), a.ID); !errors.Is(err, ErrNotCompleted) {
		t.Fatalf("results before completion: err = %v, want ErrNotCompleted", err)
	}

	if _, _, err := e.RecordAnswer(context.Background(), a.ID, 0, a.CorrectAnswers[0]); err != nil {
		t.Fatal(err)
	}
	wrong := LabelA
	if wrong == a.CorrectAnswers[1] {
		wrong = LabelB
	}
	if _, _, err := e.RecordAnswer(context.Background(), a.ID, 1, wrong); err != nil {
		t.Fatal(err)
	}
	if _, err := e.CompleteAttempt(context.Background(), a.ID); err != nil {
		t.Fatal(err)
	}

	res, err := e.BuildResults(context.Background(), a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalQuestions != 3 || res.CorrectCount != 1 || res.IncorrectCount != 2 {
		t.Errorf("aggregates = %d/%d/%d, want 3/1/2", res.TotalQuestions, res.CorrectCount, res.IncorrectCount)
	}
	if res.Score != 100.0/3.0*1 {
		t.Errorf("score = %v", res.Score)
	}
	if got := float64(res.CorrectCount) / float64(res.TotalQuestions) * 100; got != res.Score {
		t.Errorf("aggregates disagree with score: %v vs %v", got, res.Score)
	}
	if !res.Questions[0].IsCorrect || res.Questions[1].IsCorrect || res.Questions[2].IsCorrect {
		t.Errorf("per-question flags wrong: %+v", res.Questions)
	}
	if res.Questions[2].SelectedLabel != "" {
		t.Errorf("skipped question has selected label %q", res.Questions[2].SelectedLabel)
	}
	if res.Questions[0].Explanation != "because" {
		t.Errorf("explanation not carried: %+v", res.Questions[0])
	}
}

// Two goroutines race on the same question; exactly one write wins.
func TestRecordAnswerConcurrentSameQuestion(t *testing.T) {
	store := NewInMemoryStore()
	e := seededEngine(store, 5)
	q := testQuiz(t, store, 1)
	a, _, err := e.StartAttempt(context.Background(), q, "user-1")
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = e.RecordAnswer(context.Background(), a.ID, 0, Labels[i])
		}(i)
	}
	wg.Wait()

	won, lost := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrAlreadyAnswered):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("winners=%d losers=%d, want exactly one of each", won, lost)
	}
}

func TestCompleteAttemptConcurrent(t *testing.T) {
	store := NewInMemoryStore()
	e := seededEngine(store, 6)
	q := testQuiz(t, store, 1)
	a, _, err := e.StartAttempt(context.Background(), q, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := e.RecordAnswer(context.Background(), a.ID, 0, a.CorrectAnswers[0]); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.CompleteAttempt(context.Background(), a.ID)
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else if !errors.Is(err, ErrAlreadyCompleted) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("%d completions succeeded, want exactly 1", won)
	}
}

func TestStoreVersionConflict(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	a := Attempt{
		ID:             "a1",
		QuizID:         "q1",
		UserID:         "u1",
		StartedAt:      time.Now().UTC(),
		CorrectAnswers: []Label{LabelA},
		UserAnswers:    []Label{""},
	}
	if err := store.PutAttempt(ctx, a); err != nil {
		t.Fatal(err)
	}
	fresh, err := store.GetAttempt(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	fresh.UserAnswers[0] = LabelA
	if err := store.UpdateAttempt(ctx, fresh); err != nil {
		t.Fatal(err)
	}
	// Stale copy loses.
	a.UserAnswers[0] = LabelB
	if err := store.UpdateAttempt(ctx, a); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("stale update: err = %v, want ErrVersionConflict", err)
	}
}

func TestDeleteQuizCascades(t *testing.T) {
	store := NewInMemoryStore()
	e := seededEngine(store, 7)
	ctx := context.Background()
	q := testQuiz(t, store, 1)
	a, _, err := e.StartAttempt(ctx, q, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteQuiz(ctx, q.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetQuiz(ctx, q.ID); !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("quiz still readable: %v", err)
	}
	if _, err := store.GetAttempt(ctx, a.ID); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("attempt survived cascade: %v", err)
	}
}
