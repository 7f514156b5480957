package history

import (
	"testing"
	"time"

	"github.com/elysian-app/elysian/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func recordTestAttempt(t *testing.T, s *Store, module model.Module, score float64, xp int, at time.Time) int64 {
	t.Helper()
	id, err := s.Record(Attempt{
		Module:     module,
		ExerciseID: "ex-" + string(module),
		Title:      "attempt",
		Score:      score,
		XPEarned:   xp,
		Correct:    2,
		Total:      3,
		CreatedAt:  at,
	})
	if err != nil {
		t.Fatalf("recordTestAttempt: %v", err)
	}
	return id
}

func TestRecordAndRecent(t *testing.T) {
	s := newTestStore(t)

	attempts, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent on empty store: %v", err)
	}
	if len(attempts) != 0 {
		t.Fatalf("expected empty log, got %d rows", len(attempts))
	}

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	recordTestAttempt(t, s, model.ModuleSpeak, 72, 23, base)
	recordTestAttempt(t, s, model.ModuleListen, 66.7, 35, base.Add(time.Hour))
	recordTestAttempt(t, s, model.ModuleRead, 100, 53, base.Add(2*time.Hour))

	attempts, err = s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("Recent(2) returned %d rows", len(attempts))
	}
	if attempts[0].Module != model.ModuleRead || attempts[1].Module != model.ModuleListen {
		t.Errorf("order = %s, %s; want newest first", attempts[0].Module, attempts[1].Module)
	}
	got := attempts[0]
	if got.Score != 100 || got.XPEarned != 53 || got.Correct != 2 || got.Total != 3 {
		t.Errorf("row = %+v", got)
	}
	if !got.CreatedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, base.Add(2*time.Hour))
	}
}

func TestSummaryAggregatesPerModule(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	recordTestAttempt(t, s, model.ModuleListen, 60, 34, base)
	recordTestAttempt(t, s, model.ModuleListen, 90, 38, base.Add(time.Minute))
	recordTestAttempt(t, s, model.ModuleSpeak, 81.5, 24, base.Add(2*time.Minute))

	summaries, err := s.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("Summary returned %d modules, want 2", len(summaries))
	}

	listen := summaries[0]
	if listen.Module != model.ModuleListen {
		t.Fatalf("first summary = %s, want listen (module name order)", listen.Module)
	}
	if listen.Attempts != 2 || listen.Best != 90 || listen.Average != 75 || listen.XPEarned != 72 {
		t.Errorf("listen summary = %+v", listen)
	}

	speak := summaries[1]
	if speak.Module != model.ModuleSpeak || speak.Attempts != 1 || speak.Best != 81.5 {
		t.Errorf("speak summary = %+v", speak)
	}
}

func TestFromResult(t *testing.T) {
	ex := &model.Exercise{
		ID:     "li-1",
		Module: model.ModuleListen,
		Title:  "Morning Routine",
	}
	res := &model.Result{
		Module:   model.ModuleListen,
		Score:    66.7,
		XPEarned: 35,
		Details: []model.QuestionResult{
			{Correct: true}, {Correct: false}, {Correct: true},
		},
	}
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	a := FromResult(ex, res, at)
	if a.Module != model.ModuleListen || a.ExerciseID != "li-1" || a.Title != "Morning Routine" {
		t.Errorf("attempt = %+v", a)
	}
	if a.Correct != 2 || a.Total != 3 || a.Score != 66.7 || a.XPEarned != 35 {
		t.Errorf("attempt counts = %+v", a)
	}
	if !a.CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v", a.CreatedAt)
	}
}

func TestFromResultUsesPromptWhenUntitled(t *testing.T) {
	ex := &model.Exercise{
		ID:      "sp-1",
		Module:  model.ModuleSpeak,
		Content: "The quintessential dilemma facing policymakers is reconciling economic growth with environmental sustainability.",
	}
	res := &model.Result{Module: model.ModuleSpeak, Score: 74}

	a := FromResult(ex, res, time.Now())
	if a.Title == "" {
		t.Fatal("title empty for untitled exercise")
	}
	if len(a.Title) > 64 {
		t.Errorf("title not truncated: %q", a.Title)
	}
}
