package ai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sandeepkv93/gerris/internal/model"
)

type stubClient struct {
	payload string
	err     error
	calls   int
}

func (s *stubClient) Structured(_ context.Context, _ Request, out any) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	return json.Unmarshal([]byte(s.payload), out)
}

func TestSuggestQuadrantFallbackKeywords(t *testing.T) {
	a := NewAdvisor(nil, nil)
	cases := map[string]model.Quadrant{
		"Dringend Steuer abgeben": model.QuadrantUrgentImportant,
		"Strategie für Q3":        model.QuadrantNotUrgentImportant,
		"Aufräumen":               model.QuadrantNotUrgentNotImportant,
	}
	for title, want := range cases {
		got := a.SuggestQuadrant(testContext(t), title)
		if got.FromAI || got.Payload.Quadrant != string(want) {
			t.Fatalf("%q: expected fallback %s, got %+v", title, want, got)
		}
	}
}

func TestSuggestQuadrantUsesClient(t *testing.T) {
	stub := &stubClient{payload: `{"quadrant":"urgent_not_important","rationale":"ai"}`}
	got := NewAdvisor(stub, nil).SuggestQuadrant(testContext(t), "call plumber")
	if !got.FromAI || got.Payload.Quadrant != string(model.QuadrantUrgentNotImportant) {
		t.Fatalf("expected ai suggestion, got %+v", got)
	}
}

func TestSuggestQuadrantFallsBackOnError(t *testing.T) {
	stub := &stubClient{err: &Error{Kind: KindTransient, Err: errors.New("timeout")}}
	got := NewAdvisor(stub, nil).SuggestQuadrant(testContext(t), "heute anrufen")
	if got.FromAI || got.Payload.Quadrant != string(model.QuadrantUrgentImportant) {
		t.Fatalf("expected fallback on error, got %+v", got)
	}
}

func TestFallbackGoals(t *testing.T) {
	got := FallbackGoals(model.KpiStats{GoalDaily: 3, Streak: 5})
	if got.DailyGoal != 4 || len(got.Tips) != 2 {
		t.Fatalf("unexpected goals %+v", got)
	}
	got = FallbackGoals(model.KpiStats{GoalDaily: 0})
	if got.DailyGoal != 1 {
		t.Fatalf("expected goal floor of 1, got %d", got.DailyGoal)
	}
}

func TestMotivateFallback(t *testing.T) {
	got := NewAdvisor(nil, nil).Motivate(testContext(t), model.KpiStats{})
	if got.FromAI || got.Payload != FallbackMotivation {
		t.Fatalf("unexpected motivation %+v", got)
	}
}

func TestFallbackMilestones(t *testing.T) {
	got := NewAdvisor(nil, nil).SuggestMilestones(testContext(t), "Portfolio", model.GamificationPoints)
	if got.FromAI || len(got.Payload.Milestones) != 3 {
		t.Fatalf("unexpected milestones %+v", got)
	}
	milestones := MilestonesFrom(got.Payload)
	if milestones[2].Complexity != model.ComplexityLarge || milestones[2].Points != 20 {
		t.Fatalf("unexpected conversion %+v", milestones[2])
	}
}

func TestFallbackDailyPlanRanking(t *testing.T) {
	base := time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC)
	todos := []model.Todo{
		{ID: "a", Title: "later", Quadrant: model.QuadrantNotUrgentNotImportant, Priority: 1, CreatedAt: base},
		{ID: "b", Title: "no due", Quadrant: model.QuadrantUrgentImportant, Priority: 1, CreatedAt: base},
		{ID: "c", Title: "due", Quadrant: model.QuadrantUrgentImportant, Priority: 5, CreatedAt: base, DueDate: model.TimePtr(base)},
		{ID: "d", Title: "done", Quadrant: model.QuadrantUrgentImportant, Completed: true, CompletedAt: model.TimePtr(base)},
		{ID: "e", Title: "strategy", Quadrant: model.QuadrantNotUrgentImportant, Priority: 2, CreatedAt: base},
	}
	journal := map[model.Date]model.JournalEntry{
		model.NewDate(2025, time.April, 30): {Moods: []string{"tired"}},
		model.NewDate(2025, time.May, 1):    {Moods: []string{"calm"}, MoodNotes: "slept well"},
	}
	plan := FallbackDailyPlan(todos, model.KpiStats{Streak: 2}, journal)
	if len(plan.FocusItems) != 3 {
		t.Fatalf("expected 3 focus items, got %d", len(plan.FocusItems))
	}
	want := []string{"due", "no due", "strategy"}
	for i, title := range want {
		if plan.FocusItems[i].Title != title {
			t.Fatalf("focus item %d: expected %q, got %q", i, title, plan.FocusItems[i].Title)
		}
	}
	if plan.MoodAdvice != "Latest mood entry: calm - slept well" {
		t.Fatalf("unexpected mood advice %q", plan.MoodAdvice)
	}
}

func TestDailyPlanSkipsClientWithoutOpenTodos(t *testing.T) {
	stub := &stubClient{payload: `{}`}
	got := NewAdvisor(stub, nil).SuggestDailyPlan(testContext(t), nil, model.KpiStats{}, nil)
	if got.FromAI || stub.calls != 0 {
		t.Fatalf("expected fallback without calling the client")
	}
}
