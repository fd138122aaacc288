package journal

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sandeepkv93/gerris/internal/ai"
	"github.com/sandeepkv93/gerris/internal/gamification"
	"github.com/sandeepkv93/gerris/internal/model"
	"github.com/sandeepkv93/gerris/internal/todos"
)

var now = time.Date(2025, time.April, 4, 18, 0, 0, 0, time.UTC)

type stubClient struct {
	payload string
	err     error
}

func (s stubClient) Structured(_ context.Context, _ ai.Request, out any) error {
	if s.err != nil {
		return s.err
	}
	return json.Unmarshal([]byte(s.payload), out)
}

func sampleTodos() []model.Todo {
	return []model.Todo{
		{
			ID:    "t1",
			Title: "Bewerbung schreiben",
			Milestones: []model.Milestone{
				{ID: "m1", Title: "Lebenslauf aktualisieren", Status: model.MilestoneBacklog},
				{ID: "m2", Title: "Anschreiben", Status: model.MilestoneDone},
			},
		},
		{ID: "t2", Title: "Garage", Completed: true, CompletedAt: model.TimePtr(now)},
		{ID: "t3", Title: "Steuern"},
	}
}

func TestSuggestEmptyEntry(t *testing.T) {
	got := NewAligner(stubClient{payload: `{}`}, nil).Suggest(testContext(t), model.JournalEntry{}, sampleTodos())
	if got.FromAI || len(got.Payload.Actions) != 0 {
		t.Fatalf("empty entry must produce no actions, got %+v", got)
	}
}

func TestHeuristicMatches(t *testing.T) {
	got := Heuristic("Heute den Lebenslauf überarbeitet und an der Bewerbung gesessen.", sampleTodos())
	if len(got.Actions) != 1 {
		t.Fatalf("expected one action, got %+v", got.Actions)
	}
	act := got.Actions[0]
	if act.TargetID != "t1" || act.Points != 10 || act.ProgressDeltaPercent != 20 {
		t.Fatalf("unexpected action %+v", act)
	}
	if len(act.MilestoneIDs) != 1 || act.MilestoneIDs[0] != "m1" {
		t.Fatalf("expected milestone m1, got %v", act.MilestoneIDs)
	}
}

func TestSuggestUsesAIAndClampsPoints(t *testing.T) {
	payload := `{"summary":"ok","actions":[
		{"target_id":"t3","target_title":"Steuern","suggested_points":80,"follow_up":"","rationale":"r","progress_delta_percent":50,"milestones_to_mark_done":[]},
		{"target_id":"t1","target_title":"Bewerbung","suggested_points":0,"follow_up":"","rationale":"r","progress_delta_percent":0,"milestones_to_mark_done":[]}
	]}`
	entry := model.JournalEntry{Date: model.DateOf(now), MoodNotes: "Steuern erledigt"}
	got := NewAligner(stubClient{payload: payload}, nil).Suggest(testContext(t), entry, sampleTodos())
	if !got.FromAI || len(got.Payload.Actions) != 1 {
		t.Fatalf("expected one ai action, got %+v", got)
	}
	if got.Payload.Actions[0].Points != 50 {
		t.Fatalf("points must be clamped to 50, got %d", got.Payload.Actions[0].Points)
	}
}

func TestSuggestFallsBackOnError(t *testing.T) {
	entry := model.JournalEntry{Date: model.DateOf(now), MoodNotes: "Steuern sortiert"}
	got := NewAligner(stubClient{err: errors.New("down")}, nil).Suggest(testContext(t), entry, sampleTodos())
	if got.FromAI || len(got.Payload.Actions) != 1 || got.Payload.Actions[0].TargetID != "t3" {
		t.Fatalf("expected heuristic fallback, got %+v", got)
	}
}

func TestApplyAwardsProgressAndMilestones(t *testing.T) {
	list := []model.Todo{{
		ID:             "t1",
		Title:          "Read book",
		CreatedAt:      now,
		Quadrant:       model.QuadrantNotUrgentImportant,
		Category:       model.CategoryDailyStructure,
		Priority:       3,
		Recurrence:     model.RecurrenceOnce,
		EmailReminder:  model.EmailReminderNone,
		ProgressTarget: model.FloatPtr(200),
		Milestones: []model.Milestone{
			{ID: "m1", Title: "Chapter 1", Complexity: model.ComplexitySmall, Points: 5, Status: model.MilestoneDoing},
		},
	}}
	gstate := model.DefaultGamificationState()
	rewards := gamification.New(&gstate, gamification.Options{Now: func() time.Time { return now }})
	svc := todos.New(&list, todos.Options{
		Now: func() time.Time { return now },
		Hooks: todos.Hooks{
			AwardMilestone: func(todo model.Todo, m model.Milestone) { rewards.AwardMilestone(todo, m) },
		},
	})

	date := model.DateOf(now)
	act := Action{TargetID: "t1", TargetTitle: "Read book", Points: 12, ProgressDeltaPercent: 10, MilestoneIDs: []string{"m1"}}
	res, err := Apply(date, act, svc, rewards)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.PointsGained != 12 || res.ProgressDelta != 20 || len(res.MilestonesFinished) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if gstate.Points != 12+5 {
		t.Fatalf("expected journal and milestone points, got %d", gstate.Points)
	}

	again, err := Apply(date, act, svc, rewards)
	if err != nil {
		t.Fatalf("apply again: %v", err)
	}
	if again.PointsGained != 0 || again.ProgressDelta != 0 || len(again.MilestonesFinished) != 0 {
		t.Fatalf("reapplying the same entry must be a no-op, got %+v", again)
	}
	if list[0].ProgressCurrent != 20 {
		t.Fatalf("progress applied twice: %v", list[0].ProgressCurrent)
	}
}
