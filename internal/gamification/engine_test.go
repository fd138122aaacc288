package gamification

import (
	"testing"
	"time"

	"github.com/sandeepkv93/gerris/internal/model"
)

var fixedNow = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func newEngine(state *model.GamificationState) *Engine {
	return New(state, Options{Now: func() time.Time { return fixedNow }})
}

func completedTodo(id string, q model.Quadrant, at time.Time) model.Todo {
	return model.Todo{
		ID:          id,
		Title:       "Write cover letter",
		Quadrant:    q,
		Completed:   true,
		CompletedAt: model.TimePtr(at),
	}
}

func TestAwardCompletionIsIdempotent(t *testing.T) {
	state := model.DefaultGamificationState()
	e := newEngine(&state)
	todo := completedTodo("t1", model.QuadrantUrgentImportant, fixedNow)
	stats := model.KpiStats{DoneTotal: 1, Streak: 1}

	got, gained := e.AwardCompletion(todo, stats)
	if gained != 20 || got.Points != 20 {
		t.Fatalf("expected 20 points, got gained=%d points=%d", gained, got.Points)
	}
	if !got.HasBadge(BadgeFirstStep) {
		t.Fatalf("expected first step badge, got %v", got.Badges)
	}
	if len(got.History) != 1 {
		t.Fatalf("expected one history line, got %d", len(got.History))
	}

	got, gained = e.AwardCompletion(todo, stats)
	if gained != 0 || got.Points != 20 {
		t.Fatalf("second award should be a no-op, got gained=%d points=%d", gained, got.Points)
	}
	if len(got.ProcessedCompletions) != 1 {
		t.Fatalf("expected a single processed token, got %v", got.ProcessedCompletions)
	}
}

func TestAwardCompletionNewTimestampPaysAgain(t *testing.T) {
	state := model.DefaultGamificationState()
	e := newEngine(&state)
	stats := model.KpiStats{DoneTotal: 2, Streak: 1}

	e.AwardCompletion(completedTodo("t1", model.QuadrantNotUrgentNotImportant, fixedNow), stats)
	got, gained := e.AwardCompletion(completedTodo("t1", model.QuadrantNotUrgentNotImportant, fixedNow.Add(time.Hour)), stats)
	if gained != 5 || got.Points != 10 {
		t.Fatalf("expected a second payout of 5, got gained=%d points=%d", gained, got.Points)
	}
}

func TestAwardCompletionIgnoresOpenTodo(t *testing.T) {
	state := model.DefaultGamificationState()
	e := newEngine(&state)
	_, gained := e.AwardCompletion(model.Todo{ID: "t1", Quadrant: model.QuadrantUrgentImportant}, model.KpiStats{})
	if gained != 0 {
		t.Fatalf("expected no points for an open todo, got %d", gained)
	}
}

func TestBadgesFollowStats(t *testing.T) {
	state := model.DefaultGamificationState()
	e := newEngine(&state)
	got, _ := e.AwardCompletion(completedTodo("t1", model.QuadrantUrgentImportant, fixedNow), model.KpiStats{DoneTotal: 12, Streak: 7})
	for _, badge := range []string{BadgeFirstStep, BadgeStreak3, BadgeStreak7, BadgeDoubleDigits} {
		if !got.HasBadge(badge) {
			t.Fatalf("expected badge %q, got %v", badge, got.Badges)
		}
	}
	if got.HasBadge(BadgeStreak30) || got.HasBadge(BadgeTaskMaster) {
		t.Fatalf("unexpected badges %v", got.Badges)
	}
}

func TestLevelFollowsPoints(t *testing.T) {
	state := model.DefaultGamificationState()
	state.Points = 95
	e := newEngine(&state)
	got, _ := e.AwardCompletion(completedTodo("t1", model.QuadrantNotUrgentImportant, fixedNow), model.KpiStats{DoneTotal: 1})
	if got.Points != 110 || got.Level != 2 {
		t.Fatalf("expected 110 points at level 2, got %d/%d", got.Points, got.Level)
	}
}

func TestAwardProgressDeltaThresholds(t *testing.T) {
	state := model.DefaultGamificationState()
	e := newEngine(&state)
	todo := model.Todo{ID: "t1", Title: "Read", ProgressTarget: model.FloatPtr(100)}

	got, gained := e.AwardProgressDelta(todo, 0, 60)
	if gained != 10 || got.Points != 10 {
		t.Fatalf("expected two thresholds (10 points), got gained=%d points=%d", gained, got.Points)
	}

	_, gained = e.AwardProgressDelta(todo, 0, 60)
	if gained != 0 {
		t.Fatalf("thresholds must pay once, got %d", gained)
	}

	got, gained = e.AwardProgressDelta(todo, 60, 80)
	if gained != 5 || got.Points != 15 {
		t.Fatalf("expected the 75%% threshold only, got gained=%d points=%d", gained, got.Points)
	}
	if len(got.ProcessedProgressRewards) != 3 {
		t.Fatalf("expected 3 progress tokens, got %v", got.ProcessedProgressRewards)
	}
}

func TestAwardProgressDeltaWithoutTarget(t *testing.T) {
	state := model.DefaultGamificationState()
	e := newEngine(&state)
	_, gained := e.AwardProgressDelta(model.Todo{ID: "t1"}, 0, 1000)
	if gained != 0 {
		t.Fatalf("expected no reward without a target, got %d", gained)
	}
	_, gained = e.AwardProgressDelta(model.Todo{ID: "t1", ProgressTarget: model.FloatPtr(0)}, 0, 10)
	if gained != 0 {
		t.Fatalf("expected no reward for a zero target, got %d", gained)
	}
}

func TestAwardMilestone(t *testing.T) {
	state := model.DefaultGamificationState()
	e := newEngine(&state)
	todo := model.Todo{ID: "t1"}

	_, gained := e.AwardMilestone(todo, model.Milestone{ID: "m1", Status: model.MilestoneDoing, Points: 20})
	if gained != 0 {
		t.Fatalf("milestones pay only when done, got %d", gained)
	}

	got, gained := e.AwardMilestone(todo, model.Milestone{ID: "m1", Title: "Draft", Status: model.MilestoneDone, Points: 1})
	if gained != 5 || got.Points != 5 {
		t.Fatalf("expected minimum of 5 points, got gained=%d points=%d", gained, got.Points)
	}

	_, gained = e.AwardMilestone(todo, model.Milestone{ID: "m1", Status: model.MilestoneDone, Points: 1})
	if gained != 0 {
		t.Fatalf("milestone must pay once, got %d", gained)
	}
}

func TestAwardJournalAlignment(t *testing.T) {
	state := model.DefaultGamificationState()
	e := newEngine(&state)
	date := model.NewDate(2025, time.March, 9)

	_, gained := e.AwardJournalAlignment(date, "Call mom", 0, "nothing")
	if gained != 0 || len(state.ProcessedJournalEvents) != 0 {
		t.Fatalf("non-positive points must not consume a token")
	}

	got, gained := e.AwardJournalAlignment(date, "  Call Mom ", 12, "mentioned")
	if gained != 12 || got.Points != 12 {
		t.Fatalf("expected 12 points, got gained=%d points=%d", gained, got.Points)
	}
	if got.ProcessedJournalEvents[0] != "journal:2025-03-09:call-mom" {
		t.Fatalf("unexpected token %q", got.ProcessedJournalEvents[0])
	}

	_, gained = e.AwardJournalAlignment(date, "call mom", 12, "again")
	if gained != 0 {
		t.Fatalf("journal alignment must pay once per title, got %d", gained)
	}
}

func TestHistoryIsCapped(t *testing.T) {
	state := model.DefaultGamificationState()
	e := newEngine(&state)
	for i := 0; i < 250; i++ {
		e.AwardCompletion(completedTodo("t", model.QuadrantUrgentImportant, fixedNow.Add(time.Duration(i)*time.Minute)), model.KpiStats{DoneTotal: i + 1})
	}
	got := e.State()
	if len(got.History) != 200 {
		t.Fatalf("expected history capped at 200, got %d", len(got.History))
	}
	if got.Points != 250*20 {
		t.Fatalf("expected %d points, got %d", 250*20, got.Points)
	}
}
