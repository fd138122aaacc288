package todos

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sandeepkv93/gerris/internal/model"
)

type recorder struct {
	completions []time.Time
	awarded     []string
	progress    [][2]float64
	milestones  []string
	completed   []string
}

type fixture struct {
	todos []model.Todo
	svc   *Service
	rec   *recorder
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{rec: &recorder{}, now: time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)}
	seq := 0
	f.svc = New(&f.todos, Options{
		Now: func() time.Time { return f.now },
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
		Hooks: Hooks{
			RecordCompletion: func(at time.Time) model.KpiStats {
				f.rec.completions = append(f.rec.completions, at)
				return model.KpiStats{DoneTotal: len(f.rec.completions)}
			},
			AwardCompletion: func(todo model.Todo, _ model.KpiStats) {
				f.rec.awarded = append(f.rec.awarded, todo.ID)
			},
			AwardProgress: func(_ model.Todo, previous, updated float64) {
				f.rec.progress = append(f.rec.progress, [2]float64{previous, updated})
			},
			AwardMilestone: func(_ model.Todo, m model.Milestone) {
				f.rec.milestones = append(f.rec.milestones, m.ID)
			},
			Completed: func(todo model.Todo) {
				f.rec.completed = append(f.rec.completed, todo.ID)
			},
		},
	})
	return f
}

func TestAddDefaults(t *testing.T) {
	f := newFixture(t)
	due := time.Date(2024, time.January, 3, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	todo, err := f.svc.Add(AddInput{Title: "  Apply ", Quadrant: "Q2", DueDate: &due, ProgressTarget: model.FloatPtr(3)})
	if err != nil {
		t.Fatalf("add todo: %v", err)
	}
	if todo.Title != "Apply" || todo.Quadrant != model.QuadrantNotUrgentImportant {
		t.Fatalf("unexpected todo %+v", todo)
	}
	if todo.Category != model.CategoryDailyStructure || todo.Priority != model.DefaultPriority {
		t.Fatalf("unexpected defaults category=%s priority=%d", todo.Category, todo.Priority)
	}
	if !todo.AutoDoneWhenTargetReached {
		t.Fatalf("auto done should default to true when a target is set")
	}
	if todo.DueDate.Location() != time.UTC || todo.DueDate.Hour() != 9 {
		t.Fatalf("due date not normalized to UTC: %v", todo.DueDate)
	}
	if len(f.todos) != 1 {
		t.Fatalf("expected one stored todo, got %d", len(f.todos))
	}
}

func TestAddUnknownQuadrant(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Add(AddInput{Title: "x", Quadrant: "q9"})
	if !errors.Is(err, model.ErrUnknownQuadrant) {
		t.Fatalf("expected ErrUnknownQuadrant, got %v", err)
	}
	if len(f.todos) != 0 {
		t.Fatalf("nothing should be stored on error")
	}
}

func TestAddAlreadyAtTargetCompletes(t *testing.T) {
	f := newFixture(t)
	todo, err := f.svc.Add(AddInput{Title: "x", Quadrant: "q1", ProgressCurrent: 5, ProgressTarget: model.FloatPtr(5)})
	if err != nil {
		t.Fatalf("add todo: %v", err)
	}
	if !todo.Completed || todo.CompletedAt == nil {
		t.Fatalf("expected auto completion on add")
	}
	if len(f.rec.completions) != 1 {
		t.Fatalf("expected pipeline once, got %d", len(f.rec.completions))
	}
}

func TestToggleRunsPipelineOnce(t *testing.T) {
	f := newFixture(t)
	todo, _ := f.svc.Add(AddInput{Title: "x", Quadrant: "q1"})

	done, ok := f.svc.Toggle(todo.ID)
	if !ok || !done.Completed || done.CompletedAt == nil || !done.CompletedAt.Equal(f.now) {
		t.Fatalf("unexpected toggle result %+v", done)
	}
	reopened, _ := f.svc.Toggle(todo.ID)
	if reopened.Completed || reopened.CompletedAt != nil {
		t.Fatalf("reopen should clear completion, got %+v", reopened)
	}
	if len(f.rec.completions) != 1 || len(f.rec.awarded) != 1 || len(f.rec.completed) != 1 {
		t.Fatalf("pipeline should run once, got %+v", f.rec)
	}
	if _, ok := f.svc.Toggle("missing"); ok {
		t.Fatalf("toggle of unknown id should report false")
	}
}

func TestApplyProgressDedup(t *testing.T) {
	f := newFixture(t)
	todo, _ := f.svc.Add(AddInput{Title: "x", Quadrant: "q1", ProgressTarget: model.FloatPtr(10)})

	first, err := f.svc.ApplyProgress(todo.ID, 2, "evt-1")
	if err != nil {
		t.Fatalf("apply progress: %v", err)
	}
	second, _ := f.svc.ApplyProgress(todo.ID, 2, "evt-1")
	if first.ProgressCurrent != 2 || second.ProgressCurrent != 2 {
		t.Fatalf("replayed event must not apply twice: %v %v", first.ProgressCurrent, second.ProgressCurrent)
	}
	third, _ := f.svc.ApplyProgress(todo.ID, 2, "evt-2")
	if third.ProgressCurrent != 4 {
		t.Fatalf("new event should apply, got %v", third.ProgressCurrent)
	}
	if len(f.rec.progress) != 2 {
		t.Fatalf("expected two progress rewards calls, got %d", len(f.rec.progress))
	}
}

func TestApplyProgressFloorsAtZero(t *testing.T) {
	f := newFixture(t)
	todo, _ := f.svc.Add(AddInput{Title: "x", Quadrant: "q1"})
	got, _ := f.svc.ApplyProgress(todo.ID, -3, "evt")
	if got.ProgressCurrent != 0 {
		t.Fatalf("expected floor at zero, got %v", got.ProgressCurrent)
	}
}

func TestApplyProgressAutoCompletesWithOvershoot(t *testing.T) {
	f := newFixture(t)
	todo, _ := f.svc.Add(AddInput{Title: "x", Quadrant: "q1", ProgressCurrent: 1, ProgressTarget: model.FloatPtr(2)})

	got, err := f.svc.ApplyProgress(todo.ID, 1.5, "evt")
	if err != nil {
		t.Fatalf("apply progress: %v", err)
	}
	if !got.Completed || got.ProgressCurrent != 2.5 {
		t.Fatalf("expected completed with overshoot 2.5, got %+v", got)
	}
	f.svc.ApplyProgress(todo.ID, 1, "evt-later")
	if len(f.rec.completions) != 1 {
		t.Fatalf("completion pipeline must run exactly once, got %d", len(f.rec.completions))
	}
}

func TestApplyProgressUnknownTodo(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.ApplyProgress("nope", 1, "evt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecurringCompletionSpawnsSuccessor(t *testing.T) {
	f := newFixture(t)
	due := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	todo, _ := f.svc.Add(AddInput{
		Title:      "Stretch",
		Quadrant:   "q2",
		DueDate:    &due,
		Recurrence: model.RecurrenceDaily,
		Milestones: []model.Milestone{{Title: "Warm up", Status: model.MilestoneDone, Points: 7}},
	})

	f.svc.Toggle(todo.ID)
	if len(f.todos) != 2 {
		t.Fatalf("expected one successor, got %d todos", len(f.todos))
	}
	successor := f.todos[1]
	if successor.Completed || successor.CompletedAt != nil || successor.ProgressCurrent != 0 {
		t.Fatalf("successor must be open and reset: %+v", successor)
	}
	if !successor.DueDate.Equal(time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected successor due date %v", successor.DueDate)
	}
	if successor.Milestones[0].Status != model.MilestoneBacklog || successor.Milestones[0].Points != 7 {
		t.Fatalf("milestone not reset: %+v", successor.Milestones[0])
	}
	if successor.Milestones[0].ID == todo.Milestones[0].ID {
		t.Fatalf("successor milestones need their own ids")
	}
	if !f.todos[0].Completed {
		t.Fatalf("completed instance must stay completed")
	}
}

func TestSpawnIsIdempotentPerCompletion(t *testing.T) {
	f := newFixture(t)
	due := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	todo, _ := f.svc.Add(AddInput{Title: "x", Quadrant: "q1", DueDate: &due, Recurrence: model.RecurrenceWeekly})
	done, _ := f.svc.Toggle(todo.ID)

	if _, spawned := f.svc.spawnSuccessor(done); spawned {
		t.Fatalf("second spawn for the same completion must be a no-op")
	}
	if len(f.todos) != 2 {
		t.Fatalf("expected exactly two todos, got %d", len(f.todos))
	}
}

func TestNoSuccessorForOnceOrMissingDue(t *testing.T) {
	f := newFixture(t)
	once, _ := f.svc.Add(AddInput{Title: "once", Quadrant: "q1", DueDate: model.TimePtr(f.now)})
	noDue, _ := f.svc.Add(AddInput{Title: "daily", Quadrant: "q1", Recurrence: model.RecurrenceDaily})
	f.svc.Toggle(once.ID)
	f.svc.Toggle(noDue.ID)
	if len(f.todos) != 2 {
		t.Fatalf("expected no successors, got %d todos", len(f.todos))
	}
}

func TestUpdateRefreshesReminder(t *testing.T) {
	f := newFixture(t)
	due := time.Date(2024, time.January, 5, 12, 0, 0, 0, time.UTC)
	todo, _ := f.svc.Add(AddInput{Title: "x", Quadrant: "q1", DueDate: &due, EmailReminder: model.EmailReminderOneDay})
	if !todo.ReminderAt.Equal(due.Add(-24 * time.Hour)) {
		t.Fatalf("unexpected reminder_at %v", todo.ReminderAt)
	}
	f.todos[0].ReminderSentAt = model.TimePtr(f.now)

	title := "renamed"
	same, err := f.svc.Update(todo.ID, Patch{Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if same.ReminderSentAt == nil {
		t.Fatalf("unchanged reminder must keep reminder_sent_at")
	}

	moved := due.Add(48 * time.Hour)
	got, _ := f.svc.Update(todo.ID, Patch{DueDate: &moved})
	if got.ReminderSentAt != nil || !got.ReminderAt.Equal(moved.Add(-24*time.Hour)) {
		t.Fatalf("moved reminder must reset sent flag: %+v", got)
	}
}

func TestUpdateReachingTargetCompletes(t *testing.T) {
	f := newFixture(t)
	todo, _ := f.svc.Add(AddInput{Title: "x", Quadrant: "q1", ProgressTarget: model.FloatPtr(4)})
	v := 4.0
	got, err := f.svc.Update(todo.ID, Patch{ProgressCurrent: &v})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.Completed || len(f.rec.completions) != 1 {
		t.Fatalf("expected auto completion through update")
	}
}

func TestDeleteAndDuplicate(t *testing.T) {
	f := newFixture(t)
	todo, _ := f.svc.Add(AddInput{
		Title:      "Plan week",
		Quadrant:   "q2",
		Category:   model.CategoryAdmin,
		Priority:   2,
		Milestones: []model.Milestone{{Title: "Draft", Status: model.MilestoneDoing}},
	})
	dup, ok, err := f.svc.Duplicate(todo.ID)
	if err != nil || !ok {
		t.Fatalf("duplicate: ok=%v err=%v", ok, err)
	}
	if dup.ID == todo.ID || dup.Title != todo.Title || dup.Category != model.CategoryAdmin || dup.Priority != 2 {
		t.Fatalf("unexpected duplicate %+v", dup)
	}
	if dup.Milestones[0].ID == todo.Milestones[0].ID {
		t.Fatalf("duplicate milestones need fresh ids")
	}
	if !f.svc.Delete(todo.ID) || f.svc.Delete(todo.ID) {
		t.Fatalf("delete should succeed once")
	}
	if len(f.todos) != 1 {
		t.Fatalf("expected one todo left, got %d", len(f.todos))
	}
}

func TestMilestoneLifecycle(t *testing.T) {
	f := newFixture(t)
	todo, _ := f.svc.Add(AddInput{Title: "x", Quadrant: "q1"})
	m, err := f.svc.AddMilestone(todo.ID, model.Milestone{Title: "Step", Complexity: model.ComplexityLarge})
	if err != nil {
		t.Fatalf("add milestone: %v", err)
	}
	if m.Points != 20 || m.Status != model.MilestoneBacklog {
		t.Fatalf("unexpected milestone defaults %+v", m)
	}

	m, _ = f.svc.MoveMilestone(todo.ID, m.ID, -1)
	if m.Status != model.MilestoneBacklog {
		t.Fatalf("move left from backlog should stay, got %s", m.Status)
	}
	f.svc.MoveMilestone(todo.ID, m.ID, 1)
	m, _ = f.svc.MoveMilestone(todo.ID, m.ID, 1)
	if m.Status != model.MilestoneDone {
		t.Fatalf("expected done, got %s", m.Status)
	}
	f.svc.MoveMilestone(todo.ID, m.ID, 1)
	if len(f.rec.milestones) != 1 {
		t.Fatalf("expected one milestone award, got %v", f.rec.milestones)
	}

	note := "kept"
	updated, err := f.svc.UpdateMilestone(todo.ID, m.ID, MilestonePatch{Note: &note})
	if err != nil || updated.Note != "kept" {
		t.Fatalf("update milestone: %+v %v", updated, err)
	}
	if _, err := f.svc.UpdateMilestone(todo.ID, "missing", MilestonePatch{}); !errors.Is(err, ErrMilestoneNotFound) {
		t.Fatalf("expected ErrMilestoneNotFound, got %v", err)
	}
}

func TestKanbanCardMovesAndStampsDoneAt(t *testing.T) {
	f := newFixture(t)
	todo, _ := f.svc.Add(AddInput{Title: "Task", Quadrant: "q1"})
	if len(todo.Kanban.Columns) != 3 || len(todo.Kanban.Cards) != 0 {
		t.Fatalf("new todo should carry an empty default board: %+v", todo.Kanban)
	}
	card, err := f.svc.AddKanbanCard(todo.ID, " Subtask ", "Step")
	if err != nil {
		t.Fatalf("add card: %v", err)
	}
	if card.Title != "Subtask" || card.ColumnID != model.KanbanBacklog || card.DoneAt != nil {
		t.Fatalf("unexpected card %+v", card)
	}

	moved, err := f.svc.MoveKanbanCard(todo.ID, card.ID, 1)
	if err != nil {
		t.Fatalf("move card: %v", err)
	}
	if moved.ColumnID != model.KanbanDoing || f.todos[0].Kanban.Cards[0].ColumnID != model.KanbanDoing {
		t.Fatalf("expected card in doing, got %+v", f.todos[0].Kanban.Cards[0])
	}

	f.now = f.now.Add(time.Hour)
	moved, _ = f.svc.MoveKanbanCard(todo.ID, card.ID, 1)
	if moved.ColumnID != model.KanbanDone || moved.DoneAt == nil || !moved.DoneAt.Equal(f.now) {
		t.Fatalf("entering done should stamp done_at: %+v", moved)
	}
	if stay, _ := f.svc.MoveKanbanCard(todo.ID, card.ID, 1); stay.ColumnID != model.KanbanDone {
		t.Fatalf("moving past done must leave the card in place: %+v", stay)
	}

	moved, _ = f.svc.MoveKanbanCard(todo.ID, card.ID, -1)
	if moved.ColumnID != model.KanbanDoing || moved.DoneAt != nil {
		t.Fatalf("leaving done should clear done_at: %+v", moved)
	}
}

func TestKanbanUnknownTargets(t *testing.T) {
	f := newFixture(t)
	todo, _ := f.svc.Add(AddInput{Title: "Task", Quadrant: "q1"})
	if _, err := f.svc.AddKanbanCard("missing", "x", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.AddKanbanCard(todo.ID, "  ", ""); !errors.Is(err, model.ErrInvalidKanbanCard) {
		t.Fatalf("expected ErrInvalidKanbanCard, got %v", err)
	}
	if _, err := f.svc.MoveKanbanCard(todo.ID, "nope", 1); !errors.Is(err, ErrKanbanCardNotFound) {
		t.Fatalf("expected ErrKanbanCardNotFound, got %v", err)
	}
}

func TestSuccessorResetsKanbanCards(t *testing.T) {
	f := newFixture(t)
	due := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	todo, _ := f.svc.Add(AddInput{Title: "Stretch", Quadrant: "q2", DueDate: &due, Recurrence: model.RecurrenceDaily})
	card, _ := f.svc.AddKanbanCard(todo.ID, "Hamstrings", "")
	f.svc.MoveKanbanCard(todo.ID, card.ID, 1)
	f.svc.MoveKanbanCard(todo.ID, card.ID, 1)

	f.svc.Toggle(todo.ID)
	if len(f.todos) != 2 {
		t.Fatalf("expected a successor, got %d todos", len(f.todos))
	}
	next := f.todos[1].Kanban.Cards
	if len(next) != 1 || next[0].ColumnID != model.KanbanBacklog || next[0].DoneAt != nil || next[0].ID == card.ID {
		t.Fatalf("successor cards must be fresh backlog copies: %+v", next)
	}
	if prev := f.todos[0].Kanban.Cards[0]; prev.ColumnID != model.KanbanDone || prev.DoneAt == nil {
		t.Fatalf("completed instance board must be untouched: %+v", prev)
	}
}
