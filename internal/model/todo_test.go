package model

import (
	"errors"
	"testing"
	"time"
)

func validTodo() Todo {
	return Todo{
		ID:            "todo-1",
		Title:         "Send application",
		CreatedAt:     time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC),
		Quadrant:      QuadrantUrgentImportant,
		Category:      CategoryJobSearch,
		Priority:      2,
		Recurrence:    RecurrenceOnce,
		EmailReminder: EmailReminderNone,
	}
}

func TestTodoValidateSuccess(t *testing.T) {
	if err := validTodo().Validate(); err != nil {
		t.Fatalf("expected valid todo, got error: %v", err)
	}
}

func TestTodoValidateCompletedRequiresCompletedAt(t *testing.T) {
	todo := validTodo()
	todo.Completed = true
	err := todo.Validate()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "model: completed_at is required when todo is completed" {
		t.Fatalf("unexpected error: %v", err)
	}

	todo.Completed = false
	todo.CompletedAt = TimePtr(todo.CreatedAt)
	if err := todo.Validate(); err == nil {
		t.Fatal("expected error for completed_at on open todo")
	}
}

func TestTodoValidateInvalidEnums(t *testing.T) {
	todo := validTodo()
	todo.Quadrant = Quadrant("q9")
	if err := todo.Validate(); !errors.Is(err, ErrUnknownQuadrant) {
		t.Fatalf("expected ErrUnknownQuadrant, got: %v", err)
	}

	todo = validTodo()
	todo.Priority = 7
	if err := todo.Validate(); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got: %v", err)
	}

	todo = validTodo()
	todo.Category = Category("hobby")
	if err := todo.Validate(); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got: %v", err)
	}

	todo = validTodo()
	todo.Recurrence = RecurrencePattern("hourly")
	if err := todo.Validate(); !errors.Is(err, ErrInvalidRecurrence) {
		t.Fatalf("expected ErrInvalidRecurrence, got: %v", err)
	}
}

func TestTodoCloneIsDeep(t *testing.T) {
	todo := validTodo()
	todo.DueDate = TimePtr(time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC))
	todo.ProgressTarget = FloatPtr(5)
	todo.Milestones = []Milestone{{ID: "m1", Title: "Draft", Status: MilestoneBacklog, Complexity: ComplexitySmall}}
	todo.ProcessedProgressEvents = []string{"evt-1"}

	clone := todo.Clone()
	*clone.DueDate = clone.DueDate.Add(time.Hour)
	*clone.ProgressTarget = 9
	clone.Milestones[0].Status = MilestoneDone
	clone.ProcessedProgressEvents[0] = "changed"

	if todo.DueDate.Hour() != 9 || *todo.ProgressTarget != 5 {
		t.Fatalf("clone shares pointers with original")
	}
	if todo.Milestones[0].Status != MilestoneBacklog || todo.ProcessedProgressEvents[0] != "evt-1" {
		t.Fatalf("clone shares slices with original")
	}
}

func TestTodoProgressHelpers(t *testing.T) {
	todo := validTodo()
	if todo.TargetReached() || todo.ProgressRatio() != 0 {
		t.Fatal("todo without target should never report progress")
	}
	todo.ProgressTarget = FloatPtr(4)
	todo.ProgressCurrent = 6
	if !todo.TargetReached() || todo.ProgressRatio() != 1 {
		t.Fatalf("expected overshoot to clamp ratio, got %v", todo.ProgressRatio())
	}
}
