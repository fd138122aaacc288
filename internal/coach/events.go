package coach

import (
	"fmt"
	"time"

	"github.com/sandeepkv93/gerris/internal/gamification"
	"github.com/sandeepkv93/gerris/internal/model"
)

// CompletionEvent keys the event on the completion token, so the same
// completion always maps to the same event id.
func CompletionEvent(todo model.Todo, now time.Time) model.CoachEvent {
	at := now.UTC()
	if todo.CompletedAt != nil {
		at = todo.CompletedAt.UTC()
	}
	stamped := todo
	stamped.CompletedAt = &at
	token := gamification.CompletionToken(stamped)
	return model.CoachEvent{
		Trigger:   model.TriggerTaskCompleted,
		EventID:   "coach:task_completed:" + token,
		CreatedAt: at,
		Context: map[string]any{
			"task_id":          todo.ID,
			"task_title":       todo.Title,
			"category":         string(todo.Category),
			"quadrant":         string(todo.Quadrant),
			"completion_token": token,
		},
	}
}

func OverdueEvent(todo model.Todo, now time.Time) model.CoachEvent {
	return taskEvent(model.TriggerOverdue, todo, now)
}

func DueSoonEvent(todo model.Todo, now time.Time) model.CoachEvent {
	return taskEvent(model.TriggerDueSoon, todo, now)
}

// taskEvent embeds the scan day in the id; rescans on the same day collide.
func taskEvent(trigger model.CoachTrigger, todo model.Todo, now time.Time) model.CoachEvent {
	due := ""
	if todo.DueDate != nil {
		due = todo.DueDate.UTC().Format(time.RFC3339)
	}
	return model.CoachEvent{
		Trigger:   trigger,
		EventID:   fmt.Sprintf("coach:%s:%s:%s", trigger, todo.ID, model.DateOf(now)),
		CreatedAt: now.UTC(),
		Context: map[string]any{
			"task_id":    todo.ID,
			"task_title": todo.Title,
			"category":   string(todo.Category),
			"quadrant":   string(todo.Quadrant),
			"due_date":   due,
		},
	}
}

func WeeklyEventID(now time.Time) string {
	year, week := now.UTC().ISOWeek()
	return fmt.Sprintf("coach:weekly:%d-W%02d", year, week)
}

type TaskRef struct {
	Title   string `json:"title"`
	DueDate string `json:"due_date"`
}

type CategorySummary struct {
	Name      string `json:"name"`
	Active    int    `json:"active"`
	Neglected int    `json:"neglected"`
}

type MoodSummary struct {
	TopTags    []string `json:"top_tags"`
	LatestDate string   `json:"latest_date"`
	LatestNote string   `json:"latest_note"`
}
