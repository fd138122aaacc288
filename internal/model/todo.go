package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidPriority = errors.New("model: invalid todo priority")

const (
	MinPriority     = 1
	MaxPriority     = 5
	DefaultPriority = 3
)

type Todo struct {
	ID                        string              `json:"id"`
	Title                     string              `json:"title"`
	CreatedAt                 time.Time           `json:"created_at"`
	DueDate                   *time.Time          `json:"due_date"`
	Quadrant                  Quadrant            `json:"quadrant"`
	Category                  Category            `json:"category"`
	Priority                  int                 `json:"priority"`
	DescriptionMD             string              `json:"description_md"`
	Completed                 bool                `json:"completed"`
	CompletedAt               *time.Time          `json:"completed_at"`
	ProgressCurrent           float64             `json:"progress_current"`
	ProgressTarget            *float64            `json:"progress_target"`
	ProgressUnit              string              `json:"progress_unit"`
	AutoDoneWhenTargetReached bool                `json:"auto_done_when_target_reached"`
	CompletionCriteriaMD      string              `json:"completion_criteria_md"`
	Recurrence                RecurrencePattern   `json:"recurrence"`
	EmailReminder             EmailReminderOffset `json:"email_reminder"`
	ReminderAt                *time.Time          `json:"reminder_at"`
	ReminderSentAt            *time.Time          `json:"reminder_sent_at"`
	Milestones                []Milestone         `json:"milestones"`
	Kanban                    TodoKanban          `json:"kanban"`
	ProcessedProgressEvents   []string            `json:"processed_progress_events"`
}

func (t Todo) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: todo id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: todo title is required")
	}
	if !t.Quadrant.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownQuadrant, t.Quadrant)
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, t.Category)
	}
	if t.Priority < MinPriority || t.Priority > MaxPriority {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, t.Priority)
	}
	if !t.Recurrence.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRecurrence, t.Recurrence)
	}
	if !t.EmailReminder.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidReminderOffset, t.EmailReminder)
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: todo created_at is required")
	}
	if t.Completed && t.CompletedAt == nil {
		return errors.New("model: completed_at is required when todo is completed")
	}
	if !t.Completed && t.CompletedAt != nil {
		return errors.New("model: completed_at must be nil when todo is open")
	}
	if t.ProgressCurrent < 0 {
		return errors.New("model: progress_current must not be negative")
	}
	for _, m := range t.Milestones {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	for _, c := range t.Kanban.Cards {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// TargetReached reports whether a progress target is set and met.
func (t Todo) TargetReached() bool {
	return t.ProgressTarget != nil && t.ProgressCurrent >= *t.ProgressTarget
}

// ProgressRatio is current/target clamped to [0,1]; zero without a target.
func (t Todo) ProgressRatio() float64 {
	if t.ProgressTarget == nil || *t.ProgressTarget <= 0 {
		return 0
	}
	r := t.ProgressCurrent / *t.ProgressTarget
	if r > 1 {
		return 1
	}
	if r < 0 {
		return 0
	}
	return r
}

func (t Todo) IsOverdue(now time.Time) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(now)
}

func (t Todo) Milestone(id string) (Milestone, bool) {
	for _, m := range t.Milestones {
		if m.ID == id {
			return m, true
		}
	}
	return Milestone{}, false
}

// Clone returns a deep copy so callers can mutate it freely.
func (t Todo) Clone() Todo {
	out := t
	out.DueDate = cloneTime(t.DueDate)
	out.CompletedAt = cloneTime(t.CompletedAt)
	out.ReminderAt = cloneTime(t.ReminderAt)
	out.ReminderSentAt = cloneTime(t.ReminderSentAt)
	if t.ProgressTarget != nil {
		v := *t.ProgressTarget
		out.ProgressTarget = &v
	}
	out.Milestones = append([]Milestone(nil), t.Milestones...)
	out.Kanban = t.Kanban.Clone()
	out.ProcessedProgressEvents = append([]string(nil), t.ProcessedProgressEvents...)
	return out
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// TimePtr is a small helper for optional timestamps in literals.
func TimePtr(t time.Time) *time.Time { return &t }

func FloatPtr(v float64) *float64 { return &v }
