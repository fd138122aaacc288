// Package reminders decides which todos need an email reminder and delivers
// them through a transactional mail API.
package reminders

import (
	"time"

	"github.com/sandeepkv93/gerris/internal/model"
)

// ReminderAt prefers the stored reminder instant and falls back to
// recomputing it from the due date and offset.
func ReminderAt(todo model.Todo) *time.Time {
	if todo.ReminderAt != nil {
		at := todo.ReminderAt.UTC()
		return &at
	}
	return todo.EmailReminder.ReminderAt(todo.DueDate)
}

// IsDue reports whether a reminder for todo should go out now. Reminders in
// the past that were never sent are still due.
func IsDue(todo model.Todo, now time.Time, lookahead time.Duration) bool {
	if todo.Completed || todo.EmailReminder == model.EmailReminderNone || todo.EmailReminder == "" {
		return false
	}
	if todo.ReminderSentAt != nil {
		return false
	}
	at := ReminderAt(todo)
	if at == nil {
		return false
	}
	return !at.After(now.UTC().Add(lookahead))
}

// Pending lists open todos with an unsent reminder that is not due yet.
func Pending(todos []model.Todo, now time.Time, lookahead time.Duration) []model.Todo {
	var out []model.Todo
	for _, todo := range todos {
		if todo.Completed || todo.ReminderSentAt != nil || todo.EmailReminder == model.EmailReminderNone {
			continue
		}
		if ReminderAt(todo) == nil || IsDue(todo, now, lookahead) {
			continue
		}
		out = append(out, todo)
	}
	return out
}
