package todos

import (
	"github.com/google/uuid"

	"github.com/sandeepkv93/gerris/internal/gamification"
	"github.com/sandeepkv93/gerris/internal/model"
)

var recurrenceNamespace = uuid.MustParse("c1c4db05-050c-4b1a-9c8a-2f2b5756fa0c")

// SuccessorID derives the id of the instance spawned by one completion, so the
// same completion can never spawn twice.
func SuccessorID(completed model.Todo) string {
	return uuid.NewSHA1(recurrenceNamespace, []byte(gamification.CompletionToken(completed))).String()
}

// NewSuccessor builds the next occurrence of a completed recurring todo. It
// reports false for one-off todos, open todos and todos without a due date.
func NewSuccessor(completed model.Todo) (model.Todo, bool) {
	if completed.Recurrence == model.RecurrenceOnce || !completed.Completed || completed.CompletedAt == nil {
		return model.Todo{}, false
	}
	if completed.DueDate == nil {
		return model.Todo{}, false
	}
	due, ok := completed.Recurrence.Advance(*completed.DueDate)
	if !ok {
		return model.Todo{}, false
	}

	id := SuccessorID(completed)
	successor := completed.Clone()
	successor.ID = id
	successor.CreatedAt = completed.CompletedAt.UTC()
	successor.DueDate = model.TimePtr(due)
	successor.Completed = false
	successor.CompletedAt = nil
	successor.ProgressCurrent = 0
	successor.ProcessedProgressEvents = []string{}
	successor.ReminderSentAt = nil
	for i, m := range successor.Milestones {
		successor.Milestones[i].ID = uuid.NewSHA1(recurrenceNamespace, []byte(id+":"+m.ID)).String()
		successor.Milestones[i].Status = model.MilestoneBacklog
	}
	successor.Kanban = resetKanban(completed.Kanban, recurrenceNamespace, id)
	refreshReminder(&successor, nil)
	return successor, true
}

func (s *Service) spawnSuccessor(completed model.Todo) (model.Todo, bool) {
	successor, ok := NewSuccessor(completed)
	if !ok {
		return model.Todo{}, false
	}
	if i := s.index(successor.ID); i >= 0 {
		return (*s.todos)[i].Clone(), false
	}
	*s.todos = append(*s.todos, successor)
	return successor.Clone(), true
}
