package todos

import (
	"fmt"

	"github.com/sandeepkv93/gerris/internal/ledger"
	"github.com/sandeepkv93/gerris/internal/model"
)

// ApplyProgress adds delta to a todo's progress once per source event id.
// Progress is floored at zero but may overshoot the target. Reaching the
// target with auto-done enabled completes the todo and runs the completion
// pipeline exactly once.
func (s *Service) ApplyProgress(id string, delta float64, sourceEventID string) (model.Todo, error) {
	i := s.index(id)
	if i < 0 {
		return model.Todo{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	todo := &(*s.todos)[i]
	if !ledger.IsNew(todo.ProcessedProgressEvents, sourceEventID) {
		return todo.Clone(), nil
	}
	todo.ProcessedProgressEvents = ledger.Record(todo.ProcessedProgressEvents, sourceEventID, ledger.TodoProgressEventsLimit)

	previous := todo.ProgressCurrent
	todo.ProgressCurrent = max(previous+delta, 0)
	wasCompleted := todo.Completed

	if s.hooks.AwardProgress != nil {
		s.hooks.AwardProgress(todo.Clone(), previous, todo.ProgressCurrent)
	}
	return s.settle(i, wasCompleted), nil
}
