package todos

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sandeepkv93/gerris/internal/model"
)

var ErrKanbanCardNotFound = errors.New("todos: kanban card not found")

// AddKanbanCard puts a new card in the todo's backlog column.
func (s *Service) AddKanbanCard(todoID, title, descriptionMD string) (model.KanbanCard, error) {
	i := s.index(todoID)
	if i < 0 {
		return model.KanbanCard{}, fmt.Errorf("%w: %q", ErrNotFound, todoID)
	}
	todo := &(*s.todos)[i]
	board := todo.Kanban.EnsureDefaultColumns()
	card := model.KanbanCard{
		ID:            s.newID(),
		Title:         strings.TrimSpace(title),
		DescriptionMD: descriptionMD,
		ColumnID:      board.BacklogColumnID(),
		CreatedAt:     s.now().UTC(),
	}
	if err := card.Validate(); err != nil {
		return model.KanbanCard{}, err
	}
	board.Cards = append(board.Cards, card)
	todo.Kanban = board
	return card, nil
}

// MoveKanbanCard shifts a card one column left (negative) or right. Entering
// the done column stamps DoneAt; any other column clears it. Moving past
// either end leaves the card in place.
func (s *Service) MoveKanbanCard(todoID, cardID string, direction int) (model.KanbanCard, error) {
	i := s.index(todoID)
	if i < 0 {
		return model.KanbanCard{}, fmt.Errorf("%w: %q", ErrNotFound, todoID)
	}
	todo := &(*s.todos)[i]
	board := todo.Kanban.EnsureDefaultColumns()
	for j := range board.Cards {
		card := &board.Cards[j]
		if card.ID != cardID {
			continue
		}
		next, ok := board.Shift(card.ColumnID, direction)
		if !ok {
			return *card, nil
		}
		card.ColumnID = next
		card.DoneAt = nil
		if next == board.DoneColumnID() {
			at := s.now().UTC()
			card.DoneAt = &at
		}
		todo.Kanban = board
		return *card, nil
	}
	return model.KanbanCard{}, fmt.Errorf("%w: %q", ErrKanbanCardNotFound, cardID)
}

// resetKanban returns a copy of the board with every card back in the
// backlog. ids derive from prefix so a repeated reset is stable.
func resetKanban(board model.TodoKanban, namespace uuid.UUID, prefix string) model.TodoKanban {
	out := board.EnsureDefaultColumns()
	for i, c := range out.Cards {
		out.Cards[i].ID = uuid.NewSHA1(namespace, []byte(prefix+":"+c.ID)).String()
		out.Cards[i].ColumnID = out.BacklogColumnID()
		out.Cards[i].DoneAt = nil
	}
	return out
}
