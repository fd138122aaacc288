package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var ErrInvalidKanbanCard = errors.New("model: invalid kanban card")

const (
	KanbanBacklog = "backlog"
	KanbanDoing   = "doing"
	KanbanDone    = "done"
)

type KanbanColumn struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
}

// KanbanCard is a sub-task on a todo's board. DoneAt is set only while the
// card sits in the done column.
type KanbanCard struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	DescriptionMD string     `json:"description_md"`
	ColumnID      string     `json:"column_id"`
	CreatedAt     time.Time  `json:"created_at"`
	DoneAt        *time.Time `json:"done_at"`
}

func (c KanbanCard) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidKanbanCard)
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidKanbanCard)
	}
	return nil
}

type TodoKanban struct {
	Columns []KanbanColumn `json:"columns"`
	Cards   []KanbanCard   `json:"cards"`
}

func DefaultKanbanColumns() []KanbanColumn {
	return []KanbanColumn{
		{ID: KanbanBacklog, Title: "Backlog", Order: 0},
		{ID: KanbanDoing, Title: "Doing", Order: 1},
		{ID: KanbanDone, Title: "Done", Order: 2},
	}
}

func DefaultKanban() TodoKanban {
	return TodoKanban{Columns: DefaultKanbanColumns(), Cards: []KanbanCard{}}
}

// EnsureDefaultColumns adds any missing default column, orders the columns
// and moves cards with an unknown column into the backlog.
func (k TodoKanban) EnsureDefaultColumns() TodoKanban {
	out := k.Clone()
	have := make(map[string]bool, len(out.Columns))
	for _, c := range out.Columns {
		have[c.ID] = true
	}
	for _, c := range DefaultKanbanColumns() {
		if !have[c.ID] {
			out.Columns = append(out.Columns, c)
			have[c.ID] = true
		}
	}
	sort.SliceStable(out.Columns, func(i, j int) bool { return out.Columns[i].Order < out.Columns[j].Order })
	if out.Cards == nil {
		out.Cards = []KanbanCard{}
	}
	done := out.DoneColumnID()
	for i := range out.Cards {
		if !have[out.Cards[i].ColumnID] {
			out.Cards[i].ColumnID = out.BacklogColumnID()
		}
		if out.Cards[i].ColumnID != done {
			out.Cards[i].DoneAt = nil
		}
	}
	return out
}

func (k TodoKanban) BacklogColumnID() string {
	if len(k.Columns) == 0 {
		return KanbanBacklog
	}
	return k.Columns[0].ID
}

func (k TodoKanban) DoneColumnID() string {
	for _, c := range k.Columns {
		if c.ID == KanbanDone {
			return c.ID
		}
	}
	if len(k.Columns) == 0 {
		return KanbanDone
	}
	return k.Columns[len(k.Columns)-1].ID
}

// Shift returns the column delta steps away from columnID. ok is false when
// the move would leave the board.
func (k TodoKanban) Shift(columnID string, delta int) (string, bool) {
	current := 0
	for i, c := range k.Columns {
		if c.ID == columnID {
			current = i
			break
		}
	}
	next := current + delta
	if next < 0 || next >= len(k.Columns) {
		return columnID, false
	}
	return k.Columns[next].ID, true
}

// DoneCount is the number of cards in the done column.
func (k TodoKanban) DoneCount() int {
	done := k.DoneColumnID()
	n := 0
	for _, c := range k.Cards {
		if c.ColumnID == done {
			n++
		}
	}
	return n
}

func (k TodoKanban) Card(id string) (KanbanCard, bool) {
	for _, c := range k.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return KanbanCard{}, false
}

func (k TodoKanban) Clone() TodoKanban {
	out := TodoKanban{Columns: append([]KanbanColumn(nil), k.Columns...)}
	if k.Cards != nil {
		out.Cards = make([]KanbanCard, len(k.Cards))
	}
	for i, c := range k.Cards {
		c.DoneAt = cloneTime(c.DoneAt)
		out.Cards[i] = c
	}
	return out
}
