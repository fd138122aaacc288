package model

import (
	"testing"
	"time"
)

func TestDefaultKanbanColumns(t *testing.T) {
	board := DefaultKanban()
	want := []string{KanbanBacklog, KanbanDoing, KanbanDone}
	if len(board.Columns) != len(want) {
		t.Fatalf("expected %d columns, got %d", len(want), len(board.Columns))
	}
	for i, id := range want {
		if board.Columns[i].ID != id || board.Columns[i].Title == "" {
			t.Fatalf("unexpected column %d: %+v", i, board.Columns[i])
		}
	}
	if board.BacklogColumnID() != KanbanBacklog || board.DoneColumnID() != KanbanDone {
		t.Fatalf("unexpected backlog/done ids: %s %s", board.BacklogColumnID(), board.DoneColumnID())
	}
}

func TestEnsureDefaultColumnsRepairsBoard(t *testing.T) {
	doneAt := time.Date(2025, 5, 5, 9, 0, 0, 0, time.UTC)
	board := TodoKanban{
		Columns: []KanbanColumn{{ID: KanbanDone, Title: "Done", Order: 2}},
		Cards: []KanbanCard{
			{ID: "c1", Title: "Orphan", ColumnID: "archive", DoneAt: &doneAt},
			{ID: "c2", Title: "Finished", ColumnID: KanbanDone, DoneAt: &doneAt},
		},
	}
	fixed := board.EnsureDefaultColumns()
	if len(fixed.Columns) != 3 || fixed.Columns[0].ID != KanbanBacklog || fixed.Columns[2].ID != KanbanDone {
		t.Fatalf("expected default columns in order, got %+v", fixed.Columns)
	}
	if fixed.Cards[0].ColumnID != KanbanBacklog || fixed.Cards[0].DoneAt != nil {
		t.Fatalf("orphan card should land in backlog without done_at: %+v", fixed.Cards[0])
	}
	if fixed.Cards[1].DoneAt == nil || fixed.DoneCount() != 1 {
		t.Fatalf("done card should keep done_at: %+v", fixed.Cards[1])
	}
	if len(board.Columns) != 1 || board.Cards[0].ColumnID != "archive" {
		t.Fatalf("input board must not be mutated")
	}
}

func TestKanbanShiftStopsAtEdges(t *testing.T) {
	board := DefaultKanban()
	if next, ok := board.Shift(KanbanBacklog, 1); !ok || next != KanbanDoing {
		t.Fatalf("expected doing, got %s %v", next, ok)
	}
	if _, ok := board.Shift(KanbanBacklog, -1); ok {
		t.Fatalf("moving left of backlog must fail")
	}
	if _, ok := board.Shift(KanbanDone, 1); ok {
		t.Fatalf("moving right of done must fail")
	}
}
