package ledger

import (
	"fmt"
	"testing"
)

func TestCapTailKeepsMostRecentInOrder(t *testing.T) {
	const limit = 10
	items := make([]string, 0, limit+50)
	for i := 0; i < limit+50; i++ {
		items = append(items, fmt.Sprintf("evt-%d", i))
	}
	got := CapTail(items, limit)
	if len(got) != limit {
		t.Fatalf("expected %d entries, got %d", limit, len(got))
	}
	for i, v := range got {
		want := fmt.Sprintf("evt-%d", 50+i)
		if v != want {
			t.Fatalf("entry %d = %q, want %q", i, v, want)
		}
	}
}

func TestCapTailNonPositiveClears(t *testing.T) {
	for _, limit := range []int{0, -3} {
		got := CapTail([]int{1, 2, 3}, limit)
		if got == nil || len(got) != 0 {
			t.Fatalf("limit %d: expected empty non-nil slice, got %#v", limit, got)
		}
	}
}

func TestCapTailDoesNotAlias(t *testing.T) {
	in := []int{1, 2, 3}
	out := CapTail(in, 5)
	out[0] = 99
	if in[0] != 1 {
		t.Fatalf("CapTail result aliases input")
	}
}

func TestRecordAndIsNew(t *testing.T) {
	var entries []string
	if !IsNew(entries, "a") {
		t.Fatal("expected a to be new in empty ledger")
	}
	entries = Record(entries, "a", 2)
	entries = Record(entries, "b", 2)
	if IsNew(entries, "a") || IsNew(entries, "b") {
		t.Fatalf("expected a and b recorded, got %v", entries)
	}
	entries = Record(entries, "c", 2)
	if !IsNew(entries, "a") {
		t.Fatalf("expected oldest entry evicted, got %v", entries)
	}
	if len(entries) != 2 || entries[0] != "b" || entries[1] != "c" {
		t.Fatalf("unexpected ledger: %v", entries)
	}
}
