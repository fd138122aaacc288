package journal

import (
	"errors"
	"sort"
	"strings"

	"github.com/sandeepkv93/gerris/internal/model"
)

var ErrMissingDate = errors.New("journal: entry date is required")

// Book owns the journal slice of the session, keyed by UTC date.
type Book struct {
	entries *map[model.Date]model.JournalEntry
}

func NewBook(entries *map[model.Date]model.JournalEntry) *Book {
	if *entries == nil {
		*entries = make(map[model.Date]model.JournalEntry)
	}
	return &Book{entries: entries}
}

func (b *Book) Entries() map[model.Date]model.JournalEntry {
	out := make(map[model.Date]model.JournalEntry, len(*b.entries))
	for d, e := range *b.entries {
		out[d] = e
	}
	return out
}

func (b *Book) Get(date model.Date) (model.JournalEntry, bool) {
	e, ok := (*b.entries)[date]
	return e, ok
}

// Upsert replaces the entry for its date.
func (b *Book) Upsert(entry model.JournalEntry) (model.JournalEntry, error) {
	if entry.Date.IsZero() {
		return model.JournalEntry{}, ErrMissingDate
	}
	entry.LinkedTodoIDs = mergeLinks(nil, entry.LinkedTodoIDs)
	(*b.entries)[entry.Date] = entry
	return entry, nil
}

// AppendLinks returns entry with ids added, skipping blanks and duplicates.
// It does not store the entry.
func AppendLinks(entry model.JournalEntry, ids []string) model.JournalEntry {
	entry.LinkedTodoIDs = mergeLinks(entry.LinkedTodoIDs, ids)
	return entry
}

func mergeLinks(existing, ids []string) []string {
	out := make([]string, 0, len(existing)+len(ids))
	seen := make(map[string]bool, len(existing)+len(ids))
	for _, id := range append(append([]string{}, existing...), ids...) {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// LinksByTodo maps each linked todo id to the entry dates mentioning it,
// newest first.
func (b *Book) LinksByTodo() map[string][]model.Date {
	out := make(map[string][]model.Date)
	for d, e := range *b.entries {
		for _, id := range e.LinkedTodoIDs {
			out[id] = append(out[id], d)
		}
	}
	for id := range out {
		dates := out[id]
		sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	}
	return out
}

// GratitudeSuggestions lists distinct gratitudes from all other entries in
// date order.
func (b *Book) GratitudeSuggestions(exclude model.Date) []string {
	dates := make([]model.Date, 0, len(*b.entries))
	for d := range *b.entries {
		if !exclude.IsZero() && d.Equal(exclude) {
			continue
		}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var out []string
	seen := make(map[string]bool)
	for _, d := range dates {
		for _, g := range (*b.entries)[d].Gratitudes {
			g = strings.TrimSpace(g)
			if g == "" || seen[g] {
				continue
			}
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}
