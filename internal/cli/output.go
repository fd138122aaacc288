package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/sandeepkv93/gerris/internal/model"
	"github.com/sandeepkv93/gerris/internal/todos"
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
)

func newTable() *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	return tbl
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func writeTodos(w io.Writer, list []model.Todo, now time.Time) {
	if len(list) == 0 {
		_, _ = fmt.Fprintln(w, faint("no todos"))
		return
	}
	tbl := newTable()
	tbl.AddRow(bold("ID"), bold("Q"), bold("Title"), bold("Due"), bold("Progress"), bold("Category"))
	for _, q := range model.Quadrants {
		for _, t := range list {
			if t.Quadrant != q {
				continue
			}
			title := t.Title
			if t.Completed {
				title = green("✓ " + title)
			}
			due := ""
			if t.DueDate != nil {
				due = t.DueDate.UTC().Format("2006-01-02 15:04")
				if t.IsOverdue(now) {
					due = red(due)
				}
			}
			progress := ""
			if t.ProgressTarget != nil {
				progress = fmt.Sprintf("%g/%g %s", t.ProgressCurrent, *t.ProgressTarget, t.ProgressUnit)
			}
			tbl.AddRow(shortID(t.ID), q.ShortLabel(), title, due, strings.TrimSpace(progress), t.Category.Label())
		}
	}
	_, _ = fmt.Fprintln(w, tbl)
}

func writeCoach(w io.Writer, msgs []model.CoachMessage) {
	for _, m := range msgs {
		_, _ = fmt.Fprintf(w, "%s\n%s\n", bold(m.Title), m.Body)
	}
}

// resolveTodo finds the todo whose id starts with prefix.
func resolveTodo(list []model.Todo, prefix string) (model.Todo, error) {
	var found []model.Todo
	for _, t := range list {
		if t.ID == prefix {
			return t, nil
		}
		if strings.HasPrefix(t.ID, prefix) {
			found = append(found, t)
		}
	}
	switch len(found) {
	case 0:
		return model.Todo{}, fmt.Errorf("%w: %q", todos.ErrNotFound, prefix)
	case 1:
		return found[0], nil
	default:
		return model.Todo{}, fmt.Errorf("%q matches %d todos", prefix, len(found))
	}
}
