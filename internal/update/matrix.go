package update

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/gerris/internal/commands"
	"github.com/sandeepkv93/gerris/internal/kpi"
	"github.com/sandeepkv93/gerris/internal/model"
	"github.com/sandeepkv93/gerris/internal/todos"
	"github.com/sandeepkv93/gerris/internal/views"
)

// visibleTodos returns the todos shown in the matrix in display order:
// quadrant by quadrant, then by priority. Completed todos are hidden unless
// ShowDone is set.
func (m Model) visibleTodos() []model.Todo {
	var out []model.Todo
	for _, q := range model.Quadrants {
		var cell []model.Todo
		for _, t := range m.Data.Todos {
			if t.Quadrant != q || (t.Completed && !m.ShowDone) {
				continue
			}
			cell = append(cell, t)
		}
		sortByPriority(cell)
		out = append(out, cell...)
	}
	return out
}

func sortByPriority(list []model.Todo) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Priority < list[j].Priority })
}

func (m Model) selected() (model.Todo, bool) {
	for _, t := range m.Data.Todos {
		if t.ID == m.SelectedID {
			return t, true
		}
	}
	return model.Todo{}, false
}

// syncSelection keeps SelectedID on a visible todo, falling back to the
// first one.
func (m *Model) syncSelection() {
	visible := m.visibleTodos()
	for _, t := range visible {
		if t.ID == m.SelectedID {
			return
		}
	}
	m.SelectedID = ""
	if len(visible) > 0 {
		m.SelectedID = visible[0].ID
	}
}

func (m *Model) moveSelection(delta int) {
	visible := m.visibleTodos()
	if len(visible) == 0 {
		return
	}
	cur := 0
	for i, t := range visible {
		if t.ID == m.SelectedID {
			cur = i
			break
		}
	}
	next := min(max(cur+delta, 0), len(visible)-1)
	m.SelectedID = visible[next].ID
}

// jumpQuadrant moves the selection to the first todo of the next non-empty
// quadrant.
func (m *Model) jumpQuadrant() {
	sel, ok := m.selected()
	start := 0
	if ok {
		for i, q := range model.Quadrants {
			if q == sel.Quadrant {
				start = i
			}
		}
	}
	visible := m.visibleTodos()
	for step := 1; step <= len(model.Quadrants); step++ {
		q := model.Quadrants[(start+step)%len(model.Quadrants)]
		for _, t := range visible {
			if t.Quadrant == q {
				m.SelectedID = t.ID
				return
			}
		}
	}
}

// resolveTarget maps a palette target to a todo id: a list number as shown
// in the matrix or a unique id prefix.
func (m Model) resolveTarget(target string) (string, error) {
	visible := m.visibleTodos()
	if n, err := strconv.Atoi(target); err == nil {
		if n < 1 || n > len(visible) {
			return "", fmt.Errorf("no todo number %d", n)
		}
		return visible[n-1].ID, nil
	}
	var found []string
	for _, t := range m.Data.Todos {
		if strings.HasPrefix(t.ID, target) {
			found = append(found, t.ID)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no todo matches %q", target)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%q matches %d todos", target, len(found))
	}
}

func (m Model) handleMatrixKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.moveSelection(1)
	case "k", "up":
		m.moveSelection(-1)
	case "tab":
		m.jumpQuadrant()
	case "a":
		m.Adding = true
		m.addInput.SetValue("")
		m.addInput.Focus()
		m.Status = StatusBar{Text: "new todo: enter to save, esc to cancel"}
	case " ", "enter":
		if sel, ok := m.selected(); ok {
			m = m.toggle(sel.ID)
		}
	case "+", "-":
		if sel, ok := m.selected(); ok {
			delta := 1.0
			if msg.String() == "-" {
				delta = -1
			}
			m = m.progress(sel.ID, delta)
		}
	case "x":
		if sel, ok := m.selected(); ok {
			m = m.apply(m.tracker.DeleteTodo(m.ctx, sel.ID), "deleted: "+sel.Title)
		}
	case "d":
		if sel, ok := m.selected(); ok {
			dup, err := m.tracker.DuplicateTodo(m.ctx, sel.ID)
			m = m.apply(err, "duplicated: "+sel.Title)
			if err == nil {
				m.SelectedID = dup.ID
			}
		}
	case "h", "l":
		if sel, ok := m.selected(); ok {
			m = m.shiftMilestone(sel, msg.String() == "l")
		}
	case "c":
		m.ShowDone = !m.ShowDone
		m.syncSelection()
	case "m":
		if sel, ok := m.selected(); ok {
			return m.startBusy(m.planCmd(sel.ID))
		}
	case "p":
		return m.startBusy(m.dailyPlanCmd())
	}
	return m, nil
}

func (m Model) toggle(id string) Model {
	todo, msgs, err := m.tracker.ToggleTodo(m.ctx, id)
	if err != nil {
		return m.apply(err, "")
	}
	text := "reopened: " + todo.Title
	if todo.Completed {
		text = "done: " + todo.Title
	}
	m = m.apply(nil, text)
	m.showCoach(msgs)
	return m
}

func (m Model) progress(id string, delta float64) Model {
	todo, msgs, err := m.tracker.ApplyProgress(m.ctx, id, delta, "")
	if err != nil {
		return m.apply(err, "")
	}
	text := fmt.Sprintf("progress: %s %g", todo.Title, todo.ProgressCurrent)
	if todo.ProgressTarget != nil {
		text += fmt.Sprintf("/%g", *todo.ProgressTarget)
	}
	if todo.Completed {
		text += " (done)"
	}
	m = m.apply(nil, text)
	m.showCoach(msgs)
	return m
}

// shiftMilestone moves the first milestone that can move in the given
// direction: forward from the most advanced open column, backward from done.
func (m Model) shiftMilestone(todo model.Todo, forward bool) Model {
	dir := -1
	if forward {
		dir = 1
	}
	for _, status := range []model.MilestoneStatus{model.MilestoneDoing, model.MilestoneBacklog, model.MilestoneDone} {
		for _, ms := range todo.Milestones {
			if ms.Status != status {
				continue
			}
			if _, ok := ms.Status.Shift(dir); !ok {
				continue
			}
			moved, err := m.tracker.MoveMilestone(m.ctx, todo.ID, ms.ID, dir)
			return m.apply(err, fmt.Sprintf("milestone %q: %s", moved.Title, moved.Status))
		}
	}
	m.Status = StatusBar{Text: "no milestone to move"}
	return m
}

func (m Model) handleAddKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.Adding = false
		m.addInput.Blur()
		m.Status = StatusBar{Text: "add cancelled"}
	case "enter":
		m.Adding = false
		m.addInput.Blur()
		raw := strings.TrimSpace(m.addInput.Value())
		m.addInput.SetValue("")
		if raw == "" {
			m.Status = StatusBar{Text: "add cancelled"}
			return m
		}
		cmd, err := commands.Parse("add " + raw)
		if err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m
		}
		return m.addTodo(*cmd.Add)
	default:
		if msg.Type == tea.KeyRunes {
			m.addInput.SetValue(m.addInput.Value() + string(msg.Runes))
			return m
		}
		m.addInput, _ = m.addInput.Update(msg)
	}
	return m
}

// addTodo defaults the quadrant to the one under the cursor.
func (m Model) addTodo(a commands.AddArgs) Model {
	in := todos.AddInput{Title: a.Title, Quadrant: a.Quadrant, DueDate: a.Due}
	if in.Quadrant == "" {
		in.Quadrant = string(model.QuadrantUrgentImportant)
		if sel, ok := m.selected(); ok {
			in.Quadrant = string(sel.Quadrant)
		}
	}
	if a.Category != "" {
		c, err := model.ParseCategory(a.Category)
		if err != nil {
			return m.apply(err, "")
		}
		in.Category = c
	}
	todo, err := m.tracker.AddTodo(m.ctx, in)
	m = m.apply(err, "added: "+todo.Title)
	if err == nil {
		m.SelectedID = todo.ID
	}
	return m
}

func (m Model) renderMatrixView() string {
	var cells []views.QuadrantData
	index := 0
	visible := m.visibleTodos()
	for _, q := range model.Quadrants {
		cell := views.QuadrantData{Quadrant: q}
		for _, t := range visible {
			if t.Quadrant != q {
				continue
			}
			index++
			item := views.MatrixItem{
				Index:   index,
				ID:      t.ID,
				Title:   t.Title,
				Done:    t.Completed,
				Overdue: t.IsOverdue(m.Data.Now),
			}
			if t.DueDate != nil {
				item.Due = t.DueDate.UTC().Format("01-02")
			}
			if t.ProgressTarget != nil {
				item.Progress = fmt.Sprintf("%d%%", int(t.ProgressRatio()*100))
			}
			cell.Items = append(cell.Items, item)
		}
		cells = append(cells, cell)
	}
	out := views.RenderMatrixPanel(views.MatrixPanelData{Quadrants: cells, SelectedID: m.SelectedID, Width: m.Width - 50})
	if m.Adding {
		out += "\n" + m.addInput.View()
	}
	return out
}

func (m Model) renderDetailPane() string {
	sel, ok := m.selected()
	if !ok {
		return views.RenderDetailPanel(views.DetailPanelData{})
	}
	var days []model.Date
	for d, e := range m.Data.Journal {
		for _, id := range e.LinkedTodoIDs {
			if id == sel.ID {
				days = append(days, d)
			}
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return views.RenderDetailPanel(views.DetailPanelData{
		Todo:         &sel,
		ProgressView: m.todoProgress.ViewAs(sel.ProgressRatio()),
		JournalDays:  days,
	})
}

func (m Model) renderStatsView() string {
	level := kpi.ProgressToNextLevel(m.Data.Gamification)
	return views.RenderStatsPanel(views.StatsPanelData{
		Stats:         m.Data.Stats,
		Gamification:  m.Data.Gamification,
		Mode:          m.Data.Settings.GamificationMode,
		Level:         level,
		LevelView:     m.levelProgress.ViewAs(level.Ratio),
		Weekly:        kpi.WeeklyCompletionCounts(m.Data.Stats, m.Today()),
		CategoryTable: m.categoryTable.View(),
	})
}
