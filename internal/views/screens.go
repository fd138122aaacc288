package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sandeepkv93/gerris/internal/kpi"
	"github.com/sandeepkv93/gerris/internal/model"
)

type MatrixItem struct {
	Index    int
	ID       string
	Title    string
	Due      string
	Overdue  bool
	Done     bool
	Progress string
}

type QuadrantData struct {
	Quadrant model.Quadrant
	Items    []MatrixItem
}

type MatrixPanelData struct {
	Quadrants  []QuadrantData
	SelectedID string
	Width      int
}

// RenderMatrixPanel lays the four quadrants out as a 2x2 grid in
// model.Quadrants order.
func RenderMatrixPanel(data MatrixPanelData) string {
	cellWidth := max(data.Width/2-4, 24)
	cells := make([]string, 0, len(data.Quadrants))
	for _, q := range data.Quadrants {
		style := panelStyle.
			Width(cellWidth).
			BorderForeground(lipgloss.Color(q.Quadrant.Color()))
		cells = append(cells, style.Render(renderQuadrant(q, data.SelectedID)))
	}
	for len(cells) < 4 {
		cells = append(cells, "")
	}
	top := lipgloss.JoinHorizontal(lipgloss.Top, cells[0], cells[1])
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, cells[2], cells[3])
	return lipgloss.JoinVertical(lipgloss.Left, top, bottom)
}

func renderQuadrant(q QuadrantData, selectedID string) string {
	var b strings.Builder
	b.WriteString(q.Quadrant.Label() + "\n")
	if len(q.Items) == 0 {
		b.WriteString(mutedStyle.Render("  (empty)"))
		return b.String()
	}
	for _, item := range q.Items {
		cursor := " "
		if item.ID == selectedID {
			cursor = ">"
		}
		check := "[ ]"
		if item.Done {
			check = "[x]"
		}
		line := fmt.Sprintf("%s %2d %s %s", cursor, item.Index, check, item.Title)
		if item.Progress != "" {
			line += " " + item.Progress
		}
		if item.Due != "" {
			due := "due:" + item.Due
			if item.Overdue {
				due = errorStyle.Render(due)
			}
			line += " " + due
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

type DetailPanelData struct {
	Todo         *model.Todo
	ProgressView string
	JournalDays  []model.Date
}

func RenderDetailPanel(data DetailPanelData) string {
	if data.Todo == nil {
		return "details:\n(no selection)"
	}
	t := data.Todo
	var b strings.Builder
	b.WriteString("details:\n")
	b.WriteString(headerStyle.Render(t.Title) + "\n")
	b.WriteString(fmt.Sprintf("quadrant: %s\n", t.Quadrant.Label()))
	b.WriteString(fmt.Sprintf("category: %s | priority: %d\n", t.Category.Label(), t.Priority))
	if t.DueDate != nil {
		b.WriteString(fmt.Sprintf("due: %s\n", t.DueDate.UTC().Format("2006-01-02 15:04")))
	}
	if t.Recurrence != model.RecurrenceOnce {
		b.WriteString(fmt.Sprintf("repeats: %s\n", t.Recurrence))
	}
	if t.EmailReminder != model.EmailReminderNone && t.ReminderAt != nil {
		sent := "pending"
		if t.ReminderSentAt != nil {
			sent = "sent"
		}
		b.WriteString(fmt.Sprintf("reminder: %s (%s)\n", t.ReminderAt.UTC().Format("2006-01-02 15:04"), sent))
	}
	if t.ProgressTarget != nil {
		b.WriteString(fmt.Sprintf("progress: %g/%g %s\n", t.ProgressCurrent, *t.ProgressTarget, t.ProgressUnit))
		if data.ProgressView != "" {
			b.WriteString(data.ProgressView + "\n")
		}
	}
	if len(t.Milestones) > 0 {
		b.WriteString("\nmilestones:\n")
		for _, status := range model.MilestoneStatuses {
			for _, m := range t.Milestones {
				if m.Status == status {
					b.WriteString(fmt.Sprintf("  [%s] %s (%d pts)\n", status, m.Title, m.Points))
				}
			}
		}
	}
	if cards := t.Kanban.Cards; len(cards) > 0 {
		b.WriteString(fmt.Sprintf("\nsubtasks: %d/%d done\n", t.Kanban.DoneCount(), len(cards)))
		for _, col := range t.Kanban.Columns {
			for _, c := range cards {
				if c.ColumnID == col.ID {
					b.WriteString(fmt.Sprintf("  [%s] %s\n", col.ID, c.Title))
				}
			}
		}
	}
	if md := RenderMarkdown(t.DescriptionMD); md != "" {
		b.WriteString("\n" + md + "\n")
	}
	if len(data.JournalDays) > 0 {
		days := make([]string, 0, len(data.JournalDays))
		for _, d := range data.JournalDays {
			days = append(days, d.String())
		}
		b.WriteString("journal: " + strings.Join(days, ", ") + "\n")
	}
	return strings.TrimSpace(b.String())
}

type StatsPanelData struct {
	Stats         model.KpiStats
	Gamification  model.GamificationState
	Mode          model.GamificationMode
	Level         kpi.LevelProgress
	LevelView     string
	Weekly        []kpi.DailyCount
	Categories    []kpi.CategoryKPI
	CategoryTable string // replaces the plain category list when set
}

func RenderStatsPanel(data StatsPanelData) string {
	s := data.Stats
	var b strings.Builder
	b.WriteString("stats:\n")
	goal := "open"
	if s.GoalHitToday {
		goal = "hit"
	}
	b.WriteString(fmt.Sprintf("today: %d/%d (%s) | total: %d | streak: %d\n", s.DoneToday, s.GoalDaily, goal, s.DoneTotal, s.Streak))

	switch data.Mode {
	case model.GamificationBadges:
		b.WriteString(fmt.Sprintf("badges: %d\n", len(data.Gamification.Badges)))
		for _, badge := range data.Gamification.Badges {
			b.WriteString("  * " + badge + "\n")
		}
	default:
		b.WriteString(fmt.Sprintf("level %d | %d points | %d/%d to next\n",
			data.Gamification.Level, data.Gamification.Points, data.Level.Points, data.Level.Required))
		if data.LevelView != "" {
			b.WriteString(data.LevelView + "\n")
		}
	}

	if len(data.Weekly) > 0 {
		b.WriteString("\nlast 7 days:\n")
		b.WriteString(Sparkline(data.Weekly) + "\n")
	}
	switch {
	case data.CategoryTable != "":
		b.WriteString("\ncategories:\n" + data.CategoryTable + "\n")
	case len(data.Categories) > 0:
		b.WriteString("\ncategories:\n")
		for _, c := range kpi.TopCategories(data.Categories) {
			b.WriteString(fmt.Sprintf("  %-16s open:%d today:%d/%d streak:%d\n",
				c.Category.Label(), c.Open, c.DoneToday, c.DailyGoal, c.Streak))
		}
	}
	return strings.TrimSpace(b.String())
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline scales daily completions to the week's maximum.
func Sparkline(days []kpi.DailyCount) string {
	peak := 0
	for _, d := range days {
		peak = max(peak, d.Completions)
	}
	var b strings.Builder
	for _, d := range days {
		i := 0
		if peak > 0 {
			i = d.Completions * (len(sparkRunes) - 1) / peak
		}
		b.WriteRune(sparkRunes[i])
	}
	return b.String()
}

// RenderCoachFeed shows the newest messages first.
func RenderCoachFeed(msgs []model.CoachMessage, limit int) string {
	var b strings.Builder
	b.WriteString("coach:\n")
	if len(msgs) == 0 {
		b.WriteString(mutedStyle.Render("(no messages yet)"))
		return b.String()
	}
	shown := 0
	for i := len(msgs) - 1; i >= 0 && shown < limit; i-- {
		m := msgs[i]
		b.WriteString(fmt.Sprintf("%s %s\n", m.CreatedAt.UTC().Format(time.DateOnly), headerStyle.Render(m.Title)))
		b.WriteString(RenderMarkdown(m.Body) + "\n")
		shown++
	}
	return strings.TrimSpace(b.String())
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: %s", input)
}

func RenderHelpPanel(view string, bindings []string, helpView string) string {
	return fmt.Sprintf("help:\n%s view:\n%s\n%s",
		strings.ToLower(view),
		strings.Join(bindings, "\n"),
		helpView,
	)
}
