package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/gerris/internal/model"
	"github.com/sandeepkv93/gerris/internal/views"
)

// The commands below may wait on the model, so they run off the update loop
// and report back with an opDoneMsg.

func sourceLabel(fromAI bool) string {
	if fromAI {
		return "ai"
	}
	return "fallback"
}

func (m Model) planCmd(todoID string) tea.Cmd {
	tr, ctx := m.tracker, m.ctx
	return func() tea.Msg {
		planned, fromAI, err := tr.PlanMilestones(ctx, todoID)
		if err != nil {
			return opDoneMsg{Err: err}
		}
		var b strings.Builder
		b.WriteString("planned milestones:\n")
		for _, ms := range planned {
			b.WriteString(fmt.Sprintf("- %s (%d pts)\n", ms.Title, ms.Points))
		}
		return opDoneMsg{
			Status:  fmt.Sprintf("planned %d milestone(s) [%s]", len(planned), sourceLabel(fromAI)),
			Overlay: strings.TrimSpace(b.String()),
		}
	}
}

func (m Model) dailyPlanCmd() tea.Cmd {
	tr, ctx := m.tracker, m.ctx
	return func() tea.Msg {
		s := tr.SuggestDailyPlan(ctx)
		plan := s.Payload
		var b strings.Builder
		b.WriteString(plan.Headline + "\n")
		if plan.MoodAdvice != "" {
			b.WriteString(plan.MoodAdvice + "\n")
		}
		for _, item := range plan.FocusItems {
			line := fmt.Sprintf("- %s", item.Title)
			if q, err := model.ParseQuadrant(item.Quadrant); err == nil {
				line += " [" + q.ShortLabel() + "]"
			}
			if item.Recommendation != "" {
				line += ": " + item.Recommendation
			}
			b.WriteString(line + "\n")
		}
		if plan.BufferTip != "" {
			b.WriteString(plan.BufferTip)
		}
		return opDoneMsg{
			Status:  "daily plan ready [" + sourceLabel(s.FromAI) + "]",
			Overlay: strings.TrimSpace(b.String()),
		}
	}
}

func (m Model) weeklyCmd() tea.Cmd {
	tr, ctx := m.tracker, m.ctx
	return func() tea.Msg {
		msg, ok := tr.WeeklyReview(ctx)
		if !ok {
			return opDoneMsg{Status: "weekly review already delivered this week"}
		}
		return opDoneMsg{
			Status:  "weekly review delivered",
			Overlay: msg.Title + "\n" + views.RenderMarkdown(msg.Body),
		}
	}
}

func (m Model) alignCmd(date model.Date) tea.Cmd {
	tr, ctx := m.tracker, m.ctx
	return func() tea.Msg {
		s, err := tr.SuggestAlignment(ctx, date)
		if err != nil {
			return opDoneMsg{Err: err}
		}
		alignment := s.Payload
		return opDoneMsg{
			Status:    fmt.Sprintf("%d alignment action(s) [%s]; A applies them", len(alignment.Actions), sourceLabel(s.FromAI)),
			Alignment: &alignment,
		}
	}
}

func (m Model) motivateCmd() tea.Cmd {
	tr, ctx := m.tracker, m.ctx
	return func() tea.Msg {
		s := tr.Motivate(ctx)
		return opDoneMsg{
			Status:  "motivation [" + sourceLabel(s.FromAI) + "]",
			Overlay: s.Payload,
		}
	}
}

func (m Model) goalCmd() tea.Cmd {
	tr, ctx := m.tracker, m.ctx
	return func() tea.Msg {
		s := tr.SuggestGoals(ctx)
		g := s.Payload
		var b strings.Builder
		b.WriteString(fmt.Sprintf("suggested daily goal: %d\n", g.DailyGoal))
		if g.Focus != "" {
			b.WriteString("focus: " + g.Focus + "\n")
		}
		for _, tip := range g.Tips {
			b.WriteString("- " + tip + "\n")
		}
		b.WriteString(fmt.Sprintf("apply with /goal %d", g.DailyGoal))
		return opDoneMsg{
			Status:  "goal suggestion [" + sourceLabel(s.FromAI) + "]",
			Overlay: b.String(),
		}
	}
}
