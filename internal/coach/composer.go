package coach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sandeepkv93/gerris/internal/ai"
	"github.com/sandeepkv93/gerris/internal/model"
)

// AIComposer lets the model write weekly reviews. Everything else, and every
// failure, goes through the template composer.
type AIComposer struct {
	Client   ai.Client
	Enabled  func() bool
	Fallback Composer
	Logger   *slog.Logger
}

func (c AIComposer) Compose(ctx context.Context, ev model.CoachEvent) model.CoachMessage {
	fallback := c.Fallback
	if fallback == nil {
		fallback = TemplateComposer{}
	}
	if ev.Trigger != model.TriggerWeekly || c.Client == nil || (c.Enabled != nil && !c.Enabled()) {
		return fallback.Compose(ctx, ev)
	}

	var out ai.CoachMessagePayload
	err := c.Client.Structured(ctx, ai.Request{
		Reasoning: true,
		Schema:    "coach_message",
		Messages:  weeklyPrompt(ev),
	}, &out)
	if err != nil || strings.TrimSpace(out.Title) == "" || strings.TrimSpace(out.Body) == "" {
		if c.Logger != nil {
			c.Logger.Info("weekly review composed from template", "event_id", ev.EventID, "err", err)
		}
		return fallback.Compose(ctx, ev)
	}
	severity := out.Severity
	if severity == "" {
		severity = model.SeverityWeekly
	}
	return model.CoachMessage{
		EventID:   ev.EventID,
		Title:     out.Title,
		Body:      out.Body,
		CreatedAt: ev.CreatedAt,
		Trigger:   ev.Trigger,
		Severity:  severity,
		Context:   map[string]string{"source": "openai"},
	}
}

func weeklyPrompt(ev model.CoachEvent) []ai.Message {
	system := "You are a focused success coach writing short weekly reviews. " +
		"No medical advice, no diagnosis, no therapist role play. " +
		"Stay respectful and motivating. Always answer in the CoachMessage schema."
	user := fmt.Sprintf("Facts of the week:\n- Done today: %s\n- Weekly total: %s\n- Streak: %s\n- Overdue:\n%s\n- Due soon:\n%s\n- Categories: %s\n- Trigger: %s\n"+
		"Write a short weekly review of at most 4 sentences, cite task examples and point to clear next steps.",
		ev.ContextValue("done_today"),
		ev.ContextValue("weekly_done"),
		ev.ContextValue("streak"),
		formatTasks(ev.Context["overdue_tasks"]),
		formatTasks(ev.Context["due_soon_tasks"]),
		formatCategories(ev.Context["categories"]),
		ev.Trigger,
	)
	return []ai.Message{ai.System(system), ai.User(user)}
}

func formatTasks(v any) string {
	tasks, _ := v.([]TaskRef)
	if len(tasks) == 0 {
		return "-"
	}
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		due := t.DueDate
		if due == "" {
			due = "no date"
		}
		lines = append(lines, fmt.Sprintf("• %s (due: %s)", t.Title, due))
	}
	return strings.Join(lines, "\n")
}

func formatCategories(v any) string {
	cats, _ := v.([]CategorySummary)
	if len(cats) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(cats))
	for _, c := range cats {
		parts = append(parts, fmt.Sprintf("%s: active=%d, neglected=%d", c.Name, c.Active, c.Neglected))
	}
	return strings.Join(parts, " | ")
}
