package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"slices"
	"strings"

	"github.com/sandeepkv93/gerris/internal/model"
)

type Template struct {
	Title      string
	Body       string
	Categories []string
	Tones      []string
	Severity   string
}

// TemplateComposer picks a template deterministically from the event id,
// preferring templates tagged with the event's category.
type TemplateComposer struct{}

func (TemplateComposer) Compose(_ context.Context, ev model.CoachEvent) model.CoachMessage {
	return Select(ev)
}

func Select(ev model.CoachEvent) model.CoachMessage {
	pool := templatesFor(ev.Trigger)
	if len(pool) == 0 {
		return model.CoachMessage{
			EventID:   ev.EventID,
			Title:     "Coach note",
			Body:      "Default note",
			CreatedAt: ev.CreatedAt,
			Trigger:   ev.Trigger,
			Severity:  model.SeverityDefault,
			Context:   stringifyContext(ev.Context),
		}
	}
	candidates := pool
	if category := ev.ContextValue("category"); category != "" {
		var matches []Template
		for _, t := range pool {
			if slices.Contains(t.Categories, category) {
				matches = append(matches, t)
			}
		}
		if len(matches) > 0 {
			candidates = matches
		}
	}
	h := fnv.New32a()
	h.Write([]byte(ev.EventID))
	return candidates[h.Sum32()%uint32(len(candidates))].Render(ev)
}

func (t Template) Render(ev model.CoachEvent) model.CoachMessage {
	replacer := strings.NewReplacer(
		"{task_title}", valueOr(ev.ContextValue("task_title"), "task"),
		"{due_date}", valueOr(ev.ContextValue("due_date"), "soon"),
		"{quadrant}", ev.ContextValue("quadrant"),
		"{category}", ev.ContextValue("category"),
		"{streak}", ev.ContextValue("streak"),
		"{done_today}", ev.ContextValue("done_today"),
	)
	ctx := stringifyContext(ev.Context)
	ctx["category_tags"] = strings.Join(t.Categories, ",")
	ctx["tone_tags"] = strings.Join(t.Tones, ",")
	severity := t.Severity
	if severity == "" {
		severity = model.SeverityDefault
	}
	return model.CoachMessage{
		EventID:   ev.EventID,
		Title:     replacer.Replace(t.Title),
		Body:      replacer.Replace(t.Body),
		CreatedAt: ev.CreatedAt,
		Trigger:   ev.Trigger,
		Severity:  severity,
		Context:   ctx,
	}
}

func stringifyContext(in map[string]any) map[string]string {
	out := make(map[string]string, len(in)+2)
	for k, v := range in {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		case fmt.Stringer:
			out[k] = val.String()
		case int, int64, float64, bool:
			out[k] = fmt.Sprint(val)
		default:
			if raw, err := json.Marshal(val); err == nil {
				out[k] = string(raw)
			} else {
				out[k] = fmt.Sprint(val)
			}
		}
	}
	return out
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func templatesFor(trigger model.CoachTrigger) []Template {
	switch trigger {
	case model.TriggerTaskCompleted:
		return completedTemplates
	case model.TriggerOverdue:
		return overdueTemplates
	case model.TriggerDueSoon:
		return dueSoonTemplates
	case model.TriggerWeekly:
		return weeklyTemplates
	default:
		return completedTemplates
	}
}

var completedTemplates = []Template{
	{Title: "🚀 Application boost", Body: "Job search: '{task_title}' done. Every application counts.", Categories: []string{"job_search"}, Tones: []string{"focused", "encouraging"}},
	{Title: "📬 Documents ready", Body: "'{task_title}' is finished and your profile just got sharper.", Categories: []string{"job_search"}, Tones: []string{"positive", "short"}},
	{Title: "🧾 Admin sorted", Body: "Paperwork '{task_title}' is off the table. Breathing room unlocked.", Categories: []string{"admin"}, Tones: []string{"tough-love", "clear"}},
	{Title: "✅ Form freedom", Body: "'{task_title}' done: less stress, more focus.", Categories: []string{"admin"}, Tones: []string{"light", "humor"}},
	{Title: "💌 Family first", Body: "You made time for '{task_title}'. The people around you notice.", Categories: []string{"friends_family"}, Tones: []string{"warm"}},
	{Title: "🤝 Connection kept", Body: "'{task_title}' done. Small gestures hold relationships together.", Categories: []string{"friends_family"}, Tones: []string{"warm", "short"}},
	{Title: "🛡️ Boundary held", Body: "'{task_title}' is done. Another day on your own terms.", Categories: []string{"drugs"}, Tones: []string{"steady", "respectful"}},
	{Title: "🌿 Clear head", Body: "You followed through on '{task_title}'. That took strength.", Categories: []string{"drugs"}, Tones: []string{"calm"}},
	{Title: "⏰ Rhythm found", Body: "'{task_title}' ticked off. Structure carries the rest of the day.", Categories: []string{"daily_structure"}, Tones: []string{"calm", "structured"}},
	{Title: "🧱 Brick by brick", Body: "Routine '{task_title}' done. Days are built like this.", Categories: []string{"daily_structure"}, Tones: []string{"steady"}},
	{Title: "🎯 Done is done", Body: "'{task_title}' is complete. On to the next one.", Categories: []string{"general"}, Tones: []string{"short"}},
	{Title: "🔥 Streak alive", Body: "Streak at {streak} days. '{task_title}' keeps it burning.", Categories: []string{"general"}, Tones: []string{"celebratory"}, Severity: model.SeverityMilestone},
	{Title: "🏅 Daily count", Body: "{done_today} done today, including '{task_title}'.", Categories: []string{"general"}, Tones: []string{"celebratory"}, Severity: model.SeverityMilestone},
}

var overdueTemplates = []Template{
	{Title: "📌 Application waiting", Body: "'{task_title}' was due {due_date}. Ten minutes now beats a perfect draft later.", Categories: []string{"job_search"}, Tones: []string{"tough-love"}},
	{Title: "🗂️ Paperwork overdue", Body: "'{task_title}' has been waiting since {due_date}. Open it and do the first field.", Categories: []string{"admin"}, Tones: []string{"clear"}},
	{Title: "📞 Someone is waiting", Body: "'{task_title}' slipped past {due_date}. A short message still counts.", Categories: []string{"friends_family"}, Tones: []string{"warm"}},
	{Title: "🧭 Back on track", Body: "'{task_title}' is overdue. Pick it up gently, no judgement.", Categories: []string{"drugs"}, Tones: []string{"respectful"}},
	{Title: "⏳ Routine slipped", Body: "'{task_title}' was due {due_date}. Reset with the smallest step.", Categories: []string{"daily_structure"}, Tones: []string{"calm"}},
	{Title: "⚠️ Overdue", Body: "'{task_title}' was due {due_date}. Reschedule it or do it now.", Categories: []string{"general"}, Tones: []string{"clear"}},
	{Title: "🪓 Cut it down", Body: "'{task_title}' is overdue. Split it and finish one piece today.", Categories: []string{"general"}, Tones: []string{"tough-love"}},
}

var dueSoonTemplates = []Template{
	{Title: "🗓️ Deadline ahead", Body: "'{task_title}' is due {due_date}. Block a slot for it today.", Categories: []string{"job_search"}, Tones: []string{"focused"}},
	{Title: "📎 Admin incoming", Body: "'{task_title}' is due {due_date}. Gather the documents now.", Categories: []string{"admin"}, Tones: []string{"practical"}},
	{Title: "🎁 Plan ahead", Body: "'{task_title}' is coming up on {due_date}. A little prep goes a long way.", Categories: []string{"friends_family"}, Tones: []string{"warm"}},
	{Title: "🌤️ Heads up", Body: "'{task_title}' is due {due_date}. Plan support around it.", Categories: []string{"drugs"}, Tones: []string{"calm"}},
	{Title: "📐 Keep the frame", Body: "'{task_title}' is due {due_date}. Put it into tomorrow's structure.", Categories: []string{"daily_structure"}, Tones: []string{"structured"}},
	{Title: "⏱️ Due soon", Body: "'{task_title}' is due {due_date}. Starting early keeps it easy.", Categories: []string{"general"}, Tones: []string{"short"}},
}

var weeklyTemplates = []Template{
	{Title: "🌱 Mini milestones", Body: "Plan three small steps for next week. Start with the lightest.", Categories: []string{"general"}, Tones: []string{"positive"}, Severity: model.SeverityWeekly},
	{Title: "🏁 Close and preview", Body: "Kick off the review: celebrate wins and prioritize the rest.", Categories: []string{"general"}, Tones: []string{"encouraging"}, Severity: model.SeverityWeekly},
	{Title: "🧹 Weekly clean-up", Body: "Check the calendar, sort tasks, set the focus. Five minutes are enough.", Categories: []string{"general"}, Tones: []string{"light"}, Severity: model.SeverityWeekly},
	{Title: "🎛️ Focus switch", Body: "What will you drop this week? Prioritize boldly.", Categories: []string{"general"}, Tones: []string{"tough-love"}, Severity: model.SeverityWeekly},
	{Title: "🔍 Learning moment", Body: "Note one learning and one experiment for next week.", Categories: []string{"general"}, Tones: []string{"reflective"}, Severity: model.SeverityWeekly},
}
