package coach

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sandeepkv93/gerris/internal/kpi"
	"github.com/sandeepkv93/gerris/internal/model"
)

// RunDailyScan feeds the most overdue and the soonest due open todos through
// Handle and returns the messages that were accepted.
func (e *Engine) RunDailyScan(ctx context.Context, todos []model.Todo) []model.CoachMessage {
	now := e.now().UTC()
	overdue, dueSoon := partitionByDue(todos, now, e.cfg.DueSoonWindow)

	var accepted []model.CoachMessage
	for _, t := range head(overdue, e.cfg.OverdueLimit) {
		if msg, ok := e.Handle(ctx, OverdueEvent(t, now)); ok {
			accepted = append(accepted, msg)
		}
	}
	for _, t := range head(dueSoon, e.cfg.DueSoonLimit) {
		if msg, ok := e.Handle(ctx, DueSoonEvent(t, now)); ok {
			accepted = append(accepted, msg)
		}
	}
	return accepted
}

type WeeklyInput struct {
	Todos   []model.Todo
	Stats   model.KpiStats
	Journal map[model.Date]model.JournalEntry
}

// ScheduleWeeklyReview builds this ISO week's review event and handles it.
func (e *Engine) ScheduleWeeklyReview(ctx context.Context, in WeeklyInput) (model.CoachMessage, bool) {
	return e.Handle(ctx, e.WeeklyEvent(in))
}

func (e *Engine) WeeklyEvent(in WeeklyInput) model.CoachEvent {
	now := e.now().UTC()
	overdue, dueSoon := partitionByDue(in.Todos, now, e.cfg.WeeklyWindow)
	overdue = head(overdue, e.cfg.WeeklyTaskLimit)
	dueSoon = head(dueSoon, e.cfg.WeeklyTaskLimit)

	return model.CoachEvent{
		Trigger:   model.TriggerWeekly,
		EventID:   WeeklyEventID(now),
		CreatedAt: now,
		Context: map[string]any{
			"done_today":     in.Stats.DoneToday,
			"streak":         in.Stats.Streak,
			"weekly_done":    kpi.WeeklyDone(in.Stats, model.DateOf(now)),
			"overdue_tasks":  taskRefs(overdue),
			"due_soon_tasks": taskRefs(dueSoon),
			"categories":     summarizeCategories(in.Todos, overdue),
			"mood_summary":   SummarizeMoods(in.Journal, model.DateOf(now)),
		},
	}
}

// partitionByDue returns open todos that are overdue and those due within
// window, each sorted by due date.
func partitionByDue(todos []model.Todo, now time.Time, window time.Duration) (overdue, dueSoon []model.Todo) {
	limit := now.Add(window)
	for _, t := range todos {
		if t.Completed || t.DueDate == nil {
			continue
		}
		due := *t.DueDate
		switch {
		case due.Before(now):
			overdue = append(overdue, t)
		case !due.After(limit):
			dueSoon = append(dueSoon, t)
		}
	}
	byDue := func(list []model.Todo) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].DueDate.Before(*list[j].DueDate) })
	}
	byDue(overdue)
	byDue(dueSoon)
	return overdue, dueSoon
}

func head(todos []model.Todo, n int) []model.Todo {
	if n < 0 {
		n = 0
	}
	if len(todos) > n {
		return todos[:n]
	}
	return todos
}

func taskRefs(todos []model.Todo) []TaskRef {
	out := make([]TaskRef, 0, len(todos))
	for _, t := range todos {
		out = append(out, TaskRef{Title: t.Title, DueDate: t.DueDate.UTC().Format(time.RFC3339)})
	}
	return out
}

func summarizeCategories(todos, overdue []model.Todo) []CategorySummary {
	active := make(map[model.Category]int)
	for _, t := range todos {
		if !t.Completed {
			active[t.Category]++
		}
	}
	neglected := make(map[model.Category]int)
	for _, t := range overdue {
		neglected[t.Category]++
	}
	out := make([]CategorySummary, 0, len(active))
	for _, c := range model.Categories {
		if active[c] == 0 {
			continue
		}
		out = append(out, CategorySummary{Name: c.Label(), Active: active[c], Neglected: neglected[c]})
	}
	return out
}

// SummarizeMoods looks at journal entries from the last seven days.
func SummarizeMoods(journal map[model.Date]model.JournalEntry, today model.Date) MoodSummary {
	start := today.AddDays(-6)
	counts := make(map[string]int)
	var latest model.Date
	for d, entry := range journal {
		if d.Before(start) {
			continue
		}
		if latest.IsZero() || d.After(latest) {
			latest = d
		}
		for _, tag := range entry.Moods {
			if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
				counts[tag]++
			}
		}
	}
	if latest.IsZero() {
		return MoodSummary{TopTags: []string{}}
	}
	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if len(tags) > 3 {
		tags = tags[:3]
	}
	return MoodSummary{
		TopTags:    tags,
		LatestDate: latest.String(),
		LatestNote: strings.TrimSpace(journal[latest].MoodNotes),
	}
}
