package ai

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/sandeepkv93/gerris/internal/model"
)

// Advisor answers suggestion requests with the AI client when one is
// configured and with deterministic heuristics otherwise.
type Advisor struct {
	client Client
	logger *slog.Logger
}

// NewAdvisor accepts a nil client; every suggestion then uses its fallback.
func NewAdvisor(client Client, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{client: client, logger: logger}
}

func (a *Advisor) Enabled() bool { return a != nil && a.client != nil }

func (a *Advisor) ask(ctx context.Context, req Request, out any) bool {
	if !a.Enabled() {
		return false
	}
	if err := a.client.Structured(ctx, req, out); err != nil {
		a.logger.Info("ai suggestion fell back", "schema", req.Schema, "err", err)
		return false
	}
	return true
}

func (a *Advisor) SuggestQuadrant(ctx context.Context, title string) Suggestion[QuadrantSuggestion] {
	if strings.TrimSpace(title) == "" {
		return Suggestion[QuadrantSuggestion]{Payload: FallbackQuadrant(title)}
	}
	var out QuadrantSuggestion
	ok := a.ask(ctx, Request{
		Schema: "todo_categorization",
		Messages: []Message{
			System("Classify the todo into an Eisenhower quadrant. Return a concise rationale. Use the schema strictly."),
			User("Todo: " + title),
		},
	}, &out)
	if ok {
		if _, err := model.ParseQuadrant(out.Quadrant); err == nil {
			return Suggestion[QuadrantSuggestion]{Payload: out, FromAI: true}
		}
	}
	return Suggestion[QuadrantSuggestion]{Payload: FallbackQuadrant(title)}
}

func FallbackQuadrant(title string) QuadrantSuggestion {
	lowered := strings.ToLower(title)
	switch {
	case containsAny(lowered, "urgent", "dringend", "heute"):
		return QuadrantSuggestion{Quadrant: string(model.QuadrantUrgentImportant), Rationale: "Urgency keywords found."}
	case containsAny(lowered, "planung", "strategie", "vision"):
		return QuadrantSuggestion{Quadrant: string(model.QuadrantNotUrgentImportant), Rationale: "Strategic context."}
	default:
		return QuadrantSuggestion{Quadrant: string(model.QuadrantNotUrgentNotImportant), Rationale: "Default fallback."}
	}
}

func (a *Advisor) SuggestGoals(ctx context.Context, stats model.KpiStats) Suggestion[GoalSuggestion] {
	var out GoalSuggestion
	ok := a.ask(ctx, Request{
		Reasoning: true,
		Schema:    "goal_suggestion",
		Messages: []Message{
			System("Generate a daily goal suggestion based on KPI stats. Keep numbers realistic and short."),
			User(fmt.Sprintf("Current KPIs: done_total=%d, done_today=%d, streak=%d, goal_daily=%d",
				stats.DoneTotal, stats.DoneToday, stats.Streak, stats.GoalDaily)),
		},
	}, &out)
	if ok && out.DailyGoal >= 1 {
		return Suggestion[GoalSuggestion]{Payload: out, FromAI: true}
	}
	return Suggestion[GoalSuggestion]{Payload: FallbackGoals(stats)}
}

func FallbackGoals(stats model.KpiStats) GoalSuggestion {
	goal := max(stats.GoalDaily, 1)
	focus := "Start calm."
	if stats.Streak >= 5 {
		goal++
		focus = "Keep the momentum."
	}
	return GoalSuggestion{
		DailyGoal: goal,
		Focus:     focus,
		Tips: []string{
			"Block 30 minutes for the most important task.",
			"Use the Eisenhower quadrants deliberately.",
		},
	}
}

const FallbackMotivation = "Keep going! Every task brings you closer to your goal."

func (a *Advisor) Motivate(ctx context.Context, stats model.KpiStats) Suggestion[string] {
	var out Motivation
	ok := a.ask(ctx, Request{
		Schema: "motivation",
		Messages: []Message{
			System("Craft a brief motivational sentence with the given tone."),
			User(fmt.Sprintf("KPIs: Total=%d, Today=%d, Streak=%d, Goal=%d",
				stats.DoneTotal, stats.DoneToday, stats.Streak, stats.GoalDaily)),
		},
	}, &out)
	if ok && strings.TrimSpace(out.Message) != "" {
		return Suggestion[string]{Payload: out.Message, FromAI: true}
	}
	return Suggestion[string]{Payload: FallbackMotivation}
}

func (a *Advisor) SuggestMilestones(ctx context.Context, title string, mode model.GamificationMode) Suggestion[MilestoneSuggestions] {
	if strings.TrimSpace(title) == "" {
		return Suggestion[MilestoneSuggestions]{Payload: FallbackMilestones(title)}
	}
	var out MilestoneSuggestions
	ok := a.ask(ctx, Request{
		Reasoning: true,
		Schema:    "milestone_suggestions",
		Messages: []Message{
			System("You generate concise milestones for a task. Return 3-5 items. Set complexity (small/medium/large) and keep rationales short."),
			User(fmt.Sprintf("Task: %s. Gamification mode: %s. Provide realistic, actionable sub-steps.", title, mode)),
		},
	}, &out)
	if ok && len(out.Milestones) > 0 {
		return Suggestion[MilestoneSuggestions]{Payload: out, FromAI: true}
	}
	return Suggestion[MilestoneSuggestions]{Payload: FallbackMilestones(title)}
}

func FallbackMilestones(title string) MilestoneSuggestions {
	base := strings.TrimSpace(title)
	if base == "" {
		base = "Task"
	}
	return MilestoneSuggestions{Milestones: []MilestoneSuggestion{
		{Title: fmt.Sprintf("Plan the first step (%s)", base), Complexity: string(model.ComplexitySmall), Rationale: "Fallback suggestion"},
		{Title: fmt.Sprintf("Document the midpoint (%s)", base), Complexity: string(model.ComplexityMedium), Rationale: "Fallback suggestion"},
		{Title: fmt.Sprintf("Finalize and test (%s)", base), Complexity: string(model.ComplexityLarge), Rationale: "Fallback suggestion"},
	}}
}

// MilestonesFrom converts suggestions into backlog milestones with default points.
func MilestonesFrom(s MilestoneSuggestions) []model.Milestone {
	out := make([]model.Milestone, 0, len(s.Milestones))
	for _, item := range s.Milestones {
		complexity := model.MilestoneComplexity(item.Complexity)
		if !complexity.IsValid() {
			complexity = model.ComplexityMedium
		}
		out = append(out, model.Milestone{
			Title:      item.Title,
			Complexity: complexity,
			Points:     complexity.DefaultPoints(),
			Status:     model.MilestoneBacklog,
			Note:       item.Rationale,
		})
	}
	return out
}

func (a *Advisor) SuggestDailyPlan(ctx context.Context, todos []model.Todo, stats model.KpiStats, journal map[model.Date]model.JournalEntry) Suggestion[DailyPlan] {
	open := openTodos(todos)
	mood := RecentMoodHint(journal)
	if len(open) > 0 {
		snapshot := make([]string, 0, 6)
		for _, t := range rankForFocus(open) {
			if len(snapshot) == 6 {
				break
			}
			due := "none"
			if t.DueDate != nil {
				due = t.DueDate.Format(time.RFC3339)
			}
			snapshot = append(snapshot, fmt.Sprintf("%s (quadrant=%s, priority=%d, due=%s)", t.Title, t.Quadrant, t.Priority, due))
		}
		if mood == "" {
			mood = "not provided"
		}
		var out DailyPlan
		ok := a.ask(ctx, Request{
			Reasoning: true,
			Schema:    "daily_plan",
			Messages: []Message{
				System("You are a daily planning coach. Analyse tasks by quadrant, priority and due date together with the current streak. Use recent mood notes. No diagnoses."),
				User(fmt.Sprintf("Context: streak=%d, daily goal=%d. Tasks: %s. Mood: %s.",
					stats.Streak, stats.GoalDaily, strings.Join(snapshot, "; "), mood)),
			},
		}, &out)
		if ok {
			return Suggestion[DailyPlan]{Payload: out, FromAI: true}
		}
	}
	return Suggestion[DailyPlan]{Payload: FallbackDailyPlan(todos, stats, journal)}
}

func FallbackDailyPlan(todos []model.Todo, stats model.KpiStats, journal map[model.Date]model.JournalEntry) DailyPlan {
	ranked := rankForFocus(openTodos(todos))
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	items := make([]FocusItem, 0, len(ranked))
	for _, t := range ranked {
		due := ""
		if t.DueDate != nil {
			due = model.DateOf(*t.DueDate).String()
		}
		items = append(items, FocusItem{
			Title:          t.Title,
			Quadrant:       string(t.Quadrant),
			DueDate:        due,
			Recommendation: "Start with this focus block, then sweep the urgent items.",
			PriorityHint:   fmt.Sprintf("Priority %d", t.Priority),
		})
	}
	streak := "New week, fresh start"
	if stats.Streak > 0 {
		streak = fmt.Sprintf("Streak: %d", stats.Streak)
	}
	mood := RecentMoodHint(journal)
	if mood == "" {
		mood = "Quick check-in: note energy and mood."
	}
	return DailyPlan{
		Headline:   "Today: schedule one important, non-urgent task. " + streak,
		MoodAdvice: mood,
		FocusItems: items,
		BufferTip:  "Add a 30-minute buffer after each block, especially if yesterday felt stressful.",
	}
}

// RecentMoodHint summarizes the most recent journal entry's moods and note.
func RecentMoodHint(journal map[model.Date]model.JournalEntry) string {
	var latest model.Date
	for d := range journal {
		if latest.IsZero() || d.After(latest) {
			latest = d
		}
	}
	if latest.IsZero() {
		return ""
	}
	entry := journal[latest]
	moods := make([]string, 0, len(entry.Moods))
	for _, m := range entry.Moods {
		if m = strings.TrimSpace(m); m != "" {
			moods = append(moods, m)
		}
	}
	note := strings.TrimSpace(entry.MoodNotes)
	switch {
	case len(moods) > 0 && note != "":
		return fmt.Sprintf("Latest mood entry: %s - %s", strings.Join(moods, ", "), note)
	case len(moods) > 0:
		return "Latest mood entry: " + strings.Join(moods, ", ")
	case note != "":
		return "Latest note: " + note
	default:
		return ""
	}
}

func openTodos(todos []model.Todo) []model.Todo {
	out := make([]model.Todo, 0, len(todos))
	for _, t := range todos {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

var quadrantRank = map[model.Quadrant]int{
	model.QuadrantUrgentImportant:       0,
	model.QuadrantNotUrgentImportant:    1,
	model.QuadrantUrgentNotImportant:    2,
	model.QuadrantNotUrgentNotImportant: 3,
}

// rankForFocus orders by quadrant, then due date (missing last), priority and
// creation time.
func rankForFocus(todos []model.Todo) []model.Todo {
	out := append([]model.Todo(nil), todos...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ra, okA := quadrantRank[a.Quadrant]
		if !okA {
			ra = 3
		}
		rb, okB := quadrantRank[b.Quadrant]
		if !okB {
			rb = 3
		}
		if ra != rb {
			return ra < rb
		}
		switch {
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
