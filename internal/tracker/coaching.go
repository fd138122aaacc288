package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sandeepkv93/gerris/internal/ai"
	"github.com/sandeepkv93/gerris/internal/coach"
	"github.com/sandeepkv93/gerris/internal/journal"
	"github.com/sandeepkv93/gerris/internal/model"
)

var ErrInvalidMode = errors.New("tracker: invalid gamification mode")

func (t *Tracker) RunDailyScan(ctx context.Context) []model.CoachMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	msgs := t.coach.RunDailyScan(ctx, t.todos.List())
	t.commit(ctx)
	return msgs
}

// WeeklyReview handles this ISO week's review. The AI composer may write it,
// so the lock is held across the call; reviews are rare.
func (t *Tracker) WeeklyReview(ctx context.Context) (model.CoachMessage, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	msg, ok := t.coach.ScheduleWeeklyReview(ctx, coach.WeeklyInput{
		Todos:   t.todos.List(),
		Stats:   t.kpi.Stats(),
		Journal: t.journal.Entries(),
	})
	t.commit(ctx)
	return msg, ok
}

func (t *Tracker) SaveJournal(ctx context.Context, entry model.JournalEntry) (model.JournalEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	saved, err := t.journal.Upsert(entry)
	if err != nil {
		return model.JournalEntry{}, err
	}
	t.commit(ctx)
	return saved, nil
}

func (t *Tracker) JournalEntry(date model.Date) (model.JournalEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.journal.Get(date)
}

func (t *Tracker) JournalLinks() map[string][]model.Date {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.journal.LinksByTodo()
}

func (t *Tracker) GratitudeSuggestions(exclude model.Date) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.journal.GratitudeSuggestions(exclude)
}

// SuggestAlignment proposes actions for the entry of date. The model call
// runs without holding the lock.
func (t *Tracker) SuggestAlignment(ctx context.Context, date model.Date) (ai.Suggestion[journal.Alignment], error) {
	t.mu.Lock()
	entry, ok := t.journal.Get(date)
	list := t.todos.List()
	t.mu.Unlock()
	if !ok {
		return ai.Suggestion[journal.Alignment]{}, fmt.Errorf("%w: %s", ErrNoJournalEntry, date)
	}
	return t.aligner.Suggest(ctx, entry, list), nil
}

// ApplyAlignment applies one action and links its todo to the entry.
func (t *Tracker) ApplyAlignment(ctx context.Context, date model.Date, act journal.Action) (journal.Applied, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.journal.Get(date)
	if !ok {
		return journal.Applied{}, fmt.Errorf("%w: %s", ErrNoJournalEntry, date)
	}
	applied, err := journal.Apply(date, act, t.todos, t.game)
	if err == nil && act.TargetID != "" {
		if _, found := t.todos.Get(act.TargetID); found {
			_, err = t.journal.Upsert(journal.AppendLinks(entry, []string{act.TargetID}))
		}
	}
	t.commit(ctx)
	return applied, err
}

func (t *Tracker) Settings() model.Settings {
	t.mu.Lock()
	defer t.mu.Unlock()
	return cloneSettings(t.snap.Settings)
}

func (t *Tracker) SetAIEnabled(ctx context.Context, enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Settings.AIEnabled = enabled
	t.aiEnabled.Store(enabled)
	t.commit(ctx)
}

func (t *Tracker) SetGamificationMode(ctx context.Context, mode model.GamificationMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Settings.GamificationMode = mode
	t.commit(ctx)
	return nil
}

// SetCategoryGoal stores the daily goal for a category, at least 1.
func (t *Tracker) SetCategoryGoal(ctx context.Context, category model.Category, n int) error {
	if !category.IsValid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidCategory, category)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.snap.Settings.CategoryGoals == nil {
		t.snap.Settings.CategoryGoals = make(map[model.Category]int)
	}
	t.snap.Settings.CategoryGoals[category] = max(n, 1)
	t.commit(ctx)
	return nil
}

func (t *Tracker) SetReminderRecipient(ctx context.Context, email string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Settings.ReminderRecipient = strings.TrimSpace(email)
	t.commit(ctx)
}

func (t *Tracker) SuggestQuadrant(ctx context.Context, title string) ai.Suggestion[ai.QuadrantSuggestion] {
	return t.advisor.SuggestQuadrant(ctx, title)
}

func (t *Tracker) SuggestGoals(ctx context.Context) ai.Suggestion[ai.GoalSuggestion] {
	return t.advisor.SuggestGoals(ctx, t.stats())
}

func (t *Tracker) Motivate(ctx context.Context) ai.Suggestion[string] {
	return t.advisor.Motivate(ctx, t.stats())
}

func (t *Tracker) SuggestDailyPlan(ctx context.Context) ai.Suggestion[ai.DailyPlan] {
	t.mu.Lock()
	list := t.todos.List()
	stats := t.kpi.Stats()
	entries := t.journal.Entries()
	t.mu.Unlock()
	return t.advisor.SuggestDailyPlan(ctx, list, stats, entries)
}

func (t *Tracker) stats() model.KpiStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.kpi.Stats()
}
