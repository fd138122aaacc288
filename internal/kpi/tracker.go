package kpi

import (
	"time"

	"github.com/sandeepkv93/gerris/internal/ledger"
	"github.com/sandeepkv93/gerris/internal/model"
)

// Tracker owns the KPI slice of a session snapshot. Every accessor rolls the
// UTC day boundary forward first.
type Tracker struct {
	stats *model.KpiStats
	now   func() time.Time
}

func New(stats *model.KpiStats, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	if stats.GoalDaily < 1 {
		stats.GoalDaily = model.DefaultGoalDaily
	}
	return &Tracker{stats: stats, now: now}
}

// Stats returns a copy of the current KPIs after rolling the day boundary.
func (t *Tracker) Stats() model.KpiStats {
	today := model.DateOf(t.now())
	Rollover(t.stats, today)
	ensureDailyEntry(t.stats, t.stats.CurrentDay)
	return t.stats.Clone()
}

func (t *Tracker) RecordCompletion(completedAt time.Time) model.KpiStats {
	if completedAt.IsZero() {
		completedAt = t.now()
	}
	RecordCompletion(t.stats, completedAt)
	return t.stats.Clone()
}

func (t *Tracker) SetDailyGoal(n int) model.KpiStats {
	SetDailyGoal(t.stats, n)
	return t.stats.Clone()
}

// Rollover resets the daily counters once per UTC day transition and appends
// the finished day's goal flag to the goal history.
func Rollover(stats *model.KpiStats, today model.Date) {
	if stats.CurrentDay.IsZero() {
		stats.CurrentDay = today
		return
	}
	if stats.CurrentDay.Equal(today) {
		return
	}
	stats.GoalHistory = ledger.CapTail(append(stats.GoalHistory, stats.GoalHitToday), ledger.KpiHistoryLimit)
	stats.DoneToday = 0
	stats.GoalHitToday = false
	stats.CurrentDay = today
}

func ensureDailyEntry(stats *model.KpiStats, day model.Date) {
	if n := len(stats.DailyHistory); n > 0 && stats.DailyHistory[n-1].Date.Equal(day) {
		return
	}
	stats.DailyHistory = ledger.CapTail(
		append(stats.DailyHistory, model.KpiDailyEntry{Date: day}),
		ledger.KpiHistoryLimit,
	)
}

func RecordCompletion(stats *model.KpiStats, completedAt time.Time) {
	day := model.DateOf(completedAt)
	Rollover(stats, day)
	ensureDailyEntry(stats, day)

	switch {
	case stats.LastCompletionDate.IsZero():
		stats.Streak = 1
	default:
		switch day.DaysSince(stats.LastCompletionDate) {
		case 0:
		case 1:
			stats.Streak++
		default:
			stats.Streak = 1
		}
	}

	stats.DoneToday++
	stats.DoneTotal++
	stats.DailyHistory[len(stats.DailyHistory)-1].Completions++
	stats.GoalHitToday = stats.DoneToday >= stats.GoalDaily
	stats.LastCompletionDate = day
	stats.CurrentDay = day
}

func SetDailyGoal(stats *model.KpiStats, n int) {
	if n < 1 {
		n = 1
	}
	stats.GoalDaily = n
	stats.GoalHitToday = stats.DoneToday >= stats.GoalDaily
}
