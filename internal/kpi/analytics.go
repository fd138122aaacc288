package kpi

import (
	"sort"
	"time"

	"github.com/sandeepkv93/gerris/internal/model"
)

type DailyCount struct {
	Date        model.Date
	Completions int
}

// WeeklyCompletionCounts returns seven buckets ending at today, oldest first.
func WeeklyCompletionCounts(stats model.KpiStats, today model.Date) []DailyCount {
	lookup := make(map[model.Date]int, len(stats.DailyHistory))
	for _, e := range stats.DailyHistory {
		lookup[e.Date] = e.Completions
	}
	out := make([]DailyCount, 0, 7)
	for offset := 6; offset >= 0; offset-- {
		day := today.AddDays(-offset)
		out = append(out, DailyCount{Date: day, Completions: lookup[day]})
	}
	return out
}

// WeeklyDone sums completions over the last seven days including today.
func WeeklyDone(stats model.KpiStats, today model.Date) int {
	total := 0
	for _, c := range WeeklyCompletionCounts(stats, today) {
		total += c.Completions
	}
	return total
}

type CategoryKPI struct {
	Category     model.Category
	Open         int
	DoneTotal    int
	DoneToday    int
	Streak       int
	DailyGoal    int
	GoalProgress float64
}

// CategoryKPIs derives per-category counters from completion timestamps.
func CategoryKPIs(todos []model.Todo, goals map[model.Category]int, now time.Time) []CategoryKPI {
	today := model.DateOf(now)
	days := make(map[model.Category]map[model.Date]bool, len(model.Categories))
	out := make([]CategoryKPI, 0, len(model.Categories))
	index := make(map[model.Category]int, len(model.Categories))
	for _, c := range model.Categories {
		goal := goals[c]
		if goal < 1 {
			goal = 1
		}
		index[c] = len(out)
		out = append(out, CategoryKPI{Category: c, DailyGoal: goal})
		days[c] = make(map[model.Date]bool)
	}

	for _, todo := range todos {
		i, ok := index[todo.Category]
		if !ok {
			continue
		}
		if !todo.Completed || todo.CompletedAt == nil {
			out[i].Open++
			continue
		}
		out[i].DoneTotal++
		day := model.DateOf(*todo.CompletedAt)
		days[todo.Category][day] = true
		if day.Equal(today) {
			out[i].DoneToday++
		}
	}

	for i := range out {
		out[i].Streak = streakEndingAt(days[out[i].Category], today)
		p := float64(out[i].DoneToday) / float64(out[i].DailyGoal)
		if p > 1 {
			p = 1
		}
		out[i].GoalProgress = p
	}
	return out
}

// streakEndingAt counts consecutive active days ending today, or yesterday
// when nothing was done yet today.
func streakEndingAt(active map[model.Date]bool, today model.Date) int {
	cursor := today
	if !active[cursor] {
		cursor = today.AddDays(-1)
	}
	streak := 0
	for active[cursor] {
		streak++
		cursor = cursor.AddDays(-1)
	}
	return streak
}

type LevelProgress struct {
	Points   int
	Required int
	Ratio    float64
}

// ProgressToNextLevel reports the points earned inside the current level.
func ProgressToNextLevel(state model.GamificationState) LevelProgress {
	level := state.Level
	if level < 1 {
		level = 1
	}
	floor := (level - 1) * 100
	required := level*100 - floor
	if required < 1 {
		required = 1
	}
	points := state.Points - floor
	if points < 0 {
		points = 0
	}
	ratio := float64(points) / float64(required)
	if ratio > 1 {
		ratio = 1
	}
	return LevelProgress{Points: points, Required: required, Ratio: ratio}
}

// TopCategories orders categories by open count, most loaded first.
func TopCategories(kpis []CategoryKPI) []CategoryKPI {
	out := append([]CategoryKPI(nil), kpis...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Open > out[j].Open })
	return out
}
