package kpi

import (
	"testing"

	"github.com/sandeepkv93/gerris/internal/model"
)

func TestWeeklyCompletionCounts(t *testing.T) {
	stats := model.DefaultKpiStats()
	RecordCompletion(&stats, day(1))
	RecordCompletion(&stats, day(9))
	RecordCompletion(&stats, day(9))

	counts := WeeklyCompletionCounts(stats, model.NewDate(2026, 2, 9))
	if len(counts) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(counts))
	}
	if counts[0].Date.String() != "2026-02-03" || counts[6].Completions != 2 {
		t.Fatalf("unexpected buckets: %+v", counts)
	}
	if WeeklyDone(stats, model.NewDate(2026, 2, 9)) != 2 {
		t.Fatalf("day 1 is outside the weekly window")
	}
}

func TestCategoryKPIs(t *testing.T) {
	now := day(9)
	todos := []model.Todo{
		{ID: "a", Category: model.CategoryAdmin, Completed: true, CompletedAt: model.TimePtr(day(8))},
		{ID: "b", Category: model.CategoryAdmin, Completed: true, CompletedAt: model.TimePtr(day(9))},
		{ID: "c", Category: model.CategoryAdmin},
		{ID: "d", Category: model.CategoryJobSearch},
	}
	kpis := CategoryKPIs(todos, map[model.Category]int{model.CategoryAdmin: 2}, now)
	var admin CategoryKPI
	for _, k := range kpis {
		if k.Category == model.CategoryAdmin {
			admin = k
		}
	}
	if admin.Open != 1 || admin.DoneTotal != 2 || admin.DoneToday != 1 || admin.Streak != 2 {
		t.Fatalf("unexpected admin kpi: %+v", admin)
	}
	if admin.GoalProgress != 0.5 {
		t.Fatalf("expected goal progress 0.5, got %v", admin.GoalProgress)
	}
}

func TestProgressToNextLevel(t *testing.T) {
	p := ProgressToNextLevel(model.GamificationState{Points: 135, Level: 2})
	if p.Points != 35 || p.Required != 100 || p.Ratio != 0.35 {
		t.Fatalf("unexpected level progress: %+v", p)
	}
}
