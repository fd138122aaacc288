package gamification

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sandeepkv93/gerris/internal/ledger"
	"github.com/sandeepkv93/gerris/internal/model"
)

const (
	BadgeFirstStep     = "First step"
	BadgeStreak3       = "3-day streak"
	BadgeStreak7       = "7-day streak"
	BadgeStreak30      = "30-day streak"
	BadgeDoubleDigits  = "Double digits"
	BadgeTaskMaster    = "Task master (100 completions)"
	DefaultQuadrantPts = 10
)

var PointsPerQuadrant = map[model.Quadrant]int{
	model.QuadrantUrgentImportant:       20,
	model.QuadrantNotUrgentImportant:    15,
	model.QuadrantUrgentNotImportant:    10,
	model.QuadrantNotUrgentNotImportant: 5,
}

// Config holds the tunable reward constants. Progress thresholds are fractions
// of a todo's target; each one pays ProgressPoints once per todo.
type Config struct {
	ProgressThresholds []float64
	ProgressPoints     int
	MinMilestonePoints int
}

func DefaultConfig() Config {
	return Config{
		ProgressThresholds: []float64{0.25, 0.5, 0.75},
		ProgressPoints:     5,
		MinMilestonePoints: 5,
	}
}

type Engine struct {
	state  *model.GamificationState
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

type Options struct {
	Config Config
	Now    func() time.Time
	Logger *slog.Logger
}

func New(state *model.GamificationState, opts Options) *Engine {
	cfg := opts.Config
	if len(cfg.ProgressThresholds) == 0 && cfg.ProgressPoints == 0 && cfg.MinMilestonePoints == 0 {
		cfg = DefaultConfig()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if state.Level < 1 {
		state.Level = model.LevelFor(state.Points)
	}
	return &Engine{state: state, cfg: cfg, now: now, logger: logger}
}

func (e *Engine) State() model.GamificationState {
	return e.state.Clone()
}

// CompletionToken identifies one completion of one todo.
func CompletionToken(todo model.Todo) string {
	if todo.CompletedAt == nil {
		return ""
	}
	return todo.ID + ":" + todo.CompletedAt.UTC().Format(time.RFC3339Nano)
}

func ProgressToken(todoID string, threshold float64) string {
	return fmt.Sprintf("progress:%s:%d", todoID, int(threshold*100))
}

func MilestoneToken(todoID, milestoneID string) string {
	return "milestone:" + todoID + ":" + milestoneID
}

func JournalToken(entryDate model.Date, targetTitle string) string {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(targetTitle)), " ", "-")
	return "journal:" + entryDate.String() + ":" + normalized
}

// AwardCompletion pays quadrant points once per completion token and evaluates
// badges against stats. gained is zero on a no-op.
func (e *Engine) AwardCompletion(todo model.Todo, stats model.KpiStats) (model.GamificationState, int) {
	if !todo.Completed || todo.CompletedAt == nil {
		return e.State(), 0
	}
	token := CompletionToken(todo)
	if !ledger.IsNew(e.state.ProcessedCompletions, token) {
		return e.State(), 0
	}
	e.state.ProcessedCompletions = ledger.Record(e.state.ProcessedCompletions, token, ledger.ProcessedCompletionsLimit)

	points, ok := PointsPerQuadrant[todo.Quadrant]
	if !ok {
		points = DefaultQuadrantPts
	}
	e.addPoints(points)
	e.log(fmt.Sprintf("%s · %s: +%d points · token %s",
		todo.CompletedAt.UTC().Format(time.RFC3339), todo.Quadrant.ShortLabel(), points, token))
	e.assignBadges(stats)
	e.logger.Debug("completion awarded", "todo_id", todo.ID, "points", points, "total", e.state.Points)
	return e.State(), points
}

// AwardProgressDelta pays every configured threshold crossed by the move from
// previous to updated. Each threshold is deduplicated on its own token.
func (e *Engine) AwardProgressDelta(todo model.Todo, previous, updated float64) (model.GamificationState, int) {
	if todo.ProgressTarget == nil || *todo.ProgressTarget <= 0 {
		return e.State(), 0
	}
	target := *todo.ProgressTarget
	crossed := make([]string, 0, len(e.cfg.ProgressThresholds))
	for _, th := range e.cfg.ProgressThresholds {
		token := ProgressToken(todo.ID, th)
		if !ledger.IsNew(e.state.ProcessedProgressRewards, token) {
			continue
		}
		value := target * th
		if previous < value && value <= updated {
			e.state.ProcessedProgressRewards = ledger.Record(e.state.ProcessedProgressRewards, token, ledger.ProcessedProgressLimit)
			crossed = append(crossed, fmt.Sprintf("%d%%", int(th*100)))
		}
	}
	if len(crossed) == 0 {
		return e.State(), 0
	}
	gained := e.cfg.ProgressPoints * len(crossed)
	e.addPoints(gained)
	e.log(fmt.Sprintf("%s · progress on '%s' (%s) · +%d points",
		e.now().UTC().Format(time.RFC3339), todo.Title, strings.Join(crossed, ", "), gained))
	return e.State(), gained
}

// AwardMilestone pays max(milestone.Points, MinMilestonePoints) the first time
// a milestone is seen in the done column.
func (e *Engine) AwardMilestone(todo model.Todo, milestone model.Milestone) (model.GamificationState, int) {
	if milestone.Status != model.MilestoneDone {
		return e.State(), 0
	}
	token := MilestoneToken(todo.ID, milestone.ID)
	if !ledger.IsNew(e.state.ProcessedMilestoneEvents, token) {
		return e.State(), 0
	}
	points := milestone.Points
	if points < e.cfg.MinMilestonePoints {
		points = e.cfg.MinMilestonePoints
	}
	e.state.ProcessedMilestoneEvents = ledger.Record(e.state.ProcessedMilestoneEvents, token, ledger.ProcessedMilestoneLimit)
	e.addPoints(points)
	e.log(fmt.Sprintf("%s · milestone '%s' done: +%d points", e.now().UTC().Format(time.RFC3339), milestone.Title, points))
	return e.State(), points
}

// AwardJournalAlignment pays points once per (entry date, target title).
// Non-positive points are ignored without consuming the token.
func (e *Engine) AwardJournalAlignment(entryDate model.Date, targetTitle string, points int, rationale string) (model.GamificationState, int) {
	if points <= 0 {
		return e.State(), 0
	}
	token := JournalToken(entryDate, targetTitle)
	if !ledger.IsNew(e.state.ProcessedJournalEvents, token) {
		return e.State(), 0
	}
	e.state.ProcessedJournalEvents = ledger.Record(e.state.ProcessedJournalEvents, token, ledger.ProcessedJournalLimit)
	e.addPoints(points)
	e.log(fmt.Sprintf("%s · journal: +%d points for %s · %s", entryDate, points, targetTitle, rationale))
	return e.State(), points
}

func (e *Engine) addPoints(n int) {
	e.state.Points += n
	e.state.Level = model.LevelFor(e.state.Points)
}

func (e *Engine) log(line string) {
	e.state.History = ledger.CapTail(append(e.state.History, line), ledger.HistoryLimit)
}

func (e *Engine) assignBadges(stats model.KpiStats) {
	rules := []struct {
		badge string
		ok    bool
	}{
		{BadgeFirstStep, stats.DoneTotal >= 1},
		{BadgeStreak3, stats.Streak >= 3},
		{BadgeStreak7, stats.Streak >= 7},
		{BadgeStreak30, stats.Streak >= 30},
		{BadgeDoubleDigits, stats.DoneTotal >= 10},
		{BadgeTaskMaster, stats.DoneTotal >= 100},
	}
	for _, r := range rules {
		if r.ok && !e.state.HasBadge(r.badge) {
			e.state.Badges = append(e.state.Badges, r.badge)
		}
	}
}
