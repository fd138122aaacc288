package model

const DefaultGoalDaily = 3

type KpiDailyEntry struct {
	Date        Date `json:"date"`
	Completions int  `json:"completions"`
}

type KpiStats struct {
	DoneTotal          int             `json:"done_total"`
	DoneToday          int             `json:"done_today"`
	Streak             int             `json:"streak"`
	GoalDaily          int             `json:"goal_daily"`
	GoalHitToday       bool            `json:"goal_hit_today"`
	GoalHistory        []bool          `json:"goal_history"`
	DailyHistory       []KpiDailyEntry `json:"daily_history"`
	LastCompletionDate Date            `json:"last_completion_date"`
	CurrentDay         Date            `json:"current_day"`
}

func DefaultKpiStats() KpiStats {
	return KpiStats{
		GoalDaily:    DefaultGoalDaily,
		GoalHistory:  []bool{},
		DailyHistory: []KpiDailyEntry{},
	}
}

func (s KpiStats) Clone() KpiStats {
	out := s
	out.GoalHistory = append([]bool{}, s.GoalHistory...)
	out.DailyHistory = append([]KpiDailyEntry{}, s.DailyHistory...)
	return out
}

type GamificationMode string

const (
	GamificationPoints GamificationMode = "points"
	GamificationBadges GamificationMode = "badges"
	GamificationAvatar GamificationMode = "avatar"
)

func (m GamificationMode) IsValid() bool {
	switch m {
	case GamificationPoints, GamificationBadges, GamificationAvatar:
		return true
	default:
		return false
	}
}

type GamificationState struct {
	Points                   int      `json:"points"`
	Level                    int      `json:"level"`
	Badges                   []string `json:"badges"`
	History                  []string `json:"history"`
	ProcessedCompletions     []string `json:"processed_completions"`
	ProcessedProgressRewards []string `json:"processed_progress_rewards"`
	ProcessedMilestoneEvents []string `json:"processed_milestone_events"`
	ProcessedJournalEvents   []string `json:"processed_journal_events"`
}

func DefaultGamificationState() GamificationState {
	return GamificationState{
		Level:                    1,
		Badges:                   []string{},
		History:                  []string{},
		ProcessedCompletions:     []string{},
		ProcessedProgressRewards: []string{},
		ProcessedMilestoneEvents: []string{},
		ProcessedJournalEvents:   []string{},
	}
}

func (g GamificationState) Clone() GamificationState {
	out := g
	out.Badges = append([]string{}, g.Badges...)
	out.History = append([]string{}, g.History...)
	out.ProcessedCompletions = append([]string{}, g.ProcessedCompletions...)
	out.ProcessedProgressRewards = append([]string{}, g.ProcessedProgressRewards...)
	out.ProcessedMilestoneEvents = append([]string{}, g.ProcessedMilestoneEvents...)
	out.ProcessedJournalEvents = append([]string{}, g.ProcessedJournalEvents...)
	return out
}

// LevelFor derives the level from a point total.
func LevelFor(points int) int {
	level := 1 + points/100
	if level < 1 {
		return 1
	}
	return level
}

func (g GamificationState) HasBadge(name string) bool {
	for _, b := range g.Badges {
		if b == name {
			return true
		}
	}
	return false
}
