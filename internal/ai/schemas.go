package ai

type QuadrantSuggestion struct {
	Quadrant  string `json:"quadrant" description:"Target Eisenhower quadrant" enum:"urgent_important,not_urgent_important,urgent_not_important,not_urgent_not_important"`
	Rationale string `json:"rationale" description:"Brief rationale for the classification"`
}

type GoalSuggestion struct {
	DailyGoal int      `json:"daily_goal" description:"Daily completion target, at least 1"`
	Focus     string   `json:"focus" description:"Suggested focus for today"`
	Tips      []string `json:"tips" description:"Concrete tips to reach the goal"`
}

type Motivation struct {
	Message string `json:"message" description:"Motivational message"`
	Tone    string `json:"tone" enum:"encouraging,calm,celebratory"`
}

type MilestoneSuggestion struct {
	Title      string `json:"title"`
	Complexity string `json:"complexity" enum:"small,medium,large"`
	Rationale  string `json:"rationale"`
}

type MilestoneSuggestions struct {
	Milestones []MilestoneSuggestion `json:"milestones"`
}

type FocusItem struct {
	Title          string `json:"title"`
	Quadrant       string `json:"quadrant" enum:"urgent_important,not_urgent_important,urgent_not_important,not_urgent_not_important"`
	DueDate        string `json:"due_date" description:"YYYY-MM-DD or empty"`
	Recommendation string `json:"recommendation"`
	PriorityHint   string `json:"priority_hint"`
}

type DailyPlan struct {
	Headline   string      `json:"headline"`
	MoodAdvice string      `json:"mood_advice"`
	FocusItems []FocusItem `json:"focus_items"`
	BufferTip  string      `json:"buffer_tip"`
}

type CoachMessagePayload struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Severity string `json:"severity" enum:"weekly,default"`
}

type JournalAction struct {
	TargetID             string   `json:"target_id"`
	TargetTitle          string   `json:"target_title"`
	SuggestedPoints      int      `json:"suggested_points"`
	FollowUp             string   `json:"follow_up"`
	Rationale            string   `json:"rationale"`
	ProgressDeltaPercent float64  `json:"progress_delta_percent"`
	MilestonesToMarkDone []string `json:"milestones_to_mark_done"`
}

type JournalAlignment struct {
	Actions []JournalAction `json:"actions"`
	Summary string          `json:"summary"`
}

// Suggestion wraps every advisor result. FromAI is false when the
// deterministic fallback produced the payload.
type Suggestion[T any] struct {
	Payload T
	FromAI  bool
}
