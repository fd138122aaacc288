package journal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sandeepkv93/gerris/internal/ai"
	"github.com/sandeepkv93/gerris/internal/model"
	"github.com/sandeepkv93/gerris/internal/todos"
)

const (
	maxAlignmentPoints    = 50
	heuristicPoints       = 10
	titleMatchPercent     = 10.0
	milestoneMatchPercent = 20.0
	minKeywordRunes       = 5
)

// Action proposes an update derived from a journal entry.
type Action struct {
	TargetID             string
	TargetTitle          string
	Points               int
	FollowUp             string
	Rationale            string
	ProgressDeltaPercent float64
	MilestoneIDs         []string
}

type Alignment struct {
	Actions []Action
	Summary string
}

type Aligner struct {
	client ai.Client
	logger *slog.Logger
}

func NewAligner(client ai.Client, logger *slog.Logger) *Aligner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aligner{client: client, logger: logger}
}

// Suggest matches the entry against open todos. Empty entries yield no
// actions; without a working client the keyword heuristic is used.
func (a *Aligner) Suggest(ctx context.Context, entry model.JournalEntry, list []model.Todo) ai.Suggestion[Alignment] {
	text := entry.Text()
	if text == "" {
		return ai.Suggestion[Alignment]{Payload: Alignment{Summary: "Nothing to align yet."}}
	}
	if a.client != nil {
		var out ai.JournalAlignment
		err := a.client.Structured(ctx, ai.Request{
			Reasoning: true,
			Schema:    "journal_alignment",
			Messages: []ai.Message{
				ai.System("Find progress on existing goals or tasks in the journal entry. Only use very plausible matches, including semantic synonyms. " +
					"Detect partial progress: mark matching milestones as done or raise progress in percentage points. " +
					"Suggest a short follow-up and 5-30 points per match."),
				ai.User(fmt.Sprintf("Journal entry: date=%s\ncontent=%s\nmoods=%s\ncategories=%v",
					entry.Date, text, strings.Join(entry.Moods, ", "), entry.Categories)),
				ai.User("Available tasks and milestones:\n" + strings.Join(describeTodos(list), "\n")),
			},
		}, &out)
		if err == nil {
			return ai.Suggestion[Alignment]{Payload: fromAI(out), FromAI: true}
		}
		a.logger.Info("journal alignment fell back to heuristic", "date", entry.Date.String(), "err", err)
	}
	return ai.Suggestion[Alignment]{Payload: Heuristic(text, list)}
}

func fromAI(resp ai.JournalAlignment) Alignment {
	out := Alignment{Summary: resp.Summary}
	for _, act := range resp.Actions {
		if act.SuggestedPoints <= 0 {
			continue
		}
		out.Actions = append(out.Actions, Action{
			TargetID:             act.TargetID,
			TargetTitle:          act.TargetTitle,
			Points:               min(act.SuggestedPoints, maxAlignmentPoints),
			FollowUp:             act.FollowUp,
			Rationale:            act.Rationale,
			ProgressDeltaPercent: act.ProgressDeltaPercent,
			MilestoneIDs:         act.MilestonesToMarkDone,
		})
	}
	return out
}

// Heuristic matches todo and milestone titles against words of at least
// five characters in the entry text.
func Heuristic(text string, list []model.Todo) Alignment {
	lowered := strings.ToLower(text)
	keywords := keywordsOf(lowered)

	var actions []Action
	for _, t := range list {
		if t.Completed {
			continue
		}
		title := strings.ToLower(t.Title)
		delta := 0.0
		if title != "" && (strings.Contains(lowered, title) || containsKeyword(title, keywords)) {
			delta = titleMatchPercent
		}
		var milestones []string
		for _, m := range t.Milestones {
			if m.Status == model.MilestoneDone || m.Title == "" {
				continue
			}
			mt := strings.ToLower(m.Title)
			if strings.Contains(lowered, mt) || fragmentMatch(mt, lowered) || containsKeyword(mt, keywords) {
				milestones = append(milestones, m.ID)
				delta = max(delta, milestoneMatchPercent)
			}
		}
		if delta == 0 && len(milestones) == 0 {
			continue
		}
		actions = append(actions, Action{
			TargetID:             t.ID,
			TargetTitle:          t.Title,
			Points:               heuristicPoints,
			FollowUp:             "Progress detected, please confirm.",
			Rationale:            "Partial progress detected via title or milestone match.",
			ProgressDeltaPercent: delta,
			MilestoneIDs:         milestones,
		})
	}
	return Alignment{Actions: actions, Summary: "Automatic heuristic based on titles; please review."}
}

func keywordsOf(lowered string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, token := range strings.Fields(lowered) {
		token = strings.Trim(token, ".,;:!?")
		if utf8.RuneCountInString(token) < minKeywordRunes || seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
	}
	return out
}

func containsKeyword(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// fragmentMatch ignores fragments shorter than three runes so articles do
// not match every entry.
func fragmentMatch(title, lowered string) bool {
	for _, f := range strings.Fields(title) {
		if utf8.RuneCountInString(f) >= 3 && strings.Contains(lowered, f) {
			return true
		}
	}
	return false
}

func describeTodos(list []model.Todo) []string {
	out := make([]string, 0, len(list))
	for _, t := range list {
		status := "open"
		if t.Completed {
			status = "done"
		}
		milestones := "none"
		if len(t.Milestones) > 0 {
			parts := make([]string, 0, len(t.Milestones))
			for _, m := range t.Milestones {
				parts = append(parts, fmt.Sprintf("milestone_id=%s milestone_title=%s milestone_status=%s", m.ID, m.Title, m.Status))
			}
			milestones = strings.Join(parts, " ; ")
		}
		out = append(out, fmt.Sprintf("id=%s | title=%s | category=%s | quadrant=%s | status=%s | milestones=%s",
			t.ID, t.Title, t.Category, t.Quadrant, status, milestones))
	}
	return out
}

// TodoUpdater is the part of the todo service an alignment needs.
type TodoUpdater interface {
	Get(id string) (model.Todo, bool)
	ApplyProgress(id string, delta float64, sourceEventID string) (model.Todo, error)
	UpdateMilestone(todoID, milestoneID string, p todos.MilestonePatch) (model.Milestone, error)
}

type PointsAwarder interface {
	AwardJournalAlignment(entryDate model.Date, targetTitle string, points int, rationale string) (model.GamificationState, int)
}

type Applied struct {
	PointsGained       int
	ProgressDelta      float64
	MilestonesFinished []string
}

// ProgressEventID is the dedup key for progress applied from one entry to
// one todo.
func ProgressEventID(date model.Date, todoID string) string {
	return "journal:" + date.String() + ":" + todoID
}

// Apply awards the action's points once per (date, title), applies its
// progress once per (date, todo) and marks the named milestones done.
func Apply(date model.Date, act Action, updater TodoUpdater, awarder PointsAwarder) (Applied, error) {
	var res Applied
	title := act.TargetTitle
	todo, found := model.Todo{}, false
	if act.TargetID != "" {
		todo, found = updater.Get(act.TargetID)
		if found && title == "" {
			title = todo.Title
		}
	}
	if title != "" {
		_, res.PointsGained = awarder.AwardJournalAlignment(date, title, act.Points, act.Rationale)
	}
	if !found {
		return res, nil
	}

	if act.ProgressDeltaPercent > 0 {
		delta := act.ProgressDeltaPercent
		if todo.ProgressTarget != nil {
			delta = *todo.ProgressTarget * act.ProgressDeltaPercent / 100
		}
		before := todo.ProgressCurrent
		updated, err := updater.ApplyProgress(todo.ID, delta, ProgressEventID(date, todo.ID))
		if err != nil {
			return res, err
		}
		res.ProgressDelta = updated.ProgressCurrent - before
	}

	done := model.MilestoneDone
	for _, id := range act.MilestoneIDs {
		m, ok := todo.Milestone(id)
		if !ok || m.Status == model.MilestoneDone {
			continue
		}
		if _, err := updater.UpdateMilestone(todo.ID, id, todos.MilestonePatch{Status: &done}); err != nil {
			return res, err
		}
		res.MilestonesFinished = append(res.MilestonesFinished, id)
	}
	return res, nil
}
