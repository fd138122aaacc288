package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/gerris/internal/ledger"
	"github.com/sandeepkv93/gerris/internal/model"
)

// milestoneNamespace derives stable ids for stored milestones that lack one.
var (
	milestoneNamespace = uuid.MustParse("5b0f6c4e-8f1d-4f4a-9a77-2f6a3b1f0d42")
	kanbanNamespace    = uuid.MustParse("9e3d2a61-4c7b-4e0f-8b52-7a1c6d3f2e90")
)

type decoder struct {
	logger *slog.Logger
	now    time.Time
}

// Decode turns a stored document into a snapshot. Missing or malformed
// sections and fields fall back to Default with a warning. The only error
// returned is an unknown quadrant on a stored todo, which wraps
// model.ErrUnknownQuadrant.
func Decode(data []byte, logger *slog.Logger, now time.Time) (Snapshot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := decoder{logger: logger, now: now.UTC()}
	out := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil || members == nil {
		logger.Warn("stored state is not a JSON object, using defaults", "error", err)
		return out, nil
	}

	if raw, ok := members[KeyVersion]; ok {
		var v int
		if err := json.Unmarshal(raw, &v); err != nil {
			d.warn(KeyVersion, err)
		} else if v > SchemaVersion {
			logger.Warn("stored state is newer than this build", "stored_version", v, "supported_version", SchemaVersion)
		}
	}

	todos, err := d.todos(members[KeyTodos])
	if err != nil {
		return Snapshot{}, err
	}
	out.Todos = todos
	out.Stats = d.stats(members[KeyStats])
	out.Gamification = d.gamification(members[KeyGamification])
	out.Settings = d.settings(members[KeySettings])
	out.Journal = d.journal(members[KeyJournal])
	out.Coach = d.coach(members[KeyCoach])
	return out, nil
}

func (d decoder) warn(section string, err error) {
	d.logger.Warn("malformed state section, using defaults", "section", section, "error", err)
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func (d decoder) stats(raw json.RawMessage) model.KpiStats {
	out := model.DefaultKpiStats()
	if present(raw) {
		if err := json.Unmarshal(raw, &out); err != nil {
			d.warn(KeyStats, err)
			out = model.DefaultKpiStats()
		}
	}
	if out.GoalDaily < 1 {
		out.GoalDaily = model.DefaultGoalDaily
	}
	out.DoneTotal = max(out.DoneTotal, 0)
	out.DoneToday = max(out.DoneToday, 0)
	out.Streak = max(out.Streak, 0)
	if out.GoalHistory == nil {
		out.GoalHistory = []bool{}
	}
	if out.DailyHistory == nil {
		out.DailyHistory = []model.KpiDailyEntry{}
	}
	out.GoalHistory = ledger.CapTail(out.GoalHistory, ledger.KpiHistoryLimit)
	out.DailyHistory = ledger.CapTail(out.DailyHistory, ledger.KpiHistoryLimit)
	return out
}

func (d decoder) gamification(raw json.RawMessage) model.GamificationState {
	out := model.DefaultGamificationState()
	if present(raw) {
		if err := json.Unmarshal(raw, &out); err != nil {
			d.warn(KeyGamification, err)
			out = model.DefaultGamificationState()
		}
	}
	out.Points = max(out.Points, 0)
	out.Level = model.LevelFor(out.Points)
	out.Badges = dedupe(out.Badges)
	out.History = ledger.CapTail(nonNil(out.History), ledger.HistoryLimit)
	out.ProcessedCompletions = ledger.CapTail(nonNil(out.ProcessedCompletions), ledger.ProcessedCompletionsLimit)
	out.ProcessedProgressRewards = ledger.CapTail(nonNil(out.ProcessedProgressRewards), ledger.ProcessedProgressLimit)
	out.ProcessedMilestoneEvents = ledger.CapTail(nonNil(out.ProcessedMilestoneEvents), ledger.ProcessedMilestoneLimit)
	out.ProcessedJournalEvents = ledger.CapTail(nonNil(out.ProcessedJournalEvents), ledger.ProcessedJournalLimit)
	return out
}

type settingsWire struct {
	AIEnabled         *bool          `json:"ai_enabled"`
	GamificationMode  string         `json:"gamification_mode"`
	CategoryGoals     map[string]int `json:"category_goals"`
	ReminderRecipient string         `json:"reminder_recipient"`
}

func (d decoder) settings(raw json.RawMessage) model.Settings {
	out := model.DefaultSettings()
	if !present(raw) {
		return out
	}
	var w settingsWire
	if err := json.Unmarshal(raw, &w); err != nil {
		d.warn(KeySettings, err)
		return out
	}
	if w.AIEnabled != nil {
		out.AIEnabled = *w.AIEnabled
	}
	if mode := model.GamificationMode(strings.TrimSpace(w.GamificationMode)); mode.IsValid() {
		out.GamificationMode = mode
	}
	for key, goal := range w.CategoryGoals {
		c, err := model.ParseCategory(key)
		if err != nil {
			continue
		}
		out.CategoryGoals[c] = max(goal, 1)
	}
	out.ReminderRecipient = strings.TrimSpace(w.ReminderRecipient)
	return out
}

func (d decoder) journal(raw json.RawMessage) map[model.Date]model.JournalEntry {
	out := map[model.Date]model.JournalEntry{}
	if !present(raw) {
		return out
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		d.warn(KeyJournal, err)
		return out
	}
	for key, body := range members {
		date, err := model.ParseDate(key)
		if err != nil {
			d.warn(KeyJournal, err)
			continue
		}
		var entry model.JournalEntry
		if err := json.Unmarshal(body, &entry); err != nil {
			d.warn(KeyJournal+"."+key, err)
			continue
		}
		entry.Date = date
		if entry.Categories == nil {
			entry.Categories = []model.Category{}
		}
		out[date] = entry
	}
	return out
}

func (d decoder) coach(raw json.RawMessage) model.CoachState {
	out := model.DefaultCoachState()
	if present(raw) {
		if err := json.Unmarshal(raw, &out); err != nil {
			d.warn(KeyCoach, err)
			out = model.DefaultCoachState()
		}
	}
	out.SeenEventIDs = ledger.CapTail(nonNil(out.SeenEventIDs), ledger.CoachSeenEventsLimit)
	if out.Messages == nil {
		out.Messages = []model.CoachMessage{}
	}
	out.Messages = ledger.CapTail(out.Messages, ledger.CoachMessagesLimit)
	if out.LastMessageAt != nil {
		at := out.LastMessageAt.UTC()
		out.LastMessageAt = &at
	}
	return out
}

type milestoneWire struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Complexity string `json:"complexity"`
	Points     *int   `json:"points"`
	Status     string `json:"status"`
	Note       string `json:"note"`
}

type todoWire struct {
	ID                        string          `json:"id"`
	Title                     string          `json:"title"`
	CreatedAt                 *time.Time      `json:"created_at"`
	DueDate                   *time.Time      `json:"due_date"`
	Quadrant                  *string         `json:"quadrant"`
	Category                  string          `json:"category"`
	Priority                  *int            `json:"priority"`
	DescriptionMD             string          `json:"description_md"`
	Completed                 bool            `json:"completed"`
	CompletedAt               *time.Time      `json:"completed_at"`
	ProgressCurrent           float64         `json:"progress_current"`
	ProgressTarget            *float64        `json:"progress_target"`
	ProgressUnit              string          `json:"progress_unit"`
	AutoDoneWhenTargetReached *bool           `json:"auto_done_when_target_reached"`
	CompletionCriteriaMD      string          `json:"completion_criteria_md"`
	Recurrence                string          `json:"recurrence"`
	EmailReminder             string          `json:"email_reminder"`
	ReminderAt                *time.Time      `json:"reminder_at"`
	ReminderSentAt            *time.Time      `json:"reminder_sent_at"`
	Milestones                []milestoneWire `json:"milestones"`
	Kanban                    json.RawMessage `json:"kanban"`
	ProcessedProgressEvents   []string        `json:"processed_progress_events"`
}

func (d decoder) todos(raw json.RawMessage) ([]model.Todo, error) {
	out := []model.Todo{}
	if !present(raw) {
		return out, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		d.warn(KeyTodos, err)
		return out, nil
	}
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		var w todoWire
		if err := json.Unmarshal(item, &w); err != nil {
			d.warn(KeyTodos+"["+strconv.Itoa(i)+"]", err)
			continue
		}
		todo, ok, err := d.todo(w)
		if err != nil {
			return nil, fmt.Errorf("state: todo %d: %w", i, err)
		}
		if !ok {
			continue
		}
		if seen[todo.ID] {
			d.logger.Warn("duplicate todo id in stored state, keeping first", "todo_id", todo.ID)
			continue
		}
		seen[todo.ID] = true
		out = append(out, todo)
	}
	return out, nil
}

func (d decoder) todo(w todoWire) (model.Todo, bool, error) {
	title := strings.TrimSpace(w.Title)
	if title == "" {
		d.logger.Warn("dropping stored todo without title", "todo_id", w.ID)
		return model.Todo{}, false, nil
	}
	rawQuadrant := ""
	if w.Quadrant != nil {
		rawQuadrant = *w.Quadrant
	}
	quadrant, err := model.ParseQuadrant(rawQuadrant)
	if err != nil {
		return model.Todo{}, false, err
	}

	t := model.Todo{
		ID:                   strings.TrimSpace(w.ID),
		Title:                title,
		Quadrant:             quadrant,
		DescriptionMD:        w.DescriptionMD,
		ProgressUnit:         w.ProgressUnit,
		CompletionCriteriaMD: w.CompletionCriteriaMD,
		DueDate:              utc(w.DueDate),
		ReminderAt:           utc(w.ReminderAt),
		ReminderSentAt:       utc(w.ReminderSentAt),
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = d.now
	if w.CreatedAt != nil && !w.CreatedAt.IsZero() {
		t.CreatedAt = w.CreatedAt.UTC()
	}

	if t.Category, err = model.ParseCategory(w.Category); err != nil {
		d.logger.Warn("unknown stored category, using default", "todo_id", t.ID, "category", w.Category)
		t.Category = model.CategoryDailyStructure
	}
	t.Priority = model.DefaultPriority
	if w.Priority != nil {
		t.Priority = min(max(*w.Priority, model.MinPriority), model.MaxPriority)
	}
	if t.Recurrence, err = model.ParseRecurrence(strings.TrimSpace(w.Recurrence)); err != nil {
		d.logger.Warn("unknown stored recurrence, using once", "todo_id", t.ID, "recurrence", w.Recurrence)
		t.Recurrence = model.RecurrenceOnce
	}
	if t.EmailReminder, err = model.ParseReminderOffset(strings.TrimSpace(w.EmailReminder)); err != nil {
		d.logger.Warn("unknown stored reminder offset, using none", "todo_id", t.ID, "email_reminder", w.EmailReminder)
		t.EmailReminder = model.EmailReminderNone
	}
	if t.ReminderAt == nil {
		t.ReminderAt = t.EmailReminder.ReminderAt(t.DueDate)
	}

	t.Completed = w.Completed
	if t.Completed {
		t.CompletedAt = utc(w.CompletedAt)
		if t.CompletedAt == nil {
			at := t.CreatedAt
			t.CompletedAt = &at
		}
	}

	t.ProgressCurrent = max(w.ProgressCurrent, 0)
	if w.ProgressTarget != nil && *w.ProgressTarget > 0 {
		target := *w.ProgressTarget
		t.ProgressTarget = &target
	}
	if w.AutoDoneWhenTargetReached != nil {
		t.AutoDoneWhenTargetReached = *w.AutoDoneWhenTargetReached
	} else {
		t.AutoDoneWhenTargetReached = t.ProgressTarget != nil
	}
	t.ProcessedProgressEvents = ledger.CapTail(nonNil(w.ProcessedProgressEvents), ledger.TodoProgressEventsLimit)

	t.Milestones = make([]model.Milestone, 0, len(w.Milestones))
	for i, mw := range w.Milestones {
		m, ok := d.milestone(t.ID, i, mw)
		if ok {
			t.Milestones = append(t.Milestones, m)
		}
	}
	t.Kanban = d.kanban(t.ID, w.Kanban)
	return t, true, nil
}

// kanban keeps every titled card; cards with an unknown column land in the
// backlog.
func (d decoder) kanban(todoID string, raw json.RawMessage) model.TodoKanban {
	if !present(raw) {
		return model.DefaultKanban()
	}
	var k model.TodoKanban
	if err := json.Unmarshal(raw, &k); err != nil {
		d.warn(KeyTodos+"."+todoID+".kanban", err)
		return model.DefaultKanban()
	}
	columns := k.Columns[:0]
	for _, c := range k.Columns {
		if c.ID = strings.TrimSpace(c.ID); c.ID != "" {
			columns = append(columns, c)
		}
	}
	k.Columns = columns
	cards := make([]model.KanbanCard, 0, len(k.Cards))
	for i, c := range k.Cards {
		c.Title = strings.TrimSpace(c.Title)
		if c.Title == "" {
			continue
		}
		if c.ID = strings.TrimSpace(c.ID); c.ID == "" {
			c.ID = uuid.NewSHA1(kanbanNamespace, []byte(todoID+":"+strconv.Itoa(i))).String()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = d.now
		}
		c.CreatedAt = c.CreatedAt.UTC()
		c.DoneAt = utc(c.DoneAt)
		cards = append(cards, c)
	}
	k.Cards = cards
	return k.EnsureDefaultColumns()
}

func (d decoder) milestone(todoID string, index int, w milestoneWire) (model.Milestone, bool) {
	title := strings.TrimSpace(w.Title)
	if title == "" {
		return model.Milestone{}, false
	}
	m := model.Milestone{
		ID:         strings.TrimSpace(w.ID),
		Title:      title,
		Complexity: model.MilestoneComplexity(strings.TrimSpace(w.Complexity)),
		Status:     model.MilestoneStatus(strings.TrimSpace(w.Status)),
		Note:       w.Note,
	}
	if m.ID == "" {
		m.ID = uuid.NewSHA1(milestoneNamespace, []byte(todoID+":"+strconv.Itoa(index))).String()
	}
	if !m.Complexity.IsValid() {
		m.Complexity = model.ComplexityMedium
	}
	if !m.Status.IsValid() {
		m.Status = model.MilestoneBacklog
	}
	m.Points = m.Complexity.DefaultPoints()
	if w.Points != nil && *w.Points >= 0 {
		m.Points = *w.Points
	}
	return m, true
}

func utc(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func dedupe(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// IsInvalidInput reports whether err came from stored data that names an
// unknown domain value rather than from malformed JSON.
func IsInvalidInput(err error) bool {
	return errors.Is(err, model.ErrUnknownQuadrant)
}
