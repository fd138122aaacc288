// Package tracker wires the session snapshot to the todo, KPI, reward,
// coach and journal services. Every mutating call runs the coach events it
// produced and then writes the snapshot through to storage.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/gerris/internal/ai"
	"github.com/sandeepkv93/gerris/internal/coach"
	"github.com/sandeepkv93/gerris/internal/gamification"
	"github.com/sandeepkv93/gerris/internal/journal"
	"github.com/sandeepkv93/gerris/internal/kpi"
	"github.com/sandeepkv93/gerris/internal/model"
	"github.com/sandeepkv93/gerris/internal/state"
	"github.com/sandeepkv93/gerris/internal/storage"
	"github.com/sandeepkv93/gerris/internal/todos"
)

var ErrNoJournalEntry = errors.New("tracker: no journal entry for date")

type Options struct {
	Logger       *slog.Logger
	Now          func() time.Time
	NewID        func() string
	AI           ai.Client
	Coach        coach.Config
	Gamification gamification.Config
}

type Tracker struct {
	mu      sync.Mutex
	session *state.Session
	snap    *state.Snapshot
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string

	aiEnabled atomic.Bool

	kpi     *kpi.Tracker
	game    *gamification.Engine
	todos   *todos.Service
	coach   *coach.Engine
	journal *journal.Book
	advisor *ai.Advisor
	aligner *journal.Aligner

	pending []model.CoachEvent
}

// Open loads the session from backend and builds a tracker on top of it.
func Open(ctx context.Context, backend storage.Backend, opts Options) (*Tracker, error) {
	session, err := state.Open(ctx, backend, state.Options{Logger: opts.Logger, Now: opts.Now})
	if err != nil {
		return nil, err
	}
	return New(session, opts), nil
}

func New(session *state.Session, opts Options) *Tracker {
	t := &Tracker{
		session: session,
		snap:    session.Snapshot(),
		logger:  opts.Logger,
		now:     opts.Now,
		newID:   opts.NewID,
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.newID == nil {
		t.newID = uuid.NewString
	}
	t.aiEnabled.Store(t.snap.Settings.AIEnabled)

	var client ai.Client
	if opts.AI != nil {
		client = gatedClient{client: opts.AI, enabled: t.aiEnabled.Load}
	}

	t.kpi = kpi.New(&t.snap.Stats, t.now)
	t.game = gamification.New(&t.snap.Gamification, gamification.Options{
		Config: opts.Gamification,
		Now:    t.now,
		Logger: t.logger,
	})
	t.todos = todos.New(&t.snap.Todos, todos.Options{
		Now:   t.now,
		NewID: t.newID,
		Hooks: todos.Hooks{
			RecordCompletion: t.kpi.RecordCompletion,
			AwardCompletion: func(todo model.Todo, stats model.KpiStats) {
				t.game.AwardCompletion(todo, stats)
			},
			AwardProgress: func(todo model.Todo, previous, updated float64) {
				t.game.AwardProgressDelta(todo, previous, updated)
			},
			AwardMilestone: func(todo model.Todo, m model.Milestone) {
				t.game.AwardMilestone(todo, m)
			},
			Completed: func(todo model.Todo) {
				t.pending = append(t.pending, coach.CompletionEvent(todo, t.now()))
			},
		},
	})
	t.coach = coach.New(&t.snap.Coach, coach.Options{
		Config: opts.Coach,
		Composer: coach.AIComposer{
			Client:  opts.AI,
			Enabled: t.aiEnabled.Load,
			Logger:  t.logger,
		},
		Logger: t.logger,
		Now:    t.now,
	})
	t.journal = journal.NewBook(&t.snap.Journal)
	t.advisor = ai.NewAdvisor(client, t.logger)
	t.aligner = journal.NewAligner(client, t.logger)
	return t
}

// gatedClient follows the AI toggle in settings so switching it off takes
// effect without rebuilding the services.
type gatedClient struct {
	client  ai.Client
	enabled func() bool
}

func (g gatedClient) Structured(ctx context.Context, req ai.Request, out any) error {
	if !g.enabled() {
		return ai.ErrDisabled
	}
	return g.client.Structured(ctx, req, out)
}

// commit handles queued coach events and persists. A failed write is
// logged and kept as the session warning; it never fails the operation.
func (t *Tracker) commit(ctx context.Context) []model.CoachMessage {
	var accepted []model.CoachMessage
	for len(t.pending) > 0 {
		ev := t.pending[0]
		t.pending = t.pending[1:]
		if msg, ok := t.coach.Handle(ctx, ev); ok {
			accepted = append(accepted, msg)
		}
	}
	_ = t.session.Persist(ctx)
	return accepted
}

// View is a read-only copy of everything the interfaces render.
type View struct {
	Todos        []model.Todo
	Stats        model.KpiStats
	Gamification model.GamificationState
	Settings     model.Settings
	Coach        []model.CoachMessage
	Journal      map[model.Date]model.JournalEntry
	Backend      string
	Warning      error
	Now          time.Time
}

func (t *Tracker) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.viewLocked()
}

func (t *Tracker) viewLocked() View {
	return View{
		Todos:        t.todos.List(),
		Stats:        t.kpi.Stats(),
		Gamification: t.game.State(),
		Settings:     cloneSettings(t.snap.Settings),
		Coach:        t.coach.Messages(),
		Journal:      t.journal.Entries(),
		Backend:      t.session.Backend().Describe(),
		Warning:      t.session.Warning(),
		Now:          t.now().UTC(),
	}
}

func (t *Tracker) Warning() error { return t.session.Warning() }

func (t *Tracker) Todo(id string) (model.Todo, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.todos.Get(id)
}

// Todos implements reminders.Store.
func (t *Tracker) Todos() []model.Todo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.todos.List()
}

// MarkReminderSent records a delivery. It is ignored when the todo's
// reminder moved since the delivery was built.
func (t *Tracker) MarkReminderSent(todoID string, sentAt time.Time, reminderAt *time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.snap.Todos {
		todo := &t.snap.Todos[i]
		if todo.ID != todoID {
			continue
		}
		if reminderAt != nil && todo.ReminderAt != nil && !todo.ReminderAt.Equal(*reminderAt) {
			return nil
		}
		if todo.ReminderAt == nil && reminderAt != nil {
			todo.ReminderAt = model.TimePtr(reminderAt.UTC())
		}
		todo.ReminderSentAt = model.TimePtr(sentAt.UTC())
		return t.session.Persist(context.Background())
	}
	return fmt.Errorf("%w: %q", todos.ErrNotFound, todoID)
}

// AddTodo creates a todo. Without a quadrant the advisor picks one.
func (t *Tracker) AddTodo(ctx context.Context, in todos.AddInput) (model.Todo, error) {
	if in.Quadrant == "" {
		in.Quadrant = t.advisor.SuggestQuadrant(ctx, in.Title).Payload.Quadrant
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	todo, err := t.todos.Add(in)
	if err != nil {
		return model.Todo{}, err
	}
	t.commit(ctx)
	return todo, nil
}

func (t *Tracker) UpdateTodo(ctx context.Context, id string, p todos.Patch) (model.Todo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	todo, err := t.todos.Update(id, p)
	if err != nil {
		return model.Todo{}, err
	}
	t.commit(ctx)
	return todo, nil
}

// ToggleTodo flips completion and returns any coach message the completion
// produced.
func (t *Tracker) ToggleTodo(ctx context.Context, id string) (model.Todo, []model.CoachMessage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	todo, ok := t.todos.Toggle(id)
	if !ok {
		return model.Todo{}, nil, fmt.Errorf("%w: %q", todos.ErrNotFound, id)
	}
	return todo, t.commit(ctx), nil
}

func (t *Tracker) DeleteTodo(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.todos.Delete(id) {
		return fmt.Errorf("%w: %q", todos.ErrNotFound, id)
	}
	t.commit(ctx)
	return nil
}

func (t *Tracker) DuplicateTodo(ctx context.Context, id string) (model.Todo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	dup, ok, err := t.todos.Duplicate(id)
	if err != nil {
		return model.Todo{}, err
	}
	if !ok {
		return model.Todo{}, fmt.Errorf("%w: %q", todos.ErrNotFound, id)
	}
	t.commit(ctx)
	return dup, nil
}

// ApplyProgress adds delta to a todo. An empty source id gets a fresh one,
// so a manual update is never deduplicated against another.
func (t *Tracker) ApplyProgress(ctx context.Context, id string, delta float64, sourceEventID string) (model.Todo, []model.CoachMessage, error) {
	if sourceEventID == "" {
		sourceEventID = "manual:" + t.newID()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	todo, err := t.todos.ApplyProgress(id, delta, sourceEventID)
	if err != nil {
		return model.Todo{}, nil, err
	}
	return todo, t.commit(ctx), nil
}

func (t *Tracker) AddMilestone(ctx context.Context, todoID string, m model.Milestone) (model.Milestone, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	added, err := t.todos.AddMilestone(todoID, m)
	if err != nil {
		return model.Milestone{}, err
	}
	t.commit(ctx)
	return added, nil
}

func (t *Tracker) UpdateMilestone(ctx context.Context, todoID, milestoneID string, p todos.MilestonePatch) (model.Milestone, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, err := t.todos.UpdateMilestone(todoID, milestoneID, p)
	if err != nil {
		return model.Milestone{}, err
	}
	t.commit(ctx)
	return m, nil
}

func (t *Tracker) MoveMilestone(ctx context.Context, todoID, milestoneID string, direction int) (model.Milestone, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, err := t.todos.MoveMilestone(todoID, milestoneID, direction)
	if err != nil {
		return model.Milestone{}, err
	}
	t.commit(ctx)
	return m, nil
}

func (t *Tracker) AddKanbanCard(ctx context.Context, todoID, title, descriptionMD string) (model.KanbanCard, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	card, err := t.todos.AddKanbanCard(todoID, title, descriptionMD)
	if err != nil {
		return model.KanbanCard{}, err
	}
	t.commit(ctx)
	return card, nil
}

func (t *Tracker) MoveKanbanCard(ctx context.Context, todoID, cardID string, direction int) (model.KanbanCard, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	card, err := t.todos.MoveKanbanCard(todoID, cardID, direction)
	if err != nil {
		return model.KanbanCard{}, err
	}
	t.commit(ctx)
	return card, nil
}

// PlanMilestones asks the advisor for milestones and appends them to the todo.
func (t *Tracker) PlanMilestones(ctx context.Context, todoID string) ([]model.Milestone, bool, error) {
	t.mu.Lock()
	todo, ok := t.todos.Get(todoID)
	mode := t.snap.Settings.GamificationMode
	t.mu.Unlock()
	if !ok {
		return nil, false, fmt.Errorf("%w: %q", todos.ErrNotFound, todoID)
	}

	suggestion := t.advisor.SuggestMilestones(ctx, todo.Title, mode)

	t.mu.Lock()
	defer t.mu.Unlock()
	var added []model.Milestone
	for _, m := range ai.MilestonesFrom(suggestion.Payload) {
		m, err := t.todos.AddMilestone(todoID, m)
		if err != nil {
			t.commit(ctx)
			return added, suggestion.FromAI, err
		}
		added = append(added, m)
	}
	t.commit(ctx)
	return added, suggestion.FromAI, nil
}

func (t *Tracker) SetDailyGoal(ctx context.Context, n int) model.KpiStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.kpi.SetDailyGoal(n)
	t.commit(ctx)
	return stats
}

// Refresh rolls the KPI day boundary and persists the result. The UI calls
// it on a timer so a session left open overnight starts the new day clean.
func (t *Tracker) Refresh(ctx context.Context) View {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.kpi.Stats()
	t.commit(ctx)
	return t.viewLocked()
}

// Reload re-reads storage in place, e.g. after a sync client replaced the
// state file. It reports whether anything changed.
func (t *Tracker) Reload(ctx context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	changed, err := t.session.Reload(ctx)
	if err != nil {
		return false, err
	}
	t.aiEnabled.Store(t.snap.Settings.AIEnabled)
	return changed, nil
}

func (t *Tracker) Close() error {
	return t.session.Backend().Close()
}

func cloneSettings(s model.Settings) model.Settings {
	goals := make(map[model.Category]int, len(s.CategoryGoals))
	for k, v := range s.CategoryGoals {
		goals[k] = v
	}
	s.CategoryGoals = goals
	return s
}
