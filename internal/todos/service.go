package todos

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/gerris/internal/model"
)

var ErrNotFound = errors.New("todos: todo not found")

// Hooks are the completion side effects. Any of them may be nil.
type Hooks struct {
	RecordCompletion func(completedAt time.Time) model.KpiStats
	AwardCompletion  func(todo model.Todo, stats model.KpiStats)
	AwardProgress    func(todo model.Todo, previous, updated float64)
	AwardMilestone   func(todo model.Todo, milestone model.Milestone)
	Completed        func(todo model.Todo)
}

type Options struct {
	Now   func() time.Time
	NewID func() string
	Hooks Hooks
}

// Service mutates a todo slice owned by the caller's session.
type Service struct {
	todos *[]model.Todo
	now   func() time.Time
	newID func() string
	hooks Hooks
}

func New(todos *[]model.Todo, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Service{todos: todos, now: now, newID: newID, hooks: opts.Hooks}
}

func (s *Service) List() []model.Todo {
	out := make([]model.Todo, 0, len(*s.todos))
	for _, t := range *s.todos {
		out = append(out, t.Clone())
	}
	return out
}

func (s *Service) Get(id string) (model.Todo, bool) {
	i := s.index(id)
	if i < 0 {
		return model.Todo{}, false
	}
	return (*s.todos)[i].Clone(), true
}

type AddInput struct {
	Title                     string
	Quadrant                  string
	DueDate                   *time.Time
	Category                  model.Category
	Priority                  int
	DescriptionMD             string
	ProgressCurrent           float64
	ProgressTarget            *float64
	ProgressUnit              string
	AutoDoneWhenTargetReached *bool
	CompletionCriteriaMD      string
	Recurrence                model.RecurrencePattern
	EmailReminder             model.EmailReminderOffset
	Milestones                []model.Milestone
}

// Add creates a todo. An unknown quadrant is returned as model.ErrUnknownQuadrant.
func (s *Service) Add(in AddInput) (model.Todo, error) {
	quadrant, err := model.ParseQuadrant(in.Quadrant)
	if err != nil {
		return model.Todo{}, err
	}
	category := in.Category
	if category == "" {
		category = model.CategoryDailyStructure
	}
	priority := in.Priority
	if priority == 0 {
		priority = model.DefaultPriority
	}
	recurrence := in.Recurrence
	if recurrence == "" {
		recurrence = model.RecurrenceOnce
	}
	reminder := in.EmailReminder
	if reminder == "" {
		reminder = model.EmailReminderNone
	}
	autoDone := in.ProgressTarget != nil
	if in.AutoDoneWhenTargetReached != nil {
		autoDone = *in.AutoDoneWhenTargetReached
	}
	current := in.ProgressCurrent
	if current < 0 {
		current = 0
	}

	todo := model.Todo{
		ID:                        s.newID(),
		Title:                     strings.TrimSpace(in.Title),
		CreatedAt:                 s.now().UTC(),
		DueDate:                   normalizeDue(in.DueDate),
		Quadrant:                  quadrant,
		Category:                  category,
		Priority:                  priority,
		DescriptionMD:             in.DescriptionMD,
		ProgressCurrent:           current,
		ProgressTarget:            cloneFloat(in.ProgressTarget),
		ProgressUnit:              in.ProgressUnit,
		AutoDoneWhenTargetReached: autoDone,
		CompletionCriteriaMD:      in.CompletionCriteriaMD,
		Recurrence:                recurrence,
		EmailReminder:             reminder,
		Milestones:                s.prepareMilestones(in.Milestones),
		Kanban:                    model.DefaultKanban(),
		ProcessedProgressEvents:   []string{},
	}
	refreshReminder(&todo, nil)
	if err := todo.Validate(); err != nil {
		return model.Todo{}, err
	}

	*s.todos = append(*s.todos, todo)
	return s.settle(len(*s.todos)-1, false), nil
}

// Patch carries a partial update. Nil fields are left untouched; the Clear*
// flags reset optional fields to nil.
type Patch struct {
	Title                     *string
	Quadrant                  *string
	DueDate                   *time.Time
	ClearDueDate              bool
	Category                  *model.Category
	Priority                  *int
	DescriptionMD             *string
	ProgressCurrent           *float64
	ProgressTarget            *float64
	ClearProgressTarget       bool
	ProgressUnit              *string
	AutoDoneWhenTargetReached *bool
	CompletionCriteriaMD      *string
	Recurrence                *model.RecurrencePattern
	EmailReminder             *model.EmailReminderOffset
	Milestones                []model.Milestone
}

func (s *Service) Update(id string, p Patch) (model.Todo, error) {
	i := s.index(id)
	if i < 0 {
		return model.Todo{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	previous := (*s.todos)[i]
	next := previous.Clone()

	if p.Title != nil {
		next.Title = strings.TrimSpace(*p.Title)
	}
	if p.Quadrant != nil {
		q, err := model.ParseQuadrant(*p.Quadrant)
		if err != nil {
			return model.Todo{}, err
		}
		next.Quadrant = q
	}
	switch {
	case p.ClearDueDate:
		next.DueDate = nil
	case p.DueDate != nil:
		next.DueDate = normalizeDue(p.DueDate)
	}
	if p.Category != nil {
		next.Category = *p.Category
	}
	if p.Priority != nil {
		next.Priority = *p.Priority
	}
	if p.DescriptionMD != nil {
		next.DescriptionMD = *p.DescriptionMD
	}
	if p.ProgressCurrent != nil {
		next.ProgressCurrent = max(*p.ProgressCurrent, 0)
	}
	switch {
	case p.ClearProgressTarget:
		next.ProgressTarget = nil
	case p.ProgressTarget != nil:
		next.ProgressTarget = cloneFloat(p.ProgressTarget)
	}
	if p.ProgressUnit != nil {
		next.ProgressUnit = *p.ProgressUnit
	}
	if p.AutoDoneWhenTargetReached != nil {
		next.AutoDoneWhenTargetReached = *p.AutoDoneWhenTargetReached
	}
	if p.CompletionCriteriaMD != nil {
		next.CompletionCriteriaMD = *p.CompletionCriteriaMD
	}
	if p.Recurrence != nil {
		next.Recurrence = *p.Recurrence
	}
	if p.EmailReminder != nil {
		next.EmailReminder = *p.EmailReminder
	}
	if p.Milestones != nil {
		next.Milestones = s.prepareMilestones(p.Milestones)
	}

	refreshReminder(&next, &previous)
	if err := next.Validate(); err != nil {
		return model.Todo{}, err
	}
	(*s.todos)[i] = next
	s.awardNewlyDoneMilestones(previous, next)
	return s.settle(i, previous.Completed), nil
}

// Toggle flips completion. Completing stamps completed_at; reopening clears it.
func (s *Service) Toggle(id string) (model.Todo, bool) {
	i := s.index(id)
	if i < 0 {
		return model.Todo{}, false
	}
	todo := &(*s.todos)[i]
	wasCompleted := todo.Completed
	todo.Completed = !wasCompleted
	if todo.Completed {
		todo.CompletedAt = model.TimePtr(s.now().UTC())
	} else {
		todo.CompletedAt = nil
	}
	updated := todo.Clone()
	s.processCompletion(updated, wasCompleted)
	return updated, true
}

func (s *Service) Delete(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	*s.todos = append((*s.todos)[:i], (*s.todos)[i+1:]...)
	return true
}

// Duplicate copies the planning fields of a todo into a fresh open todo.
func (s *Service) Duplicate(id string) (model.Todo, bool, error) {
	src, ok := s.Get(id)
	if !ok {
		return model.Todo{}, false, nil
	}
	milestones := make([]model.Milestone, 0, len(src.Milestones))
	for _, m := range src.Milestones {
		m.ID = ""
		milestones = append(milestones, m)
	}
	dup, err := s.Add(AddInput{
		Title:         src.Title,
		Quadrant:      string(src.Quadrant),
		DueDate:       src.DueDate,
		Category:      src.Category,
		Priority:      src.Priority,
		DescriptionMD: src.DescriptionMD,
		Recurrence:    src.Recurrence,
		EmailReminder: src.EmailReminder,
		Milestones:    milestones,
	})
	if err != nil {
		return model.Todo{}, false, err
	}
	if len(src.Kanban.Cards) > 0 {
		if i := s.index(dup.ID); i >= 0 {
			(*s.todos)[i].Kanban = resetKanban(src.Kanban, recurrenceNamespace, dup.ID)
			dup = (*s.todos)[i].Clone()
		}
	}
	return dup, true, nil
}

// settle applies auto-completion to the todo at i and runs the completion
// pipeline when it newly completed.
func (s *Service) settle(i int, previousCompleted bool) model.Todo {
	todo := &(*s.todos)[i]
	if shouldAutoComplete(*todo) {
		todo.Completed = true
		todo.CompletedAt = model.TimePtr(s.now().UTC())
	}
	updated := todo.Clone()
	s.processCompletion(updated, previousCompleted)
	return updated
}

func shouldAutoComplete(t model.Todo) bool {
	return t.ProgressTarget != nil && t.AutoDoneWhenTargetReached && !t.Completed && t.ProgressCurrent >= *t.ProgressTarget
}

// processCompletion runs KPI, rewards, coach and recurrence in that order,
// only on a false to true transition.
func (s *Service) processCompletion(todo model.Todo, wasCompleted bool) {
	if wasCompleted || !todo.Completed || todo.CompletedAt == nil {
		return
	}
	stats := model.KpiStats{}
	if s.hooks.RecordCompletion != nil {
		stats = s.hooks.RecordCompletion(*todo.CompletedAt)
	}
	if s.hooks.AwardCompletion != nil {
		s.hooks.AwardCompletion(todo, stats)
	}
	if s.hooks.Completed != nil {
		s.hooks.Completed(todo)
	}
	s.spawnSuccessor(todo)
}

func (s *Service) index(id string) int {
	for i := range *s.todos {
		if (*s.todos)[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) prepareMilestones(in []model.Milestone) []model.Milestone {
	out := make([]model.Milestone, 0, len(in))
	for _, m := range in {
		out = append(out, s.normalizeMilestone(m))
	}
	return out
}

func (s *Service) normalizeMilestone(m model.Milestone) model.Milestone {
	if m.ID == "" {
		m.ID = s.newID()
	}
	m.Title = strings.TrimSpace(m.Title)
	if m.Status == "" {
		m.Status = model.MilestoneBacklog
	}
	if m.Complexity == "" {
		m.Complexity = model.ComplexityMedium
	}
	if m.Points == 0 {
		m.Points = m.Complexity.DefaultPoints()
	}
	return m
}

// refreshReminder recomputes reminder_at and clears reminder_sent_at whenever
// the reminder instant moved.
func refreshReminder(todo *model.Todo, previous *model.Todo) {
	at := todo.EmailReminder.ReminderAt(todo.DueDate)
	var before *time.Time
	if previous != nil {
		before = previous.ReminderAt
	}
	if !sameInstant(at, before) {
		todo.ReminderSentAt = nil
	}
	todo.ReminderAt = at
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func normalizeDue(due *time.Time) *time.Time {
	if due == nil {
		return nil
	}
	return model.TimePtr(due.UTC())
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return model.FloatPtr(*v)
}
