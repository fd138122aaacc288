package todos

import (
	"errors"
	"fmt"

	"github.com/sandeepkv93/gerris/internal/model"
)

var ErrMilestoneNotFound = errors.New("todos: milestone not found")

type MilestonePatch struct {
	Title      *string
	Complexity *model.MilestoneComplexity
	Points     *int
	Status     *model.MilestoneStatus
	Note       *string
}

func (s *Service) AddMilestone(todoID string, m model.Milestone) (model.Milestone, error) {
	i := s.index(todoID)
	if i < 0 {
		return model.Milestone{}, fmt.Errorf("%w: %q", ErrNotFound, todoID)
	}
	m.ID = ""
	m = s.normalizeMilestone(m)
	if err := m.Validate(); err != nil {
		return model.Milestone{}, err
	}
	todo := &(*s.todos)[i]
	todo.Milestones = append(todo.Milestones, m)
	s.awardIfDone(*todo, m)
	return m, nil
}

func (s *Service) UpdateMilestone(todoID, milestoneID string, p MilestonePatch) (model.Milestone, error) {
	return s.mutateMilestone(todoID, milestoneID, func(m *model.Milestone) {
		if p.Title != nil {
			m.Title = *p.Title
		}
		if p.Complexity != nil {
			m.Complexity = *p.Complexity
		}
		if p.Points != nil {
			m.Points = *p.Points
		}
		if p.Status != nil {
			m.Status = *p.Status
		}
		if p.Note != nil {
			m.Note = *p.Note
		}
	})
}

// MoveMilestone shifts a milestone one column left (negative) or right.
// Moving past either end leaves it in place.
func (s *Service) MoveMilestone(todoID, milestoneID string, direction int) (model.Milestone, error) {
	return s.mutateMilestone(todoID, milestoneID, func(m *model.Milestone) {
		if next, ok := m.Status.Shift(direction); ok {
			m.Status = next
		}
	})
}

func (s *Service) mutateMilestone(todoID, milestoneID string, apply func(*model.Milestone)) (model.Milestone, error) {
	i := s.index(todoID)
	if i < 0 {
		return model.Milestone{}, fmt.Errorf("%w: %q", ErrNotFound, todoID)
	}
	todo := &(*s.todos)[i]
	for j := range todo.Milestones {
		if todo.Milestones[j].ID != milestoneID {
			continue
		}
		before := todo.Milestones[j]
		next := before
		apply(&next)
		if err := next.Validate(); err != nil {
			return model.Milestone{}, err
		}
		todo.Milestones[j] = next
		if before.Status != model.MilestoneDone {
			s.awardIfDone(*todo, next)
		}
		return next, nil
	}
	return model.Milestone{}, fmt.Errorf("%w: %q", ErrMilestoneNotFound, milestoneID)
}

func (s *Service) awardNewlyDoneMilestones(previous, next model.Todo) {
	for _, m := range next.Milestones {
		if old, ok := previous.Milestone(m.ID); ok && old.Status == model.MilestoneDone {
			continue
		}
		s.awardIfDone(next, m)
	}
}

func (s *Service) awardIfDone(todo model.Todo, m model.Milestone) {
	if m.Status == model.MilestoneDone && s.hooks.AwardMilestone != nil {
		s.hooks.AwardMilestone(todo.Clone(), m)
	}
}
