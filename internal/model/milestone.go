package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidMilestoneStatus     = errors.New("model: invalid milestone status")
	ErrInvalidMilestoneComplexity = errors.New("model: invalid milestone complexity")
)

type MilestoneStatus string

const (
	MilestoneBacklog MilestoneStatus = "backlog"
	MilestoneDoing   MilestoneStatus = "doing"
	MilestoneDone    MilestoneStatus = "done"
)

// MilestoneStatuses is the board order used by left/right moves.
var MilestoneStatuses = []MilestoneStatus{MilestoneBacklog, MilestoneDoing, MilestoneDone}

func (s MilestoneStatus) IsValid() bool {
	switch s {
	case MilestoneBacklog, MilestoneDoing, MilestoneDone:
		return true
	default:
		return false
	}
}

func (s MilestoneStatus) index() int {
	for i, v := range MilestoneStatuses {
		if v == s {
			return i
		}
	}
	return 0
}

// Shift moves the status by delta columns. ok is false when the move would
// leave the board.
func (s MilestoneStatus) Shift(delta int) (MilestoneStatus, bool) {
	next := s.index() + delta
	if next < 0 || next >= len(MilestoneStatuses) {
		return s, false
	}
	return MilestoneStatuses[next], true
}

type MilestoneComplexity string

const (
	ComplexitySmall  MilestoneComplexity = "small"
	ComplexityMedium MilestoneComplexity = "medium"
	ComplexityLarge  MilestoneComplexity = "large"
)

func (c MilestoneComplexity) IsValid() bool {
	switch c {
	case ComplexitySmall, ComplexityMedium, ComplexityLarge:
		return true
	default:
		return false
	}
}

func (c MilestoneComplexity) DefaultPoints() int {
	switch c {
	case ComplexityLarge:
		return 20
	case ComplexityMedium:
		return 10
	default:
		return 5
	}
}

type Milestone struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Complexity MilestoneComplexity `json:"complexity"`
	Points     int                 `json:"points"`
	Status     MilestoneStatus     `json:"status"`
	Note       string              `json:"note"`
}

func (m Milestone) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return errors.New("model: milestone id is required")
	}
	if strings.TrimSpace(m.Title) == "" {
		return errors.New("model: milestone title is required")
	}
	if !m.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidMilestoneStatus, m.Status)
	}
	if !m.Complexity.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidMilestoneComplexity, m.Complexity)
	}
	if m.Points < 0 {
		return errors.New("model: milestone points must not be negative")
	}
	return nil
}
