package model

import (
	"fmt"
	"time"
)

type CoachTrigger string

const (
	TriggerTaskCompleted CoachTrigger = "task_completed"
	TriggerOverdue       CoachTrigger = "overdue"
	TriggerDueSoon       CoachTrigger = "due_soon"
	TriggerWeekly        CoachTrigger = "weekly"
)

const (
	SeverityDefault   = "default"
	SeverityWeekly    = "weekly"
	SeverityMilestone = "milestone"
)

// CoachEvent is transient; only the message it produces is stored.
type CoachEvent struct {
	Trigger   CoachTrigger
	EventID   string
	CreatedAt time.Time
	Context   map[string]any
}

func (e CoachEvent) ContextValue(key string) string {
	v, ok := e.Context[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

type CoachMessage struct {
	EventID   string            `json:"event_id"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	CreatedAt time.Time         `json:"created_at"`
	Trigger   CoachTrigger      `json:"trigger"`
	Severity  string            `json:"severity"`
	Context   map[string]string `json:"context"`
}

type CoachState struct {
	SeenEventIDs  []string       `json:"seen_event_ids"`
	Messages      []CoachMessage `json:"messages"`
	LastMessageAt *time.Time     `json:"last_message_at"`
}

func DefaultCoachState() CoachState {
	return CoachState{SeenEventIDs: []string{}, Messages: []CoachMessage{}}
}

func (c CoachState) Clone() CoachState {
	out := c
	out.SeenEventIDs = append([]string{}, c.SeenEventIDs...)
	out.Messages = append([]CoachMessage{}, c.Messages...)
	out.LastMessageAt = cloneTime(c.LastMessageAt)
	return out
}
