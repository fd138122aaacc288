package model

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidReminderOffset = errors.New("model: invalid email reminder offset")

type EmailReminderOffset string

const (
	EmailReminderNone    EmailReminderOffset = "none"
	EmailReminderOneHour EmailReminderOffset = "one_hour"
	EmailReminderOneDay  EmailReminderOffset = "one_day"
)

func (o EmailReminderOffset) IsValid() bool {
	switch o {
	case EmailReminderNone, EmailReminderOneHour, EmailReminderOneDay:
		return true
	default:
		return false
	}
}

func ParseReminderOffset(raw string) (EmailReminderOffset, error) {
	switch raw {
	case "", "none":
		return EmailReminderNone, nil
	case "1h", "one_hour":
		return EmailReminderOneHour, nil
	case "1d", "one_day":
		return EmailReminderOneDay, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidReminderOffset, raw)
	}
}

func (o EmailReminderOffset) Duration() time.Duration {
	switch o {
	case EmailReminderOneHour:
		return time.Hour
	case EmailReminderOneDay:
		return 24 * time.Hour
	default:
		return 0
	}
}

// ReminderAt is the instant a reminder for due should go out, or nil when
// there is nothing to remind about.
func (o EmailReminderOffset) ReminderAt(due *time.Time) *time.Time {
	d := o.Duration()
	if due == nil || d == 0 {
		return nil
	}
	at := due.UTC().Add(-d)
	return &at
}
