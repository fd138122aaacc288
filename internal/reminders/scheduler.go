package reminders

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/gerris/internal/model"
	"github.com/sandeepkv93/gerris/internal/scheduler"
)

const (
	DefaultLookahead    = 60 * time.Minute
	DefaultPollInterval = 300 * time.Second
	eventKind           = "email_reminder"
	defaultEngineBuffer = 64
)

var ErrMissingRecipient = errors.New("reminders: no recipient configured (REMINDER_RECIPIENT_EMAIL)")

type Config struct {
	Recipient    string
	Lookahead    time.Duration
	PollInterval time.Duration
}

// ConfigFromEnv falls back to BREVO_SENDER when no explicit recipient is
// set, so a sender mails themselves by default.
func ConfigFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Recipient:    strings.TrimSpace(getenv("REMINDER_RECIPIENT_EMAIL")),
		Lookahead:    time.Duration(envInt(getenv, "REMINDER_LOOKAHEAD_MINUTES", 60)) * time.Minute,
		PollInterval: time.Duration(envInt(getenv, "REMINDER_POLL_INTERVAL_SECONDS", 300)) * time.Second,
	}
	if cfg.Recipient == "" {
		cfg.Recipient = strings.TrimSpace(getenv("BREVO_SENDER"))
	}
	if cfg.Recipient == "" {
		return cfg, ErrMissingRecipient
	}
	return cfg, nil
}

func envInt(getenv func(string) string, key string, fallback int) int {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// Store is the todo source the scheduler reads from and records deliveries in.
type Store interface {
	Todos() []model.Todo
	MarkReminderSent(todoID string, sentAt time.Time, reminderAt *time.Time) error
}

type Options struct {
	Config Config
	Now    func() time.Time
	Logger *slog.Logger
	// Buffer sizes the timer engine's output channel.
	Buffer int
}

type Scheduler struct {
	sender Sender
	store  Store
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
	buffer int
	armed  map[string]bool
}

func NewScheduler(sender Sender, store Store, opts Options) *Scheduler {
	cfg := opts.Config
	if cfg.Lookahead < 0 {
		cfg.Lookahead = 0
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = defaultEngineBuffer
	}
	return &Scheduler{
		sender: sender,
		store:  store,
		cfg:    cfg,
		now:    now,
		logger: logger,
		buffer: buffer,
		armed:  make(map[string]bool),
	}
}

// PollOnce sends every due reminder. A todo is marked sent only after its
// delivery succeeded; failed deliveries stay due for the next poll and are
// reported together.
func (s *Scheduler) PollOnce(ctx context.Context) ([]model.Todo, error) {
	if s.cfg.Recipient == "" {
		return nil, ErrMissingRecipient
	}
	now := s.now().UTC()
	var (
		sent []model.Todo
		errs []error
	)
	for _, todo := range s.store.Todos() {
		if !IsDue(todo, now, s.cfg.Lookahead) {
			continue
		}
		at := ReminderAt(todo)
		s.logger.Info("sending reminder", "todo_id", todo.ID, "title", todo.Title)
		if err := s.sender.Send(ctx, BuildMessage(s.cfg.Recipient, todo, at, now)); err != nil {
			s.logger.Error("reminder delivery failed", "todo_id", todo.ID, "error", err)
			errs = append(errs, fmt.Errorf("todo %s: %w", todo.ID, err))
			continue
		}
		if err := s.store.MarkReminderSent(todo.ID, now, at); err != nil {
			errs = append(errs, fmt.Errorf("todo %s: mark sent: %w", todo.ID, err))
			continue
		}
		todo.ReminderSentAt = &now
		todo.ReminderAt = at
		sent = append(sent, todo)
	}
	return sent, errors.Join(errs...)
}

// Run polls on the configured interval. Reminders that become due between
// polls are armed on a scheduler engine so they go out on time.
func (s *Scheduler) Run(ctx context.Context) error {
	engine := scheduler.NewEngineWithClock(s.buffer, s.now)
	engine.Start()
	defer engine.Stop()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.tick(ctx, engine)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx, engine)
		case ev, ok := <-engine.C():
			if !ok {
				return nil
			}
			s.logger.Debug("reminder timer fired", "todo_id", ev.TodoID)
			s.tick(ctx, engine)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, engine *scheduler.Engine) {
	if _, err := s.PollOnce(ctx); err != nil {
		s.logger.Error("reminder poll failed", "error", err)
	}
	s.arm(engine)
}

func (s *Scheduler) arm(engine *scheduler.Engine) {
	keep := make(map[string]bool)
	for _, todo := range Pending(s.store.Todos(), s.now(), s.cfg.Lookahead) {
		key := eventKind + ":" + todo.ID
		err := engine.Schedule(scheduler.Event{
			Key:       key,
			TodoID:    todo.ID,
			Kind:      eventKind,
			TriggerAt: ReminderAt(todo).Add(-s.cfg.Lookahead),
		})
		if err != nil {
			s.logger.Warn("arm reminder failed", "todo_id", todo.ID, "error", err)
			continue
		}
		keep[key] = true
	}
	for key := range s.armed {
		if !keep[key] {
			engine.Cancel(key)
		}
	}
	s.armed = keep
}

const timeLayout = "2006-01-02 15:04 UTC"

// BuildMessage renders the reminder mail for todo.
func BuildMessage(to string, todo model.Todo, reminderAt *time.Time, now time.Time) Message {
	due := "no due date"
	if todo.DueDate != nil {
		due = todo.DueDate.UTC().Format(timeLayout)
	}
	reminder := "no reminder configured"
	if reminderAt != nil {
		reminder = reminderAt.UTC().Format(timeLayout)
	}
	title := html.EscapeString(todo.Title)
	var b strings.Builder
	b.WriteString("<p>Hi!</p>\n")
	fmt.Fprintf(&b, "<p>Your task <strong>%s</strong> is due on <strong>%s</strong>.<br/>\n", title, html.EscapeString(due))
	fmt.Fprintf(&b, "Reminder time: %s</p>\n", html.EscapeString(reminder))
	fmt.Fprintf(&b, "<p>Sent: %s</p>\n", now.UTC().Format(timeLayout))
	return Message{
		To:      to,
		Subject: "Reminder: " + todo.Title,
		HTML:    b.String(),
	}
}
