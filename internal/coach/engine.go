package coach

import (
	"context"
	"log/slog"
	"time"

	"github.com/sandeepkv93/gerris/internal/ledger"
	"github.com/sandeepkv93/gerris/internal/model"
)

type Config struct {
	DailyCap        int
	Cooldown        time.Duration
	OverdueLimit    int
	DueSoonLimit    int
	DueSoonWindow   time.Duration
	WeeklyTaskLimit int
	WeeklyWindow    time.Duration
}

func DefaultConfig() Config {
	return Config{
		DailyCap:        3,
		Cooldown:        2 * time.Hour,
		OverdueLimit:    3,
		DueSoonLimit:    3,
		DueSoonWindow:   48 * time.Hour,
		WeeklyTaskLimit: 5,
		WeeklyWindow:    72 * time.Hour,
	}
}

// Composer turns an event into a message. It must always return a message.
type Composer interface {
	Compose(ctx context.Context, ev model.CoachEvent) model.CoachMessage
}

type Options struct {
	Config   Config
	Composer Composer
	Logger   *slog.Logger
	Now      func() time.Time
}

// Engine owns the coach slice of the session. An event is accepted at most
// once; accepted messages are never retracted.
type Engine struct {
	state    *model.CoachState
	cfg      Config
	composer Composer
	logger   *slog.Logger
	now      func() time.Time
}

func New(state *model.CoachState, opts Options) *Engine {
	cfg := opts.Config
	if cfg.DailyCap == 0 && cfg.Cooldown == 0 {
		cfg = DefaultConfig()
	}
	composer := opts.Composer
	if composer == nil {
		composer = TemplateComposer{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{state: state, cfg: cfg, composer: composer, logger: logger, now: now}
}

func (e *Engine) State() model.CoachState { return e.state.Clone() }

// Messages returns accepted messages, newest last.
func (e *Engine) Messages() []model.CoachMessage {
	return append([]model.CoachMessage(nil), e.state.Messages...)
}

// Handle runs one event through dedup, daily cap and cooldown. The event id
// is marked seen before the cap checks, so a dropped event is never retried.
func (e *Engine) Handle(ctx context.Context, ev model.CoachEvent) (model.CoachMessage, bool) {
	if !ledger.IsNew(e.state.SeenEventIDs, ev.EventID) {
		return model.CoachMessage{}, false
	}
	e.state.SeenEventIDs = ledger.Record(e.state.SeenEventIDs, ev.EventID, ledger.CoachSeenEventsLimit)

	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = e.now()
	}
	msg := e.composer.Compose(ctx, ev)
	msg.EventID = ev.EventID
	msg.Trigger = ev.Trigger
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = ev.CreatedAt
	}
	msg.CreatedAt = msg.CreatedAt.UTC()
	if msg.Severity == "" {
		msg.Severity = model.SeverityDefault
	}

	if !e.withinDailyCap(msg.CreatedAt) {
		e.logger.Debug("coach message dropped", "event_id", ev.EventID, "reason", "daily_cap")
		return model.CoachMessage{}, false
	}
	if !e.respectsCooldown(msg) {
		e.logger.Debug("coach message dropped", "event_id", ev.EventID, "reason", "cooldown")
		return model.CoachMessage{}, false
	}

	e.state.Messages = ledger.CapTail(append(e.state.Messages, msg), ledger.CoachMessagesLimit)
	e.state.LastMessageAt = model.TimePtr(msg.CreatedAt)
	return msg, true
}

func (e *Engine) withinDailyCap(at time.Time) bool {
	day := model.DateOf(at)
	count := 0
	for _, m := range e.state.Messages {
		if model.DateOf(m.CreatedAt).Equal(day) {
			count++
		}
	}
	return count < e.cfg.DailyCap
}

func (e *Engine) respectsCooldown(msg model.CoachMessage) bool {
	if msg.Severity == model.SeverityWeekly || e.state.LastMessageAt == nil {
		return true
	}
	return msg.CreatedAt.Sub(*e.state.LastMessageAt) >= e.cfg.Cooldown
}
