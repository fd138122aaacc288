// Package config loads runtime settings from defaults, an optional
// gerris.yaml and GERRIS_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/sandeepkv93/gerris/internal/ai"
	"github.com/sandeepkv93/gerris/internal/coach"
	"github.com/sandeepkv93/gerris/internal/gamification"
	"github.com/sandeepkv93/gerris/internal/reminders"
	"github.com/sandeepkv93/gerris/internal/storage"
)

const EnvPrefix = "GERRIS"

type Config struct {
	Storage      StorageConfig      `mapstructure:"storage"`
	Log          LogConfig          `mapstructure:"log"`
	AI           AIConfig           `mapstructure:"ai"`
	Reminders    ReminderConfig     `mapstructure:"reminders"`
	Brevo        BrevoConfig        `mapstructure:"brevo"`
	Coach        CoachConfig        `mapstructure:"coach"`
	Gamification GamificationConfig `mapstructure:"gamification"`
	UI           UIConfig           `mapstructure:"ui"`
}

type StorageConfig struct {
	Backend     string `mapstructure:"backend"`
	Path        string `mapstructure:"path"`
	OneDriveDir string `mapstructure:"onedrive_dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AIConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	ReasoningModel string        `mapstructure:"reasoning_model"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxTokens      int           `mapstructure:"max_tokens"`
}

type ReminderConfig struct {
	Recipient           string `mapstructure:"recipient"`
	LookaheadMinutes    int    `mapstructure:"lookahead_minutes"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds"`
}

type BrevoConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Sender     string `mapstructure:"sender"`
	SenderName string `mapstructure:"sender_name"`
}

type CoachConfig struct {
	DailyCap      int           `mapstructure:"daily_cap"`
	Cooldown      time.Duration `mapstructure:"cooldown"`
	DueSoonWindow time.Duration `mapstructure:"due_soon_window"`
	WeeklyWindow  time.Duration `mapstructure:"weekly_window"`
}

// GamificationConfig sets the progress reward granularity: each fraction in
// ProgressThresholds pays ProgressPoints once per todo.
type GamificationConfig struct {
	ProgressThresholds []float64 `mapstructure:"progress_thresholds"`
	ProgressPoints     int       `mapstructure:"progress_points"`
	MinMilestonePoints int       `mapstructure:"min_milestone_points"`
}

type UIConfig struct {
	SchedulerBuffer int  `mapstructure:"scheduler_buffer"`
	WatchStateFile  bool `mapstructure:"watch_state_file"`
}

func setDefaults(v *viper.Viper) {
	coachDefaults := coach.DefaultConfig()
	gameDefaults := gamification.DefaultConfig()

	v.SetDefault("storage.backend", string(storage.KindFile))
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.onedrive_dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.model", ai.DefaultModel)
	v.SetDefault("ai.reasoning_model", ai.DefaultReasoningModel)
	v.SetDefault("ai.max_attempts", ai.DefaultMaxAttempts)
	v.SetDefault("ai.timeout", ai.DefaultTimeout)
	v.SetDefault("ai.max_tokens", ai.DefaultMaxTokens)
	v.SetDefault("reminders.recipient", "")
	v.SetDefault("reminders.lookahead_minutes", int(reminders.DefaultLookahead/time.Minute))
	v.SetDefault("reminders.poll_interval_seconds", int(reminders.DefaultPollInterval/time.Second))
	v.SetDefault("brevo.api_key", "")
	v.SetDefault("brevo.sender", "")
	v.SetDefault("brevo.sender_name", "")
	v.SetDefault("coach.daily_cap", coachDefaults.DailyCap)
	v.SetDefault("coach.cooldown", coachDefaults.Cooldown)
	v.SetDefault("coach.due_soon_window", coachDefaults.DueSoonWindow)
	v.SetDefault("coach.weekly_window", coachDefaults.WeeklyWindow)
	v.SetDefault("gamification.progress_thresholds", gameDefaults.ProgressThresholds)
	v.SetDefault("gamification.progress_points", gameDefaults.ProgressPoints)
	v.SetDefault("gamification.min_milestone_points", gameDefaults.MinMilestonePoints)
	v.SetDefault("ui.scheduler_buffer", 64)
	v.SetDefault("ui.watch_state_file", true)
}

// legacyEnv lets the variable names the tracker has always used keep
// working next to their GERRIS_* spellings.
var legacyEnv = map[string][]string{
	"ai.api_key":                      {"OPENAI_API_KEY"},
	"ai.base_url":                     {"OPENAI_BASE_URL"},
	"brevo.api_key":                   {"BREVO_API_KEY"},
	"brevo.sender":                    {"BREVO_SENDER"},
	"brevo.sender_name":               {"BREVO_SENDER_NAME"},
	"reminders.recipient":             {"REMINDER_RECIPIENT_EMAIL"},
	"reminders.lookahead_minutes":     {"REMINDER_LOOKAHEAD_MINUTES"},
	"reminders.poll_interval_seconds": {"REMINDER_POLL_INTERVAL_SECONDS"},
	"storage.onedrive_dir":            {"GERRIS_ONEDRIVE_DIR"},
}

type LoadOptions struct {
	// ConfigFile overrides the gerris.yaml search.
	ConfigFile string
}

func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, envKey}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if opts.ConfigFile != "" {
		path, err := homedir.Expand(opts.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("expand config path: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("gerris")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home + "/.config/gerris")
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	kind, err := storage.ParseKind(c.Storage.Backend)
	if err != nil {
		return err
	}
	c.Storage.Backend = string(kind)
	if c.Storage.Path != "" {
		if expanded, err := homedir.Expand(c.Storage.Path); err == nil {
			c.Storage.Path = expanded
		}
	}
	if c.Storage.Path == "" {
		c.Storage.Path = storage.ResolveStatePath(c.getenv)
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.UI.SchedulerBuffer <= 0 {
		c.UI.SchedulerBuffer = 64
	}
	return nil
}

// getenv resolves the storage path with the configured OneDrive directory
// taking the place of GERRIS_ONEDRIVE_DIR.
func (c *Config) getenv(key string) string {
	if key == "GERRIS_ONEDRIVE_DIR" {
		return c.Storage.OneDriveDir
	}
	return os.Getenv(key)
}

func (c *Config) StorageKind() storage.Kind { return storage.Kind(c.Storage.Backend) }

// AIClientConfig is empty of a key when AI is switched off, so the client
// constructor reports AI as unavailable.
func (c *Config) AIClientConfig() ai.Config {
	out := ai.Config{
		APIKey:         c.AI.APIKey,
		BaseURL:        c.AI.BaseURL,
		Model:          c.AI.Model,
		ReasoningModel: c.AI.ReasoningModel,
		Timeout:        c.AI.Timeout,
		MaxAttempts:    c.AI.MaxAttempts,
		MaxTokens:      c.AI.MaxTokens,
	}
	if !c.AI.Enabled {
		out.APIKey = ""
	}
	return out
}

func (c *Config) ReminderSchedulerConfig() reminders.Config {
	recipient := c.Reminders.Recipient
	if recipient == "" {
		recipient = c.Brevo.Sender
	}
	return reminders.Config{
		Recipient:    recipient,
		Lookahead:    time.Duration(c.Reminders.LookaheadMinutes) * time.Minute,
		PollInterval: time.Duration(c.Reminders.PollIntervalSeconds) * time.Second,
	}
}

func (c *Config) BrevoSenderConfig() reminders.BrevoConfig {
	return reminders.BrevoConfig{
		APIKey:     c.Brevo.APIKey,
		Sender:     c.Brevo.Sender,
		SenderName: c.Brevo.SenderName,
	}
}

func (c *Config) CoachEngineConfig() coach.Config {
	out := coach.DefaultConfig()
	if c.Coach.DailyCap > 0 {
		out.DailyCap = c.Coach.DailyCap
	}
	if c.Coach.Cooldown >= 0 {
		out.Cooldown = c.Coach.Cooldown
	}
	if c.Coach.DueSoonWindow > 0 {
		out.DueSoonWindow = c.Coach.DueSoonWindow
	}
	if c.Coach.WeeklyWindow > 0 {
		out.WeeklyWindow = c.Coach.WeeklyWindow
	}
	return out
}

// NewLogger builds the process logger from the log section.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.Log.Level)}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(raw string) slog.Level {
	switch raw {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GamificationEngineConfig drops thresholds outside (0, 1]; an empty result
// falls back to the default quarter steps.
func (c *Config) GamificationEngineConfig() gamification.Config {
	out := gamification.DefaultConfig()
	var thresholds []float64
	for _, th := range c.Gamification.ProgressThresholds {
		if th > 0 && th <= 1 {
			thresholds = append(thresholds, th)
		}
	}
	if len(thresholds) > 0 {
		sort.Float64s(thresholds)
		out.ProgressThresholds = thresholds
	}
	if c.Gamification.ProgressPoints > 0 {
		out.ProgressPoints = c.Gamification.ProgressPoints
	}
	if c.Gamification.MinMilestonePoints > 0 {
		out.MinMilestonePoints = c.Gamification.MinMilestonePoints
	}
	return out
}
