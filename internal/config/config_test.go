package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/sandeepkv93/gerris/internal/storage"
)

// isolate points HOME and the working directory at empty temp dirs so no
// real gerris.yaml or OneDrive folder leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"ONEDRIVE", "OneDriveCommercial", "OneDriveConsumer", "GERRIS_ONEDRIVE_DIR", "OPENAI_API_KEY", "BREVO_SENDER", "REMINDER_RECIPIENT_EMAIL"} {
		t.Setenv(key, "")
	}
	chdirForTest(t, t.TempDir())
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load(LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageKind() != storage.KindFile {
		t.Fatalf("unexpected backend: %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Path != filepath.Join(storage.LocalFallbackDir, storage.StateFileName) {
		t.Fatalf("unexpected state path: %q", cfg.Storage.Path)
	}
	if cfg.AI.Model != "gpt-4o-mini" || cfg.AI.Timeout != 20*time.Second {
		t.Fatalf("unexpected ai defaults: %+v", cfg.AI)
	}
	coachCfg := cfg.CoachEngineConfig()
	if coachCfg.DailyCap != 3 || coachCfg.Cooldown != 2*time.Hour {
		t.Fatalf("unexpected coach defaults: %+v", coachCfg)
	}
	rem := cfg.ReminderSchedulerConfig()
	if rem.Lookahead != time.Hour || rem.PollInterval != 5*time.Minute {
		t.Fatalf("unexpected reminder defaults: %+v", rem)
	}
	if cfg.AIClientConfig().APIKey != "" {
		t.Fatalf("expected no api key by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("GERRIS_STORAGE_BACKEND", "sqlite")
	t.Setenv("GERRIS_ONEDRIVE_DIR", "/sync")
	t.Setenv("GERRIS_COACH_COOLDOWN", "30m")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("BREVO_SENDER", "me@example.com")
	t.Setenv("REMINDER_LOOKAHEAD_MINUTES", "15")
	t.Setenv("GERRIS_LOG_FORMAT", "JSON")

	cfg, err := Load(LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageKind() != storage.KindSQLite {
		t.Fatalf("unexpected backend: %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Path != filepath.Join("/sync", storage.TrackerDirName, storage.StateFileName) {
		t.Fatalf("unexpected state path: %q", cfg.Storage.Path)
	}
	if cfg.CoachEngineConfig().Cooldown != 30*time.Minute {
		t.Fatalf("unexpected cooldown: %v", cfg.Coach.Cooldown)
	}
	if cfg.AIClientConfig().APIKey != "sk-test" {
		t.Fatalf("expected OPENAI_API_KEY to be honoured")
	}
	rem := cfg.ReminderSchedulerConfig()
	if rem.Recipient != "me@example.com" || rem.Lookahead != 15*time.Minute {
		t.Fatalf("unexpected reminder config: %+v", rem)
	}
	if cfg.Log.Format != "json" {
		t.Fatalf("expected normalized log format, got %q", cfg.Log.Format)
	}
}

func TestLoadDisabledAIDropsKey(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GERRIS_AI_ENABLED", "false")
	cfg, err := Load(LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AIClientConfig().APIKey != "" {
		t.Fatalf("disabled ai must not hand out a key")
	}
}

func TestLoadConfigFile(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "gerris.yaml")
	body := "storage:\n  backend: diskv\n  path: ~/tracker/state.json\ncoach:\n  daily_cap: 5\ngamification:\n  progress_thresholds: [0.5, 0.1, 1.5]\n  progress_points: 8\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(LoadOptions{ConfigFile: path})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageKind() != storage.KindDiskv {
		t.Fatalf("unexpected backend: %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Path != filepath.Join(home, "tracker", "state.json") {
		t.Fatalf("expected ~ expanded, got %q", cfg.Storage.Path)
	}
	if cfg.CoachEngineConfig().DailyCap != 5 {
		t.Fatalf("unexpected daily cap: %d", cfg.Coach.DailyCap)
	}
	game := cfg.GamificationEngineConfig()
	if len(game.ProgressThresholds) != 2 || game.ProgressThresholds[0] != 0.1 || game.ProgressThresholds[1] != 0.5 {
		t.Fatalf("unexpected thresholds: %v", game.ProgressThresholds)
	}
	if game.ProgressPoints != 8 || game.MinMilestonePoints != 5 {
		t.Fatalf("unexpected gamification config: %+v", game)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	isolate(t)
	t.Setenv("GERRIS_STORAGE_BACKEND", "s3")
	if _, err := Load(LoadOptions{}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
