// Package cli wires the gerris command tree: the TUI plus one-shot commands
// that read and write the same state document.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/gerris/internal/ai"
	"github.com/sandeepkv93/gerris/internal/config"
	"github.com/sandeepkv93/gerris/internal/state"
	"github.com/sandeepkv93/gerris/internal/storage"
	"github.com/sandeepkv93/gerris/internal/tracker"
)

const logFileName = "gerris.log"

type options struct {
	configFile string
	backend    string
	statePath  string
}

// runtime is everything a command needs once config and storage are open.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	backend storage.Backend
	tracker *tracker.Tracker
	logFile *os.File
}

func New() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "gerris",
		Short:        "Eisenhower-matrix todos with KPIs, coaching and a journal.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default ./gerris.yaml, then ~/.config/gerris/gerris.yaml)")
	flags.StringVar(&opts.backend, "backend", "", "storage backend: file, sqlite or diskv")
	flags.StringVar(&opts.statePath, "state", "", "state file path")

	addCommands(cmd, opts)
	return cmd
}

func addCommands(topLevel *cobra.Command, opts *options) {
	addUI(topLevel, opts)
	addTodoCommands(topLevel, opts)
	addMilestone(topLevel, opts)
	addCard(topLevel, opts)
	addStats(topLevel, opts)
	addCoach(topLevel, opts)
	addRemind(topLevel, opts)
	addSuggest(topLevel, opts)
	addJournal(topLevel, opts)
	addSettings(topLevel, opts)
	addInfo(topLevel, opts)
}

func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: o.configFile})
	if err != nil {
		return nil, err
	}
	if o.backend != "" {
		kind, err := storage.ParseKind(o.backend)
		if err != nil {
			return nil, err
		}
		cfg.Storage.Backend = string(kind)
	}
	if o.statePath != "" {
		path, err := homedir.Expand(o.statePath)
		if err != nil {
			return nil, fmt.Errorf("expand state path: %w", err)
		}
		cfg.Storage.Path = path
	}
	return cfg, nil
}

// open loads config and the tracker. Logs go to logTo; when logTo is nil
// they go to a log file next to the state document so they stay out of the
// terminal UI.
func (o *options) open(ctx context.Context, logTo io.Writer) (*runtime, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg}
	if logTo == nil {
		dir := filepath.Dir(cfg.Storage.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		rt.logFile = f
		logTo = f
	}
	rt.logger = cfg.NewLogger(logTo)

	backend, err := storage.Open(cfg.StorageKind(), cfg.Storage.Path)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.backend = backend
	rt.tracker, err = tracker.Open(ctx, backend, tracker.Options{
		Logger:       rt.logger,
		AI:           ai.NewClient(cfg.AIClientConfig(), rt.logger),
		Coach:        cfg.CoachEngineConfig(),
		Gamification: cfg.GamificationEngineConfig(),
	})
	if err != nil {
		rt.Close()
		if state.IsInvalidInput(err) {
			return nil, fmt.Errorf("stored data in %s names an unknown value, fix or remove that entry: %w", backend.Describe(), err)
		}
		return nil, err
	}
	return rt, nil
}

func (r *runtime) Close() error {
	var errs []error
	switch {
	case r.tracker != nil:
		errs = append(errs, r.tracker.Close())
	case r.backend != nil:
		errs = append(errs, r.backend.Close())
	}
	if r.logFile != nil {
		errs = append(errs, r.logFile.Close())
	}
	return errors.Join(errs...)
}

// withRuntime opens the tracker for a one-shot command and closes it after.
func withRuntime(cmd *cobra.Command, opts *options, fn func(*runtime) error) error {
	rt, err := opts.open(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := fn(rt); err != nil {
		return err
	}
	if w := rt.tracker.Warning(); w != nil {
		return fmt.Errorf("state not saved: %w", w)
	}
	return nil
}
