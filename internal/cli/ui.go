package cli

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/gerris/internal/reminders"
	"github.com/sandeepkv93/gerris/internal/storage"
	"github.com/sandeepkv93/gerris/internal/update"
)

func addUI(topLevel *cobra.Command, opts *options) {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the terminal user interface (the default command)",
		Example: `
gerris ui
gerris ui --backend sqlite
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	topLevel.AddCommand(cmd)
}

func runTUI(ctx context.Context, opts *options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rt, err := opts.open(ctx, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	var changes <-chan struct{}
	if fb, ok := rt.backend.(*storage.FileBackend); ok && rt.cfg.UI.WatchStateFile {
		changes, err = fb.Watch(ctx)
		if err != nil {
			rt.logger.Warn("state file watch disabled", "error", err)
		}
	}

	// Reminders go out while the UI is open when Brevo is configured.
	sender, err := reminders.NewBrevoSender(rt.cfg.BrevoSenderConfig(), nil, rt.logger)
	switch {
	case err == nil:
		sched := reminders.NewScheduler(sender, rt.tracker, reminders.Options{
			Config: reminderConfig(rt),
			Logger: rt.logger,
			Buffer: rt.cfg.UI.SchedulerBuffer,
		})
		go func() {
			if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				rt.logger.Error("reminder scheduler stopped", "error", err)
			}
		}()
	case errors.Is(err, reminders.ErrMissingBrevoConfig):
		rt.logger.Debug("email reminders disabled", "reason", err)
	default:
		return err
	}

	model := update.NewModel(rt.tracker, update.Options{Context: ctx, Changes: changes})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	return err
}
