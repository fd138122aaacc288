package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/gerris/internal/reminders"
)

// reminderConfig lets the recipient saved in settings stand in when config
// names none.
func reminderConfig(rt *runtime) reminders.Config {
	cfg := rt.cfg.ReminderSchedulerConfig()
	if rt.cfg.Reminders.Recipient == "" {
		if saved := rt.tracker.Settings().ReminderRecipient; saved != "" {
			cfg.Recipient = saved
		}
	}
	return cfg
}

func addRemind(topLevel *cobra.Command, opts *options) {
	var once bool
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send due email reminders through Brevo",
		Example: `
gerris remind --once
BREVO_API_KEY=... BREVO_SENDER=me@example.com gerris remind
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				sender, err := reminders.NewBrevoSender(rt.cfg.BrevoSenderConfig(), nil, rt.logger)
				if err != nil {
					return err
				}
				sched := reminders.NewScheduler(sender, rt.tracker, reminders.Options{
					Config: reminderConfig(rt),
					Logger: rt.logger,
					Buffer: rt.cfg.UI.SchedulerBuffer,
				})
				if !once {
					err := sched.Run(cmd.Context())
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				sent, err := sched.PollOnce(cmd.Context())
				out := cmd.OutOrStdout()
				for _, t := range sent {
					_, _ = fmt.Fprintf(out, "%s %s\n", green("sent"), t.Title)
				}
				if len(sent) == 0 && err == nil {
					_, _ = fmt.Fprintln(out, faint("no reminders due"))
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "poll once and exit")
	topLevel.AddCommand(cmd)
}
