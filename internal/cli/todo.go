package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/gerris/internal/model"
	"github.com/sandeepkv93/gerris/internal/todos"
)

type addFlags struct {
	quadrant string
	category string
	due      string
	repeat   string
	remind   string
	target   float64
	unit     string
	priority int
	notes    string
}

func addTodoCommands(topLevel *cobra.Command, opts *options) {
	addList(topLevel, opts)
	addAdd(topLevel, opts)
	addDone(topLevel, opts)
	addProgress(topLevel, opts)
	addDelete(topLevel, opts)
}

func addList(topLevel *cobra.Command, opts *options) {
	var all bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List todos by quadrant",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				view := rt.tracker.View()
				list := view.Todos
				if !all {
					list = list[:0:0]
					for _, t := range view.Todos {
						if !t.Completed {
							list = append(list, t)
						}
					}
				}
				writeTodos(cmd.OutOrStdout(), list, view.Now)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include completed todos")
	topLevel.AddCommand(cmd)
}

func addAdd(topLevel *cobra.Command, opts *options) {
	f := &addFlags{}
	cmd := &cobra.Command{
		Use:   "add TITLE...",
		Short: "Add a todo",
		Example: `
gerris add Update resume --quadrant q2 --category job_search --due 2025-06-01
gerris add Run 5k --target 5 --unit km --repeat weekly
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := f.input(strings.Join(args, " "))
			if err != nil {
				return err
			}
			return withRuntime(cmd, opts, func(rt *runtime) error {
				todo, err := rt.tracker.AddTodo(cmd.Context(), in)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s %s [%s]\n", shortID(todo.ID), bold(todo.Title), todo.Quadrant.Label())
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&f.quadrant, "quadrant", "q", "", "quadrant; suggested from the title when empty")
	flags.StringVarP(&f.category, "category", "c", "", "category (job_search, admin, friends_family, drugs, daily_structure)")
	flags.StringVarP(&f.due, "due", "d", "", "due date, YYYY-MM-DD or YYYY-MM-DDTHH:MM")
	flags.StringVar(&f.repeat, "repeat", "", "recurrence: daily, weekdays, weekly, monthly or yearly")
	flags.StringVar(&f.remind, "remind", "", "email reminder before due: 1h or 1d")
	flags.Float64Var(&f.target, "target", 0, "progress target")
	flags.StringVar(&f.unit, "unit", "", "progress unit")
	flags.IntVarP(&f.priority, "priority", "p", 0, "priority within the quadrant, lower first")
	flags.StringVar(&f.notes, "notes", "", "markdown description")
	topLevel.AddCommand(cmd)
}

func (f *addFlags) input(title string) (todos.AddInput, error) {
	in := todos.AddInput{
		Title:         title,
		Quadrant:      f.quadrant,
		Priority:      f.priority,
		DescriptionMD: f.notes,
		ProgressUnit:  f.unit,
	}
	var err error
	if in.Category, err = model.ParseCategory(f.category); err != nil {
		return in, err
	}
	if in.Recurrence, err = model.ParseRecurrence(f.repeat); err != nil {
		return in, err
	}
	if in.EmailReminder, err = model.ParseReminderOffset(f.remind); err != nil {
		return in, err
	}
	if f.due != "" {
		due, err := parseDue(f.due)
		if err != nil {
			return in, err
		}
		in.DueDate = &due
	}
	if f.target > 0 {
		target := f.target
		in.ProgressTarget = &target
	}
	return in, nil
}

func parseDue(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04", time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("due must be YYYY-MM-DD or YYYY-MM-DDTHH:MM, got %q", raw)
}

func addDone(topLevel *cobra.Command, opts *options) {
	cmd := &cobra.Command{
		Use:   "done ID",
		Short: "Toggle a todo's completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				target, err := resolveTodo(rt.tracker.Todos(), args[0])
				if err != nil {
					return err
				}
				todo, msgs, err := rt.tracker.ToggleTodo(cmd.Context(), target.ID)
				if err != nil {
					return err
				}
				state := "reopened"
				if todo.Completed {
					state = green("done")
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "%s: %s\n", state, todo.Title)
				writeCoach(out, msgs)
				return nil
			})
		},
	}
	topLevel.AddCommand(cmd)
}

func addProgress(topLevel *cobra.Command, opts *options) {
	cmd := &cobra.Command{
		Use:   "progress ID DELTA",
		Short: "Add progress toward a todo's target",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("delta must be a number, got %q", args[1])
			}
			return withRuntime(cmd, opts, func(rt *runtime) error {
				target, err := resolveTodo(rt.tracker.Todos(), args[0])
				if err != nil {
					return err
				}
				todo, msgs, err := rt.tracker.ApplyProgress(cmd.Context(), target.ID, delta, "")
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				line := fmt.Sprintf("%s: %g", todo.Title, todo.ProgressCurrent)
				if todo.ProgressTarget != nil {
					line += fmt.Sprintf("/%g %s", *todo.ProgressTarget, todo.ProgressUnit)
				}
				if todo.Completed {
					line += " " + green("(done)")
				}
				_, _ = fmt.Fprintln(out, strings.TrimSpace(line))
				writeCoach(out, msgs)
				return nil
			})
		},
	}
	topLevel.AddCommand(cmd)
}

func addDelete(topLevel *cobra.Command, opts *options) {
	cmd := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				target, err := resolveTodo(rt.tracker.Todos(), args[0])
				if err != nil {
					return err
				}
				if err := rt.tracker.DeleteTodo(cmd.Context(), target.ID); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", target.Title)
				return nil
			})
		},
	}
	topLevel.AddCommand(cmd)
}
