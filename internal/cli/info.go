package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/gerris/internal/storage"
)

const saveLogLimit = 5

func addInfo(topLevel *cobra.Command, opts *options) {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Details about where state is stored",
		Example: `
gerris info
gerris info --backend sqlite
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				view := rt.tracker.View()
				out := cmd.OutOrStdout()
				tbl := newTable()
				tbl.AddRow(bold("Backend"), view.Backend)
				tbl.AddRow(bold("State path"), rt.cfg.Storage.Path)
				tbl.AddRow(bold("Todos"), len(view.Todos))
				tbl.AddRow(bold("Journal entries"), len(view.Journal))
				tbl.AddRow(bold("Coach messages"), len(view.Coach))
				if view.Warning != nil {
					tbl.AddRow(bold("Warning"), red(view.Warning.Error()))
				}
				_, _ = fmt.Fprintln(out, tbl)

				db, ok := rt.backend.(*storage.SQLiteBackend)
				if !ok {
					return nil
				}
				sections, err := db.ListSections(cmd.Context())
				if err != nil {
					return err
				}
				st := newTable()
				st.AddRow(bold("Section"), bold("Bytes"), bold("Updated"))
				for _, s := range sections {
					st.AddRow(s.Name, s.Size, s.UpdatedAt.UTC().Format("2006-01-02 15:04:05"))
				}
				_, _ = fmt.Fprintln(out)
				_, _ = fmt.Fprintln(out, st)

				saves, err := db.SaveLog(cmd.Context(), saveLogLimit)
				if err != nil {
					return err
				}
				lt := newTable()
				lt.AddRow(bold("Saved"), bold("Changed"), bold("Removed"))
				for _, r := range saves {
					lt.AddRow(r.SavedAt.UTC().Format("2006-01-02 15:04:05"), strings.Join(r.Changed, ","), strings.Join(r.Removed, ","))
				}
				_, _ = fmt.Fprintln(out)
				_, _ = fmt.Fprintln(out, lt)
				return nil
			})
		},
	}
	topLevel.AddCommand(cmd)
}
