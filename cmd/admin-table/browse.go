package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Sternrassler/admin-datatable/internal/tui"
	"github.com/Sternrassler/admin-datatable/pkg/admin"
	"github.com/Sternrassler/admin-datatable/pkg/client"
	"github.com/Sternrassler/admin-datatable/pkg/logging"
	"github.com/Sternrassler/admin-datatable/pkg/navigator"
	"github.com/Sternrassler/admin-datatable/pkg/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func browseCmd(flags *globalFlags) *cobra.Command {
	var (
		rawQuery    string
		allowDelete bool
	)

	cmd := &cobra.Command{
		Use:   "browse <resource>",
		Short: "Browse a resource interactively",
		Long: `Open an interactive table over cohorts or staff members.

Keys: ←/→ page, +/- rows per page, tab selects the sort column,
s sorts (again to reverse), / searches, r reloads, d deletes the
selected row (with --allow-delete) and q quits. The link of the
last page shown is printed on exit.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: resourceNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Log lines would tear the screen.
			if flags.logLevel == "" {
				flags.logLevel = string(logging.LevelDisabled)
			}

			a, err := newApp(cmd.Context(), flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			switch args[0] {
			case admin.Cohorts.Name:
				return runBrowse(cmd.Context(), a, admin.Cohorts, rawQuery, allowDelete, cmd.OutOrStdout())
			case admin.StaffMembers.Name:
				return runBrowse(cmd.Context(), a, admin.StaffMembers, rawQuery, allowDelete, cmd.OutOrStdout())
			default:
				return unknownResource(args[0])
			}
		},
	}

	cmd.Flags().StringVar(&rawQuery, "url", "", "Query string to open (limit, offset, like, sort)")
	cmd.Flags().BoolVar(&allowDelete, "allow-delete", false, "Enable the delete key")

	return cmd
}

func runBrowse[T any](ctx context.Context, a *app, res admin.Resource[T], rawQuery string, allowDelete bool, out io.Writer) error {
	q, err := a.initialQuery(rawQuery)
	if err != nil {
		return fmt.Errorf("invalid --url: %w", err)
	}

	history := navigator.NewHistory(a.basePath(res.Name) + "?" + q.Encode())
	ctrl, err := table.New(table.Config[T]{
		Search:             client.Searcher[T](a.client, res.Path),
		Navigator:          history,
		Location:           history,
		Ordering:           table.ParseOrdering(a.cfg.Table.Ordering),
		RowsPerPageOptions: a.cfg.Table.RowsPerPageOptions,
		Logger:             &a.logger,
	})
	if err != nil {
		return err
	}
	defer ctrl.Unmount()

	opts := tui.Options[T]{
		Resource:   res,
		Controller: ctrl,
		Context:    ctx,
		Logger:     a.logger,
	}
	if allowDelete {
		opts.Delete = func(ctx context.Context, ids []int) error {
			return a.client.Delete(ctx, res.Path, ids)
		}
	}

	m, err := tui.New(opts)
	if err != nil {
		return err
	}

	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("run browser: %w", err)
	}

	_, err = fmt.Fprintln(out, history.Current().String())
	return err
}
