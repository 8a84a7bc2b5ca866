package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Sternrassler/admin-datatable/pkg/admin"
	"github.com/Sternrassler/admin-datatable/pkg/client"
	"github.com/Sternrassler/admin-datatable/pkg/metrics"
	"github.com/Sternrassler/admin-datatable/pkg/navigator"
	"github.com/Sternrassler/admin-datatable/pkg/pagination"
	"github.com/Sternrassler/admin-datatable/pkg/query"
	"github.com/Sternrassler/admin-datatable/pkg/table"
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

type listOptions struct {
	rawQuery string
	all      bool
	csv      bool
	metrics  bool
	link     string
	sortBy   string
	sortDir  string
}

func listCmd(flags *globalFlags) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "Print one page of a resource",
		Long: `Print one page of cohorts or staff members.

The page is selected by a query string such as
"limit=20&offset=40&like=ana&sort=-name". After the table the
normalised link of the page is printed so it can be shared or
passed back with --url.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: resourceNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			switch args[0] {
			case admin.Cohorts.Name:
				err = runList(cmd.Context(), a, admin.Cohorts, opts, out)
			case admin.StaffMembers.Name:
				err = runList(cmd.Context(), a, admin.StaffMembers, opts, out)
			default:
				return unknownResource(args[0])
			}
			if err != nil {
				return err
			}

			if opts.metrics {
				return metrics.Write(cmd.ErrOrStderr())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.rawQuery, "url", "", "Query string of the page (limit, offset, like, sort)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "Fetch every page matching the query")
	cmd.Flags().BoolVar(&opts.csv, "csv", false, "Write CSV instead of a table")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Dump collected metrics to stderr when done")
	cmd.Flags().StringVar(&opts.sortBy, "sort-by", "", "Sort column, overrides the sort in --url")
	cmd.Flags().StringVar(&opts.sortDir, "sort-dir", "asc", "Sort direction for --sort-by (asc or desc)")
	cmd.Flags().StringVar(&opts.link, "link-base", "", "Prefix of the printed link, e.g. https://admin.example.com")

	return cmd
}

func runList[T any](ctx context.Context, a *app, res admin.Resource[T], opts *listOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	q, err := a.initialQuery(opts.rawQuery)
	if err != nil {
		return fmt.Errorf("invalid --url: %w", err)
	}
	if opts.sortBy != "" {
		dir, ok := query.ParseDirection(opts.sortDir)
		if !ok {
			return fmt.Errorf("invalid --sort-dir %q: want asc or desc", opts.sortDir)
		}
		q = q.Apply(query.SetSort(query.SortFor(opts.sortBy, dir)))
		if err := q.Validate(); err != nil {
			return fmt.Errorf("invalid --sort-by: %w", err)
		}
	}
	search := client.Searcher[T](a.client, res.Path)

	if opts.all {
		items, err := pagination.FetchAll(ctx, search, q, pagination.DefaultConfig())
		if err != nil {
			return fmt.Errorf("fetch all %s: %w", res.Name, err)
		}
		return render(out, res, items, fmt.Sprintf("%d %s", len(items), res.Name), opts.csv)
	}

	path := a.basePath(res.Name)
	ctrl, err := table.New(table.Config[T]{
		Search:             search,
		Location:           navigator.NewHistory(path + "?" + q.Encode()),
		Ordering:           table.ParseOrdering(a.cfg.Table.Ordering),
		RowsPerPageOptions: a.cfg.Table.RowsPerPageOptions,
		Logger:             &a.logger,
	})
	if err != nil {
		return err
	}
	defer ctrl.Unmount()

	if err := ctrl.Mount(ctx); err != nil {
		return fmt.Errorf("list %s: %w", res.Name, err)
	}

	view := ctrl.View()
	if err := render(out, res, view.Items, summary(view), opts.csv); err != nil {
		return err
	}
	if opts.csv {
		return nil
	}

	navigator.NewWriter(out, opts.link, a.logger).Replace(path, view.Query.Encode())
	return nil
}

func render[T any](out io.Writer, res admin.Resource[T], items []T, footer string, csv bool) error {
	if csv {
		return res.WriteCSV(out, items)
	}

	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))).
		Headers(res.Headers()...).
		Rows(res.Rows(items)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return header
			}
			return cell
		})

	if _, err := fmt.Fprintln(out, t.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, footer)
	return err
}

func summary[T any](view table.View[T]) string {
	if view.Count == 0 || len(view.Items) == 0 {
		return fmt.Sprintf("No rows (%d total)", view.Count)
	}
	first := view.Query.Offset + 1
	last := view.Query.Offset + len(view.Items)
	pages := query.PageResult[T]{Count: view.Count}.Pages(view.RowsPerPage)
	return fmt.Sprintf("Rows %d-%d of %d · page %d/%d", first, last, view.Count, view.Page+1, pages)
}
