package main

import (
	"encoding/json"
	"fmt"

	"github.com/Sternrassler/admin-datatable/pkg/query"
	"github.com/spf13/cobra"
)

func urlCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "url <raw-query>",
		Short: "Normalise a table query string",
		Long: `Parse a query string the way a table view reads its URL and print it
back in canonical form. Missing parameters take their defaults and
unknown parameters are dropped.`,
		Example: `  admin-table url "sort=-name&like=ana"
  # limit=10&offset=0&like=ana&sort=-name`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := query.ParseRawQuery(args[0])
			if err != nil {
				return err
			}
			if err := q.Validate(); err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(q)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), q.Encode())
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the parsed state as JSON")

	return cmd
}
