// Package rows provides the command that prints master-data rows.
package rows

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwp-tools/jwpedit/cmd/application"
	"github.com/jwp-tools/jwpedit/internal/cmd/output"
	"github.com/jwp-tools/jwpedit/internal/cmd/table"
	"github.com/jwp-tools/jwpedit/internal/server/filter"
	"github.com/jwp-tools/jwpedit/pkg/access"
	"github.com/jwp-tools/jwpedit/pkg/masterdata"
)

// NoRowsMessage is printed when an agency has no rows.
const NoRowsMessage = "No activities found for your agency."

// NewCommand creates the rows command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		agency string
		all    bool
		f      filter.RowFilter
	)

	cmd := &cobra.Command{
		Use:     "rows",
		Aliases: []string{"ls"},
		GroupID: "core",
		Short:   "Print the rows visible to an agency",
		Example: `  jwpedit rows --agency UNDP
  jwpedit rows --all --sort end_date --desc -o csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			policy, err := policyFor(agency, all)
			if err != nil {
				return err
			}
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}
			visible, err := client.Visible(cmd.Context(), policy)
			if err != nil {
				return err
			}

			rows := f.Apply(visible.Rows)
			if len(rows) == 0 && policy.Scope == access.ScopeAgency {
				cmd.PrintErrln(NoRowsMessage)
			}

			format := output.DetectFormat(app.OutputFormat())
			return output.Render(cmd.OutOrStdout(), format, rows, func(wide bool) output.Data {
				return table.RowsToTableData(rows, wide)
			})
		},
	}

	cmd.Flags().StringVarP(&agency, "agency", "a", "", "agency whose rows to show")
	cmd.Flags().BoolVar(&all, "all", false, "show every row (admin view)")
	cmd.Flags().StringVar(&f.Progress, "progress", "", "only rows with this progress value")
	cmd.Flags().StringVar(&f.ActivityContains, "activity", "", "only rows whose activity contains this text")
	cmd.Flags().StringVar(&f.Sort, "sort", filter.SortOrdinal, "sort key: ordinal, end_date, spending, last_updated")
	cmd.Flags().BoolVar(&f.Desc, "desc", false, "sort descending")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "maximum number of rows (0 for all)")
	cmd.MarkFlagsMutuallyExclusive("agency", "all")

	return cmd
}

func policyFor(agency string, all bool) (access.Policy, error) {
	if all {
		return access.Admin(), nil
	}
	if agency == "" {
		return access.Policy{}, fmt.Errorf("--agency or --all is required")
	}
	a, err := masterdata.ParseAgency(agency)
	if err != nil {
		return access.Policy{}, err
	}
	return access.ForIdentity(masterdata.Identity{Agency: a}), nil
}
