// Package audit provides the command that prints the audit log.
package audit

import (
	"github.com/spf13/cobra"

	"github.com/jwp-tools/jwpedit/cmd/application"
	"github.com/jwp-tools/jwpedit/internal/cmd/output"
	"github.com/jwp-tools/jwpedit/internal/cmd/table"
	auditlog "github.com/jwp-tools/jwpedit/pkg/audit"
)

// NewCommand creates the audit command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		agency string
		limit  int
	)

	cmd := &cobra.Command{
		Use:     "audit",
		GroupID: "data",
		Short:   "Print the audit log, oldest first",
		Example: `  jwpedit audit
  jwpedit audit --agency WFP --limit 20 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}
			records, err := client.AuditLog(cmd.Context())
			if err != nil {
				return err
			}
			records = Select(records, agency, limit)

			format := output.DetectFormat(app.OutputFormat())
			return output.Render(cmd.OutOrStdout(), format, records, func(bool) output.Data {
				return table.AuditToTableData(records)
			})
		},
	}

	cmd.Flags().StringVarP(&agency, "agency", "a", "", "only records of this agency")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "only the last n records (0 for all)")
	return cmd
}

// Select keeps the records of agency (all when empty), then the last limit
// of them when limit is positive.
func Select(records []auditlog.Record, agency string, limit int) []auditlog.Record {
	out := records
	if agency != "" {
		out = make([]auditlog.Record, 0, len(records))
		for _, r := range records {
			if r.Agency == agency {
				out = append(out, r)
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
