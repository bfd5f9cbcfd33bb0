// Package apply provides the command that saves edits from a YAML or JSON
// file, the CLI counterpart of the editing grid.
package apply

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwp-tools/jwpedit/cmd/application"
	"github.com/jwp-tools/jwpedit/internal/cmd/output"
	"github.com/jwp-tools/jwpedit/internal/cmd/table"
	"github.com/jwp-tools/jwpedit/pkg/access"
	"github.com/jwp-tools/jwpedit/pkg/errors"
	"github.com/jwp-tools/jwpedit/pkg/masterdata"
)

// Options are the apply command flags.
type Options struct {
	Name   string
	Email  string
	Agency string
	File   string
	DryRun bool
}

// NewCommand creates the apply command.
func NewCommand(app application.Application) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:     "apply",
		GroupID: "core",
		Short:   "Save row edits from a YAML or JSON file",
		Long: `Apply loads the rows visible to the given agency, applies the edits in the
file and saves the result. Only End date, Spending and Progress are written;
each changed row gets a Last Updated stamp and one Audit Log record.

Edit file format:

  rows:
    - ordinal: 3
      progress: Completed
      spending: 1500.5
      end_date: "2025-12-31"`,
		Example: `  jwpedit apply --name "Ana" --email ana@undp.org --agency UNDP --file edits.yaml
  jwpedit apply --name "Ana" --email ana@undp.org --agency UNDP --file edits.yaml --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "your name, recorded in the audit log")
	cmd.Flags().StringVar(&opts.Email, "email", "", "your email, recorded in the audit log")
	cmd.Flags().StringVarP(&opts.Agency, "agency", "a", "", "your agency")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", `edit file ("-" for stdin)`)
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the planned cell writes without saving")
	for _, name := range []string{"name", "email", "agency", "file"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func run(cmd *cobra.Command, app application.Application, opts Options) error {
	ctx := cmd.Context()
	logger := app.Logger()

	id, err := masterdata.NewIdentity(opts.Name, opts.Email, opts.Agency)
	if err != nil {
		return err
	}

	edits, err := readEdits(cmd, opts.File)
	if err != nil {
		return err
	}

	client, err := app.Client(ctx)
	if err != nil {
		return err
	}
	// Edits are always compared against fresh store content.
	client.Invalidate()
	snapshot, err := client.Visible(ctx, access.ForIdentity(id))
	if err != nil {
		return err
	}
	edited, err := edits.Apply(snapshot)
	if err != nil {
		return err
	}

	format := output.DetectFormat(app.OutputFormat())
	w := cmd.OutOrStdout()

	if opts.DryRun {
		plans, err := client.Preview(ctx, edited, snapshot)
		if err != nil {
			return err
		}
		if len(plans) == 0 {
			cmd.PrintErrln("No changes detected.")
		}
		return output.Render(w, format, plans, func(bool) output.Data {
			return table.PlansToTableData(plans)
		})
	}

	res, saveErr := client.Save(ctx, id, edited, snapshot)
	if res == nil {
		return saveErr
	}

	for _, f := range res.WriteFailures {
		logger.Warn().Err(f).Int("ordinal", f.Ordinal).Msg("Row not fully written")
	}
	for _, f := range res.AuditFailures {
		logger.Warn().Err(f).Int("ordinal", f.Ordinal).Msg("Audit record not appended")
	}

	if err := output.Render(w, format, res, func(bool) output.Data {
		return table.ChangesToTableData(res.Changes)
	}); err != nil {
		return err
	}
	cmd.PrintErrln(res.Summary())

	if saveErr != nil {
		return saveErr
	}
	if res.HasWarnings() {
		return fmt.Errorf("save finished with %d write failure(s) and %d audit failure(s)",
			len(res.WriteFailures), len(res.AuditFailures))
	}
	return nil
}

func readEdits(cmd *cobra.Command, file string) (EditFile, error) {
	var in io.Reader = cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return EditFile{}, errors.WrapIO("open", file, err)
		}
		defer f.Close()
		in = f
	}
	return ParseEditFile(in, file)
}
