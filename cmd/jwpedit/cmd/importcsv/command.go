// Package importcsv provides the command that seeds a SQLite store from a
// CSV export of the spreadsheet.
package importcsv

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwp-tools/jwpedit/cmd/application"
	"github.com/jwp-tools/jwpedit/internal/store/sqlite"
	"github.com/jwp-tools/jwpedit/pkg/errors"
	"github.com/jwp-tools/jwpedit/pkg/masterdata"
)

// NewCommand creates the import command. defaultPath supplies the
// configured database path when --db is not given.
func NewCommand(app application.Application, defaultPath func() string) *cobra.Command {
	var (
		file  string
		db    string
		sheet string
	)

	cmd := &cobra.Command{
		Use:     "import",
		GroupID: "data",
		Short:   "Load a CSV file into a sheet of the SQLite store",
		Long: `Import replaces one sheet of the local SQLite store with the records of a
CSV file, header included. Use it to seed the sqlite driver from a
spreadsheet export. "-" reads from stdin.`,
		Example: `  jwpedit import --file jwp_full_updated.csv
  jwpedit import --file audit.csv --sheet "Audit Log" --db /var/lib/jwpedit.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if db == "" {
				db = defaultPath()
			}

			var in io.Reader = cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return errors.WrapIO("open", file, err)
				}
				defer f.Close()
				in = f
			}

			store, err := sqlite.Open(cmd.Context(), db)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.ImportCSV(cmd.Context(), sheet, in)
			if err != nil {
				return err
			}
			app.Logger().Info().
				Str("path", store.Path()).
				Str("sheet", sheet).
				Int("records", n).
				Msg("Imported CSV")
			cmd.Printf("Imported %d records into %q (%s)\n", n, sheet, store.Path())
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `CSV file to import ("-" for stdin)`)
	cmd.Flags().StringVar(&db, "db", "", "SQLite database path (default from store.sqlite_path)")
	cmd.Flags().StringVar(&sheet, "sheet", masterdata.MasterSheet, "sheet to replace")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
