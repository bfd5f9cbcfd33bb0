// Package export provides the command that writes CSV exports to stdout,
// a file or an S3 bucket.
package export

import (
	"bytes"
	"context"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jwp-tools/jwpedit"
	"github.com/jwp-tools/jwpedit/cmd/application"
	"github.com/jwp-tools/jwpedit/internal/exportsink"
	csvexport "github.com/jwp-tools/jwpedit/pkg/export"
)

// Options selects what to export and where.
type Options struct {
	Audit    bool
	Out      string
	S3Bucket string
	S3Key    string
}

// NewCommand creates the export command. s3Defaults supplies the configured
// bucket, region and endpoint when the command runs.
func NewCommand(app application.Application, s3Defaults func() exportsink.S3Config) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:     "export",
		GroupID: "data",
		Short:   "Export the full table or the audit log as CSV",
		Long: `Export writes the full Master Data table (or, with --audit, the audit log)
as CSV. Output goes to stdout unless --out names a file or --s3-bucket
names a bucket. The S3 key defaults to ` + csvexport.Filename + `.`,
		Example: `  jwpedit export > jwp.csv
  jwpedit export --out exports/
  jwpedit export --audit --s3-bucket jwp-exports --s3-key audit/latest.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := Render(cmd.Context(), client, opts.Audit, &buf); err != nil {
				return err
			}

			sink, key, err := resolveSink(cmd, opts, s3Defaults())
			if err != nil {
				return err
			}
			if sink == nil {
				_, err := io.Copy(cmd.OutOrStdout(), &buf)
				return err
			}
			location, err := sink.Put(cmd.Context(), key, &buf, csvexport.ContentType)
			if err != nil {
				return err
			}
			app.Logger().Info().Str("location", location).Int("bytes", buf.Len()).Msg("Export written")
			cmd.PrintErrln("Exported to " + location)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Audit, "audit", false, "export the audit log instead of the table")
	cmd.Flags().StringVar(&opts.Out, "out", "", "write to this file, or into this directory when it ends in /")
	cmd.Flags().StringVar(&opts.S3Bucket, "s3-bucket", "", "upload to this bucket (default from export.s3_bucket when --s3-key is set)")
	cmd.Flags().StringVar(&opts.S3Key, "s3-key", "", "object key for the upload")
	cmd.MarkFlagsMutuallyExclusive("out", "s3-bucket")

	return cmd
}

// Render writes the selected export as CSV.
func Render(ctx context.Context, client jwpedit.Exporter, audit bool, w io.Writer) error {
	if audit {
		return client.ExportAudit(ctx, w)
	}
	return client.Export(ctx, w)
}

// resolveSink returns the destination and key, or a nil sink for stdout.
func resolveSink(cmd *cobra.Command, opts Options, s3 exportsink.S3Config) (exportsink.Sink, string, error) {
	name := csvexport.Filename
	if opts.Audit {
		name = csvexport.AuditFilename
	}

	if opts.S3Bucket != "" || opts.S3Key != "" {
		if opts.S3Bucket != "" {
			s3.Bucket = opts.S3Bucket
		}
		key := opts.S3Key
		if key == "" {
			key = name
		}
		sink, err := exportsink.NewS3(cmd.Context(), s3)
		if err != nil {
			return nil, "", err
		}
		return sink, key, nil
	}

	if opts.Out == "" {
		return nil, "", nil
	}
	dir, file := filepath.Split(opts.Out)
	if file == "" {
		file = name
	}
	if dir == "" {
		dir = "."
	}
	return exportsink.FileSink{Dir: dir}, file, nil
}
