package app

import (
	"github.com/spf13/cobra"

	"github.com/jwp-tools/jwpedit/cmd/jwpedit/cmd/apply"
	"github.com/jwp-tools/jwpedit/cmd/jwpedit/cmd/audit"
	"github.com/jwp-tools/jwpedit/cmd/jwpedit/cmd/export"
	"github.com/jwp-tools/jwpedit/cmd/jwpedit/cmd/importcsv"
	"github.com/jwp-tools/jwpedit/cmd/jwpedit/cmd/rows"
	"github.com/jwp-tools/jwpedit/cmd/jwpedit/cmd/serve"
	"github.com/jwp-tools/jwpedit/internal/exportsink"
	"github.com/jwp-tools/jwpedit/internal/server"
)

// registerCommands wires every subcommand to the app.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(a.newServeCommand())
	rootCmd.AddCommand(rows.NewCommand(a))
	rootCmd.AddCommand(apply.NewCommand(a))

	rootCmd.AddCommand(audit.NewCommand(a))
	rootCmd.AddCommand(export.NewCommand(a, a.s3Defaults))
	rootCmd.AddCommand(importcsv.NewCommand(a, a.sqlitePath))

	rootCmd.AddCommand(a.newVersionCommand())
}

// The config getters below are evaluated when a command runs, after
// --config has been applied.

func (a *App) newServeCommand() *cobra.Command {
	return serve.NewCommand(a, a.serverDefaults)
}

func (a *App) serverDefaults() server.Config {
	cfg := server.DefaultConfig()
	cfg.SessionTTL = a.config.SessionTTL
	return cfg
}

func (a *App) sqlitePath() string {
	return a.config.Store.SQLitePath
}

func (a *App) s3Defaults() exportsink.S3Config {
	return exportsink.S3Config{
		Bucket:   a.config.Export.S3Bucket,
		Region:   a.config.Export.S3Region,
		Endpoint: a.config.Export.S3Endpoint,
		// MinIO and most self-hosted stores need path-style addressing.
		PathStyle: a.config.Export.S3Endpoint != "",
	}
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("jwpedit %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
