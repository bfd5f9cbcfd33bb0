// Package application provides the application interface for jwpedit commands.
//
// Commands and the HTTP server accept this interface rather than the
// concrete App type, so tests can hand them a Mock.
//
// Usage in Commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            client, err := app.Client(cmd.Context())
//	            if err != nil {
//	                return err
//	            }
//	            table, err := client.Load(cmd.Context())
//	            // ...
//	        },
//	    }
//	}
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jwp-tools/jwpedit"
)

// Application provides what commands need.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Client returns the editor client, opening the configured store on
	// first use. Later calls return the same client.
	Client(ctx context.Context) (jwpedit.Client, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml, csv).
	OutputFormat() string

	// AdminPassword returns the key that unlocks admin endpoints.
	AdminPassword() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
