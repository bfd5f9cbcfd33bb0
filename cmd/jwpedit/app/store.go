package app

import (
	"context"
	"fmt"

	"github.com/jwp-tools/jwpedit/internal/store/gsheets"
	"github.com/jwp-tools/jwpedit/internal/store/memory"
	"github.com/jwp-tools/jwpedit/internal/store/sqlite"
	"github.com/jwp-tools/jwpedit/pkg/audit"
	"github.com/jwp-tools/jwpedit/pkg/masterdata"
	"github.com/jwp-tools/jwpedit/pkg/tabular"
)

// openConfiguredStore opens the backend named by store.driver.
func (a *App) openConfiguredStore(ctx context.Context) (tabular.Store, error) {
	cfg := a.config.Store
	log := a.logger.With().Str("driver", cfg.Driver).Logger()

	switch cfg.Driver {
	case DriverSheets:
		store, err := gsheets.Open(ctx, gsheets.Config{
			SpreadsheetID:   cfg.SpreadsheetID,
			SpreadsheetName: cfg.Spreadsheet,
			CredentialsJSON: a.config.CredentialsJSON(),
			CredentialsFile: a.config.Google.CredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("opening spreadsheet: %w", err)
		}
		log.Debug().Str("spreadsheet_id", store.SpreadsheetID()).Msg("Store opened")
		return store, nil

	case DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		if err := prepareSQLite(ctx, store); err != nil {
			_ = store.Close()
			return nil, err
		}
		log.Debug().Str("path", store.Path()).Msg("Store opened")
		return store, nil

	case DriverMemory:
		log.Warn().Msg("Using the in-memory store; edits are lost on exit")
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// NewMemoryStore returns an in-memory store holding an empty Master Data
// sheet and an Audit Log with its header.
func NewMemoryStore() *memory.Store {
	store := memory.New()
	store.SetSheet(masterdata.MasterSheet, [][]string{masterdata.DefaultLayout().Header})
	store.SetSheet(masterdata.AuditSheet, [][]string{audit.Header})
	return store
}

// prepareSQLite creates both sheets and writes the audit header into a new
// Audit Log, so a fresh database behaves like a fresh spreadsheet.
func prepareSQLite(ctx context.Context, store *sqlite.Store) error {
	for _, sheet := range []string{masterdata.MasterSheet, masterdata.AuditSheet} {
		if err := store.CreateSheet(ctx, sheet); err != nil {
			return err
		}
	}
	values, err := store.Values(ctx, masterdata.AuditSheet)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return store.AppendRow(ctx, masterdata.AuditSheet, audit.Header)
	}
	return nil
}
