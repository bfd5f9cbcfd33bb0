// Package jwpedit lets stakeholder agencies edit their rows of the shared
// JWP master-data spreadsheet.
//
// A Client loads the Master Data sheet (with a short-lived cache), narrows
// it to what a caller may see, writes edits back cell by cell and records
// one audit row per changed row.
//
// Example usage:
//
//	store, err := sqlite.Open(ctx, "jwp.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c, err := jwpedit.New(store, jwpedit.WithCacheTTL(time.Minute))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	id, _ := masterdata.NewIdentity("Ana", "ana@undp.org", "UNDP")
//	snapshot, err := c.Visible(ctx, access.ForIdentity(id))
//	edited := snapshot.Clone()
//	edited.Rows[0].Progress = "Delayed"
//	result, err := c.Save(ctx, id, edited, snapshot)
package jwpedit

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwp-tools/jwpedit/internal/cache"
	"github.com/jwp-tools/jwpedit/pkg/access"
	"github.com/jwp-tools/jwpedit/pkg/audit"
	"github.com/jwp-tools/jwpedit/pkg/errors"
	"github.com/jwp-tools/jwpedit/pkg/export"
	"github.com/jwp-tools/jwpedit/pkg/logging"
	"github.com/jwp-tools/jwpedit/pkg/masterdata"
	"github.com/jwp-tools/jwpedit/pkg/reconcile"
	"github.com/jwp-tools/jwpedit/pkg/tabular"
)

// Compile-time interface checks.
var (
	_ Loader   = (*client)(nil)
	_ Saver    = (*client)(nil)
	_ Auditor  = (*client)(nil)
	_ Exporter = (*client)(nil)
)

// Loader reads the master table.
type Loader interface {
	// Load returns the full Master Data table. Results are cached.
	Load(ctx context.Context) (masterdata.Table, error)

	// Visible returns the rows the policy exposes, ordinals preserved.
	Visible(ctx context.Context, p access.Policy) (masterdata.Table, error)

	// Invalidate drops the cached table.
	Invalidate()
}

// Saver writes edits back.
type Saver interface {
	// Save reconciles edited against snapshot, audits the changes and
	// invalidates the cache when any write was attempted.
	Save(ctx context.Context, id masterdata.Identity, edited, snapshot masterdata.Table) (*SaveResult, error)

	// Preview returns the writes Save would issue, without writing.
	Preview(ctx context.Context, edited, snapshot masterdata.Table) ([]reconcile.RowPlan, error)
}

// Auditor reads the audit log.
type Auditor interface {
	AuditLog(ctx context.Context) ([]audit.Record, error)
}

// Exporter writes the full dataset.
type Exporter interface {
	Export(ctx context.Context, w io.Writer) error
	ExportAudit(ctx context.Context, w io.Writer) error
}

// Client is the complete editor.
type Client interface {
	Loader
	Saver
	Auditor
	Exporter

	// Store returns the underlying store handle.
	Store() tabular.Store

	// CacheStats reports snapshot cache counters.
	CacheStats() CacheStats

	// OnRowsUpdated registers a callback run after a save that changed rows.
	OnRowsUpdated(RowsUpdatedHook)
}

// CacheStats are snapshot cache counters.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// SaveResult is the outcome of Save.
type SaveResult struct {
	*reconcile.Result

	// AuditFailures lists changes whose audit record could not be appended.
	AuditFailures []*errors.AuditAppendError `json:"-"`
}

// HasWarnings reports write or audit failures.
func (r *SaveResult) HasWarnings() bool {
	return r.HasFailures() || len(r.AuditFailures) > 0
}

const tableKey = "table:" + masterdata.MasterSheet

type client struct {
	store      tabular.Store
	cache      *cache.Cache
	reconciler *reconcile.Reconciler
	auditor    *audit.Logger
	logger     *zerolog.Logger
	hooks      *hooks
}

// New creates a Client on an already-authorised store handle.
func New(store tabular.Store, opts ...Option) (Client, error) {
	if store == nil {
		return nil, errors.NewConfigError("client", "store is required", nil)
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	recOpts := []reconcile.Option{reconcile.WithLocation(cfg.location)}
	if cfg.clock != nil {
		recOpts = append(recOpts, reconcile.WithClock(cfg.clock))
	}
	if cfg.logger != nil {
		recOpts = append(recOpts, reconcile.WithLogger(cfg.logger))
	}
	rec, err := reconcile.New(recOpts...)
	if err != nil {
		return nil, err
	}

	auditor := audit.NewLogger()
	if cfg.logger != nil {
		auditor.WithLogger(cfg.logger)
	}

	return &client{
		store:      store,
		cache:      cache.New(cfg.cacheTTL),
		reconciler: rec,
		auditor:    auditor,
		logger:     cfg.logger,
		hooks:      newHooks(),
	}, nil
}

func (c *client) log(ctx context.Context) *zerolog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return logging.FromContext(ctx)
}

// Store returns the underlying store handle.
func (c *client) Store() tabular.Store { return c.store }

// Load returns a copy of the full Master Data table.
func (c *client) Load(ctx context.Context) (masterdata.Table, error) {
	v, hit, err := c.cache.GetOrLoad(tableKey, func() (any, error) {
		start := time.Now()
		values, err := c.store.Values(ctx, masterdata.MasterSheet)
		if err != nil {
			return nil, errors.WrapStore("read", masterdata.MasterSheet, err)
		}
		table, stats := masterdata.Decode(values)
		ev := c.log(ctx).Debug().
			Int("rows", stats.Rows).
			Dur("took", time.Since(start))
		if n := stats.SkippedTotal(); n > 0 {
			ev = ev.Int("unparsable_cells", n).Interface("skipped", stats.Skipped)
		}
		ev.Msg("Loaded master data")
		return table, nil
	})
	if err != nil {
		return masterdata.Table{}, err
	}
	if hit {
		c.log(ctx).Trace().Msg("Master data served from cache")
	}
	return v.(masterdata.Table).Clone(), nil
}

// Visible returns the rows the policy exposes.
func (c *client) Visible(ctx context.Context, p access.Policy) (masterdata.Table, error) {
	table, err := c.Load(ctx)
	if err != nil {
		return masterdata.Table{}, err
	}
	return p.Apply(table), nil
}

// Invalidate drops the cached table.
func (c *client) Invalidate() {
	c.cache.Delete(tableKey)
}

// CacheStats reports snapshot cache counters.
func (c *client) CacheStats() CacheStats {
	s := c.cache.GetStats()
	return CacheStats{Entries: s.ItemCount, Hits: s.Hits, Misses: s.Misses}
}

// OnRowsUpdated registers a callback.
func (c *client) OnRowsUpdated(fn RowsUpdatedHook) {
	c.hooks.OnRowsUpdated(fn)
}

// Save reconciles, audits and invalidates.
//
// A fatal store failure during reconcile is returned together with a
// result describing the rows written before it; those rows are still
// audited. Audit failures never fail the save.
func (c *client) Save(ctx context.Context, id masterdata.Identity, edited, snapshot masterdata.Table) (*SaveResult, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	res, recErr := c.reconciler.Reconcile(ctx, edited, snapshot, id, c.store)
	if res == nil {
		return nil, recErr
	}
	out := &SaveResult{Result: res}

	if res.Attempted() {
		c.Invalidate()
	}
	if res.HasChanges() {
		if err := c.auditor.Append(ctx, id, res.Changes, c.store); err != nil {
			out.AuditFailures = audit.Failures(err)
		}
		c.hooks.triggerRowsUpdated(id, res.Changes)
	}
	return out, recErr
}

// Preview plans a save without writing.
func (c *client) Preview(_ context.Context, edited, snapshot masterdata.Table) ([]reconcile.RowPlan, error) {
	return reconcile.Plan(edited, snapshot, c.reconciler.Now())
}

// AuditLog returns the audit records, oldest first.
func (c *client) AuditLog(ctx context.Context) ([]audit.Record, error) {
	return audit.ReadLog(ctx, c.store)
}

// Export writes the full table as CSV.
func (c *client) Export(ctx context.Context, w io.Writer) error {
	table, err := c.Load(ctx)
	if err != nil {
		return err
	}
	return export.WriteTable(w, table)
}

// ExportAudit writes the audit log as CSV.
func (c *client) ExportAudit(ctx context.Context, w io.Writer) error {
	records, err := c.AuditLog(ctx)
	if err != nil {
		return err
	}
	return export.WriteAudit(w, records)
}
