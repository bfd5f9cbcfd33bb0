package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwp-tools/jwpedit/pkg/errors"
	"github.com/jwp-tools/jwpedit/pkg/logging"
	"github.com/jwp-tools/jwpedit/pkg/masterdata"
	"github.com/jwp-tools/jwpedit/pkg/tabular"
)

// Audit actions recorded for a changed row.
const (
	ActionEdited          = "Row edited"
	ActionPartiallyEdited = "Row partially edited"
)

// Change is one row that reached the store.
type Change struct {
	Ordinal   int       `json:"ordinal"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
}

// Reconciler applies edits to a store.
type Reconciler struct {
	clock    func() time.Time
	location *time.Location
	logger   *zerolog.Logger
	dryRun   bool
}

// Option configures a Reconciler.
type Option func(*Reconciler) error

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(r *Reconciler) error {
		if clock == nil {
			return errors.NewValidationError("clock", nil, "clock must not be nil")
		}
		r.clock = clock
		return nil
	}
}

// WithLocation sets the zone whose wall clock is written to Last Updated.
func WithLocation(loc *time.Location) Option {
	return func(r *Reconciler) error {
		if loc == nil {
			return errors.NewValidationError("location", nil, "location must not be nil")
		}
		r.location = loc
		return nil
	}
}

// WithLogger sets the logger. By default the logger on the context is used.
func WithLogger(logger *zerolog.Logger) Option {
	return func(r *Reconciler) error {
		r.logger = logger
		return nil
	}
}

// WithDryRun plans writes without issuing them.
func WithDryRun(dryRun bool) Option {
	return func(r *Reconciler) error {
		r.dryRun = dryRun
		return nil
	}
}

// New creates a Reconciler.
func New(opts ...Option) (*Reconciler, error) {
	r := &Reconciler{
		clock:    time.Now,
		location: time.Local,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Now returns the reconcile timestamp in the configured zone, truncated to
// seconds. Sheet cells receive its wall clock in that zone.
func (r *Reconciler) Now() time.Time {
	return r.clock().In(r.location).Truncate(time.Second)
}

// Reconcile writes the differences between edited and snapshot to store.
//
// A row whose writes all fail is reported in WriteFailures and not counted
// as a change. When such a failure means the store is unavailable, the
// remaining rows are skipped and the error is returned with the partial
// result. Validation errors are returned before any write.
func (r *Reconciler) Reconcile(ctx context.Context, edited, snapshot masterdata.Table,
	identity masterdata.Identity, store tabular.Store) (*Result, error) {
	start := time.Now()
	now := r.Now()

	logger := r.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	log := logger.With().
		Str("agency", identity.Agency.String()).
		Str("email", identity.Email).
		Logger()

	plans, err := Plan(edited, snapshot, now)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Timestamp: now,
		Changes:   make([]Change, 0, len(plans)),
		Plans:     plans,
		Metadata: ResultMetadata{
			StartTime: start,
			DryRun:    r.dryRun,
			Stats:     ResultStatistics{RowsCompared: edited.Len()},
		},
	}
	defer result.finish()

	for _, plan := range plans {
		if len(plan.Locked) > 0 {
			log.Debug().
				Int("ordinal", plan.Ordinal).
				Strs("fields", plan.Locked).
				Msg("Discarding changes to locked fields")
			result.Metadata.Stats.LockedDiscarded += len(plan.Locked)
		}
		if r.dryRun {
			continue
		}

		if err := ctx.Err(); err != nil {
			return result, err
		}

		rowCtx := logging.WithOrdinal(logging.WithLogger(ctx, &log), plan.Ordinal)
		pwe := r.apply(rowCtx, plan, store, &result.Metadata.Stats)
		if pwe == nil {
			result.Changes = append(result.Changes, Change{Ordinal: plan.Ordinal, Timestamp: now, Action: ActionEdited})
			continue
		}

		result.WriteFailures = append(result.WriteFailures, pwe)
		log.Warn().Err(pwe).Int("ordinal", plan.Ordinal).Msg("Row write failed")

		if pwe.AnyWritten() {
			result.Changes = append(result.Changes, Change{Ordinal: plan.Ordinal, Timestamp: now, Action: ActionPartiallyEdited})
			continue
		}
		if errors.IsStoreUnavailable(pwe.Err) {
			return result, fmt.Errorf("reconcile aborted at row %d: %w", plan.Ordinal, pwe.Err)
		}
	}

	log.Info().
		Int("changed", len(result.Changes)).
		Int("failed", len(result.WriteFailures)).
		Bool("dry_run", r.dryRun).
		Msg("Reconciled edits")
	return result, nil
}

// apply issues the writes of one row and reports failures.
func (r *Reconciler) apply(ctx context.Context, plan RowPlan, store tabular.Store, stats *ResultStatistics) *errors.PartialWriteError {
	var (
		written, failed []int
		firstErr        error
	)
	for _, w := range plan.Writes {
		if err := store.UpdateCell(ctx, masterdata.MasterSheet, plan.SheetRow, w.Col, w.Value); err != nil {
			failed = append(failed, w.Col)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		written = append(written, w.Col)
	}
	stats.CellsWritten += len(written)
	stats.CellsFailed += len(failed)
	if len(failed) == 0 {
		return nil
	}
	return &errors.PartialWriteError{
		Ordinal:        plan.Ordinal,
		SheetRow:       plan.SheetRow,
		FailedColumns:  failed,
		WrittenColumns: written,
		Err:            firstErr,
	}
}
