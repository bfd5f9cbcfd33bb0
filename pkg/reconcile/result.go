package reconcile

import (
	"fmt"
	"time"

	"github.com/jwp-tools/jwpedit/pkg/errors"
)

// Result is the outcome of one reconcile call.
type Result struct {
	// Timestamp shared by every change of this call.
	Timestamp time.Time `json:"timestamp"`

	// Changes lists rows with at least one successful write, in row order.
	Changes []Change `json:"changes"`

	// WriteFailures holds one error per row with failed writes.
	WriteFailures []*errors.PartialWriteError `json:"-"`

	// Plans are the per-row writes that were computed.
	Plans []RowPlan `json:"plans,omitempty"`

	Metadata ResultMetadata `json:"metadata"`
}

// ResultMetadata describes how the reconcile ran.
type ResultMetadata struct {
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
	Duration  time.Duration    `json:"duration"`
	DryRun    bool             `json:"dry_run"`
	Stats     ResultStatistics `json:"stats"`
}

// ResultStatistics counts rows and cells.
type ResultStatistics struct {
	RowsCompared    int `json:"rows_compared"`
	CellsWritten    int `json:"cells_written"`
	CellsFailed     int `json:"cells_failed"`
	LockedDiscarded int `json:"locked_discarded"`
}

func (r *Result) finish() {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
}

// HasChanges reports whether any row reached the store.
func (r *Result) HasChanges() bool {
	return len(r.Changes) > 0
}

// HasFailures reports whether any row had failed writes.
func (r *Result) HasFailures() bool {
	return len(r.WriteFailures) > 0
}

// Attempted reports whether any write was issued.
func (r *Result) Attempted() bool {
	return r.Metadata.Stats.CellsWritten+r.Metadata.Stats.CellsFailed > 0
}

// Warnings returns the write failures as plain errors.
func (r *Result) Warnings() []error {
	out := make([]error, len(r.WriteFailures))
	for i, e := range r.WriteFailures {
		out[i] = e
	}
	return out
}

// Summary returns a one-line description of the result.
func (r *Result) Summary() string {
	if r.Metadata.DryRun {
		if len(r.Plans) == 0 {
			return "Dry run completed. No changes detected."
		}
		return fmt.Sprintf("Dry run completed. %d row(s) would be updated.", len(r.Plans))
	}
	switch {
	case !r.HasChanges() && !r.HasFailures():
		return "No changes detected."
	case r.HasFailures():
		return fmt.Sprintf("Updated %d row(s); %d row(s) had write failures.", len(r.Changes), len(r.WriteFailures))
	default:
		return fmt.Sprintf("Updated %d row(s).", len(r.Changes))
	}
}
