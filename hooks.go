package jwpedit

import (
	"sync"

	"github.com/jwp-tools/jwpedit/pkg/masterdata"
	"github.com/jwp-tools/jwpedit/pkg/reconcile"
)

// RowsUpdatedHook is called after a save that changed at least one row.
type RowsUpdatedHook func(id masterdata.Identity, changes []reconcile.Change)

// hooks manages event callbacks for saved changes.
type hooks struct {
	mu            sync.RWMutex
	onRowsUpdated []RowsUpdatedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnRowsUpdated registers a callback.
func (h *hooks) OnRowsUpdated(fn RowsUpdatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRowsUpdated = append(h.onRowsUpdated, fn)
}

func (h *hooks) triggerRowsUpdated(id masterdata.Identity, changes []reconcile.Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onRowsUpdated {
		fn(id, append([]reconcile.Change(nil), changes...))
	}
}
