package handlers

import (
	"bytes"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/jwp-tools/jwpedit"
	"github.com/jwp-tools/jwpedit/internal/server/filter"
	"github.com/jwp-tools/jwpedit/internal/server/response"
	"github.com/jwp-tools/jwpedit/pkg/audit"
	"github.com/jwp-tools/jwpedit/pkg/export"
)

var startTime = time.Now()

// AdminRowsResponse is a filtered page of the full table.
type AdminRowsResponse struct {
	Rows  any `json:"rows"`
	Count int `json:"count"`
	Total int `json:"total"`
}

// HandleAdminRows handles GET /api/v1/admin/rows.
// @Summary Full table
// @Description Returns every row, optionally filtered, sorted and paged.
// @Tags admin
// @Produce json
// @Param agency query string false "Exact agency"
// @Param outcome query string false "Outcome, case-insensitive"
// @Param activity_contains query string false "Activity substring"
// @Param progress query string false "Progress, case-insensitive"
// @Param sort query string false "ordinal, end_date, spending or last_updated"
// @Param order query string false "asc or desc"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Response{data=AdminRowsResponse}
// @Failure 401 {object} response.Response{error=response.Error}
// @Security AdminKeyAuth
// @Router /api/v1/admin/rows [get].
func (h *Handlers) HandleAdminRows(w http.ResponseWriter, r *http.Request) {
	client, err := h.app.Client(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	table, err := client.Load(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	rows := filter.ParseRowFilter(r).Apply(table.Rows)
	response.OK(w, AdminRowsResponse{Rows: rows, Count: len(rows), Total: table.Len()})
}

// HandleAdminAudit handles GET /api/v1/admin/audit.
// @Summary Audit log
// @Description Returns audit records, oldest first. A missing log reads as empty.
// @Tags admin
// @Produce json
// @Param agency query string false "Exact agency"
// @Param limit query int false "Return only the most recent records"
// @Success 200 {object} response.Response{data=object}
// @Security AdminKeyAuth
// @Router /api/v1/admin/audit [get].
func (h *Handlers) HandleAdminAudit(w http.ResponseWriter, r *http.Request) {
	client, err := h.app.Client(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	records, err := client.AuditLog(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	if agency := r.URL.Query().Get("agency"); agency != "" {
		kept := make([]audit.Record, 0, len(records))
		for _, rec := range records {
			if rec.Agency == agency {
				kept = append(kept, rec)
			}
		}
		records = kept
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n < len(records) {
		records = records[len(records)-n:]
	}

	response.OK(w, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

// HandleAdminExport handles GET /api/v1/admin/export.csv.
// @Summary Export full table
// @Description Downloads the full Master Data table as CSV.
// @Tags admin
// @Produce text/csv
// @Success 200 {file} file
// @Security AdminKeyAuth
// @Router /api/v1/admin/export.csv [get].
func (h *Handlers) HandleAdminExport(w http.ResponseWriter, r *http.Request) {
	h.serveCSV(w, r, export.Filename, func(c jwpedit.Client, buf *bytes.Buffer) error {
		return c.Export(r.Context(), buf)
	})
}

// HandleAdminAuditExport handles GET /api/v1/admin/audit.csv.
// @Summary Export audit log
// @Tags admin
// @Produce text/csv
// @Success 200 {file} file
// @Security AdminKeyAuth
// @Router /api/v1/admin/audit.csv [get].
func (h *Handlers) HandleAdminAuditExport(w http.ResponseWriter, r *http.Request) {
	h.serveCSV(w, r, export.AuditFilename, func(c jwpedit.Client, buf *bytes.Buffer) error {
		return c.ExportAudit(r.Context(), buf)
	})
}

// serveCSV renders into a buffer first so a store failure still gets a
// proper error response.
func (h *Handlers) serveCSV(w http.ResponseWriter, r *http.Request, filename string, render func(jwpedit.Client, *bytes.Buffer) error) {
	client, err := h.app.Client(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	var buf bytes.Buffer
	if err := render(client, &buf); err != nil {
		h.log(r).Error().Err(err).Str("file", filename).Msg("Export failed")
		response.ErrorFromType(w, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// HandleInvalidateCache handles POST /api/v1/admin/cache/invalidate.
// @Summary Drop cached data
// @Description Forces the next read to go to the store.
// @Tags admin
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Security AdminKeyAuth
// @Router /api/v1/admin/cache/invalidate [post].
func (h *Handlers) HandleInvalidateCache(w http.ResponseWriter, r *http.Request) {
	client, err := h.app.Client(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	client.Invalidate()
	h.log(r).Info().Msg("Cache invalidated")
	response.OK(w, map[string]any{"invalidated": true})
}

// HandleStats handles GET /api/v1/admin/stats.
// @Summary Server statistics
// @Tags admin
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Security AdminKeyAuth
// @Router /api/v1/admin/stats [get].
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	client, err := h.app.Client(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response.OK(w, map[string]any{
		"runtime": map[string]any{
			"uptime_seconds": int64(time.Since(startTime).Seconds()),
			"goroutines":     runtime.NumGoroutine(),
			"memory_mb":      memStats.Alloc / 1024 / 1024,
		},
		"sessions": h.sessions.Count(),
		"events": map[string]any{
			"published_total": h.broker.EventsPublished(),
			"dropped_total":   h.broker.EventsDropped(),
			"queue_depth":     h.broker.QueueDepth(),
		},
		"sse_clients": h.sseBroadcaster.ClientCount(),
		"cache":       client.CacheStats(),
	})
}
