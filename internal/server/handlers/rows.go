package handlers

import (
	"net/http"

	"github.com/jwp-tools/jwpedit"
	"github.com/jwp-tools/jwpedit/internal/metrics"
	"github.com/jwp-tools/jwpedit/internal/server/response"
	"github.com/jwp-tools/jwpedit/internal/server/session"
	"github.com/jwp-tools/jwpedit/pkg/access"
	"github.com/jwp-tools/jwpedit/pkg/masterdata"
	"github.com/jwp-tools/jwpedit/pkg/reconcile"
)

// NoRowsMessage is shown when an agency has nothing to edit.
const NoRowsMessage = "No activities found for your agency."

// RowsResponse is the agency-scoped view.
type RowsResponse struct {
	Agency  string           `json:"agency"`
	Rows    []masterdata.Row `json:"rows"`
	Count   int              `json:"count"`
	Message string           `json:"message,omitempty"`
}

// SaveRequest is the body of PUT /rows: the full edited view, in the order
// it was served.
type SaveRequest struct {
	Rows []masterdata.Row `json:"rows"`
}

// WriteFailure reports the failed cell writes of one row.
type WriteFailure struct {
	Ordinal        int    `json:"ordinal"`
	SheetRow       int    `json:"sheet_row"`
	FailedColumns  []int  `json:"failed_columns"`
	WrittenColumns []int  `json:"written_columns"`
	Error          string `json:"error"`
}

// AuditFailure reports an audit record that was not appended.
type AuditFailure struct {
	Ordinal int    `json:"ordinal"`
	Error   string `json:"error"`
}

// SaveResponse is the outcome of PUT /rows.
type SaveResponse struct {
	Summary       string                     `json:"summary"`
	Timestamp     string                     `json:"timestamp"`
	Changes       []reconcile.Change         `json:"changes"`
	WriteFailures []WriteFailure             `json:"write_failures"`
	AuditFailures []AuditFailure             `json:"audit_failures"`
	Stats         reconcile.ResultStatistics `json:"stats"`
	Rows          []masterdata.Row           `json:"rows,omitempty"`
}

func newSaveResponse(res *jwpedit.SaveResult) SaveResponse {
	ts := res.Timestamp
	out := SaveResponse{
		Summary:       res.Summary(),
		Timestamp:     masterdata.FormatTimestamp(&ts),
		Changes:       res.Changes,
		WriteFailures: make([]WriteFailure, 0, len(res.WriteFailures)),
		AuditFailures: make([]AuditFailure, 0, len(res.AuditFailures)),
		Stats:         res.Metadata.Stats,
	}
	if out.Changes == nil {
		out.Changes = []reconcile.Change{}
	}
	for _, f := range res.WriteFailures {
		out.WriteFailures = append(out.WriteFailures, WriteFailure{
			Ordinal:        f.Ordinal,
			SheetRow:       f.SheetRow,
			FailedColumns:  f.FailedColumns,
			WrittenColumns: f.WrittenColumns,
			Error:          f.Err.Error(),
		})
	}
	for _, f := range res.AuditFailures {
		out.AuditFailures = append(out.AuditFailures, AuditFailure{Ordinal: f.Ordinal, Error: f.Err.Error()})
	}
	return out
}

// HandleListRows handles GET /api/v1/rows.
// @Summary List agency rows
// @Description Returns the caller's agency rows and records them as the session snapshot.
// @Tags rows
// @Produce json
// @Success 200 {object} response.Response{data=RowsResponse}
// @Failure 401 {object} response.Response{error=response.Error}
// @Failure 503 {object} response.Response{error=response.Error}
// @Security SessionAuth
// @Router /api/v1/rows [get].
func (h *Handlers) HandleListRows(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Sign in required", "")
		return
	}

	client, err := h.app.Client(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	table, err := client.Visible(r.Context(), access.ForIdentity(sess.Identity))
	if err != nil {
		h.log(r).Error().Err(err).Msg("Failed to load rows")
		response.ErrorFromType(w, err)
		return
	}
	sess.SetSnapshot(table)

	resp := RowsResponse{
		Agency: sess.Identity.Agency.String(),
		Rows:   table.Rows,
		Count:  table.Len(),
	}
	if table.Empty() {
		resp.Message = NoRowsMessage
	}
	response.OK(w, resp)
}

// HandleSaveRows handles PUT /api/v1/rows.
// @Summary Save edits
// @Description Writes back changed editable fields of the rows last listed, then appends audit records.
// @Description Per-row write and audit failures are reported as warnings with status 200.
// @Tags rows
// @Accept json
// @Produce json
// @Param body body SaveRequest true "Edited rows"
// @Success 200 {object} response.Response{data=SaveResponse}
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 409 {object} response.Response{error=response.Error}
// @Failure 503 {object} response.Response{error=response.Error}
// @Security SessionAuth
// @Router /api/v1/rows [put].
func (h *Handlers) HandleSaveRows(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Sign in required", "")
		return
	}
	agency := sess.Identity.Agency.String()

	var req SaveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}

	snapshot, ok := sess.Snapshot()
	if !ok {
		response.NoSnapshot(w)
		return
	}

	client, err := h.app.Client(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	edited := masterdata.Table{Layout: snapshot.Layout, Rows: req.Rows}
	res, err := client.Save(r.Context(), sess.Identity, edited, snapshot)
	if res == nil {
		h.observeSave(agency, metrics.OutcomeError, nil)
		response.ErrorFromType(w, err)
		return
	}

	logger := h.log(r)
	if err != nil {
		h.observeSave(agency, metrics.OutcomeError, res)
		logger.Error().Err(err).
			Int("rows_written", len(res.Changes)).
			Msg("Save aborted")
		response.Aborted(w, newSaveResponse(res), err)
		return
	}

	outcome := metrics.OutcomeOK
	if res.HasWarnings() {
		outcome = metrics.OutcomeWarning
		logger.Warn().
			Int("write_failures", len(res.WriteFailures)).
			Int("audit_failures", len(res.AuditFailures)).
			Msg("Save completed with warnings")
	}
	h.observeSave(agency, outcome, res)

	resp := newSaveResponse(res)
	if res.Attempted() {
		if fresh, err := client.Visible(r.Context(), access.ForIdentity(sess.Identity)); err == nil {
			sess.SetSnapshot(fresh)
			resp.Rows = fresh.Rows
		} else {
			logger.Warn().Err(err).Msg("Reload after save failed; snapshot kept")
		}
	}
	response.OK(w, resp)
}

func (h *Handlers) observeSave(agency, outcome string, res *jwpedit.SaveResult) {
	if h.metrics == nil {
		return
	}
	if res == nil {
		h.metrics.ObserveSave(agency, outcome, 0, 0, 0)
		return
	}
	h.metrics.ObserveSave(agency, outcome, len(res.Changes), len(res.WriteFailures), len(res.AuditFailures))
}
