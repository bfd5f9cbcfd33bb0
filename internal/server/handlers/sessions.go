package handlers

import (
	"net/http"

	"github.com/jwp-tools/jwpedit/internal/server/events"
	"github.com/jwp-tools/jwpedit/internal/server/middleware"
	"github.com/jwp-tools/jwpedit/internal/server/response"
	"github.com/jwp-tools/jwpedit/internal/server/session"
	"github.com/jwp-tools/jwpedit/pkg/masterdata"
)

// SignInRequest is the body of POST /sessions.
type SignInRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Agency string `json:"agency"`
}

// SessionResponse describes a session to its owner.
type SessionResponse struct {
	Token    string              `json:"token,omitempty"`
	Identity masterdata.Identity `json:"identity"`
}

// HandleCreateSession handles POST /api/v1/sessions.
// @Summary Sign in
// @Description Starts a session for a stakeholder identity. The identity is trusted as given.
// @Tags sessions
// @Accept json
// @Produce json
// @Param body body SignInRequest true "Caller identity"
// @Success 201 {object} response.Response{data=SessionResponse}
// @Failure 400 {object} response.Response{error=response.Error}
// @Router /api/v1/sessions [post].
func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}

	id, err := masterdata.NewIdentity(req.Name, req.Email, req.Agency)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	sess, err := h.sessions.Create(id)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	h.observeSessions()
	h.broker.Publish(events.SessionCreated, events.SessionCreatedData{Agency: id.Agency.String()})
	h.log(r).Info().Str("agency", id.Agency.String()).Msg("Session created")

	response.Created(w, SessionResponse{Token: sess.Token, Identity: sess.Identity})
}

// HandleGetSession handles GET /api/v1/sessions.
// @Summary Current session
// @Tags sessions
// @Produce json
// @Success 200 {object} response.Response{data=SessionResponse}
// @Failure 401 {object} response.Response{error=response.Error}
// @Security SessionAuth
// @Router /api/v1/sessions [get].
func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Sign in required", "")
		return
	}
	response.OK(w, SessionResponse{Identity: sess.Identity})
}

// HandleDeleteSession handles DELETE /api/v1/sessions.
// @Summary Sign out
// @Tags sessions
// @Success 200 {object} response.Response{data=object}
// @Security SessionAuth
// @Router /api/v1/sessions [delete].
func (h *Handlers) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Delete(middleware.SessionToken(r))
	h.observeSessions()
	response.OK(w, map[string]any{"signed_out": true})
}
