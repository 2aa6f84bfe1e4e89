package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"workbridge/internal/connection"
	"workbridge/pkg/domain"
	dErrors "workbridge/pkg/domain-errors"
	"workbridge/pkg/platform/httputil"
)

type connectionHandler struct {
	svc *connection.Service
}

func (h *connectionHandler) register(r chi.Router) {
	r.Get("/connections/{id}", h.get)
	r.Get("/connections/{id}/fields", h.resolveFields)
	r.Get("/connections/{id}/profile", h.readSharedProfile)
	r.Patch("/connections/{id}/fields", h.updateFields)
	r.Post("/connections/{id}/revoke", h.revoke)
	r.Post("/connections/{id}/stage", h.updateStage)
}

// connectionResponse omits the private revocation reason; a revoked
// connection surfaces only the generic withdrawal notice.
type connectionResponse struct {
	ID          string     `json:"id"`
	MatchID     string     `json:"matchId"`
	CandidateID string     `json:"candidateId"`
	JobID       string     `json:"jobId"`
	Status      string     `json:"status"`
	SharedData  []string   `json:"sharedData"`
	Stage       string     `json:"stage"`
	Notice      string     `json:"notice,omitempty"`
	GrantedAt   time.Time  `json:"grantedAt"`
	RevokedAt   *time.Time `json:"revokedAt,omitempty"`
}

func toConnectionResponse(c connection.Connection) connectionResponse {
	shared := make([]string, len(c.SharedData))
	for i, f := range c.SharedData {
		shared[i] = string(f)
	}
	resp := connectionResponse{
		ID:          c.ID.String(),
		MatchID:     c.MatchID.String(),
		CandidateID: c.CandidateID.String(),
		JobID:       c.JobID.String(),
		Status:      string(c.Status),
		SharedData:  shared,
		Stage:       c.Stage.String(),
		GrantedAt:   c.GrantedAt,
		RevokedAt:   c.RevokedAt,
	}
	if !c.Active() {
		resp.Notice = connection.WithdrawalNotice
	}
	return resp
}

func (h *connectionHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseConnectionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toConnectionResponse(c))
}

func (h *connectionHandler) resolveFields(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseConnectionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	fields, err := h.svc.ResolveVisibleFields(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"fields": names})
}

func (h *connectionHandler) readSharedProfile(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseConnectionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor := r.Header.Get(actorHeader)
	if actor == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "acting identity is required"))
		return
	}

	shared, err := h.svc.ReadSharedProfile(r.Context(), actor, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"connectionId": shared.ConnectionID.String(),
		"stage":        shared.Stage.String(),
		"fields":       shared.Fields,
	})
}

type updateFieldsRequest struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

func (h *connectionHandler) updateFields(w http.ResponseWriter, r *http.Request) {
	actor, id, err := connectionActorAndID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[updateFieldsRequest](w, r)
	if !ok {
		return
	}

	c, err := h.svc.UpdateSharedFields(r.Context(), actor, id, toFields(req.Add), toFields(req.Remove))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toConnectionResponse(c))
}

func toFields(names []string) []domain.ProfileField {
	out := make([]domain.ProfileField, len(names))
	for i, n := range names {
		out[i] = domain.ProfileField(n)
	}
	return out
}

type revokeRequest struct {
	Reason string `json:"reason"`
}

func (h *connectionHandler) revoke(w http.ResponseWriter, r *http.Request) {
	actor, id, err := connectionActorAndID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[revokeRequest](w, r)
	if !ok {
		return
	}
	c, err := h.svc.Revoke(r.Context(), actor, id, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toConnectionResponse(c))
}

type updateStageRequest struct {
	Stage string `json:"stage"`
}

func (h *connectionHandler) updateStage(w http.ResponseWriter, r *http.Request) {
	actor, err := domain.ParseOrganizationID(r.Header.Get(actorHeader))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := domain.ParseConnectionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[updateStageRequest](w, r)
	if !ok {
		return
	}
	stage, err := domain.ParsePipelineStage(req.Stage)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.svc.UpdateStage(r.Context(), actor, id, stage)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toConnectionResponse(c))
}

func connectionActorAndID(r *http.Request) (domain.CandidateID, domain.ConnectionID, error) {
	actor, err := domain.ParseCandidateID(r.Header.Get(actorHeader))
	if err != nil {
		return domain.CandidateID{}, domain.ConnectionID{}, err
	}
	id, err := domain.ParseConnectionID(chi.URLParam(r, "id"))
	if err != nil {
		return domain.CandidateID{}, domain.ConnectionID{}, err
	}
	return actor, id, nil
}
