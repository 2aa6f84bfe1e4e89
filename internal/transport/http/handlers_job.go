package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"workbridge/internal/job"
	"workbridge/pkg/domain"
	"workbridge/pkg/platform/httputil"
)

type jobHandler struct {
	svc *job.Service
}

func (h *jobHandler) register(r chi.Router) {
	r.Post("/jobs", h.create)
	r.Get("/jobs/{id}", h.get)
	r.Post("/jobs/{id}/close", h.close)
}

type createJobRequest struct {
	OrganizationID string   `json:"organizationId"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	RequiredSkills []string `json:"requiredSkills"`
	Accommodations []string `json:"accommodations"`
	WorkMode       string   `json:"workMode"`
	Location       string   `json:"location"`
	TeamSize       string   `json:"teamSize"`
}

type jobResponse struct {
	ID                string     `json:"id"`
	OrganizationID    string     `json:"organizationId"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	RequiredSkills    []string   `json:"requiredSkills"`
	Accommodations    []string   `json:"accommodations"`
	WorkMode          string     `json:"workMode"`
	Location          string     `json:"location"`
	TeamSize          string     `json:"teamSize"`
	Status            string     `json:"status"`
	InclusivityScore  int        `json:"inclusivityScore"`
	InclusivityIssues []string   `json:"inclusivityIssues"`
	CreatedAt         time.Time  `json:"createdAt"`
	ClosedAt          *time.Time `json:"closedAt,omitempty"`
}

func toJobResponse(j job.Job) jobResponse {
	return jobResponse{
		ID:                j.ID.String(),
		OrganizationID:    j.OrganizationID.String(),
		Title:             j.Title,
		Description:       j.Description,
		RequiredSkills:    j.RequiredSkills,
		Accommodations:    j.Accommodations,
		WorkMode:          j.WorkMode,
		Location:          j.Location,
		TeamSize:          j.TeamSize,
		Status:            string(j.Status),
		InclusivityScore:  j.InclusivityScore,
		InclusivityIssues: j.InclusivityIssues,
		CreatedAt:         j.CreatedAt,
		ClosedAt:          j.ClosedAt,
	}
}

func (h *jobHandler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[createJobRequest](w, r)
	if !ok {
		return
	}
	orgID, err := domain.ParseOrganizationID(req.OrganizationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	j, err := h.svc.Create(r.Context(), job.NewJobParams{
		OrganizationID: orgID,
		Title:          req.Title,
		Description:    req.Description,
		RequiredSkills: req.RequiredSkills,
		Accommodations: req.Accommodations,
		WorkMode:       req.WorkMode,
		Location:       req.Location,
		TeamSize:       req.TeamSize,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toJobResponse(j))
}

func (h *jobHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseJobID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	j, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toJobResponse(j))
}

func (h *jobHandler) close(w http.ResponseWriter, r *http.Request) {
	actor, err := domain.ParseOrganizationID(r.Header.Get(actorHeader))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := domain.ParseJobID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.Close(r.Context(), actor, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}
