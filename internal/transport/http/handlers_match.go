package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"workbridge/internal/connection"
	"workbridge/internal/match"
	"workbridge/pkg/domain"
	"workbridge/pkg/platform/httputil"
)

type matchHandler struct {
	svc *match.Service
}

func (h *matchHandler) register(r chi.Router) {
	r.Post("/matches/compute", h.compute)
	r.Post("/matches/batch/job/{id}", h.batchJob)
	r.Post("/matches/batch/candidate/{id}", h.batchCandidate)
	r.Get("/matches/{id}", h.get)
	r.Post("/matches/{id}/accept", h.accept)
	r.Post("/matches/{id}/reject", h.reject)
	r.Post("/matches/{id}/recalculate", h.recalculate)
}

// matchResponse deliberately omits the rejection reason: it is private to the
// candidate and never serialized for counterparties.
type matchResponse struct {
	ID            string          `json:"id"`
	CandidateID   string          `json:"candidateId"`
	JobID         string          `json:"jobId"`
	Score         int             `json:"score"`
	Breakdown     match.Breakdown `json:"breakdown"`
	Justification string          `json:"justification"`
	Snapshot      match.Snapshot  `json:"snapshot"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	ExpiresAt     time.Time       `json:"expiresAt"`
	ResolvedAt    *time.Time      `json:"resolvedAt,omitempty"`
}

func toMatchResponse(m match.Match) matchResponse {
	return matchResponse{
		ID:            m.ID.String(),
		CandidateID:   m.CandidateID.String(),
		JobID:         m.JobID.String(),
		Score:         m.Score,
		Breakdown:     m.Breakdown,
		Justification: m.Justification,
		Snapshot:      m.Snapshot,
		Status:        string(m.Status),
		CreatedAt:     m.CreatedAt,
		ExpiresAt:     m.ExpiresAt,
		ResolvedAt:    m.ResolvedAt,
	}
}

type resultResponse struct {
	Eligible  bool            `json:"eligible"`
	Score     int             `json:"score"`
	Breakdown match.Breakdown `json:"breakdown"`
	Match     *matchResponse  `json:"match,omitempty"`
}

func toResultResponse(r match.Result) resultResponse {
	out := resultResponse{Eligible: r.Eligible, Score: r.Score, Breakdown: r.Breakdown}
	if r.Match != nil {
		m := toMatchResponse(*r.Match)
		out.Match = &m
	}
	return out
}

type computeRequest struct {
	CandidateID string `json:"candidateId"`
	JobID       string `json:"jobId"`
}

func (h *matchHandler) compute(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[computeRequest](w, r)
	if !ok {
		return
	}
	candidateID, err := domain.ParseCandidateID(req.CandidateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	jobID, err := domain.ParseJobID(req.JobID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.svc.ComputeMatch(r.Context(), candidateID, jobID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResultResponse(res))
}

type batchResponse struct {
	Considered int      `json:"considered"`
	Persisted  int      `json:"persisted"`
	Failures   []string `json:"failures,omitempty"`
}

func toBatchResponse(r match.BatchResult) batchResponse {
	out := batchResponse{Considered: r.Considered, Persisted: r.Persisted}
	for _, f := range r.Failures {
		out.Failures = append(out.Failures,
			f.CandidateID.String()+"/"+f.JobID.String()+": "+f.Err.Error())
	}
	return out
}

func (h *matchHandler) batchJob(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseJobID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.svc.MatchJob(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBatchResponse(res))
}

func (h *matchHandler) batchCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseCandidateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.svc.MatchCandidate(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBatchResponse(res))
}

func (h *matchHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseMatchID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	m, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toMatchResponse(m))
}

type acceptRequest struct {
	ShareDiagnosis           *bool `json:"shareDiagnosis"`
	ShareProfessionalContact *bool `json:"shareProfessionalContact"`
}

type acceptResponse struct {
	Match      matchResponse      `json:"match"`
	Connection connectionResponse `json:"connection"`
}

func (h *matchHandler) accept(w http.ResponseWriter, r *http.Request) {
	actor, id, err := matchActorAndID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[acceptRequest](w, r)
	if !ok {
		return
	}

	m, conn, err := h.svc.Accept(r.Context(), actor, id, connection.Overrides{
		ShareDiagnosis:           req.ShareDiagnosis,
		ShareProfessionalContact: req.ShareProfessionalContact,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, acceptResponse{
		Match:      toMatchResponse(m),
		Connection: toConnectionResponse(conn),
	})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *matchHandler) reject(w http.ResponseWriter, r *http.Request) {
	actor, id, err := matchActorAndID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[rejectRequest](w, r)
	if !ok {
		return
	}
	m, err := h.svc.Reject(r.Context(), actor, id, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toMatchResponse(m))
}

func (h *matchHandler) recalculate(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseMatchID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.svc.Recalculate(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResultResponse(res))
}

func matchActorAndID(r *http.Request) (domain.CandidateID, domain.MatchID, error) {
	actor, err := domain.ParseCandidateID(r.Header.Get(actorHeader))
	if err != nil {
		return domain.CandidateID{}, domain.MatchID{}, err
	}
	id, err := domain.ParseMatchID(chi.URLParam(r, "id"))
	if err != nil {
		return domain.CandidateID{}, domain.MatchID{}, err
	}
	return actor, id, nil
}
