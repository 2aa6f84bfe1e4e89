package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"workbridge/internal/profile"
	"workbridge/pkg/domain"
	"workbridge/pkg/platform/httputil"
)

type profileHandler struct {
	svc *profile.Service
}

func (h *profileHandler) register(r chi.Router) {
	r.Post("/profiles", h.create)
	r.Get("/profiles/{id}", h.get)
	r.Patch("/profiles/{id}", h.update)
	r.Post("/profiles/{id}/professional", h.assignProfessional)
	r.Delete("/profiles/{id}", h.erase)
}

type createProfileRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`

	Location           string              `json:"location"`
	Skills             []string            `json:"skills"`
	AccommodationNeeds []string            `json:"accommodationNeeds"`
	Experience         []string            `json:"experience"`
	Education          []string            `json:"education"`
	Preferences        profile.Preferences `json:"preferences"`

	Diagnoses            []string `json:"diagnoses"`
	MedicalHistory       []string `json:"medicalHistory"`
	AssignedProfessional string   `json:"assignedProfessional"`
	ProfessionalContact  string   `json:"professionalContact"`

	Visible                  *bool `json:"visible"`
	ShareDiagnosis           *bool `json:"shareDiagnosis"`
	ShareProfessionalContact *bool `json:"shareProfessionalContact"`
}

type profileResponse struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Contact             string              `json:"contact"`
	Location            string              `json:"location"`
	Skills              []string            `json:"skills"`
	AccommodationNeeds  []string            `json:"accommodationNeeds"`
	Experience          []string            `json:"experience"`
	Education           []string            `json:"education"`
	Preferences         profile.Preferences `json:"preferences"`
	AssessmentCompleted bool                `json:"assessmentCompleted"`
	AssessmentResults   string              `json:"assessmentResults,omitempty"`

	Diagnoses            []string `json:"diagnoses,omitempty"`
	MedicalHistory       []string `json:"medicalHistory,omitempty"`
	AssignedProfessional string   `json:"assignedProfessional,omitempty"`
	ProfessionalContact  string   `json:"professionalContact,omitempty"`

	Visible                  bool `json:"visible"`
	ShareDiagnosis           bool `json:"shareDiagnosis"`
	ShareProfessionalContact bool `json:"shareProfessionalContact"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toProfileResponse(p profile.CandidateProfile) profileResponse {
	return profileResponse{
		ID:                       p.ID.String(),
		Name:                     p.Name,
		Contact:                  p.Contact,
		Location:                 p.Location,
		Skills:                   p.Skills,
		AccommodationNeeds:       p.AccommodationNeeds,
		Experience:               p.Experience,
		Education:                p.Education,
		Preferences:              p.Preferences,
		AssessmentCompleted:      p.AssessmentCompleted,
		AssessmentResults:        p.AssessmentResults,
		Diagnoses:                p.Diagnoses,
		MedicalHistory:           p.MedicalHistory,
		AssignedProfessional:     p.AssignedProfessional,
		ProfessionalContact:      p.ProfessionalContact,
		Visible:                  p.Privacy.Visible,
		ShareDiagnosis:           p.Privacy.ShareDiagnosis,
		ShareProfessionalContact: p.Privacy.ShareProfessionalContact,
		CreatedAt:                p.CreatedAt,
		UpdatedAt:                p.UpdatedAt,
	}
}

func (h *profileHandler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[createProfileRequest](w, r)
	if !ok {
		return
	}

	p, err := h.svc.Create(r.Context(), profile.NewProfileParams{
		Name:                     req.Name,
		Contact:                  req.Contact,
		Location:                 req.Location,
		Skills:                   req.Skills,
		AccommodationNeeds:       req.AccommodationNeeds,
		Experience:               req.Experience,
		Education:                req.Education,
		Preferences:              req.Preferences,
		Diagnoses:                req.Diagnoses,
		MedicalHistory:           req.MedicalHistory,
		AssignedProfessional:     req.AssignedProfessional,
		ProfessionalContact:      req.ProfessionalContact,
		Visible:                  req.Visible,
		ShareDiagnosis:           req.ShareDiagnosis,
		ShareProfessionalContact: req.ShareProfessionalContact,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toProfileResponse(p))
}

func (h *profileHandler) get(w http.ResponseWriter, r *http.Request) {
	actor, id, err := profileActorAndID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.svc.Get(r.Context(), actor, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProfileResponse(p))
}

type updateProfileRequest struct {
	Location           *string              `json:"location"`
	Skills             []string             `json:"skills"`
	AccommodationNeeds []string             `json:"accommodationNeeds"`
	Experience         []string             `json:"experience"`
	Education          []string             `json:"education"`
	Preferences        *profile.Preferences `json:"preferences"`

	AssessmentCompleted *bool   `json:"assessmentCompleted"`
	AssessmentResults   *string `json:"assessmentResults"`

	Diagnoses      []string `json:"diagnoses"`
	MedicalHistory []string `json:"medicalHistory"`

	Visible                  *bool `json:"visible"`
	ShareDiagnosis           *bool `json:"shareDiagnosis"`
	ShareProfessionalContact *bool `json:"shareProfessionalContact"`
}

func (h *profileHandler) update(w http.ResponseWriter, r *http.Request) {
	actor, id, err := profileActorAndID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[updateProfileRequest](w, r)
	if !ok {
		return
	}

	p, err := h.svc.Update(r.Context(), actor, id, profile.UpdateParams{
		Location:                 req.Location,
		Skills:                   req.Skills,
		AccommodationNeeds:       req.AccommodationNeeds,
		Experience:               req.Experience,
		Education:                req.Education,
		Preferences:              req.Preferences,
		AssessmentCompleted:      req.AssessmentCompleted,
		AssessmentResults:        req.AssessmentResults,
		Diagnoses:                req.Diagnoses,
		MedicalHistory:           req.MedicalHistory,
		Visible:                  req.Visible,
		ShareDiagnosis:           req.ShareDiagnosis,
		ShareProfessionalContact: req.ShareProfessionalContact,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProfileResponse(p))
}

type assignProfessionalRequest struct {
	Reference string `json:"reference"`
	Contact   string `json:"contact"`
}

func (h *profileHandler) assignProfessional(w http.ResponseWriter, r *http.Request) {
	actor, id, err := profileActorAndID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[assignProfessionalRequest](w, r)
	if !ok {
		return
	}
	if err := h.svc.AssignProfessional(r.Context(), actor, id, req.Reference, req.Contact); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *profileHandler) erase(w http.ResponseWriter, r *http.Request) {
	actor, id, err := profileActorAndID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.Erase(r.Context(), actor, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

func profileActorAndID(r *http.Request) (domain.CandidateID, domain.CandidateID, error) {
	actor, err := domain.ParseCandidateID(r.Header.Get(actorHeader))
	if err != nil {
		return domain.CandidateID{}, domain.CandidateID{}, err
	}
	id, err := domain.ParseCandidateID(chi.URLParam(r, "id"))
	if err != nil {
		return domain.CandidateID{}, domain.CandidateID{}, err
	}
	return actor, id, nil
}
