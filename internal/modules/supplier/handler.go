package supplier

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/georgemunganga/supplier-onboarding/internal/httpx"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/auth"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
	issuer  auth.TokenIssuer
}

func NewHandler(service Service, issuer auth.TokenIssuer) *Handler {
	return &Handler{service: service, issuer: issuer}
}

func (h *Handler) RegisterRoutes(r chi.Router, requireSupplier func(http.Handler) http.Handler) {
	r.Get("/api/v1/steps", h.listSteps)
	r.Post("/api/v1/auth/verify-token", h.verifyToken)

	r.Group(func(r chi.Router) {
		r.Use(requireSupplier)
		r.Post("/api/v1/auth/refresh", h.refreshToken)
		r.Get("/api/v1/suppliers/{supplier_id}", h.get)
		r.Patch("/api/v1/suppliers/{supplier_id}", h.patch)
		r.Get("/api/v1/suppliers/{supplier_id}/children", h.children)
		r.Get("/api/v1/suppliers/{supplier_id}/steps/{step}/validate", h.validateStep)
		r.Get("/api/v1/suppliers/{supplier_id}/readiness", h.readiness)
		r.Post("/api/v1/suppliers/{supplier_id}/submit", h.submit)
		r.Get("/api/v1/suppliers/{supplier_id}/status", h.status)
		r.Get("/api/v1/suppliers/{supplier_id}/corrections", h.corrections)
	})
}

// listSteps returns the whole table, or the visible steps when ?tier= is given.
func (h *Handler) listSteps(w http.ResponseWriter, r *http.Request) {
	steps := h.service.Steps()
	if !r.URL.Query().Has("tier") {
		httpx.Respond(w, http.StatusOK, map[string]interface{}{"steps": steps.All()})
		return
	}
	tier := Tier(r.URL.Query().Get("tier"))
	if tier != TierUnset && !tier.Valid() {
		httpx.Error(w, http.StatusBadRequest, ErrInvalidTier)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]interface{}{"steps": steps.Visible(tier)})
}

func (h *Handler) verifyToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InviteToken string `json:"invite_token"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	info, err := h.service.VerifyInvite(r.Context(), req.InviteToken)
	if errors.Is(err, ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, errors.New("invalid invite token"))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, info)
}

func (h *Handler) refreshToken(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.SupplierIDFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, auth.ErrMissingToken)
		return
	}
	token, err := h.issuer.Issue(id)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]string{"access_token": token})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, s)
}

func (h *Handler) patch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p Patch
	if err := httpx.Decode(r, &p); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	s, err := h.service.Patch(r.Context(), id, p)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, s)
}

func (h *Handler) children(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Children(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, c)
}

func (h *Handler) validateStep(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	step, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, errors.New("invalid step"))
		return
	}
	res, err := h.service.ValidateStep(r.Context(), id, step)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, res)
}

func (h *Handler) readiness(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	issues, err := h.service.Readiness(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if issues == nil {
		issues = []ReadinessIssue{}
	}
	httpx.Respond(w, http.StatusOK, map[string]interface{}{"ready": len(issues) == 0, "issues": issues})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s, err := h.service.Submit(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, SubmitResponse{
		ID:          s.ID,
		Status:      s.Status,
		SubmittedAt: s.SubmittedAt,
		Message:     "Application submitted for review",
	})
}

// SubmitResponse is the body of a successful submission.
type SubmitResponse struct {
	ID          uuid.UUID  `json:"id"`
	Status      Status     `json:"status"`
	SubmittedAt *time.Time `json:"submitted_at"`
	Message     string     `json:"message"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, err := h.service.Status(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, v)
}

func (h *Handler) corrections(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	notes, err := h.service.Corrections(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, notes)
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "supplier_id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, errors.New("invalid supplier_id"))
		return uuid.Nil, false
	}
	return id, true
}

// WriteError maps supplier errors onto HTTP status codes. Readiness failures
// carry their itemized issues.
func WriteError(w http.ResponseWriter, err error) { writeError(w, err) }

func writeError(w http.ResponseWriter, err error) {
	if re, ok := IsReadiness(err); ok {
		httpx.Respond(w, http.StatusUnprocessableEntity, httpx.ErrorBody{Error: re.Error(), Issues: re.Issues})
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Error(w, http.StatusNotFound, err)
	case errors.Is(err, ErrIllegalTransition), errors.Is(err, ErrNotEditable):
		httpx.Error(w, http.StatusConflict, err)
	case errors.Is(err, ErrInvalidStep), errors.Is(err, ErrInvalidTier), errors.Is(err, ErrInvalidField),
		errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrEmailRequired),
		errors.Is(err, ErrNoCorrections), errors.Is(err, ErrReviewerRequired):
		httpx.Error(w, http.StatusBadRequest, err)
	default:
		httpx.Error(w, http.StatusInternalServerError, err)
	}
}
