package payer

import (
	"errors"
	"net/http"

	"github.com/georgemunganga/supplier-onboarding/internal/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router, requireSupplier func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireSupplier)
		r.Get("/api/v1/suppliers/{supplier_id}/payers", h.listPayers)
		r.Post("/api/v1/suppliers/{supplier_id}/payers", h.addPayers)
		r.Delete("/api/v1/suppliers/{supplier_id}/payers/{payer_id}", h.deletePayer)
		r.Get("/api/v1/suppliers/{supplier_id}/exclusions", h.listExclusions)
		r.Post("/api/v1/suppliers/{supplier_id}/exclusions", h.addExclusion)
		r.Delete("/api/v1/suppliers/{supplier_id}/exclusions/{exclusion_id}", h.deleteExclusion)
	})
}

func (h *Handler) listPayers(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := pathID(w, r, "supplier_id")
	if !ok {
		return
	}
	payers, err := h.service.ListPayers(r.Context(), supplierID)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]interface{}{"payers": payers, "total": len(payers)})
}

func (h *Handler) addPayers(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := pathID(w, r, "supplier_id")
	if !ok {
		return
	}
	var req struct {
		Payers []PayerInput `json:"payers"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}

	res := h.service.AddPayers(r.Context(), supplierID, req.Payers)
	if res.Err != nil {
		// Rows written before the failure are reported alongside the error.
		status := http.StatusInternalServerError
		if errors.Is(res.Err, ErrInvalidPayer) {
			status = http.StatusBadRequest
		}
		httpx.Respond(w, status, map[string]interface{}{"error": res.Err.Error(), "created": res.Created})
		return
	}
	httpx.Respond(w, http.StatusCreated, res.Created)
}

func (h *Handler) deletePayer(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := pathID(w, r, "supplier_id")
	if !ok {
		return
	}
	payerID, ok := pathID(w, r, "payer_id")
	if !ok {
		return
	}
	if err := h.service.DeletePayer(r.Context(), supplierID, payerID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listExclusions(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := pathID(w, r, "supplier_id")
	if !ok {
		return
	}
	exclusions, err := h.service.ListExclusions(r.Context(), supplierID)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]interface{}{"exclusions": exclusions, "total": len(exclusions)})
}

func (h *Handler) addExclusion(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := pathID(w, r, "supplier_id")
	if !ok {
		return
	}
	var in ExclusionInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	e, err := h.service.AddExclusion(r.Context(), supplierID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, e)
}

func (h *Handler) deleteExclusion(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := pathID(w, r, "supplier_id")
	if !ok {
		return
	}
	exclusionID, ok := pathID(w, r, "exclusion_id")
	if !ok {
		return
	}
	if err := h.service.DeleteExclusion(r.Context(), supplierID, exclusionID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, errors.New("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrExclusionNotFound):
		httpx.Error(w, http.StatusNotFound, err)
	case errors.Is(err, ErrInvalidPayer), errors.Is(err, ErrInvalidExclusion), errors.Is(err, ErrUnknownProduct):
		httpx.Error(w, http.StatusBadRequest, err)
	default:
		httpx.Error(w, http.StatusInternalServerError, err)
	}
}
