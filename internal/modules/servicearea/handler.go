package servicearea

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
		r.Get("/api/v1/suppliers/{supplier_id}/service-areas", h.list)
		r.Post("/api/v1/suppliers/{supplier_id}/service-areas", h.save)
		r.Delete("/api/v1/suppliers/{supplier_id}/service-areas/{area_id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	supplierID, err := uuid.Parse(chi.URLParam(r, "supplier_id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, errors.New("invalid supplier_id"))
		return
	}
	areas, err := h.service.List(r.Context(), supplierID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]interface{}{"service_areas": areas, "total": len(areas)})
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	supplierID, err := uuid.Parse(chi.URLParam(r, "supplier_id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, errors.New("invalid supplier_id"))
		return
	}
	var in Input
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	area, err := h.service.Save(r.Context(), supplierID, in)
	switch {
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrInvalidDelivery):
		httpx.Error(w, http.StatusBadRequest, err)
	case err != nil:
		httpx.Error(w, http.StatusInternalServerError, err)
	default:
		httpx.Respond(w, http.StatusOK, area)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	supplierID, err := uuid.Parse(chi.URLParam(r, "supplier_id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, errors.New("invalid supplier_id"))
		return
	}
	areaID, err := uuid.Parse(chi.URLParam(r, "area_id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, errors.New("invalid area_id"))
		return
	}
	err = h.service.Delete(r.Context(), supplierID, areaID)
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Error(w, http.StatusNotFound, err)
	case err != nil:
		httpx.Error(w, http.StatusInternalServerError, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
