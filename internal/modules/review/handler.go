package review

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/georgemunganga/supplier-onboarding/internal/httpx"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts the admin endpoints behind adminGuard.
func (h *Handler) RegisterRoutes(r chi.Router, adminGuard func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(adminGuard)
		r.Get("/api/v1/admin/suppliers", h.list)
		r.Post("/api/v1/admin/suppliers", h.invite)
		r.Get("/api/v1/admin/suppliers/export", h.export)
		r.Get("/api/v1/admin/suppliers/{supplier_id}", h.detail)
		r.Post("/api/v1/admin/suppliers/{supplier_id}/claim", h.action(h.service.Claim))
		r.Post("/api/v1/admin/suppliers/{supplier_id}/request-corrections", h.requestCorrections)
		r.Post("/api/v1/admin/suppliers/{supplier_id}/approve", h.action(h.service.Approve))
		r.Post("/api/v1/admin/suppliers/{supplier_id}/go-live", h.action(h.service.GoLive))
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		supplier.WriteError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, out)
}

func (h *Handler) invite(w http.ResponseWriter, r *http.Request) {
	var in supplier.CreateInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	out, err := h.service.Invite(r.Context(), in)
	if err != nil {
		supplier.WriteError(w, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, out)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	// Validate the filter before any bytes are written.
	if _, err := parseFilter(r.URL.Query().Get("status")); err != nil {
		supplier.WriteError(w, err)
		return
	}
	name := "suppliers-" + time.Now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := h.service.Export(r.Context(), r.URL.Query().Get("status"), w); err != nil {
		httpx.Error(w, http.StatusInternalServerError, err)
	}
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := h.service.Detail(r.Context(), id)
	if err != nil {
		supplier.WriteError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, out)
}

func (h *Handler) requestCorrections(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in CorrectionsInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	out, err := h.service.RequestCorrections(r.Context(), id, in)
	if err != nil {
		supplier.WriteError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, out)
}

func (h *Handler) action(fn func(ctx context.Context, id uuid.UUID) (*ActionResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		out, err := fn(r.Context(), id)
		if err != nil {
			supplier.WriteError(w, err)
			return
		}
		httpx.Respond(w, http.StatusOK, out)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "supplier_id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, errors.New("invalid supplier_id"))
		return uuid.Nil, false
	}
	return id, true
}
