package catalog

import (
	"errors"
	"net/http"

	"github.com/georgemunganga/supplier-onboarding/internal/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxUploadBytes bounds a single catalog upload.
const maxUploadBytes = 20 << 20

// Handler exposes catalog HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router, requireSupplier func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireSupplier)
		r.Get("/api/v1/suppliers/{supplier_id}/products", h.listProducts)
		r.Post("/api/v1/suppliers/{supplier_id}/products", h.createProduct)
		r.Post("/api/v1/suppliers/{supplier_id}/products/approve", h.approveAll)
		r.Post("/api/v1/suppliers/{supplier_id}/products/upload", h.upload)
		r.Get("/api/v1/suppliers/{supplier_id}/products/upload-status", h.uploadStatus)
		r.Patch("/api/v1/suppliers/{supplier_id}/products/{product_id}", h.updateProduct)
		r.Delete("/api/v1/suppliers/{supplier_id}/products/{product_id}", h.deleteProduct)
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := pathID(w, r, "supplier_id")
	if !ok {
		return
	}
	products, err := h.service.ListProducts(r.Context(), supplierID)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]interface{}{"products": products, "total": len(products)})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := pathID(w, r, "supplier_id")
	if !ok {
		return
	}
	var in ProductInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	p, err := h.service.CreateProduct(r.Context(), supplierID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := pathID(w, r, "supplier_id")
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}
	var in ProductInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), supplierID, productID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := pathID(w, r, "supplier_id")
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(r.Context(), supplierID, productID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) approveAll(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := pathID(w, r, "supplier_id")
	if !ok {
		return
	}
	n, err := h.service.ApproveAll(r.Context(), supplierID)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]int{"approved_count": n})
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := pathID(w, r, "supplier_id")
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	u, err := h.service.Upload(r.Context(), supplierID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusAccepted, u)
}

func (h *Handler) uploadStatus(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := pathID(w, r, "supplier_id")
	if !ok {
		return
	}
	st, err := h.service.UploadStatus(r.Context(), supplierID)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, st)
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
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUploadNotFound):
		httpx.Error(w, http.StatusNotFound, err)
	case errors.Is(err, ErrNameRequired), errors.Is(err, ErrInvalidFulfillment):
		httpx.Error(w, http.StatusBadRequest, err)
	default:
		httpx.Error(w, http.StatusInternalServerError, err)
	}
}
