package payment

import (
	"errors"
	"io"
	"net/http"

	"github.com/georgemunganga/supplier-onboarding/internal/httpx"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxWebhookBody = 1 << 16

// Handler exposes the payment-account endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router, requireSupplier func(http.Handler) http.Handler) {
	// Provider-signed, no bearer token.
	r.Post("/api/v1/webhooks/stripe", h.webhook)

	r.Group(func(r chi.Router) {
		r.Use(requireSupplier)
		r.Post("/api/v1/suppliers/{supplier_id}/stripe/create-account-link", h.createAccountLink)
		r.Post("/api/v1/suppliers/{supplier_id}/stripe/check-status", h.checkStatus)
	})
}

func (h *Handler) createAccountLink(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "supplier_id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, errors.New("invalid supplier_id"))
		return
	}
	link, err := h.service.CreateAccountLink(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, link)
}

func (h *Handler) checkStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "supplier_id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, errors.New("invalid supplier_id"))
		return
	}
	st, err := h.service.CheckStatus(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, st)
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, ErrInvalidPayload)
		return
	}
	if err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get(SignatureHeader)); err != nil {
		writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, err error) {
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrInvalidSignature), errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrTier1Only):
		httpx.Error(w, http.StatusBadRequest, err)
	case errors.As(err, &apiErr):
		httpx.Error(w, http.StatusBadGateway, err)
	default:
		supplier.WriteError(w, err)
	}
}
