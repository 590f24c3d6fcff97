package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/auth"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/catalog"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/payer"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newServer(t *testing.T, mount func(r chi.Router)) *Client {
	t.Helper()
	r := chi.NewRouter()
	mount(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestClient_RequiresTokenForSupplierCalls(t *testing.T) {
	c := newServer(t, func(r chi.Router) {})
	_, err := c.FetchSupplier(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestClient_VerifyInviteAdoptsToken(t *testing.T) {
	id := uuid.New()
	var gotAuth string
	c := newServer(t, func(r chi.Router) {
		r.Post("/api/v1/auth/verify-token", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["invite_token"] != "inv-1" {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "supplier not found"})
				return
			}
			writeJSON(w, http.StatusOK, supplier.InviteInfo{SupplierID: id, AccessToken: "tok-1"})
		})
		r.Get("/api/v1/suppliers/{supplier_id}", func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusOK, supplier.Supplier{ID: id, CompanyName: "Acme"})
		})
	})
	ctx := context.Background()

	_, err := c.VerifyInvite(ctx, "nope")
	assert.ErrorIs(t, err, supplier.ErrNotFound)
	assert.Empty(t, c.Token())

	info, err := c.VerifyInvite(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, id, info.SupplierID)
	assert.Equal(t, "tok-1", c.Token())

	s, err := c.FetchSupplier(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", s.CompanyName)
	assert.Equal(t, "Bearer tok-1", gotAuth)
}

func TestClient_ErrorMapping(t *testing.T) {
	id := uuid.New()
	c := newServer(t, func(r chi.Router) {
		r.Post("/api/v1/suppliers/{supplier_id}/submit", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":  "application is not ready to submit",
				"issues": []supplier.ReadinessIssue{{Step: 3, Label: "Product Catalog", Message: "Add at least one product"}},
			})
		})
		r.Get("/api/v1/suppliers/{supplier_id}/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "database unavailable"})
		})
		r.Get("/api/v1/suppliers/{supplier_id}/corrections", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		})
		r.Patch("/api/v1/suppliers/{supplier_id}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "not editable"})
		})
	})
	c.SetToken("tok")
	ctx := context.Background()

	_, err := c.Submit(ctx, id)
	var re *supplier.ReadinessError
	require.True(t, errors.As(err, &re))
	require.Len(t, re.Issues, 1)
	assert.Equal(t, 3, re.Issues[0].Step)

	_, err = c.Status(ctx, id)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Temporary())
	assert.Equal(t, "database unavailable", apiErr.Message)

	_, err = c.FetchCorrections(ctx, id)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = c.PatchSupplier(ctx, id, supplier.Patch{CompanyName: supplier.String("x")})
	assert.ErrorIs(t, err, supplier.ErrIllegalTransition)
}

func TestClient_StepsSendsTier(t *testing.T) {
	var gotTier string
	c := newServer(t, func(r chi.Router) {
		r.Get("/api/v1/steps", func(w http.ResponseWriter, r *http.Request) {
			gotTier = r.URL.Query().Get("tier")
			writeJSON(w, http.StatusOK, map[string]interface{}{"steps": supplier.DefaultSteps().Visible(supplier.Tier2)})
		})
	})

	steps, err := c.Steps(context.Background(), supplier.Tier2)
	require.NoError(t, err)
	assert.Equal(t, "tier_2", gotTier)
	assert.Len(t, steps, 10)
}

func TestClient_AddPayersReturnsPartialRows(t *testing.T) {
	id := uuid.New()
	kept := &payer.Payer{ID: uuid.New(), PayerName: "Aetna", NetworkType: "PPO"}
	c := newServer(t, func(r chi.Router) {
		r.Post("/api/v1/suppliers/{supplier_id}/payers", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":   "payer_name is required",
				"created": []*payer.Payer{kept},
			})
		})
	})
	c.SetToken("tok")

	created, err := c.AddPayers(context.Background(), id, []payer.PayerInput{
		{PayerName: "Aetna", NetworkType: "PPO"},
		{NetworkType: "HMO"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payer_name is required")
	require.Len(t, created, 1)
	assert.Equal(t, kept.ID, created[0].ID)
}

func TestClient_UploadCatalogSendsMultipartFile(t *testing.T) {
	id := uuid.New()
	var gotName, gotBody string
	c := newServer(t, func(r chi.Router) {
		r.Post("/api/v1/suppliers/{supplier_id}/products/upload", func(w http.ResponseWriter, r *http.Request) {
			f, hdr, err := r.FormFile("file")
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			defer f.Close()
			b, _ := io.ReadAll(f)
			gotName, gotBody = hdr.Filename, string(b)
			writeJSON(w, http.StatusAccepted, map[string]interface{}{"upload_id": uuid.New(), "processing_status": "uploaded"})
		})
	})
	c.SetToken("tok")

	u, err := c.UploadCatalog(context.Background(), id, "catalog.csv", strings.NewReader("product_name\nCPAP Mask\n"))
	require.NoError(t, err)
	assert.Equal(t, catalog.ProcessingUploaded, u.Status)
	assert.Equal(t, "catalog.csv", gotName)
	assert.Equal(t, "product_name\nCPAP Mask\n", gotBody)
}
