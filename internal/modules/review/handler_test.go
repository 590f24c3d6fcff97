package review_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/auth"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/review"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const adminPassword = "open-sesame"

func newRouter(t *testing.T, f *fixture) http.Handler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	r := chi.NewRouter()
	review.NewHandler(f.svc).RegisterRoutes(r, auth.AdminGuard(string(hash)))
	return r
}

func adminDo(h http.Handler, method, path, password, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if password != "" {
		req.Header.Set(auth.AdminPasswordHeader, password)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_RequiresAdminPassword(t *testing.T) {
	h := newRouter(t, newFixture(t))

	assert.Equal(t, http.StatusUnauthorized, adminDo(h, http.MethodGet, "/api/v1/admin/suppliers", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, adminDo(h, http.MethodGet, "/api/v1/admin/suppliers", "wrong", "").Code)
	assert.Equal(t, http.StatusOK, adminDo(h, http.MethodGet, "/api/v1/admin/suppliers", adminPassword, "").Code)
	assert.Equal(t, http.StatusBadRequest, adminDo(h, http.MethodGet, "/api/v1/admin/suppliers?status=bogus", adminPassword, "").Code)
}

func TestHandler_ReviewFlow(t *testing.T) {
	f := newFixture(t)
	h := newRouter(t, f)
	s := f.put(supplier.StatusSubmitted, "acme", nil)
	base := "/api/v1/admin/suppliers/" + s.ID.String()

	rec := adminDo(h, http.MethodPost, base+"/request-corrections", adminPassword,
		`{"reviewer_name":"Sam","corrections":[{"step_number":3,"comment":""}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = adminDo(h, http.MethodPost, base+"/claim", adminPassword, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res review.ActionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, supplier.StatusUnderReview, res.Status)

	rec = adminDo(h, http.MethodPost, base+"/claim", adminPassword, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = adminDo(h, http.MethodPost, base+"/request-corrections", adminPassword,
		`{"reviewer_name":"Sam","corrections":[{"step_number":3,"comment":"missing SKUs"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"`+s.ID.String()+`","status":"action_needed","message":"Corrections requested"}`, rec.Body.String())

	rec = adminDo(h, http.MethodGet, base, adminPassword, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Status      supplier.Status       `json:"status"`
		Corrections []supplier.Correction `json:"corrections"`
		Actions     supplier.Actions      `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, supplier.StatusActionNeeded, detail.Status)
	require.Len(t, detail.Corrections, 1)
	assert.Equal(t, "missing SKUs", detail.Corrections[0].Comment)

	rec = adminDo(h, http.MethodPost, base+"/approve", adminPassword, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = adminDo(h, http.MethodGet, "/api/v1/admin/suppliers/not-a-uuid", adminPassword, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_InviteAndExport(t *testing.T) {
	f := newFixture(t)
	h := newRouter(t, f)

	rec := adminDo(h, http.MethodPost, "/api/v1/admin/suppliers", adminPassword, `{"email":"new@acme.test","company_name":"Acme"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var inv review.Invite
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))
	assert.NotEmpty(t, inv.InviteToken)

	rec = adminDo(h, http.MethodGet, "/api/v1/admin/suppliers/export", adminPassword, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, rec.Body.Len())

	rec = adminDo(h, http.MethodGet, "/api/v1/admin/suppliers/export?status=nope", adminPassword, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
