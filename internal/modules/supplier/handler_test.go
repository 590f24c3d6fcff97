package supplier_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/auth"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(f *fixture) http.Handler {
	r := chi.NewRouter()
	supplier.NewHandler(f.svc, f.issuer).RegisterRoutes(r, auth.RequireSupplier(f.issuer))
	return r
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_StepsArePublic(t *testing.T) {
	h := newRouter(newFixture(t))

	rec := do(t, h, http.MethodGet, "/api/v1/steps?tier=tier_2", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Steps []supplier.StepDefinition `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Steps, 10)

	rec = do(t, h, http.MethodGet, "/api/v1/steps?tier=gold", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_RequiresMatchingToken(t *testing.T) {
	f := newFixture(t)
	h := newRouter(f)
	s := readySupplier(supplier.StatusInProgress)
	f.repo.Put(s)
	other := readySupplier(supplier.StatusInProgress)
	f.repo.Put(other)

	rec := do(t, h, http.MethodGet, "/api/v1/suppliers/"+s.ID.String(), "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := f.issuer.Issue(other.ID)
	require.NoError(t, err)
	rec = do(t, h, http.MethodGet, "/api/v1/suppliers/"+s.ID.String(), token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	token, err = f.issuer.Issue(s.ID)
	require.NoError(t, err)
	rec = do(t, h, http.MethodGet, "/api/v1/suppliers/"+s.ID.String(), token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_SubmitReportsReadinessIssues(t *testing.T) {
	f := newFixture(t)
	h := newRouter(f)
	s := readySupplier(supplier.StatusInProgress)
	f.repo.Put(s)
	token, err := f.issuer.Issue(s.ID)
	require.NoError(t, err)

	rec := do(t, h, http.MethodPost, "/api/v1/suppliers/"+s.ID.String()+"/submit", token, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body struct {
		Error  string                    `json:"error"`
		Issues []supplier.ReadinessIssue `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Issues, 3)
	assert.Equal(t, 3, body.Issues[0].Step)
	assert.Equal(t, "Accepted Payers", body.Issues[1].Label)

	f.children.Set(readyChildren())
	rec = do(t, h, http.MethodPost, "/api/v1/suppliers/"+s.ID.String()+"/submit", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ok supplier.SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ok))
	assert.Equal(t, supplier.StatusSubmitted, ok.Status)
	assert.NotNil(t, ok.SubmittedAt)

	rec = do(t, h, http.MethodPost, "/api/v1/suppliers/"+s.ID.String()+"/submit", token, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_PatchAndStatus(t *testing.T) {
	f := newFixture(t)
	h := newRouter(f)
	s := readySupplier(supplier.StatusInProgress)
	f.repo.Put(s)
	token, err := f.issuer.Issue(s.ID)
	require.NoError(t, err)
	path := "/api/v1/suppliers/" + s.ID.String()

	rec := do(t, h, http.MethodPatch, path, token, `{"support_hours":"8-6 CT","current_step":7}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out supplier.Supplier
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "8-6 CT", out.SupportHours)
	assert.Equal(t, 7, out.CurrentStep)

	rec = do(t, h, http.MethodPatch, path, token, `{"unknown_field":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, path, token, `{"current_step":9}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, path+"/status", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"can_submit":true`)

	rec = do(t, h, http.MethodGet, path+"/corrections", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandler_VerifyTokenAndRefresh(t *testing.T) {
	f := newFixture(t)
	h := newRouter(f)
	s := readySupplier(supplier.StatusInProgress)
	f.repo.Put(s)

	rec := do(t, h, http.MethodPost, "/api/v1/auth/verify-token", "", `{"invite_token":"`+s.InviteToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var info supplier.InviteInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, s.ID, info.SupplierID)
	require.NotEmpty(t, info.AccessToken)

	rec = do(t, h, http.MethodPost, "/api/v1/auth/verify-token", "", `{"invite_token":"bogus"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/auth/refresh", info.AccessToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "access_token")
}
