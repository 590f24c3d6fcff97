package client

import (
	"context"
	"io"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/auth"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/review"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// AdminClient calls the review endpoints with the shared admin password.
type AdminClient struct {
	http *resty.Client
}

func NewAdmin(baseURL, password string) *AdminClient {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json").
		SetHeader(auth.AdminPasswordHeader, password)
	return &AdminClient{http: rc}
}

func adminPath(id uuid.UUID, rest string) string {
	return "/api/v1/admin/suppliers/" + id.String() + rest
}

// ListSuppliers filters by status; an empty status lists everything.
func (a *AdminClient) ListSuppliers(ctx context.Context, status supplier.Status) (*review.ListResult, error) {
	req := a.http.R().SetContext(ctx)
	if status != "" {
		req.SetQueryParam("status", string(status))
	}
	var out review.ListResult
	if err := do(req, resty.MethodGet, "/api/v1/admin/suppliers", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AdminClient) Detail(ctx context.Context, id uuid.UUID) (*review.Detail, error) {
	out := review.Detail{Supplier: &supplier.Supplier{}}
	if err := do(a.http.R().SetContext(ctx), resty.MethodGet, adminPath(id, ""), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AdminClient) action(ctx context.Context, id uuid.UUID, name string, body interface{}) (*review.ActionResult, error) {
	var out review.ActionResult
	if err := do(a.http.R().SetContext(ctx), resty.MethodPost, adminPath(id, "/"+name), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AdminClient) Claim(ctx context.Context, id uuid.UUID) (*review.ActionResult, error) {
	return a.action(ctx, id, "claim", nil)
}

func (a *AdminClient) RequestCorrections(ctx context.Context, id uuid.UUID, in review.CorrectionsInput) (*review.ActionResult, error) {
	return a.action(ctx, id, "request-corrections", in)
}

func (a *AdminClient) Approve(ctx context.Context, id uuid.UUID) (*review.ActionResult, error) {
	return a.action(ctx, id, "approve", nil)
}

func (a *AdminClient) GoLive(ctx context.Context, id uuid.UUID) (*review.ActionResult, error) {
	return a.action(ctx, id, "go-live", nil)
}

func (a *AdminClient) Invite(ctx context.Context, in supplier.CreateInput) (*review.Invite, error) {
	var out review.Invite
	if err := do(a.http.R().SetContext(ctx), resty.MethodPost, "/api/v1/admin/suppliers", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export streams the xlsx workbook into w.
func (a *AdminClient) Export(ctx context.Context, status supplier.Status, w io.Writer) error {
	req := a.http.R().SetContext(ctx).SetDoNotParseResponse(true)
	if status != "" {
		req.SetQueryParam("status", string(status))
	}
	resp, err := req.Get("/api/v1/admin/suppliers/export")
	if err != nil {
		return err
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Message: resp.Status()}
	}
	_, err = io.Copy(w, body)
	return err
}
