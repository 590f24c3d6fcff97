// Package client is the HTTP implementation of the onboarding Draft Store.
package client

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/catalog"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/payer"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/payment"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/servicearea"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const defaultTimeout = 30 * time.Second

// Client calls the supplier-facing API with a bearer session token.
type Client struct {
	http *resty.Client

	mu    sync.RWMutex
	token string
}

// New builds a client for the API at baseURL. Use SetToken or VerifyInvite
// before calling supplier endpoints.
func New(baseURL string) *Client {
	return NewWithResty(resty.New().SetBaseURL(baseURL).SetTimeout(defaultTimeout))
}

// NewWithResty wraps a preconfigured resty client.
func NewWithResty(rc *resty.Client) *Client {
	rc.SetHeader("Accept", "application/json")
	return &Client{http: rc}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) request(ctx context.Context, authed bool) (*resty.Request, error) {
	req := c.http.R().SetContext(ctx)
	if authed {
		token := c.Token()
		if token == "" {
			return nil, ErrNoToken
		}
		req.SetAuthToken(token)
	}
	return req, nil
}

func do(req *resty.Request, method, path string, body, out interface{}) error {
	var eb errorBody
	req.SetError(&eb)
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return decodeError(resp.StatusCode(), eb)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	req, err := c.request(ctx, true)
	if err != nil {
		return err
	}
	return do(req, method, path, body, out)
}

func supplierPath(id uuid.UUID, rest string) string {
	return "/api/v1/suppliers/" + id.String() + rest
}

// ── Session ─────────────────────────────────────────────────

// VerifyInvite exchanges an invite token for supplier info. When the response
// carries an access token it becomes the session token.
func (c *Client) VerifyInvite(ctx context.Context, inviteToken string) (*supplier.InviteInfo, error) {
	req, _ := c.request(ctx, false)
	var info supplier.InviteInfo
	body := map[string]string{"invite_token": inviteToken}
	if err := do(req, resty.MethodPost, "/api/v1/auth/verify-token", body, &info); err != nil {
		return nil, err
	}
	if info.AccessToken != "" {
		c.SetToken(info.AccessToken)
	}
	return &info, nil
}

func (c *Client) Refresh(ctx context.Context) error {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.call(ctx, resty.MethodPost, "/api/v1/auth/refresh", nil, &out); err != nil {
		return err
	}
	c.SetToken(out.AccessToken)
	return nil
}

func (c *Client) Steps(ctx context.Context, tier supplier.Tier) ([]supplier.StepDefinition, error) {
	req, _ := c.request(ctx, false)
	if tier != supplier.TierUnset {
		req.SetQueryParam("tier", string(tier))
	}
	var out struct {
		Steps []supplier.StepDefinition `json:"steps"`
	}
	if err := do(req, resty.MethodGet, "/api/v1/steps", nil, &out); err != nil {
		return nil, err
	}
	return out.Steps, nil
}

// ── Draft ───────────────────────────────────────────────────

func (c *Client) FetchSupplier(ctx context.Context, id uuid.UUID) (*supplier.Supplier, error) {
	var s supplier.Supplier
	if err := c.call(ctx, resty.MethodGet, supplierPath(id, ""), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) PatchSupplier(ctx context.Context, id uuid.UUID, p supplier.Patch) (*supplier.Supplier, error) {
	var s supplier.Supplier
	if err := c.call(ctx, resty.MethodPatch, supplierPath(id, ""), p, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) FetchChildren(ctx context.Context, id uuid.UUID) (*supplier.Children, error) {
	var ch supplier.Children
	if err := c.call(ctx, resty.MethodGet, supplierPath(id, "/children"), nil, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (c *Client) ValidateStep(ctx context.Context, id uuid.UUID, step int) (*supplier.ValidationResult, error) {
	var res supplier.ValidationResult
	path := supplierPath(id, fmt.Sprintf("/steps/%d/validate", step))
	if err := c.call(ctx, resty.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Readiness(ctx context.Context, id uuid.UUID) ([]supplier.ReadinessIssue, error) {
	var out struct {
		Ready  bool                      `json:"ready"`
		Issues []supplier.ReadinessIssue `json:"issues"`
	}
	if err := c.call(ctx, resty.MethodGet, supplierPath(id, "/readiness"), nil, &out); err != nil {
		return nil, err
	}
	return out.Issues, nil
}

// Submit fails with *supplier.ReadinessError when the draft is incomplete.
func (c *Client) Submit(ctx context.Context, id uuid.UUID) (*supplier.SubmitResponse, error) {
	var out supplier.SubmitResponse
	if err := c.call(ctx, resty.MethodPost, supplierPath(id, "/submit"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Status(ctx context.Context, id uuid.UUID) (*supplier.StatusView, error) {
	var out supplier.StatusView
	if err := c.call(ctx, resty.MethodGet, supplierPath(id, "/status"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchCorrections(ctx context.Context, id uuid.UUID) ([]*supplier.Correction, error) {
	var out []*supplier.Correction
	if err := c.call(ctx, resty.MethodGet, supplierPath(id, "/corrections"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ── Products ────────────────────────────────────────────────

func (c *Client) AddProduct(ctx context.Context, id uuid.UUID, in catalog.ProductInput) (*catalog.Product, error) {
	var p catalog.Product
	if err := c.call(ctx, resty.MethodPost, supplierPath(id, "/products"), in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id, productID uuid.UUID, in catalog.ProductInput) (*catalog.Product, error) {
	var p catalog.Product
	if err := c.call(ctx, resty.MethodPatch, supplierPath(id, "/products/"+productID.String()), in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id, productID uuid.UUID) error {
	return c.call(ctx, resty.MethodDelete, supplierPath(id, "/products/"+productID.String()), nil, nil)
}

// ApproveProducts approves every unapproved product and returns how many changed.
func (c *Client) ApproveProducts(ctx context.Context, id uuid.UUID) (int, error) {
	var out struct {
		ApprovedCount int `json:"approved_count"`
	}
	if err := c.call(ctx, resty.MethodPost, supplierPath(id, "/products/approve"), nil, &out); err != nil {
		return 0, err
	}
	return out.ApprovedCount, nil
}

func (c *Client) UploadCatalog(ctx context.Context, id uuid.UUID, filename string, r io.Reader) (*catalog.Upload, error) {
	req, err := c.request(ctx, true)
	if err != nil {
		return nil, err
	}
	req.SetFileReader("file", filename, r)
	var u catalog.Upload
	if err := do(req, resty.MethodPost, supplierPath(id, "/products/upload"), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UploadStatus(ctx context.Context, id uuid.UUID) (*catalog.UploadStatus, error) {
	var st catalog.UploadStatus
	if err := c.call(ctx, resty.MethodGet, supplierPath(id, "/products/upload-status"), nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// ── Payers, exclusions, service areas ───────────────────────

// AddPayers writes each row independently. On failure the rows the server
// committed before the error are returned with it.
func (c *Client) AddPayers(ctx context.Context, id uuid.UUID, rows []payer.PayerInput) ([]*payer.Payer, error) {
	req, err := c.request(ctx, true)
	if err != nil {
		return nil, err
	}
	var (
		created []*payer.Payer
		partial struct {
			Error   string         `json:"error"`
			Created []*payer.Payer `json:"created"`
		}
	)
	resp, err := req.
		SetBody(map[string]interface{}{"payers": rows}).
		SetResult(&created).
		SetError(&partial).
		Post(supplierPath(id, "/payers"))
	if err != nil {
		return nil, fmt.Errorf("POST payers: %w", err)
	}
	if resp.IsError() {
		return partial.Created, decodeError(resp.StatusCode(), errorBody{Error: partial.Error})
	}
	return created, nil
}

func (c *Client) DeletePayer(ctx context.Context, id, payerID uuid.UUID) error {
	return c.call(ctx, resty.MethodDelete, supplierPath(id, "/payers/"+payerID.String()), nil, nil)
}

func (c *Client) AddExclusion(ctx context.Context, id uuid.UUID, in payer.ExclusionInput) (*payer.Exclusion, error) {
	var e payer.Exclusion
	if err := c.call(ctx, resty.MethodPost, supplierPath(id, "/exclusions"), in, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) DeleteExclusion(ctx context.Context, id, exclusionID uuid.UUID) error {
	return c.call(ctx, resty.MethodDelete, supplierPath(id, "/exclusions/"+exclusionID.String()), nil, nil)
}

func (c *Client) SaveServiceArea(ctx context.Context, id uuid.UUID, in servicearea.Input) (*servicearea.ServiceArea, error) {
	var a servicearea.ServiceArea
	if err := c.call(ctx, resty.MethodPost, supplierPath(id, "/service-areas"), in, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) DeleteServiceArea(ctx context.Context, id, areaID uuid.UUID) error {
	return c.call(ctx, resty.MethodDelete, supplierPath(id, "/service-areas/"+areaID.String()), nil, nil)
}

// ── Payment account ─────────────────────────────────────────

func (c *Client) CreatePaymentLink(ctx context.Context, id uuid.UUID) (*payment.AccountLink, error) {
	var link payment.AccountLink
	if err := c.call(ctx, resty.MethodPost, supplierPath(id, "/stripe/create-account-link"), nil, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (c *Client) CheckPaymentStatus(ctx context.Context, id uuid.UUID) (*payment.AccountStatus, error) {
	var st payment.AccountStatus
	if err := c.call(ctx, resty.MethodPost, supplierPath(id, "/stripe/check-status"), nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
