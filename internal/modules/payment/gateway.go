package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Gateway is the provider-agnostic interface for connected-account onboarding.
type Gateway interface {
	// CreateAccount opens a connected account. idempotencyKey makes retries safe.
	CreateAccount(ctx context.Context, email, businessName, idempotencyKey string) (*Account, error)
	CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (*AccountLink, error)
	RetrieveAccount(ctx context.Context, accountID string) (*Account, error)
}

// ── Stripe Connect adapter ──────────────────────────────────
// Stripe's REST API takes form-encoded bodies and a bearer secret key.

type stripeGateway struct {
	client *resty.Client
}

type stripeErrorBody struct {
	Error APIError `json:"error"`
}

// NewStripeGateway talks to the Stripe REST API at baseURL.
func NewStripeGateway(baseURL, secretKey string) Gateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(secretKey).
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Accept", "application/json")
	return &stripeGateway{client: client}
}

func (g *stripeGateway) do(req *resty.Request, method, path string, out interface{}) error {
	var apiErr stripeErrorBody
	resp, err := req.SetResult(out).SetError(&apiErr).Execute(method, path)
	if err != nil {
		return fmt.Errorf("payment provider %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		e := apiErr.Error
		e.StatusCode = resp.StatusCode()
		return &e
	}
	return nil
}

func (g *stripeGateway) CreateAccount(ctx context.Context, email, businessName, idempotencyKey string) (*Account, error) {
	form := map[string]string{"type": "express", "email": email}
	if businessName != "" {
		form["business_profile[name]"] = businessName
	}
	req := g.client.R().
		SetContext(ctx).
		SetFormData(form)
	if idempotencyKey != "" {
		req.SetHeader("Idempotency-Key", idempotencyKey)
	}
	var acct Account
	if err := g.do(req, resty.MethodPost, "/v1/accounts", &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

func (g *stripeGateway) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (*AccountLink, error) {
	req := g.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"account":     accountID,
			"refresh_url": refreshURL,
			"return_url":  returnURL,
			"type":        "account_onboarding",
		})
	var link AccountLink
	if err := g.do(req, resty.MethodPost, "/v1/account_links", &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (g *stripeGateway) RetrieveAccount(ctx context.Context, accountID string) (*Account, error) {
	req := g.client.R().
		SetContext(ctx).
		SetPathParam("id", accountID)
	var acct Account
	if err := g.do(req, resty.MethodGet, "/v1/accounts/{id}", &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}
