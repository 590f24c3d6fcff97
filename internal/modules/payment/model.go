package payment

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrTier1Only        = errors.New("payment setup is only available to tier_1 suppliers")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)

// Account is the subset of a connected payment account the onboarding flow reads.
type Account struct {
	ID               string `json:"id"`
	DetailsSubmitted bool   `json:"details_submitted"`
	ChargesEnabled   bool   `json:"charges_enabled"`
}

// OnboardingComplete is true once the provider has the details it needs and charges are enabled.
func (a *Account) OnboardingComplete() bool {
	return a.DetailsSubmitted && a.ChargesEnabled
}

// AccountLink is a hosted onboarding URL for a connected account.
type AccountLink struct {
	URL string `json:"url"`
}

// AccountStatus is returned by the status check.
// @Description Payment account onboarding status for a supplier
type AccountStatus struct {
	StripeAccountID    string `json:"stripe_account_id,omitempty"`
	DetailsSubmitted   bool   `json:"details_submitted"`
	ChargesEnabled     bool   `json:"charges_enabled"`
	OnboardingComplete bool   `json:"onboarding_complete"`
}

// Event is a provider webhook envelope.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// EventAccountUpdated is the only event type acted upon.
const EventAccountUpdated = "account.updated"

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payment provider returned %d", e.StatusCode)
	}
	return fmt.Sprintf("payment provider returned %d: %s", e.StatusCode, e.Message)
}
