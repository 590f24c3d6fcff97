package review

import (
	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier"
	"github.com/google/uuid"
)

// ActionResult is returned by every pipeline action.
type ActionResult struct {
	ID      uuid.UUID       `json:"id"`
	Status  supplier.Status `json:"status"`
	Message string          `json:"message"`
}

// ListResult is the admin supplier list.
type ListResult struct {
	Suppliers []supplier.Summary `json:"suppliers"`
	Total     int                `json:"total"`
}

// Detail is the full admin view of one supplier.
type Detail struct {
	*supplier.Supplier
	supplier.Children
	Corrections []*supplier.Correction `json:"corrections"`
	Actions     supplier.Actions       `json:"actions"`
}

// CorrectionsInput is the request-corrections payload.
type CorrectionsInput struct {
	ReviewerName string                       `json:"reviewer_name"`
	Corrections  []supplier.CorrectionRequest `json:"corrections"`
}

// Invite is returned when an admin opens a new supplier draft.
type Invite struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	InviteToken string    `json:"invite_token"`
	InviteURL   string    `json:"invite_url"`
}

const (
	msgClaimed     = "Supplier claimed for review"
	msgCorrections = "Corrections requested"
	msgApproved    = "Supplier approved"
	msgLive        = "Supplier is now live"
)
