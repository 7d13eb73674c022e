// Package visitor defines the visitor request entity and its lifecycle rules.
package visitor

import (
	"time"
)

// Status is the lifecycle state of a visitor request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusExpired
}

// CanTransition reports whether the lifecycle permits moving from one status
// to another. The only legal transitions are pending to a terminal state.
func CanTransition(from, to Status) bool {
	return from == StatusPending && to.Terminal()
}

// Decision is a host's verdict on a pending request.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// ParseDecision maps a raw status string from a decision link to a Decision.
func ParseDecision(raw string) (Decision, bool) {
	switch Decision(raw) {
	case DecisionApproved:
		return DecisionApproved, true
	case DecisionRejected:
		return DecisionRejected, true
	}
	return "", false
}

// Status returns the terminal status a decision resolves to.
func (d Decision) Status() Status {
	if d == DecisionApproved {
		return StatusApproved
	}
	return StatusRejected
}

// Request is a visitor registration awaiting or past a host decision.
//
// The approval token is the authorization credential embedded in the host's
// email link; the visitor code is the human-readable identifier printed on
// the pass. They are never interchangeable.
type Request struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Mobile     string `json:"mobile"`
	NationalID string `json:"nationalId"`
	Purpose    string `json:"purpose"`
	HostName   string `json:"toMeet,omitempty"`
	HostEmail  string `json:"hostEmail"`
	Photo      string `json:"photo"` // base64 data URI captured by the kiosk webcam

	VisitorCode string `json:"visitorCode"`
	QRCode      string `json:"qrCode"` // PNG data URI

	Status Status `json:"status"`

	ApprovalToken  string    `json:"-"`
	TokenExpiresAt time.Time `json:"-"`
	ExpiresAt      time.Time `json:"expiresAt"`

	DecisionAt *time.Time `json:"decisionAt,omitempty"`
	ApprovedBy string     `json:"approvedBy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TokenExpired reports whether the decision token is past its expiry at t.
func (r *Request) TokenExpired(t time.Time) bool {
	return !r.TokenExpiresAt.IsZero() && t.After(r.TokenExpiresAt)
}

// Overdue reports whether a still-pending request is past its expiry at t.
func (r *Request) Overdue(t time.Time) bool {
	return r.Status == StatusPending && !r.ExpiresAt.IsZero() && t.After(r.ExpiresAt)
}

// Clone returns a deep copy of the request.
func (r *Request) Clone() *Request {
	cp := *r
	if r.DecisionAt != nil {
		d := *r.DecisionAt
		cp.DecisionAt = &d
	}
	return &cp
}
