// Package repositories defines the repository interfaces for the visitor
// domain. These abstract the persistence details so the lifecycle service
// stays decoupled from the database engine.
package repositories

import (
	"context"
	"time"

	"github.com/logiclens/gatepass-go/internal/domain/entities/visitor"
)

// DecisionFields carries the audit fields written alongside a terminal
// transition. ApprovedBy is empty except for approvals.
type DecisionFields struct {
	DecisionAt time.Time
	ApprovedBy string
}

// VisitorRepository is the record store contract for visitor requests.
//
// ConditionalUpdateStatus is the single write path for status transitions:
// it must apply the new status, decision fields, and updated timestamp only
// if the record's current status equals expected, atomically, and report
// whether the update took effect. Lookups return visitor.ErrNotFound or
// visitor.ErrTokenNotFound when no record matches.
type VisitorRepository interface {
	Create(ctx context.Context, req *visitor.Request) error
	FindByID(ctx context.Context, id string) (*visitor.Request, error)
	FindByToken(ctx context.Context, token string) (*visitor.Request, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	ConditionalUpdateStatus(ctx context.Context, id string, expected, next visitor.Status, fields *DecisionFields) (bool, error)
	ListAll(ctx context.Context) ([]*visitor.Request, error)
	ListOverduePending(ctx context.Context, now time.Time) ([]string, error)
}
