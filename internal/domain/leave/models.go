package leave

import (
	"time"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/balance"
)

// Leave is a single-day time-off request. A merged all-day request keeps
// the first record's identity; the absorbed counterpart is soft-deleted.
type Leave struct {
	ID           string
	SeqKey       string
	UserID       string
	Title        string
	Reason       string
	Date         time.Time
	Shift        balance.Shift
	Status       balance.Status
	Pay          *balance.PayKind
	Source       *balance.TimeSource
	CancelState  balance.CancelState
	CancelReason *string
	ApproverID   *string
	ApprovalDate *time.Time
	CreatedBy    string
	Deleted      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ListFilter struct {
	UserID      string
	Status      *balance.Status
	Shift       *balance.Shift
	CancelState *balance.CancelState
	From        *time.Time
	To          *time.Time
	Keyword     string
	Limit       int
	Offset      int
}

type ListResult struct {
	Items []Leave
	Total int
}

type SubmitInput struct {
	UserID string
	Title  string
	Reason string
	Date   time.Time
	Shift  balance.Shift
}

type UpdateInput struct {
	Title     string
	Reason    string
	Date      time.Time
	Shift     balance.Shift
	UpdatedAt time.Time
}

// Actor identifies who performs a lifecycle operation. Admin is true when
// the caller holds the execute permission.
type Actor struct {
	ID    string
	Admin bool
}

// Result reports the outcome of a submit/confirm operation. Merged is true
// when the request was folded into an existing half-day counterpart;
// MergedInto carries the surviving record when a second record was absorbed,
// so callers can surface both sequence keys.
type Result struct {
	Leave      *Leave
	Merged     bool
	MergedInto *Leave
}
