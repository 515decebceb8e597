package employee

import (
	"time"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/balance"
)

type Employee struct {
	ID         string             `json:"id"`
	IDKey      string             `json:"idKey"`
	FullName   string             `json:"fullName"`
	Email      string             `json:"email"`
	LeaderID   *string            `json:"leaderId,omitempty"`
	PositionID *string            `json:"positionId,omitempty"`
	Employment balance.Employment `json:"employment"`
	Active     bool               `json:"active"`
	Balance    balance.Balance    `json:"balance"`
	RoleID     string             `json:"roleId"`
	StartedAt  *time.Time         `json:"startedAt,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// CreateInput carries a new employee record. PasswordHash must already be
// hashed; the store never sees a plaintext password.
type CreateInput struct {
	FullName     string
	Email        string
	PasswordHash string
	LeaderID     *string
	PositionID   *string
	Employment   balance.Employment
	RoleID       string
	Active       bool
	StartedAt    *time.Time
	Balance      balance.Balance
}

type UpdateInput struct {
	FullName   string
	LeaderID   *string
	PositionID *string
	Employment balance.Employment
	RoleID     string
	Active     bool
	StartedAt  *time.Time
	Balance    balance.Balance
}

type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Position struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BalanceChange is one employee's before/after row from a batch balance
// adjustment, used for the Slack run summaries.
type BalanceChange struct {
	IDKey      string
	FullName   string
	Email      string
	Employment balance.Employment
	Before     balance.Balance
	After      balance.Balance
}
