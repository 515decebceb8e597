package leave

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/balance"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/employee"
)

type StoreAPI interface {
	Get(ctx context.Context, id string) (Leave, error)
	List(ctx context.Context, f ListFilter) (ListResult, error)
	GetForUpdateTx(ctx context.Context, tx pgx.Tx, id string) (Leave, error)
	GetTx(ctx context.Context, tx pgx.Tx, id string) (Leave, error)
	EffectiveOnDayTx(ctx context.Context, tx pgx.Tx, userID string, date time.Time, excludeID *string) ([]Leave, error)
	NextSeqKeyTx(ctx context.Context, tx pgx.Tx) (string, error)
	CreateTx(ctx context.Context, tx pgx.Tx, lv Leave) (Leave, error)
	ApproveTx(ctx context.Context, tx pgx.Tx, id string, pay balance.PayKind, source *balance.TimeSource, approverID string) error
	MergeTx(ctx context.Context, tx pgx.Tx, id string, pay balance.PayKind, source *balance.TimeSource, approverID string) error
	RejectTx(ctx context.Context, tx pgx.Tx, id, approverID string, state balance.CancelState) error
	UpdateDetailsTx(ctx context.Context, tx pgx.Tx, id string, in UpdateInput) error
	SetCancelStateTx(ctx context.Context, tx pgx.Tx, id string, state balance.CancelState, reason *string) error
	SoftDeleteTx(ctx context.Context, tx pgx.Tx, id string) error
}

// UserStore is the slice of the employee store the lifecycle needs: profile
// reads for notifications and locked balance access inside transactions.
type UserStore interface {
	Get(ctx context.Context, id string) (employee.Employee, error)
	GetForUpdateTx(ctx context.Context, tx pgx.Tx, id string) (employee.Employee, error)
	UpdateBalanceTx(ctx context.Context, tx pgx.Tx, id string, b balance.Balance) error
}

var (
	_ StoreAPI  = (*Store)(nil)
	_ UserStore = (*employee.Store)(nil)
)
