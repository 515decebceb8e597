package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/balance"
	"github.com/NguyenToan3107/hrm-backend/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const leaveColumns = `
    id, idkey, user_id, title, reason, leave_date, shift, status, pay,
    time_source, cancel_state, cancel_reason, approver_id, approval_date,
    created_by, deleted, created_at, updated_at`

func scanLeave(row interface{ Scan(...any) error }) (Leave, error) {
	var lv Leave
	err := row.Scan(
		&lv.ID, &lv.SeqKey, &lv.UserID, &lv.Title, &lv.Reason, &lv.Date,
		&lv.Shift, &lv.Status, &lv.Pay, &lv.Source, &lv.CancelState,
		&lv.CancelReason, &lv.ApproverID, &lv.ApprovalDate, &lv.CreatedBy,
		&lv.Deleted, &lv.CreatedAt, &lv.UpdatedAt,
	)
	return lv, err
}

func (s *Store) Get(ctx context.Context, id string) (Leave, error) {
	row := s.DB.QueryRow(ctx, "SELECT"+leaveColumns+" FROM leaves WHERE deleted = false AND id = $1", id)
	return scanLeave(row)
}

func (s *Store) List(ctx context.Context, f ListFilter) (ListResult, error) {
	where := "WHERE deleted = false"
	args := []any{}

	if f.UserID != "" {
		args = append(args, f.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Shift != nil {
		args = append(args, *f.Shift)
		where += fmt.Sprintf(" AND shift = $%d", len(args))
	}
	if f.CancelState != nil {
		args = append(args, *f.CancelState)
		where += fmt.Sprintf(" AND cancel_state = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where += fmt.Sprintf(" AND leave_date >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where += fmt.Sprintf(" AND leave_date <= $%d", len(args))
	}
	if f.Keyword != "" {
		args = append(args, "%"+f.Keyword+"%")
		n := len(args)
		where += fmt.Sprintf(
			" AND (title ILIKE $%d OR idkey ILIKE $%d OR user_id IN (SELECT id FROM users WHERE fullname ILIKE $%d))",
			n, n, n)
	}

	var res ListResult
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leaves "+where, args...).Scan(&res.Total); err != nil {
		return ListResult{}, err
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf("SELECT%s FROM leaves %s ORDER BY leave_date DESC, idkey DESC LIMIT $%d OFFSET $%d",
		leaveColumns, where, len(args)-1, len(args))
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	for rows.Next() {
		lv, err := scanLeave(rows)
		if err != nil {
			return ListResult{}, err
		}
		res.Items = append(res.Items, lv)
	}
	return res, rows.Err()
}

func (s *Store) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id string) (Leave, error) {
	row := tx.QueryRow(ctx, "SELECT"+leaveColumns+" FROM leaves WHERE deleted = false AND id = $1 FOR UPDATE", id)
	return scanLeave(row)
}

// GetTx re-reads a row after in-transaction mutations, including rows just
// soft-deleted by a merge, so callers can return the fresh snapshot.
func (s *Store) GetTx(ctx context.Context, tx pgx.Tx, id string) (Leave, error) {
	row := tx.QueryRow(ctx, "SELECT"+leaveColumns+" FROM leaves WHERE id = $1", id)
	return scanLeave(row)
}

// EffectiveOnDayTx locks and returns every non-rejected leave the employee
// holds on the given date, pending rows first. excludeID is nil when nothing
// should be excluded; a uuid cannot be matched against an empty string.
func (s *Store) EffectiveOnDayTx(ctx context.Context, tx pgx.Tx, userID string, date time.Time, excludeID *string) ([]Leave, error) {
	query := "SELECT" + leaveColumns + `
    FROM leaves
    WHERE deleted = false AND user_id = $1 AND leave_date = $2 AND status <> $3
      AND ($4::uuid IS NULL OR id <> $4)
    ORDER BY status, created_at
    FOR UPDATE`

	rows, err := tx.Query(ctx, query, userID, date, balance.StatusRejected, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Leave
	for rows.Next() {
		lv, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lv)
	}
	return out, rows.Err()
}

// NextSeqKeyTx assigns the next human-readable key, e.g. "L00042".
// Soft-deleted rows still count so keys are never reused. The advisory lock
// serializes concurrent submissions on the MAX scan; it releases with the
// transaction.
func (s *Store) NextSeqKeyTx(ctx context.Context, tx pgx.Tx) (string, error) {
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext('leaves.idkey'))"); err != nil {
		return "", err
	}
	var last int
	err := tx.QueryRow(ctx, `
    SELECT COALESCE(MAX(CAST(SUBSTRING(idkey FROM 2) AS INTEGER)), 0) FROM leaves
  `).Scan(&last)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("L%05d", last+1), nil
}

func (s *Store) CreateTx(ctx context.Context, tx pgx.Tx, lv Leave) (Leave, error) {
	query := `
    INSERT INTO leaves (idkey, user_id, title, reason, leave_date, shift, status, pay,
                        time_source, cancel_state, approver_id, approval_date, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    RETURNING id, created_at, updated_at`

	err := tx.QueryRow(ctx, query,
		lv.SeqKey, lv.UserID, lv.Title, lv.Reason, lv.Date, lv.Shift, lv.Status,
		lv.Pay, lv.Source, lv.CancelState, lv.ApproverID, lv.ApprovalDate, lv.CreatedBy,
	).Scan(&lv.ID, &lv.CreatedAt, &lv.UpdatedAt)
	if err != nil {
		return Leave{}, err
	}
	return lv, nil
}

// ApproveTx records an approval decision together with its pay outcome.
func (s *Store) ApproveTx(ctx context.Context, tx pgx.Tx, id string, pay balance.PayKind, source *balance.TimeSource, approverID string) error {
	_, err := tx.Exec(ctx, `
    UPDATE leaves
    SET status = $2, pay = $3, time_source = $4, approver_id = $5,
        approval_date = now(), updated_at = now()
    WHERE id = $1
  `, id, balance.StatusApproved, pay, source, approverID)
	return err
}

// MergeTx rewrites the surviving half-day record as the combined all-day
// leave. Any cancel-request on it is overridden by the admin action.
func (s *Store) MergeTx(ctx context.Context, tx pgx.Tx, id string, pay balance.PayKind, source *balance.TimeSource, approverID string) error {
	_, err := tx.Exec(ctx, `
    UPDATE leaves
    SET shift = $2, status = $3, pay = $4, time_source = $5, approver_id = $6,
        cancel_state = CASE WHEN cancel_state = $7 THEN $8 ELSE cancel_state END,
        approval_date = now(), updated_at = now()
    WHERE id = $1
  `, id, balance.ShiftAllDay, balance.StatusApproved, pay, source, approverID,
		balance.CancelRequesting, balance.CancelSkipped)
	return err
}

// RejectTx transitions a leave to rejected and clears its pay decision.
func (s *Store) RejectTx(ctx context.Context, tx pgx.Tx, id, approverID string, state balance.CancelState) error {
	_, err := tx.Exec(ctx, `
    UPDATE leaves
    SET status = $2, pay = NULL, approver_id = $3, cancel_state = $4, updated_at = now()
    WHERE id = $1
  `, id, balance.StatusRejected, approverID, state)
	return err
}

func (s *Store) UpdateDetailsTx(ctx context.Context, tx pgx.Tx, id string, in UpdateInput) error {
	_, err := tx.Exec(ctx, `
    UPDATE leaves
    SET title = $2, reason = $3, leave_date = $4, shift = $5, updated_at = now()
    WHERE id = $1
  `, id, in.Title, in.Reason, in.Date, in.Shift)
	return err
}

func (s *Store) SetCancelStateTx(ctx context.Context, tx pgx.Tx, id string, state balance.CancelState, reason *string) error {
	_, err := tx.Exec(ctx, `
    UPDATE leaves
    SET cancel_state = $2, cancel_reason = COALESCE($3, cancel_reason), updated_at = now()
    WHERE id = $1
  `, id, state, reason)
	return err
}

func (s *Store) SoftDeleteTx(ctx context.Context, tx pgx.Tx, id string) error {
	_, err := tx.Exec(ctx, `
    UPDATE leaves SET deleted = true, updated_at = now() WHERE id = $1
  `, id)
	return err
}
