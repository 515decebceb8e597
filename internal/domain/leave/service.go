package leave

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/balance"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/dayoff"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/employee"
	"github.com/NguyenToan3107/hrm-backend/internal/platform/querier"
)

var (
	ErrInvalidShift           = errors.New("invalid shift")
	ErrLeaveWaitingOnDay      = errors.New("a leave request is already waiting on that day")
	ErrStaleWrite             = errors.New("leave was modified by someone else")
	ErrNotRequestOwner        = errors.New("not the owner of this leave request")
	ErrNotPending             = errors.New("leave is not pending")
	ErrLeaveRejected          = errors.New("leave is already rejected")
	ErrCancelAlreadyRequested = errors.New("cancellation already requested")
	ErrCancelNotRequested     = errors.New("no cancellation request on this leave")
)

const (
	EventSubmitted       = "submitted"
	EventApproved        = "approved"
	EventMerged          = "merged"
	EventCancelRequested = "cancel requested"
	EventCancelled       = "cancelled"
)

// Notifier receives lifecycle events after they are committed. Implementations
// must not block the request path on delivery.
type Notifier interface {
	LeaveEvent(ctx context.Context, event string, emp employee.Employee, lv Leave)
}

type Service struct {
	store  StoreAPI
	users  UserStore
	days   dayoff.Oracle
	pool   querier.Beginner
	notify Notifier
}

func NewService(store StoreAPI, users UserStore, days dayoff.Oracle, pool querier.Beginner, notify Notifier) *Service {
	return &Service{store: store, users: users, days: days, pool: pool, notify: notify}
}

// sameDayApproved scans the effective records on a day. Any pending row
// blocks the operation outright; the approved row, when present, is the
// merge candidate. Soft-deleted merge leftovers never reach here.
func sameDayApproved(rows []Leave) (*Leave, error) {
	var existing *Leave
	for i := range rows {
		if rows[i].Status == balance.StatusPending {
			return nil, ErrLeaveWaitingOnDay
		}
		existing = &rows[i]
	}
	return existing, nil
}

func (s *Service) Get(ctx context.Context, actor Actor, id string) (Leave, error) {
	lv, err := s.store.Get(ctx, id)
	if err != nil {
		return Leave{}, err
	}
	if !actor.Admin && lv.UserID != actor.ID {
		return Leave{}, ErrNotRequestOwner
	}
	return lv, nil
}

func (s *Service) List(ctx context.Context, actor Actor, f ListFilter) (ListResult, error) {
	if !actor.Admin {
		f.UserID = actor.ID
	}
	return s.store.List(ctx, f)
}

// Submit files a new request. Non-admin submissions stay pending with no
// balance effect; an admin submitting for themselves is approved on the spot
// and runs the full balance and merge logic.
func (s *Service) Submit(ctx context.Context, actor Actor, in SubmitInput) (*Result, error) {
	if !in.Shift.Valid() {
		return nil, ErrInvalidShift
	}
	if err := dayoff.CheckLeaveDate(ctx, s.days, in.Date); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	onDay, err := s.store.EffectiveOnDayTx(ctx, tx, in.UserID, in.Date, nil)
	if err != nil {
		return nil, err
	}
	existing, err := sameDayApproved(onDay)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := balance.ResolveMergeConflict(existing.Shift, in.Shift); err != nil {
			return nil, err
		}
	}

	seqKey, err := s.store.NextSeqKeyTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateTx(ctx, tx, Leave{
		SeqKey:    seqKey,
		UserID:    in.UserID,
		Title:     in.Title,
		Reason:    in.Reason,
		Date:      in.Date,
		Shift:     in.Shift,
		Status:    balance.StatusPending,
		CreatedBy: actor.ID,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{Leave: &created}
	event := EventSubmitted

	if actor.Admin && actor.ID == in.UserID {
		emp, err := s.users.GetForUpdateTx(ctx, tx, in.UserID)
		if err != nil {
			return nil, err
		}
		pay, source, merged, err := s.settleTx(ctx, tx, emp, existing, in.Shift, actor.ID)
		if err != nil {
			return nil, err
		}
		if err := s.store.ApproveTx(ctx, tx, created.ID, pay, source, actor.ID); err != nil {
			return nil, err
		}
		if merged {
			if err := s.store.SoftDeleteTx(ctx, tx, created.ID); err != nil {
				return nil, err
			}
			survivor, err := s.store.GetTx(ctx, tx, existing.ID)
			if err != nil {
				return nil, err
			}
			result.Merged = true
			result.MergedInto = &survivor
			event = EventMerged
		} else {
			event = EventApproved
		}
		updated, err := s.store.GetTx(ctx, tx, created.ID)
		if err != nil {
			return nil, err
		}
		created = updated
		result.Leave = &created
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	slog.Info("leave submitted",
		"leave", created.SeqKey, "user", in.UserID,
		"date", in.Date.Format("2006-01-02"), "shift", in.Shift.String(),
		"merged", result.Merged)
	s.emit(ctx, event, created.UserID, created)
	return result, nil
}

// AdminCreate files and approves a request on an employee's behalf. When an
// approved half-day counterpart exists, that record absorbs the new half
// directly and no second record is written.
func (s *Service) AdminCreate(ctx context.Context, actor Actor, in SubmitInput) (*Result, error) {
	if !in.Shift.Valid() {
		return nil, ErrInvalidShift
	}
	if err := dayoff.CheckLeaveDate(ctx, s.days, in.Date); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	onDay, err := s.store.EffectiveOnDayTx(ctx, tx, in.UserID, in.Date, nil)
	if err != nil {
		return nil, err
	}
	existing, err := sameDayApproved(onDay)
	if err != nil {
		return nil, err
	}

	emp, err := s.users.GetForUpdateTx(ctx, tx, in.UserID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		_, _, _, err := s.settleTx(ctx, tx, emp, existing, in.Shift, actor.ID)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		merged, err := s.store.Get(ctx, existing.ID)
		if err != nil {
			return nil, err
		}
		slog.Info("leave merged by admin", "leave", merged.SeqKey, "user", in.UserID, "admin", actor.ID)
		s.emit(ctx, EventMerged, merged.UserID, merged)
		return &Result{Leave: &merged, Merged: true}, nil
	}

	pay, source, _, err := s.settleTx(ctx, tx, emp, nil, in.Shift, actor.ID)
	if err != nil {
		return nil, err
	}
	seqKey, err := s.store.NextSeqKeyTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	created, err := s.store.CreateTx(ctx, tx, Leave{
		SeqKey:       seqKey,
		UserID:       in.UserID,
		Title:        in.Title,
		Reason:       in.Reason,
		Date:         in.Date,
		Shift:        in.Shift,
		Status:       balance.StatusApproved,
		Pay:          &pay,
		Source:       source,
		ApproverID:   &actor.ID,
		ApprovalDate: &now,
		CreatedBy:    actor.ID,
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	slog.Info("leave created by admin", "leave", created.SeqKey, "user", in.UserID, "admin", actor.ID)
	s.emit(ctx, EventApproved, created.UserID, created)
	return &Result{Leave: &created}, nil
}

// Confirm approves a pending request, running the same balance and merge
// logic as an admin-direct creation.
func (s *Service) Confirm(ctx context.Context, actor Actor, id string, token time.Time) (*Result, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lv, err := s.store.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !lv.UpdatedAt.Equal(token) {
		return nil, ErrStaleWrite
	}
	if lv.Status != balance.StatusPending {
		return nil, ErrNotPending
	}

	emp, err := s.users.GetForUpdateTx(ctx, tx, lv.UserID)
	if err != nil {
		return nil, err
	}

	onDay, err := s.store.EffectiveOnDayTx(ctx, tx, lv.UserID, lv.Date, &lv.ID)
	if err != nil {
		return nil, err
	}
	existing, err := sameDayApproved(onDay)
	if err != nil {
		return nil, err
	}

	pay, source, merged, err := s.settleTx(ctx, tx, emp, existing, lv.Shift, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.store.ApproveTx(ctx, tx, lv.ID, pay, source, actor.ID); err != nil {
		return nil, err
	}

	event := EventApproved
	if merged {
		if err := s.store.SoftDeleteTx(ctx, tx, lv.ID); err != nil {
			return nil, err
		}
		event = EventMerged
	}

	// hand back the post-mutation rows so the client holds a valid token
	updated, err := s.store.GetTx(ctx, tx, lv.ID)
	if err != nil {
		return nil, err
	}
	result := &Result{Leave: &updated, Merged: merged}
	if merged {
		survivor, err := s.store.GetTx(ctx, tx, existing.ID)
		if err != nil {
			return nil, err
		}
		result.MergedInto = &survivor
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	slog.Info("leave confirmed", "leave", updated.SeqKey, "user", updated.UserID, "admin", actor.ID, "merged", merged)
	s.emit(ctx, event, updated.UserID, updated)
	return result, nil
}

// Update edits a pending request in place. Nothing has been charged yet, so
// there is no balance effect, but date and shift conflicts are re-validated.
func (s *Service) Update(ctx context.Context, actor Actor, id string, in UpdateInput) error {
	if !in.Shift.Valid() {
		return ErrInvalidShift
	}
	if err := dayoff.CheckLeaveDate(ctx, s.days, in.Date); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lv, err := s.store.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if lv.UserID != actor.ID {
		return ErrNotRequestOwner
	}
	if lv.Status == balance.StatusRejected {
		return ErrLeaveRejected
	}
	if lv.Status != balance.StatusPending {
		return ErrNotPending
	}
	if !lv.UpdatedAt.Equal(in.UpdatedAt) {
		return ErrStaleWrite
	}

	onDay, err := s.store.EffectiveOnDayTx(ctx, tx, lv.UserID, in.Date, &lv.ID)
	if err != nil {
		return err
	}
	existing, err := sameDayApproved(onDay)
	if err != nil {
		return err
	}
	if existing != nil {
		if err := balance.ResolveMergeConflict(existing.Shift, in.Shift); err != nil {
			return err
		}
	}

	if err := s.store.UpdateDetailsTx(ctx, tx, lv.ID, in); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CancelRequest lets the owner ask for an approved or pending leave to be
// withdrawn. Only one request per leave is allowed.
func (s *Service) CancelRequest(ctx context.Context, actor Actor, id, reason string, token time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lv, err := s.store.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if lv.UserID != actor.ID {
		return ErrNotRequestOwner
	}
	if lv.Status == balance.StatusRejected {
		return ErrLeaveRejected
	}
	if lv.CancelState != balance.CancelNone {
		return ErrCancelAlreadyRequested
	}
	if !lv.UpdatedAt.Equal(token) {
		return ErrStaleWrite
	}

	if err := s.store.SetCancelStateTx(ctx, tx, lv.ID, balance.CancelRequesting, &reason); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	slog.Info("leave cancellation requested", "leave", lv.SeqKey, "user", lv.UserID)
	s.emit(ctx, EventCancelRequested, lv.UserID, lv)
	return nil
}

// SkipCancelRequest dismisses a pending cancellation request without
// changing the leave itself.
func (s *Service) SkipCancelRequest(ctx context.Context, actor Actor, id string, token time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lv, err := s.store.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if lv.CancelState != balance.CancelRequesting {
		return ErrCancelNotRequested
	}
	if !lv.UpdatedAt.Equal(token) {
		return ErrStaleWrite
	}

	if err := s.store.SetCancelStateTx(ctx, tx, lv.ID, balance.CancelSkipped, nil); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Cancel finally rejects a leave. Pending requests are rejected with no
// balance effect. An approved leave can only be cancelled while its owner
// has a cancellation request open; the recorded hours are refunded to the
// recorded source buckets first.
func (s *Service) Cancel(ctx context.Context, actor Actor, id string, token time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lv, err := s.store.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if !lv.UpdatedAt.Equal(token) {
		return ErrStaleWrite
	}

	switch lv.Status {
	case balance.StatusRejected:
		return ErrLeaveRejected

	case balance.StatusPending:
		state := lv.CancelState
		if state == balance.CancelRequesting {
			state = balance.CancelConfirmed
		}
		if err := s.store.RejectTx(ctx, tx, lv.ID, actor.ID, state); err != nil {
			return err
		}

	case balance.StatusApproved:
		if lv.CancelState != balance.CancelRequesting {
			return ErrCancelNotRequested
		}
		emp, err := s.users.GetForUpdateTx(ctx, tx, lv.UserID)
		if err != nil {
			return err
		}
		d := balance.DecideCancellation(lv.Shift, lv.Pay, lv.Source, emp.Balance)
		if err := s.users.UpdateBalanceTx(ctx, tx, emp.ID, d.Balance); err != nil {
			return err
		}
		if err := s.store.RejectTx(ctx, tx, lv.ID, actor.ID, balance.CancelConfirmed); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	slog.Info("leave cancelled", "leave", lv.SeqKey, "user", lv.UserID, "admin", actor.ID)
	s.emit(ctx, EventCancelled, lv.UserID, lv)
	return nil
}

// settleTx runs the balance decision for an approval inside tx. With an
// approved counterpart on the same day it folds the new half into it and
// updates that record; otherwise it prices the new leave on its own. The
// employee row must already be locked.
func (s *Service) settleTx(ctx context.Context, tx pgx.Tx, emp employee.Employee, existing *Leave, shift balance.Shift, approverID string) (balance.PayKind, *balance.TimeSource, bool, error) {
	if existing != nil {
		if err := balance.ResolveMergeConflict(existing.Shift, shift); err != nil {
			return 0, nil, false, err
		}
		d := balance.DecideMerge(balance.MergeInput{
			Employment:  emp.Employment,
			Balance:     emp.Balance,
			FirstPay:    derefPay(existing.Pay),
			FirstSource: derefSource(existing.Source),
		})
		if err := s.store.MergeTx(ctx, tx, existing.ID, d.Pay, srcPtr(d.Source), approverID); err != nil {
			return 0, nil, false, err
		}
		if err := s.users.UpdateBalanceTx(ctx, tx, emp.ID, d.Balance); err != nil {
			return 0, nil, false, err
		}
		return d.Pay, srcPtr(d.Source), true, nil
	}

	d := balance.DecideNewLeave(emp.Employment, emp.Balance, shift)
	if err := s.users.UpdateBalanceTx(ctx, tx, emp.ID, d.Balance); err != nil {
		return 0, nil, false, err
	}
	return d.Pay, srcPtr(d.Source), false, nil
}

func (s *Service) emit(ctx context.Context, event, userID string, lv Leave) {
	if s.notify == nil {
		return
	}
	emp, err := s.users.Get(ctx, userID)
	if err != nil {
		slog.Warn("notify skipped, employee lookup failed", "user", userID, "err", err)
		return
	}
	s.notify.LeaveEvent(ctx, event, emp, lv)
}

func srcPtr(s balance.TimeSource) *balance.TimeSource {
	return &s
}

func derefPay(p *balance.PayKind) balance.PayKind {
	if p == nil {
		return balance.PayUnpaid
	}
	return *p
}

func derefSource(s *balance.TimeSource) balance.TimeSource {
	if s == nil {
		return balance.SourceCurrentYear
	}
	return *s
}
