package leave

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/balance"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/dayoff"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/employee"
)

type fakeTx struct {
	pgx.Tx
}

func (fakeTx) Commit(ctx context.Context) error   { return nil }
func (fakeTx) Rollback(ctx context.Context) error { return nil }

type fakePool struct{}

func (p *fakePool) Begin(ctx context.Context) (pgx.Tx, error) {
	return fakeTx{}, nil
}

func (p *fakePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (p *fakePool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (p *fakePool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

type fakeLeaveStore struct {
	rows map[string]*Leave
	seq  int
}

func newFakeLeaveStore(rows ...Leave) *fakeLeaveStore {
	s := &fakeLeaveStore{rows: map[string]*Leave{}}
	for _, lv := range rows {
		c := lv
		s.rows[c.ID] = &c
	}
	return s
}

func (s *fakeLeaveStore) touch(lv *Leave) {
	lv.UpdatedAt = lv.UpdatedAt.Add(time.Second)
}

func (s *fakeLeaveStore) Get(ctx context.Context, id string) (Leave, error) {
	lv, ok := s.rows[id]
	if !ok || lv.Deleted {
		return Leave{}, pgx.ErrNoRows
	}
	return *lv, nil
}

func (s *fakeLeaveStore) List(ctx context.Context, f ListFilter) (ListResult, error) {
	return ListResult{}, nil
}

func (s *fakeLeaveStore) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id string) (Leave, error) {
	return s.Get(ctx, id)
}

func (s *fakeLeaveStore) GetTx(ctx context.Context, tx pgx.Tx, id string) (Leave, error) {
	lv, ok := s.rows[id]
	if !ok {
		return Leave{}, pgx.ErrNoRows
	}
	return *lv, nil
}

func (s *fakeLeaveStore) EffectiveOnDayTx(ctx context.Context, tx pgx.Tx, userID string, date time.Time, excludeID *string) ([]Leave, error) {
	var out []Leave
	for _, lv := range s.rows {
		if lv.Deleted || lv.UserID != userID || !lv.Date.Equal(date) || lv.Status == balance.StatusRejected {
			continue
		}
		if excludeID != nil && lv.ID == *excludeID {
			continue
		}
		out = append(out, *lv)
	}
	return out, nil
}

func (s *fakeLeaveStore) NextSeqKeyTx(ctx context.Context, tx pgx.Tx) (string, error) {
	s.seq++
	return fmt.Sprintf("L%05d", s.seq), nil
}

func (s *fakeLeaveStore) CreateTx(ctx context.Context, tx pgx.Tx, lv Leave) (Leave, error) {
	lv.ID = fmt.Sprintf("leave-%d", len(s.rows)+1)
	lv.CreatedAt = time.Now()
	lv.UpdatedAt = lv.CreatedAt
	c := lv
	s.rows[c.ID] = &c
	return lv, nil
}

func (s *fakeLeaveStore) ApproveTx(ctx context.Context, tx pgx.Tx, id string, pay balance.PayKind, source *balance.TimeSource, approverID string) error {
	lv := s.rows[id]
	now := time.Now()
	lv.Status = balance.StatusApproved
	lv.Pay = &pay
	lv.Source = source
	lv.ApproverID = &approverID
	lv.ApprovalDate = &now
	s.touch(lv)
	return nil
}

func (s *fakeLeaveStore) MergeTx(ctx context.Context, tx pgx.Tx, id string, pay balance.PayKind, source *balance.TimeSource, approverID string) error {
	lv := s.rows[id]
	now := time.Now()
	lv.Shift = balance.ShiftAllDay
	lv.Status = balance.StatusApproved
	lv.Pay = &pay
	lv.Source = source
	lv.ApproverID = &approverID
	lv.ApprovalDate = &now
	if lv.CancelState == balance.CancelRequesting {
		lv.CancelState = balance.CancelSkipped
	}
	s.touch(lv)
	return nil
}

func (s *fakeLeaveStore) RejectTx(ctx context.Context, tx pgx.Tx, id, approverID string, state balance.CancelState) error {
	lv := s.rows[id]
	lv.Status = balance.StatusRejected
	lv.Pay = nil
	lv.ApproverID = &approverID
	lv.CancelState = state
	s.touch(lv)
	return nil
}

func (s *fakeLeaveStore) UpdateDetailsTx(ctx context.Context, tx pgx.Tx, id string, in UpdateInput) error {
	lv := s.rows[id]
	lv.Title = in.Title
	lv.Reason = in.Reason
	lv.Date = in.Date
	lv.Shift = in.Shift
	s.touch(lv)
	return nil
}

func (s *fakeLeaveStore) SetCancelStateTx(ctx context.Context, tx pgx.Tx, id string, state balance.CancelState, reason *string) error {
	lv := s.rows[id]
	lv.CancelState = state
	if reason != nil {
		lv.CancelReason = reason
	}
	s.touch(lv)
	return nil
}

func (s *fakeLeaveStore) SoftDeleteTx(ctx context.Context, tx pgx.Tx, id string) error {
	lv := s.rows[id]
	lv.Deleted = true
	s.touch(lv)
	return nil
}

type fakeUserStore struct {
	emps map[string]*employee.Employee
}

func (s *fakeUserStore) Get(ctx context.Context, id string) (employee.Employee, error) {
	emp, ok := s.emps[id]
	if !ok {
		return employee.Employee{}, pgx.ErrNoRows
	}
	return *emp, nil
}

func (s *fakeUserStore) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id string) (employee.Employee, error) {
	return s.Get(ctx, id)
}

func (s *fakeUserStore) UpdateBalanceTx(ctx context.Context, tx pgx.Tx, id string, b balance.Balance) error {
	s.emps[id].Balance = b
	return nil
}

type openCalendar struct{}

func (openCalendar) Declared(ctx context.Context, date time.Time) (dayoff.Kind, error) {
	return dayoff.KindNone, nil
}

func newTestService(store *fakeLeaveStore, users *fakeUserStore) *Service {
	return NewService(store, users, openCalendar{}, &fakePool{}, nil)
}

var (
	wednesday = time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)
	tokenTime = time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)
)

func official(id string) *employee.Employee {
	return &employee.Employee{ID: id, FullName: "Test Employee", Email: id + "@example.com", Employment: balance.EmploymentOfficial}
}

func payP(p balance.PayKind) *balance.PayKind       { return &p }
func srcP(s balance.TimeSource) *balance.TimeSource { return &s }

func TestSubmitEmployeeStaysPending(t *testing.T) {
	store := newFakeLeaveStore()
	users := &fakeUserStore{emps: map[string]*employee.Employee{"u1": official("u1")}}
	users.emps["u1"].Balance = balance.Balance{CurrentYear: 8}
	svc := newTestService(store, users)

	res, err := svc.Submit(context.Background(), Actor{ID: "u1"}, SubmitInput{
		UserID: "u1", Title: "personal", Date: wednesday, Shift: balance.ShiftMorning,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Leave.Status != balance.StatusPending {
		t.Fatalf("expected pending, got %v", res.Leave.Status)
	}
	if got := users.emps["u1"].Balance.CurrentYear; got != 8 {
		t.Fatalf("pending submission must not charge the balance, got %g", got)
	}
}

func TestSubmitBlockedByPendingBehindApproved(t *testing.T) {
	// an approved morning and an already-waiting afternoon coexist; a second
	// afternoon submission must see the waiting one, not just the approved row
	store := newFakeLeaveStore(
		Leave{ID: "a1", UserID: "u1", Date: wednesday, Shift: balance.ShiftMorning,
			Status: balance.StatusApproved, Pay: payP(balance.PayPaid), Source: srcP(balance.SourceCurrentYear), UpdatedAt: tokenTime},
		Leave{ID: "p1", UserID: "u1", Date: wednesday, Shift: balance.ShiftAfternoon,
			Status: balance.StatusPending, UpdatedAt: tokenTime},
	)
	users := &fakeUserStore{emps: map[string]*employee.Employee{"u1": official("u1")}}
	svc := newTestService(store, users)

	_, err := svc.Submit(context.Background(), Actor{ID: "u1"}, SubmitInput{
		UserID: "u1", Title: "dup", Date: wednesday, Shift: balance.ShiftAfternoon,
	})
	if err != ErrLeaveWaitingOnDay {
		t.Fatalf("expected ErrLeaveWaitingOnDay, got %v", err)
	}
	if len(store.rows) != 2 {
		t.Fatalf("no new row should be created, have %d", len(store.rows))
	}
}

func TestSubmitAdminSelfApprovesAndCharges(t *testing.T) {
	store := newFakeLeaveStore()
	users := &fakeUserStore{emps: map[string]*employee.Employee{"adm": official("adm")}}
	users.emps["adm"].Balance = balance.Balance{CurrentYear: 8}
	svc := newTestService(store, users)

	res, err := svc.Submit(context.Background(), Actor{ID: "adm", Admin: true}, SubmitInput{
		UserID: "adm", Title: "errand", Date: wednesday, Shift: balance.ShiftMorning,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Leave.Status != balance.StatusApproved {
		t.Fatalf("expected approved, got %v", res.Leave.Status)
	}
	if res.Leave.Pay == nil || *res.Leave.Pay != balance.PayPaid {
		t.Fatalf("expected paid, got %v", res.Leave.Pay)
	}
	if got := users.emps["adm"].Balance.CurrentYear; got != 4 {
		t.Fatalf("expected 4h left, got %g", got)
	}
}

func TestSubmitAdminSelfMergesIntoApprovedHalf(t *testing.T) {
	store := newFakeLeaveStore(
		Leave{ID: "first", SeqKey: "L00001", UserID: "adm", Date: wednesday, Shift: balance.ShiftMorning,
			Status: balance.StatusApproved, Pay: payP(balance.PayPaid), Source: srcP(balance.SourceCurrentYear), UpdatedAt: tokenTime},
	)
	users := &fakeUserStore{emps: map[string]*employee.Employee{"adm": official("adm")}}
	users.emps["adm"].Balance = balance.Balance{CurrentYear: 4}
	svc := newTestService(store, users)

	res, err := svc.Submit(context.Background(), Actor{ID: "adm", Admin: true}, SubmitInput{
		UserID: "adm", Title: "rest", Date: wednesday, Shift: balance.ShiftAfternoon,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Merged || res.MergedInto == nil {
		t.Fatal("expected a merge result")
	}
	if res.MergedInto.Shift != balance.ShiftAllDay || res.MergedInto.Status != balance.StatusApproved {
		t.Fatalf("survivor not folded to an approved all-day: %+v", res.MergedInto)
	}
	if !res.Leave.Deleted {
		t.Fatal("absorbed record should be soft-deleted")
	}
	if got := users.emps["adm"].Balance.Total(); got != 0 {
		t.Fatalf("expected drained balance, got %g", got)
	}
}

func TestConfirmReturnsFreshSnapshot(t *testing.T) {
	store := newFakeLeaveStore(
		Leave{ID: "p1", SeqKey: "L00001", UserID: "u1", Date: wednesday, Shift: balance.ShiftMorning,
			Status: balance.StatusPending, UpdatedAt: tokenTime},
	)
	users := &fakeUserStore{emps: map[string]*employee.Employee{"u1": official("u1")}}
	users.emps["u1"].Balance = balance.Balance{CurrentYear: 8}
	svc := newTestService(store, users)

	res, err := svc.Confirm(context.Background(), Actor{ID: "adm", Admin: true}, "p1", tokenTime)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if res.Leave.Status != balance.StatusApproved {
		t.Fatalf("returned snapshot still %v", res.Leave.Status)
	}
	if !res.Leave.UpdatedAt.After(tokenTime) {
		t.Fatal("returned snapshot carries the stale concurrency token")
	}
}

func TestConfirmStaleTokenAborts(t *testing.T) {
	store := newFakeLeaveStore(
		Leave{ID: "p1", UserID: "u1", Date: wednesday, Shift: balance.ShiftMorning,
			Status: balance.StatusPending, UpdatedAt: tokenTime},
	)
	users := &fakeUserStore{emps: map[string]*employee.Employee{"u1": official("u1")}}
	svc := newTestService(store, users)

	_, err := svc.Confirm(context.Background(), Actor{ID: "adm", Admin: true}, "p1", tokenTime.Add(-time.Minute))
	if err != ErrStaleWrite {
		t.Fatalf("expected ErrStaleWrite, got %v", err)
	}
	if store.rows["p1"].Status != balance.StatusPending {
		t.Fatal("stale confirm must leave the row untouched")
	}
}

func TestConfirmMergesPendingIntoApprovedHalf(t *testing.T) {
	store := newFakeLeaveStore(
		Leave{ID: "first", SeqKey: "L00001", UserID: "u1", Date: wednesday, Shift: balance.ShiftMorning,
			Status: balance.StatusApproved, Pay: payP(balance.PayPaid), Source: srcP(balance.SourceCurrentYear), UpdatedAt: tokenTime},
		Leave{ID: "second", SeqKey: "L00002", UserID: "u1", Date: wednesday, Shift: balance.ShiftAfternoon,
			Status: balance.StatusPending, UpdatedAt: tokenTime},
	)
	users := &fakeUserStore{emps: map[string]*employee.Employee{"u1": official("u1")}}
	users.emps["u1"].Balance = balance.Balance{CurrentYear: 4}
	svc := newTestService(store, users)

	res, err := svc.Confirm(context.Background(), Actor{ID: "adm", Admin: true}, "second", tokenTime)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !res.Merged || res.MergedInto == nil || res.MergedInto.ID != "first" {
		t.Fatalf("expected merge into the approved half, got %+v", res)
	}
	if res.MergedInto.Shift != balance.ShiftAllDay {
		t.Fatal("survivor must become all-day")
	}
	if !store.rows["second"].Deleted {
		t.Fatal("confirmed half must be soft-deleted after the merge")
	}
	if got := users.emps["u1"].Balance.Total(); got != 0 {
		t.Fatalf("expected the second half charged, got %g", got)
	}
}

func TestCancelPendingWithoutRequest(t *testing.T) {
	store := newFakeLeaveStore(
		Leave{ID: "p1", UserID: "u1", Date: wednesday, Shift: balance.ShiftMorning,
			Status: balance.StatusPending, UpdatedAt: tokenTime},
	)
	users := &fakeUserStore{emps: map[string]*employee.Employee{"u1": official("u1")}}
	users.emps["u1"].Balance = balance.Balance{CurrentYear: 8}
	svc := newTestService(store, users)

	if err := svc.Cancel(context.Background(), Actor{ID: "adm", Admin: true}, "p1", tokenTime); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	lv := store.rows["p1"]
	if lv.Status != balance.StatusRejected {
		t.Fatalf("expected rejected, got %v", lv.Status)
	}
	if lv.CancelState != balance.CancelNone {
		t.Fatalf("cancel state must stay untouched, got %v", lv.CancelState)
	}
	if got := users.emps["u1"].Balance.CurrentYear; got != 8 {
		t.Fatalf("pending cancel must not move the balance, got %g", got)
	}
}

func TestCancelPendingWithOpenRequestConfirms(t *testing.T) {
	store := newFakeLeaveStore(
		Leave{ID: "p1", UserID: "u1", Date: wednesday, Shift: balance.ShiftMorning,
			Status: balance.StatusPending, CancelState: balance.CancelRequesting, UpdatedAt: tokenTime},
	)
	users := &fakeUserStore{emps: map[string]*employee.Employee{"u1": official("u1")}}
	svc := newTestService(store, users)

	if err := svc.Cancel(context.Background(), Actor{ID: "adm", Admin: true}, "p1", tokenTime); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if store.rows["p1"].CancelState != balance.CancelConfirmed {
		t.Fatalf("open cancel request must be confirmed, got %v", store.rows["p1"].CancelState)
	}
}

func TestCancelApprovedRequiresOpenRequest(t *testing.T) {
	store := newFakeLeaveStore(
		Leave{ID: "a1", UserID: "u1", Date: wednesday, Shift: balance.ShiftAllDay,
			Status: balance.StatusApproved, Pay: payP(balance.PayPaid), Source: srcP(balance.SourceCurrentYear), UpdatedAt: tokenTime},
	)
	users := &fakeUserStore{emps: map[string]*employee.Employee{"u1": official("u1")}}
	svc := newTestService(store, users)

	err := svc.Cancel(context.Background(), Actor{ID: "adm", Admin: true}, "a1", tokenTime)
	if err != ErrCancelNotRequested {
		t.Fatalf("expected ErrCancelNotRequested, got %v", err)
	}
}

func TestCancelApprovedRefundsRecordedSource(t *testing.T) {
	store := newFakeLeaveStore(
		Leave{ID: "a1", UserID: "u1", Date: wednesday, Shift: balance.ShiftAllDay,
			Status: balance.StatusApproved, Pay: payP(balance.PayPaid), Source: srcP(balance.SourceCurrentYear),
			CancelState: balance.CancelRequesting, UpdatedAt: tokenTime},
	)
	users := &fakeUserStore{emps: map[string]*employee.Employee{"u1": official("u1")}}
	svc := newTestService(store, users)

	if err := svc.Cancel(context.Background(), Actor{ID: "adm", Admin: true}, "a1", tokenTime); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	lv := store.rows["a1"]
	if lv.Status != balance.StatusRejected || lv.CancelState != balance.CancelConfirmed {
		t.Fatalf("expected rejected+confirmed, got %v/%v", lv.Status, lv.CancelState)
	}
	if lv.Pay != nil {
		t.Fatal("pay must be cleared on cancellation")
	}
	if got := users.emps["u1"].Balance.CurrentYear; got != 8 {
		t.Fatalf("expected the full day refunded to current year, got %g", got)
	}
}

func TestCancelRejectedLeaveFails(t *testing.T) {
	store := newFakeLeaveStore(
		Leave{ID: "r1", UserID: "u1", Date: wednesday, Shift: balance.ShiftMorning,
			Status: balance.StatusRejected, UpdatedAt: tokenTime},
	)
	users := &fakeUserStore{emps: map[string]*employee.Employee{"u1": official("u1")}}
	svc := newTestService(store, users)

	err := svc.Cancel(context.Background(), Actor{ID: "adm", Admin: true}, "r1", tokenTime)
	if err != ErrLeaveRejected {
		t.Fatalf("expected ErrLeaveRejected, got %v", err)
	}
}

func TestCancelStaleTokenAborts(t *testing.T) {
	store := newFakeLeaveStore(
		Leave{ID: "a1", UserID: "u1", Date: wednesday, Shift: balance.ShiftAllDay,
			Status: balance.StatusApproved, Pay: payP(balance.PayPaid), Source: srcP(balance.SourceCurrentYear),
			CancelState: balance.CancelRequesting, UpdatedAt: tokenTime},
	)
	users := &fakeUserStore{emps: map[string]*employee.Employee{"u1": official("u1")}}
	svc := newTestService(store, users)

	err := svc.Cancel(context.Background(), Actor{ID: "adm", Admin: true}, "a1", tokenTime.Add(time.Minute))
	if err != ErrStaleWrite {
		t.Fatalf("expected ErrStaleWrite, got %v", err)
	}
	if store.rows["a1"].Status != balance.StatusApproved {
		t.Fatal("stale cancel must leave the row untouched")
	}
}
