package employee

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/balance"
	"github.com/NguyenToan3107/hrm-backend/internal/platform/querier"
)

var ErrInvalidEmployee = errors.New("invalid employee input")

type Service struct {
	Store *Store
	Pool  querier.Beginner
}

func NewService(store *Store, pool querier.Beginner) *Service {
	return &Service{Store: store, Pool: pool}
}

func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, nameFilter string, limit, offset int) ([]Employee, int, error) {
	return s.Store.List(ctx, nameFilter, limit, offset)
}

// Create provisions a new employee account with its own sequential code.
func (s *Service) Create(ctx context.Context, in CreateInput) (Employee, error) {
	if strings.TrimSpace(in.FullName) == "" || strings.TrimSpace(in.Email) == "" ||
		in.PasswordHash == "" || in.RoleID == "" || !in.Employment.Valid() {
		return Employee{}, ErrInvalidEmployee
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return Employee{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	idkey, err := s.Store.NextIDKeyTx(ctx, tx)
	if err != nil {
		return Employee{}, err
	}
	emp, err := s.Store.CreateTx(ctx, tx, idkey, in)
	if err != nil {
		return Employee{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Employee{}, err
	}

	slog.Info("employee created", "idkey", emp.IDKey, "email", emp.Email)
	return emp, nil
}

// Update rewrites an employee's profile, employment status, role and balance
// buckets, returning the fresh record.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Employee, error) {
	if strings.TrimSpace(in.FullName) == "" || in.RoleID == "" || !in.Employment.Valid() {
		return Employee{}, ErrInvalidEmployee
	}
	if err := s.Store.Update(ctx, id, in); err != nil {
		return Employee{}, err
	}
	return s.Store.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Store.SoftDelete(ctx, id); err != nil {
		return err
	}
	slog.Info("employee deactivated", "id", id)
	return nil
}

// ResetPassword replaces an employee's credential with an already-hashed one.
func (s *Service) ResetPassword(ctx context.Context, id, hash string) error {
	return s.Store.SetPassword(ctx, id, hash)
}

func (s *Service) ListDepartments(ctx context.Context) ([]Department, error) {
	return s.Store.ListDepartments(ctx)
}

func (s *Service) ListPositions(ctx context.Context) ([]Position, error) {
	return s.Store.ListPositions(ctx)
}

func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.Store.ListRoles(ctx)
}

// GrantMonthlyHours adds the monthly accrual to every active probation or
// official employee's current-year bucket and reports the per-employee
// changes. Runs as a single transaction.
func (s *Service) GrantMonthlyHours(ctx context.Context, hours float64) ([]BalanceChange, error) {
	return s.batchAdjust(ctx, `
    SELECT id, idkey, fullname, email, status_working, time_off_hours, last_year_time_off
    FROM users
    WHERE deleted = false AND active = true AND status_working IN ($1, $2)
    ORDER BY idkey
    FOR UPDATE
  `, []any{balance.EmploymentProbation, balance.EmploymentOfficial},
		func(b balance.Balance) balance.Balance {
			b.CurrentYear += hours
			return b
		})
}

// ResetCarriedHours zeroes every employee's carried-over bucket. Scheduled
// mid-year, when unused carryover expires.
func (s *Service) ResetCarriedHours(ctx context.Context) ([]BalanceChange, error) {
	return s.batchAdjust(ctx, `
    SELECT id, idkey, fullname, email, status_working, time_off_hours, last_year_time_off
    FROM users
    WHERE deleted = false AND active = true
    ORDER BY idkey
    FOR UPDATE
  `, nil,
		func(b balance.Balance) balance.Balance {
			b.LastYear = 0
			return b
		})
}

// RollOverYearEnd moves every employee's remaining current-year hours into
// the carried-over bucket and resets the current-year bucket for the new
// cycle.
func (s *Service) RollOverYearEnd(ctx context.Context) ([]BalanceChange, error) {
	return s.batchAdjust(ctx, `
    SELECT id, idkey, fullname, email, status_working, time_off_hours, last_year_time_off
    FROM users
    WHERE deleted = false AND active = true
    ORDER BY idkey
    FOR UPDATE
  `, nil,
		func(b balance.Balance) balance.Balance {
			b.LastYear = b.CurrentYear
			b.CurrentYear = 0
			return b
		})
}

type batchRow struct {
	id         string
	change     BalanceChange
	newBalance balance.Balance
}

func (s *Service) batchAdjust(ctx context.Context, query string, args []any, apply func(balance.Balance) balance.Balance) ([]BalanceChange, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var batch []batchRow
	for rows.Next() {
		var id string
		var change BalanceChange
		var b balance.Balance
		if err := rows.Scan(&id, &change.IDKey, &change.FullName, &change.Email, &change.Employment, &b.CurrentYear, &b.LastYear); err != nil {
			rows.Close()
			return nil, err
		}
		change.Before = b
		updated := apply(b)
		change.After = updated
		batch = append(batch, batchRow{id: id, change: change, newBalance: updated})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	changes := make([]BalanceChange, 0, len(batch))
	for _, row := range batch {
		if _, err := tx.Exec(ctx, `
      UPDATE users
      SET time_off_hours = $2, last_year_time_off = $3, updated_at = now()
      WHERE id = $1
    `, row.id, row.newBalance.CurrentYear, row.newBalance.LastYear); err != nil {
			return nil, err
		}
		changes = append(changes, row.change)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	slog.Info("balance batch applied", "employees", len(changes))
	return changes, nil
}
