package employee

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/balance"
	"github.com/NguyenToan3107/hrm-backend/internal/platform/querier"
)

var ErrEmailTaken = errors.New("email already in use")

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const employeeColumns = `
    id, idkey, fullname, email, leader_id, position_id, status_working,
    active, time_off_hours, last_year_time_off, role_id, started_at,
    created_at, updated_at`

func scanEmployee(row interface{ Scan(...any) error }) (Employee, error) {
	var e Employee
	err := row.Scan(
		&e.ID, &e.IDKey, &e.FullName, &e.Email, &e.LeaderID, &e.PositionID,
		&e.Employment, &e.Active, &e.Balance.CurrentYear, &e.Balance.LastYear,
		&e.RoleID, &e.StartedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func (s *Store) Get(ctx context.Context, id string) (Employee, error) {
	row := s.DB.QueryRow(ctx, "SELECT"+employeeColumns+" FROM users WHERE deleted = false AND id = $1", id)
	return scanEmployee(row)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (Employee, error) {
	row := s.DB.QueryRow(ctx, "SELECT"+employeeColumns+" FROM users WHERE deleted = false AND email = $1", email)
	return scanEmployee(row)
}

// GetForUpdate locks the employee row for the remainder of the enclosing
// transaction. The leave lifecycle uses this to serialize balance mutations
// against the concurrency-token check.
func (s *Store) GetForUpdate(ctx context.Context, id string) (Employee, error) {
	row := s.DB.QueryRow(ctx, "SELECT"+employeeColumns+" FROM users WHERE deleted = false AND id = $1 FOR UPDATE", id)
	return scanEmployee(row)
}

func (s *Store) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id string) (Employee, error) {
	row := tx.QueryRow(ctx, "SELECT"+employeeColumns+" FROM users WHERE deleted = false AND id = $1 FOR UPDATE", id)
	return scanEmployee(row)
}

func (s *Store) List(ctx context.Context, nameFilter string, limit, offset int) ([]Employee, int, error) {
	where := "WHERE deleted = false"
	args := []any{}
	if nameFilter != "" {
		args = append(args, "%"+nameFilter+"%")
		where += fmt.Sprintf(" AND (fullname ILIKE $%d OR idkey ILIKE $%d)", len(args), len(args))
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf("SELECT%s FROM users %s ORDER BY idkey LIMIT $%d OFFSET $%d",
		employeeColumns, where, len(args)-1, len(args))
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// UpdateBalance persists a balance snapshot produced by the decision engine.
func (s *Store) UpdateBalance(ctx context.Context, id string, b balance.Balance) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE users
    SET time_off_hours = $2, last_year_time_off = $3, updated_at = now()
    WHERE id = $1
  `, id, b.CurrentYear, b.LastYear)
	return err
}

func (s *Store) UpdateBalanceTx(ctx context.Context, tx pgx.Tx, id string, b balance.Balance) error {
	_, err := tx.Exec(ctx, `
    UPDATE users
    SET time_off_hours = $2, last_year_time_off = $3, updated_at = now()
    WHERE id = $1
  `, id, b.CurrentYear, b.LastYear)
	return err
}

// NextIDKeyTx reserves the next employee code. The advisory lock serializes
// concurrent creations so two transactions never compute the same code.
func (s *Store) NextIDKeyTx(ctx context.Context, tx pgx.Tx) (string, error) {
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext('users.idkey'))"); err != nil {
		return "", err
	}
	var maxSeq int
	err := tx.QueryRow(ctx, `
    SELECT COALESCE(MAX(CAST(SUBSTRING(idkey FROM 4) AS integer)), 0)
    FROM users WHERE idkey ~ '^EMP[0-9]+$'
  `).Scan(&maxSeq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("EMP%04d", maxSeq+1), nil
}

func (s *Store) CreateTx(ctx context.Context, tx pgx.Tx, idkey string, in CreateInput) (Employee, error) {
	row := tx.QueryRow(ctx, `
    INSERT INTO users (idkey, fullname, email, password_hash, leader_id, position_id,
                       status_working, active, time_off_hours, last_year_time_off, role_id, started_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    RETURNING`+employeeColumns,
		idkey, in.FullName, in.Email, in.PasswordHash, in.LeaderID, in.PositionID,
		in.Employment, in.Active, in.Balance.CurrentYear, in.Balance.LastYear, in.RoleID, in.StartedAt)
	e, err := scanEmployee(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Employee{}, ErrEmailTaken
		}
		return Employee{}, err
	}
	return e, nil
}

func (s *Store) Update(ctx context.Context, id string, in UpdateInput) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users
    SET fullname = $2, leader_id = $3, position_id = $4, status_working = $5,
        active = $6, time_off_hours = $7, last_year_time_off = $8, role_id = $9,
        started_at = $10, updated_at = now()
    WHERE deleted = false AND id = $1
  `, id, in.FullName, in.LeaderID, in.PositionID, in.Employment,
		in.Active, in.Balance.CurrentYear, in.Balance.LastYear, in.RoleID, in.StartedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) SetPassword(ctx context.Context, id, hash string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users SET password_hash = $2, updated_at = now()
    WHERE deleted = false AND id = $1
  `, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) SoftDelete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users SET deleted = true, active = false, updated_at = now()
    WHERE deleted = false AND id = $1
  `, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) PasswordHash(ctx context.Context, email string) (string, string, error) {
	var id, hash string
	err := s.DB.QueryRow(ctx, "SELECT id, password_hash FROM users WHERE deleted = false AND active = true AND email = $1", email).Scan(&id, &hash)
	return id, hash, err
}

func (s *Store) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, name FROM departments ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, name FROM roles ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (s *Store) ListPositions(ctx context.Context) ([]Position, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, name FROM positions ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
