package dayoff

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/NguyenToan3107/hrm-backend/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) ListByYear(ctx context.Context, year int) ([]DayOff, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, title, COALESCE(description, ''), day_off, kind, created_at, updated_at
    FROM day_offs
    WHERE deleted = false AND EXTRACT(YEAR FROM day_off) = $1
    ORDER BY day_off
  `, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayOff
	for rows.Next() {
		var d DayOff
		if err := rows.Scan(&d.ID, &d.Title, &d.Description, &d.Date, &d.Kind, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (DayOff, error) {
	var d DayOff
	err := s.DB.QueryRow(ctx, `
    SELECT id, title, COALESCE(description, ''), day_off, kind, created_at, updated_at
    FROM day_offs
    WHERE deleted = false AND id = $1
  `, id).Scan(&d.ID, &d.Title, &d.Description, &d.Date, &d.Kind, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (s *Store) Create(ctx context.Context, title, description string, date time.Time, kind Kind) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO day_offs (title, description, day_off, kind)
    VALUES ($1, $2, $3, $4)
    RETURNING id
  `, title, description, date, kind).Scan(&id)
	return id, err
}

func (s *Store) Update(ctx context.Context, id, title, description string, date time.Time, kind Kind) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE day_offs
    SET title = $2, description = $3, day_off = $4, kind = $5, updated_at = now()
    WHERE deleted = false AND id = $1
  `, id, title, description, date, kind)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE day_offs SET deleted = true, updated_at = now() WHERE deleted = false AND id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Declared reports whether the given date carries a calendar declaration.
func (s *Store) Declared(ctx context.Context, date time.Time) (Kind, error) {
	var kind Kind
	err := s.DB.QueryRow(ctx, "SELECT kind FROM day_offs WHERE deleted = false AND day_off = $1", date).Scan(&kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return KindNone, nil
	}
	if err != nil {
		return KindNone, err
	}
	return kind, nil
}
