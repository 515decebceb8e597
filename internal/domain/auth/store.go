package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/NguyenToan3107/hrm-backend/internal/platform/querier"
)

type Role struct {
	ID   string
	Name string
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) RoleByID(ctx context.Context, id string) (*Role, error) {
	query := `SELECT id, name FROM roles WHERE id = $1`

	var r Role
	if err := s.DB.QueryRow(ctx, query, id).Scan(&r.ID, &r.Name); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) RoleIDByName(ctx context.Context, name string) (string, error) {
	query := `SELECT id FROM roles WHERE name = $1`

	var id string
	if err := s.DB.QueryRow(ctx, query, name).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// HasPermission reports whether the role carries the named permission.
func (s *Store) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	query := `
		SELECT 1
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1 AND p.name = $2`

	var one int
	err := s.DB.QueryRow(ctx, query, roleID, permission).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
