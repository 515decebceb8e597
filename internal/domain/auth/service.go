package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/employee"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	store  *Store
	users  *employee.Store
	secret []byte
	ttl    time.Duration
}

func NewService(store *Store, users *employee.Store, secret []byte, ttl time.Duration) *Service {
	return &Service{store: store, users: users, secret: secret, ttl: ttl}
}

// Login verifies an email/password pair and returns a signed token plus
// the authenticated employee.
func (s *Service) Login(ctx context.Context, email, password string) (string, *employee.Employee, error) {
	userID, hash, err := s.users.PasswordHash(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if err := CheckPassword(hash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	emp, err := s.users.Get(ctx, userID)
	if err != nil {
		return "", nil, err
	}

	role, err := s.store.RoleByID(ctx, emp.RoleID)
	if err != nil {
		return "", nil, err
	}

	token, err := IssueToken(s.secret, s.ttl, emp.ID, role.ID, role.Name)
	if err != nil {
		return "", nil, err
	}

	slog.Info("employee logged in", "employee", emp.IDKey, "role", role.Name)
	return token, &emp, nil
}

// HasPermission delegates to the permission store.
func (s *Service) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	return s.store.HasPermission(ctx, roleID, permission)
}
