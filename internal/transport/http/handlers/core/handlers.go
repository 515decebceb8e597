package corehandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/auth"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/balance"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/employee"
	"github.com/NguyenToan3107/hrm-backend/internal/transport/http/api"
	"github.com/NguyenToan3107/hrm-backend/internal/transport/http/middleware"
	"github.com/NguyenToan3107/hrm-backend/internal/transport/http/shared"
)

type Handler struct {
	Service *employee.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *employee.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermUsersManage, h.Perms)).Get("/users", h.handleList)
	r.With(middleware.RequirePermission(auth.PermUsersManage, h.Perms)).Post("/users", h.handleCreate)
	r.With(middleware.RequirePermission(auth.PermUsersManage, h.Perms)).Get("/users/{userID}", h.handleGet)
	r.With(middleware.RequirePermission(auth.PermUsersManage, h.Perms)).Put("/users/{userID}", h.handleUpdate)
	r.With(middleware.RequirePermission(auth.PermUsersManage, h.Perms)).Delete("/users/{userID}", h.handleDelete)
	r.With(middleware.RequirePermission(auth.PermUsersManage, h.Perms)).Post("/users/{userID}/reset-password", h.handleResetPassword)
	r.With(middleware.RequirePermission(auth.PermUsersManage, h.Perms)).Get("/roles", h.handleRoles)
	r.With(middleware.RequireAuth).Get("/departments", h.handleDepartments)
	r.With(middleware.RequireAuth).Get("/positions", h.handlePositions)
}

type employeeResponse struct {
	ID              string  `json:"id"`
	IDKey           string  `json:"idkey"`
	FullName        string  `json:"fullname"`
	Email           string  `json:"email"`
	Employment      string  `json:"employment"`
	Active          bool    `json:"active"`
	RoleID          string  `json:"roleId"`
	LeaderID        *string `json:"leaderId,omitempty"`
	PositionID      *string `json:"positionId,omitempty"`
	StartedAt       string  `json:"startedAt,omitempty"`
	TimeOffHours    float64 `json:"timeOffHours"`
	LastYearTimeOff float64 `json:"lastYearTimeOff"`
	TotalTimeOff    float64 `json:"totalTimeOff"`
}

func toResponse(e employee.Employee) employeeResponse {
	resp := employeeResponse{
		ID:              e.ID,
		IDKey:           e.IDKey,
		FullName:        e.FullName,
		Email:           e.Email,
		Employment:      e.Employment.String(),
		Active:          e.Active,
		RoleID:          e.RoleID,
		LeaderID:        e.LeaderID,
		PositionID:      e.PositionID,
		TimeOffHours:    e.Balance.CurrentYear,
		LastYearTimeOff: e.Balance.LastYear,
		TotalTimeOff:    e.Balance.Total(),
	}
	if e.StartedAt != nil {
		resp.StartedAt = e.StartedAt.Format("2006-01-02")
	}
	return resp
}

type employeePayload struct {
	FullName        string  `json:"fullname"`
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	LeaderID        *string `json:"leaderId"`
	PositionID      *string `json:"positionId"`
	Employment      string  `json:"employment"`
	RoleID          string  `json:"roleId"`
	Active          *bool   `json:"active"`
	StartedAt       string  `json:"startedAt"`
	TimeOffHours    float64 `json:"timeOffHours"`
	LastYearTimeOff float64 `json:"lastYearTimeOff"`
}

func parseEmployment(raw string) (balance.Employment, bool) {
	switch raw {
	case "intern":
		return balance.EmploymentIntern, true
	case "probation":
		return balance.EmploymentProbation, true
	case "official":
		return balance.EmploymentOfficial, true
	}
	return 0, false
}

func (p employeePayload) validate(v *shared.Validator) (balance.Employment, *time.Time) {
	v.Required("fullname", p.FullName, "fullname is required")
	v.Required("roleId", p.RoleID, "roleId is required")
	employment, ok := parseEmployment(p.Employment)
	if !ok {
		v.Add("employment", "must be intern, probation or official")
	}
	var startedAt *time.Time
	if p.StartedAt != "" {
		parsed, err := shared.ParseDate(p.StartedAt)
		if err != nil {
			v.Add("startedAt", "must be a valid date")
		} else {
			startedAt = &parsed
		}
	}
	return employment, startedAt
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 20, 100)
	name := r.URL.Query().Get("name")

	employees, total, err := h.Service.List(r.Context(), name, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "users_failed", "failed to list users", middleware.GetRequestID(r.Context()))
		return
	}

	items := make([]employeeResponse, 0, len(employees))
	for _, e := range employees {
		items = append(items, toResponse(e))
	}
	api.Success(w, map[string]any{"items": items, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "users_failed", "failed to load user", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, toResponse(emp), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	employment, startedAt := payload.validate(v)
	v.Required("email", payload.Email, "email is required")
	v.Required("password", payload.Password, "password is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "users_failed", "failed to create user", middleware.GetRequestID(r.Context()))
		return
	}

	active := true
	if payload.Active != nil {
		active = *payload.Active
	}

	emp, err := h.Service.Create(r.Context(), employee.CreateInput{
		FullName:     payload.FullName,
		Email:        payload.Email,
		PasswordHash: hash,
		LeaderID:     payload.LeaderID,
		PositionID:   payload.PositionID,
		Employment:   employment,
		RoleID:       payload.RoleID,
		Active:       active,
		StartedAt:    startedAt,
		Balance:      balance.Balance{CurrentYear: payload.TimeOffHours, LastYear: payload.LastYearTimeOff},
	})
	if err != nil {
		if errors.Is(err, employee.ErrEmailTaken) {
			api.Fail(w, http.StatusConflict, "email_taken", "email already in use", middleware.GetRequestID(r.Context()))
			return
		}
		if errors.Is(err, employee.ErrInvalidEmployee) {
			api.Fail(w, http.StatusUnprocessableEntity, "invalid_employee", err.Error(), middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "users_failed", "failed to create user", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, toResponse(emp), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	employment, startedAt := payload.validate(v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	active := true
	if payload.Active != nil {
		active = *payload.Active
	}

	emp, err := h.Service.Update(r.Context(), chi.URLParam(r, "userID"), employee.UpdateInput{
		FullName:   payload.FullName,
		LeaderID:   payload.LeaderID,
		PositionID: payload.PositionID,
		Employment: employment,
		RoleID:     payload.RoleID,
		Active:     active,
		StartedAt:  startedAt,
		Balance:    balance.Balance{CurrentYear: payload.TimeOffHours, LastYear: payload.LastYearTimeOff},
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
			return
		}
		if errors.Is(err, employee.ErrInvalidEmployee) {
			api.Fail(w, http.StatusUnprocessableEntity, "invalid_employee", err.Error(), middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "users_failed", "failed to update user", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, toResponse(emp), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "userID")); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "users_failed", "failed to delete user", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"deleted": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("password", payload.Password, "password is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "users_failed", "failed to reset password", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.ResetPassword(r.Context(), chi.URLParam(r, "userID"), hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "users_failed", "failed to reset password", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"reset": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.ListDepartments(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "departments_failed", "failed to list departments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, departments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Service.ListRoles(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "roles_failed", "failed to list roles", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, roles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.Service.ListPositions(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "positions_failed", "failed to list positions", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, positions, middleware.GetRequestID(r.Context()))
}
