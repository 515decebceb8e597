package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/auth"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/employee"
	"github.com/NguyenToan3107/hrm-backend/internal/transport/http/api"
	"github.com/NguyenToan3107/hrm-backend/internal/transport/http/middleware"
	"github.com/NguyenToan3107/hrm-backend/internal/transport/http/shared"
)

type Handler struct {
	Service *auth.Service
	Users   *employee.Store
}

func NewHandler(service *auth.Service, users *employee.Store) *Handler {
	return &Handler{Service: service, Users: users}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.With(middleware.RequireAuth).Get("/auth/me", h.handleMe)
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("password", payload.Password, "password is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	token, emp, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "login_failed", "login failed", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]any{
		"token": token,
		"user":  employeePayload(*emp),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	emp, err := h.Users.Get(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, employeePayload(emp), middleware.GetRequestID(r.Context()))
}

func employeePayload(emp employee.Employee) map[string]any {
	return map[string]any{
		"id":               emp.ID,
		"idkey":            emp.IDKey,
		"fullname":         emp.FullName,
		"email":            emp.Email,
		"employment":       emp.Employment.String(),
		"timeOffHours":     emp.Balance.CurrentYear,
		"lastYearTimeOff":  emp.Balance.LastYear,
		"totalTimeOffLeft": emp.Balance.Total(),
	}
}
