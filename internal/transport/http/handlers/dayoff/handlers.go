package dayoffhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/auth"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/dayoff"
	"github.com/NguyenToan3107/hrm-backend/internal/transport/http/api"
	"github.com/NguyenToan3107/hrm-backend/internal/transport/http/middleware"
	"github.com/NguyenToan3107/hrm-backend/internal/transport/http/shared"
)

type Handler struct {
	Service *dayoff.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *dayoff.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/day-offs", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermDayOffView, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermDayOffEdit, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermDayOffEdit, h.Perms)).Put("/{dayOffID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermDayOffEdit, h.Perms)).Delete("/{dayOffID}", h.handleDelete)
	})
}

func parseKind(raw string) (dayoff.Kind, bool) {
	switch raw {
	case "off", "":
		return dayoff.KindOff, true
	case "makeup", "make-up":
		return dayoff.KindMakeup, true
	}
	return dayoff.KindNone, false
}

type dayOffResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Kind        string `json:"kind"`
}

func toResponse(d dayoff.DayOff) dayOffResponse {
	return dayOffResponse{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Date:        d.Date.Format("02/01/2006"),
		Kind:        d.Kind.String(),
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			year = v
		}
	}

	days, err := h.Service.ListByYear(r.Context(), year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "day_offs_failed", "failed to list day offs", middleware.GetRequestID(r.Context()))
		return
	}

	items := make([]dayOffResponse, 0, len(days))
	for _, d := range days {
		items = append(items, toResponse(d))
	}
	api.Success(w, map[string]any{"items": items, "year": year}, middleware.GetRequestID(r.Context()))
}

type dayOffPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Dates       []string `json:"dates"`
	Date        string   `json:"date"`
	Kind        string   `json:"kind"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload dayOffPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("title", payload.Title, "title is required")
	kind, ok := parseKind(payload.Kind)
	if !ok {
		v.Add("kind", "must be off or makeup")
	}
	if len(payload.Dates) == 0 {
		v.Add("dates", "at least one date is required")
	}
	var dates []time.Time
	for _, raw := range payload.Dates {
		if date, ok := v.Date("dates", raw); ok {
			dates = append(dates, date)
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	ids, err := h.Service.Create(r.Context(), payload.Title, payload.Description, dates, kind)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "day_off_create_failed", "failed to create day offs", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]any{"ids": ids}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload dayOffPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("title", payload.Title, "title is required")
	date, _ := v.Date("date", payload.Date)
	kind, ok := parseKind(payload.Kind)
	if !ok {
		v.Add("kind", "must be off or makeup")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	err := h.Service.Update(r.Context(), chi.URLParam(r, "dayOffID"), payload.Title, payload.Description, date, kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusNotFound, "not_found", "day off not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "day_off_update_failed", "failed to update day off", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"updated": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.Service.Delete(r.Context(), chi.URLParam(r, "dayOffID"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusNotFound, "not_found", "day off not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "day_off_delete_failed", "failed to delete day off", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"deleted": true}, middleware.GetRequestID(r.Context()))
}
