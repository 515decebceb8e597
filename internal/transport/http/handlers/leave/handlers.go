package leavehandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/auth"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/balance"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/dayoff"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/leave"
	"github.com/NguyenToan3107/hrm-backend/internal/transport/http/api"
	"github.com/NguyenToan3107/hrm-backend/internal/transport/http/middleware"
	"github.com/NguyenToan3107/hrm-backend/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *leave.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leaves", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveList, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermLeaveList, h.Perms)).Get("/{leaveID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermLeaveCreate, h.Perms)).Post("/", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermLeaveCreate, h.Perms)).Put("/{leaveID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermLeaveSupplement, h.Perms)).Post("/admin", h.handleAdminCreate)
		r.With(middleware.RequirePermission(auth.PermLeaveExecute, h.Perms)).Post("/{leaveID}/confirm", h.handleConfirm)
		r.With(middleware.RequirePermission(auth.PermLeaveCreate, h.Perms)).Post("/{leaveID}/cancel-request", h.handleCancelRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveExecute, h.Perms)).Post("/{leaveID}/skip-cancel", h.handleSkipCancel)
		r.With(middleware.RequirePermission(auth.PermLeaveExecute, h.Perms)).Post("/{leaveID}/cancel", h.handleCancel)
	})
}

type leaveResponse struct {
	ID           string  `json:"id"`
	SeqKey       string  `json:"idkey"`
	UserID       string  `json:"userId"`
	Title        string  `json:"title"`
	Reason       string  `json:"reason"`
	Date         string  `json:"date"`
	Shift        string  `json:"shift"`
	Status       string  `json:"status"`
	Pay          *string `json:"pay"`
	TimeSource   *string `json:"timeSource"`
	CancelState  string  `json:"cancelState"`
	CancelReason *string `json:"cancelReason,omitempty"`
	UpdatedAt    string  `json:"updatedAt"`
}

func toResponse(lv leave.Leave) leaveResponse {
	resp := leaveResponse{
		ID:           lv.ID,
		SeqKey:       lv.SeqKey,
		UserID:       lv.UserID,
		Title:        lv.Title,
		Reason:       lv.Reason,
		Date:         lv.Date.Format("02/01/2006"),
		Shift:        lv.Shift.String(),
		Status:       lv.Status.String(),
		CancelState:  lv.CancelState.String(),
		CancelReason: lv.CancelReason,
		UpdatedAt:    lv.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if lv.Pay != nil {
		s := lv.Pay.String()
		resp.Pay = &s
	}
	if lv.Source != nil {
		s := lv.Source.String()
		resp.TimeSource = &s
	}
	return resp
}

func resultPayload(res *leave.Result) any {
	out := map[string]any{"leave": toResponse(*res.Leave), "merged": res.Merged}
	if res.MergedInto != nil {
		out["mergedInto"] = res.MergedInto.SeqKey
	}
	return out
}

func parseShift(raw string) (balance.Shift, bool) {
	switch raw {
	case "all-day", "all_day":
		return balance.ShiftAllDay, true
	case "morning":
		return balance.ShiftMorning, true
	case "afternoon":
		return balance.ShiftAfternoon, true
	}
	return 0, false
}

func failErr(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		api.Fail(w, http.StatusNotFound, "not_found", "leave not found", reqID)
	case errors.Is(err, leave.ErrStaleWrite):
		api.Fail(w, http.StatusConflict, "stale_write", "leave was modified by someone else, reload and retry", reqID)
	case errors.Is(err, leave.ErrLeaveWaitingOnDay):
		api.Fail(w, http.StatusConflict, "leave_waiting_on_day", "a leave request is already waiting on that day", reqID)
	case errors.Is(err, balance.ErrShiftExistsOnDay):
		api.Fail(w, http.StatusConflict, "shift_exists_on_day", "an all-day leave already exists on that day", reqID)
	case errors.Is(err, balance.ErrMorningShiftTaken):
		api.Fail(w, http.StatusConflict, "morning_shift_taken", "the morning shift is already taken on that day", reqID)
	case errors.Is(err, balance.ErrAfternoonShiftTaken):
		api.Fail(w, http.StatusConflict, "afternoon_shift_taken", "the afternoon shift is already taken on that day", reqID)
	case errors.Is(err, dayoff.ErrDayOffViolation):
		api.Fail(w, http.StatusUnprocessableEntity, "day_off_violation", "the requested date is a declared day off", reqID)
	case errors.Is(err, dayoff.ErrWeekendViolation):
		api.Fail(w, http.StatusUnprocessableEntity, "weekend_violation", "the requested date falls on a weekend", reqID)
	case errors.Is(err, leave.ErrNotRequestOwner):
		api.Fail(w, http.StatusForbidden, "forbidden", "not the owner of this leave request", reqID)
	case errors.Is(err, leave.ErrNotPending):
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_state", "leave is not pending", reqID)
	case errors.Is(err, leave.ErrLeaveRejected):
		api.Fail(w, http.StatusUnprocessableEntity, "leave_rejected", "leave is already rejected", reqID)
	case errors.Is(err, leave.ErrCancelAlreadyRequested):
		api.Fail(w, http.StatusUnprocessableEntity, "cancel_already_requested", "cancellation was already requested", reqID)
	case errors.Is(err, leave.ErrCancelNotRequested):
		api.Fail(w, http.StatusUnprocessableEntity, "cancel_not_requested", "no cancellation request on this leave", reqID)
	case errors.Is(err, leave.ErrInvalidShift):
		api.Fail(w, http.StatusBadRequest, "validation_error", "shift must be all-day, morning or afternoon", reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "leave_failed", "leave operation failed", reqID)
	}
}

// actor resolves the caller into a lifecycle actor, marking admins by the
// execute permission rather than by role name.
func (h *Handler) actor(r *http.Request) (leave.Actor, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		return leave.Actor{}, false
	}
	admin, err := h.Perms.HasPermission(r.Context(), user.RoleID, auth.PermLeaveExecute)
	if err != nil {
		admin = false
	}
	return leave.Actor{ID: user.UserID, Admin: admin}, true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 20, 100)
	filter := leave.ListFilter{
		UserID:  r.URL.Query().Get("userId"),
		Keyword: r.URL.Query().Get("keyword"),
		Limit:   page.Limit,
		Offset:  page.Offset,
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, st := range []balance.Status{balance.StatusPending, balance.StatusApproved, balance.StatusRejected} {
			if st.String() == raw {
				status := st
				filter.Status = &status
			}
		}
	}
	if raw := r.URL.Query().Get("shift"); raw != "" {
		if shift, ok := parseShift(raw); ok {
			filter.Shift = &shift
		}
	}
	if raw := r.URL.Query().Get("cancelState"); raw != "" {
		for _, cs := range []balance.CancelState{balance.CancelNone, balance.CancelRequesting, balance.CancelSkipped, balance.CancelConfirmed} {
			if cs.String() == raw {
				state := cs
				filter.CancelState = &state
			}
		}
	}
	if from, err := shared.ParseDate(r.URL.Query().Get("from")); err == nil && !from.IsZero() {
		filter.From = &from
	}
	if to, err := shared.ParseDate(r.URL.Query().Get("to")); err == nil && !to.IsZero() {
		filter.To = &to
	}

	result, err := h.Service.List(r.Context(), actor, filter)
	if err != nil {
		failErr(w, r, err)
		return
	}

	items := make([]leaveResponse, 0, len(result.Items))
	for _, lv := range result.Items {
		items = append(items, toResponse(lv))
	}
	api.Success(w, map[string]any{"items": items, "total": result.Total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	lv, err := h.Service.Get(r.Context(), actor, chi.URLParam(r, "leaveID"))
	if err != nil {
		failErr(w, r, err)
		return
	}
	api.Success(w, toResponse(lv), middleware.GetRequestID(r.Context()))
}

type submitPayload struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
	Date   string `json:"date"`
	Shift  string `json:"shift"`
}

func (p submitPayload) validate(v *shared.Validator) (time.Time, balance.Shift) {
	v.Required("title", p.Title, "title is required")
	date, _ := v.Date("date", p.Date)
	shift, ok := parseShift(p.Shift)
	if !ok {
		v.Add("shift", "must be all-day, morning or afternoon")
	}
	return date, shift
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	date, shift := payload.validate(v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.Submit(r.Context(), actor, leave.SubmitInput{
		UserID: actor.ID,
		Title:  payload.Title,
		Reason: payload.Reason,
		Date:   date,
		Shift:  shift,
	})
	if err != nil {
		failErr(w, r, err)
		return
	}
	api.Created(w, resultPayload(result), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAdminCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	date, shift := payload.validate(v)
	v.Required("userId", payload.UserID, "userId is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.AdminCreate(r.Context(), actor, leave.SubmitInput{
		UserID: payload.UserID,
		Title:  payload.Title,
		Reason: payload.Reason,
		Date:   date,
		Shift:  shift,
	})
	if err != nil {
		failErr(w, r, err)
		return
	}
	api.Created(w, resultPayload(result), middleware.GetRequestID(r.Context()))
}

type updatePayload struct {
	Title     string `json:"title"`
	Reason    string `json:"reason"`
	Date      string `json:"date"`
	Shift     string `json:"shift"`
	UpdatedAt string `json:"updatedAt"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload updatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("title", payload.Title, "title is required")
	date, _ := v.Date("date", payload.Date)
	shift, ok := parseShift(payload.Shift)
	if !ok {
		v.Add("shift", "must be all-day, morning or afternoon")
	}
	token, err := shared.ParseTimestamp(payload.UpdatedAt)
	if err != nil {
		v.Add("updatedAt", "must be the timestamp from the last read")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	err = h.Service.Update(r.Context(), actor, chi.URLParam(r, "leaveID"), leave.UpdateInput{
		Title:     payload.Title,
		Reason:    payload.Reason,
		Date:      date,
		Shift:     shift,
		UpdatedAt: token,
	})
	if err != nil {
		failErr(w, r, err)
		return
	}
	api.Success(w, map[string]any{"updated": true}, middleware.GetRequestID(r.Context()))
}

type tokenPayload struct {
	Reason    string `json:"reason"`
	UpdatedAt string `json:"updatedAt"`
}

func (h *Handler) decodeToken(w http.ResponseWriter, r *http.Request) (tokenPayload, time.Time, bool) {
	var payload tokenPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", middleware.GetRequestID(r.Context()))
		return payload, time.Time{}, false
	}
	token, err := shared.ParseTimestamp(payload.UpdatedAt)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", "updatedAt must be the timestamp from the last read", middleware.GetRequestID(r.Context()))
		return payload, time.Time{}, false
	}
	return payload, token, true
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	_, token, ok := h.decodeToken(w, r)
	if !ok {
		return
	}

	result, err := h.Service.Confirm(r.Context(), actor, chi.URLParam(r, "leaveID"), token)
	if err != nil {
		failErr(w, r, err)
		return
	}
	api.Success(w, resultPayload(result), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	payload, token, ok := h.decodeToken(w, r)
	if !ok {
		return
	}

	if err := h.Service.CancelRequest(r.Context(), actor, chi.URLParam(r, "leaveID"), payload.Reason, token); err != nil {
		failErr(w, r, err)
		return
	}
	api.Success(w, map[string]any{"requested": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSkipCancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	_, token, ok := h.decodeToken(w, r)
	if !ok {
		return
	}

	if err := h.Service.SkipCancelRequest(r.Context(), actor, chi.URLParam(r, "leaveID"), token); err != nil {
		failErr(w, r, err)
		return
	}
	api.Success(w, map[string]any{"skipped": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	_, token, ok := h.decodeToken(w, r)
	if !ok {
		return
	}

	if err := h.Service.Cancel(r.Context(), actor, chi.URLParam(r, "leaveID"), token); err != nil {
		failErr(w, r, err)
		return
	}
	api.Success(w, map[string]any{"cancelled": true}, middleware.GetRequestID(r.Context()))
}
