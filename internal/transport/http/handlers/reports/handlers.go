package reportshandler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/auth"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/reports"
	"github.com/NguyenToan3107/hrm-backend/internal/platform/jobs"
	"github.com/NguyenToan3107/hrm-backend/internal/transport/http/api"
	"github.com/NguyenToan3107/hrm-backend/internal/transport/http/middleware"
)

type Handler struct {
	Service *reports.Service
	Jobs    *jobs.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *reports.Service, jobsSvc *jobs.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Jobs: jobsSvc, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReportsView, h.Perms)).Get("/monthly", h.handleMonthly)
		r.With(middleware.RequirePermission(auth.PermReportsView, h.Perms)).Get("/monthly/export", h.handleMonthlyExport)
	})
	r.Route("/admin/jobs", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermUsersManage, h.Perms)).Post("/{jobType}/run", h.handleRunJob)
	})
}

func (h *Handler) period(r *http.Request) (int, time.Month) {
	now := time.Now()
	year, month := now.Year(), now.Month()
	if raw := r.URL.Query().Get("year"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			year = v
		}
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 1 && v <= 12 {
			month = time.Month(v)
		}
	}
	return year, month
}

func (h *Handler) handleMonthly(w http.ResponseWriter, r *http.Request) {
	year, month := h.period(r)

	summary, err := h.Service.Monthly(r.Context(), year, month)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build monthly report", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMonthlyExport(w http.ResponseWriter, r *http.Request) {
	year, month := h.period(r)

	pdf, err := h.Service.ExportPDF(r.Context(), year, month)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to export monthly report", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="leave-report-%04d-%02d.pdf"`, year, month))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

var jobTypes = map[string]string{
	"grant-monthly":   jobs.JobMonthlyGrant,
	"reset-carryover": jobs.JobCarryoverReset,
	"year-rollover":   jobs.JobYearRollover,
}

func (h *Handler) handleRunJob(w http.ResponseWriter, r *http.Request) {
	jobType, ok := jobTypes[chi.URLParam(r, "jobType")]
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "unknown job type", middleware.GetRequestID(r.Context()))
		return
	}

	details, err := h.Jobs.RunNow(r.Context(), jobType)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "job_failed", "job execution failed", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, details, middleware.GetRequestID(r.Context()))
}
