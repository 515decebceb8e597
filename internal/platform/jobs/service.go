package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/employee"
	"github.com/NguyenToan3107/hrm-backend/internal/platform/config"
)

const (
	JobMonthlyGrant   = "balance_monthly_grant"
	JobCarryoverReset = "balance_carryover_reset"
	JobYearRollover   = "balance_year_rollover"
)

var ErrUnknownJob = errors.New("unknown job type")

// BalanceJobs is the batch surface of the employee service.
type BalanceJobs interface {
	GrantMonthlyHours(ctx context.Context, hours float64) ([]employee.BalanceChange, error)
	ResetCarriedHours(ctx context.Context) ([]employee.BalanceChange, error)
	RollOverYearEnd(ctx context.Context) ([]employee.BalanceChange, error)
}

// Notifier posts the batch outcome to the team channel.
type Notifier interface {
	BatchSummary(ctx context.Context, title string, changes []employee.BalanceChange) error
}

type Service struct {
	DB       *pgxpool.Pool
	Cfg      config.Config
	balances BalanceJobs
	notify   Notifier
	queue    chan job
}

type job struct {
	Type   string
	Period string
}

func New(db *pgxpool.Pool, cfg config.Config, balances BalanceJobs, notify Notifier) *Service {
	return &Service{
		DB:       db,
		Cfg:      cfg,
		balances: balances,
		notify:   notify,
		queue:    make(chan job, 16),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.JobPollInterval > 0 {
		go s.schedule(ctx, s.Cfg.JobPollInterval)
	}
}

// RunNow executes a job immediately, outside the scheduler. Used by the
// admin trigger endpoints; the run is still recorded in job_runs.
func (s *Service) RunNow(ctx context.Context, jobType string) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Period: time.Now().Format("2006-01-02") + " manual"})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "period", j.Period, "err", err)
			}
		}
	}
}

func (s *Service) enqueue(j job) {
	select {
	case s.queue <- j:
	default:
		slog.Warn("job queue full", "jobType", j.Type)
	}
}

func (s *Service) schedule(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			s.enqueueDue(ctx, JobMonthlyGrant, MonthlyGrantPeriod(now))
			s.enqueueDue(ctx, JobCarryoverReset, CarryoverResetPeriod(now))
			s.enqueueDue(ctx, JobYearRollover, YearRolloverPeriod(now))
		}
	}
}

func (s *Service) enqueueDue(ctx context.Context, jobType, period string) {
	if period == "" {
		return
	}
	done, err := s.alreadyRan(ctx, jobType, period)
	if err != nil {
		slog.Warn("job schedule lookup failed", "jobType", jobType, "err", err)
		return
	}
	if !done {
		s.enqueue(job{Type: jobType, Period: period})
	}
}

func (s *Service) alreadyRan(ctx context.Context, jobType, period string) (bool, error) {
	var one int
	err := s.DB.QueryRow(ctx, `
    SELECT 1 FROM job_runs
    WHERE job_type = $1 AND period = $2 AND status = 'completed'
    LIMIT 1
  `, jobType, period).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, period, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, j.Type, j.Period, "running").Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	changes, title, err := s.execute(ctx, j.Type)
	status := "completed"
	if err != nil {
		status = "failed"
	}

	details := map[string]any{"affected": len(changes)}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	if err != nil {
		return nil, err
	}

	slog.Info("job completed", "jobType", j.Type, "period", j.Period, "affected", len(changes))
	if s.notify != nil {
		if notifyErr := s.notify.BatchSummary(ctx, title, changes); notifyErr != nil {
			slog.Warn("job summary notification failed", "jobType", j.Type, "err", notifyErr)
		}
	}
	return details, nil
}

func (s *Service) execute(ctx context.Context, jobType string) ([]employee.BalanceChange, string, error) {
	switch jobType {
	case JobMonthlyGrant:
		changes, err := s.balances.GrantMonthlyHours(ctx, s.Cfg.MonthlyGrantHours)
		return changes, "Monthly time-off grant", err
	case JobCarryoverReset:
		changes, err := s.balances.ResetCarriedHours(ctx)
		return changes, "Carried time-off expired", err
	case JobYearRollover:
		changes, err := s.balances.RollOverYearEnd(ctx)
		return changes, "Year-end rollover", err
	default:
		return nil, "", ErrUnknownJob
	}
}
