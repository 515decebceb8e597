package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/auth"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/dayoff"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/employee"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/leave"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/notifications"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/reports"
	"github.com/NguyenToan3107/hrm-backend/internal/platform/config"
	"github.com/NguyenToan3107/hrm-backend/internal/platform/db"
	"github.com/NguyenToan3107/hrm-backend/internal/platform/jobs"
	"github.com/NguyenToan3107/hrm-backend/internal/platform/metrics"
	"github.com/NguyenToan3107/hrm-backend/internal/platform/slack"
	authhandler "github.com/NguyenToan3107/hrm-backend/internal/transport/http/handlers/auth"
	corehandler "github.com/NguyenToan3107/hrm-backend/internal/transport/http/handlers/core"
	dayoffhandler "github.com/NguyenToan3107/hrm-backend/internal/transport/http/handlers/dayoff"
	leavehandler "github.com/NguyenToan3107/hrm-backend/internal/transport/http/handlers/leave"
	reportshandler "github.com/NguyenToan3107/hrm-backend/internal/transport/http/handlers/reports"
	"github.com/NguyenToan3107/hrm-backend/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	Pool   *pgxpool.Pool
	Router http.Handler
	Jobs   *jobs.Service
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	authStore := auth.NewStore(pool)
	employeeStore := employee.NewStore(pool)
	dayOffStore := dayoff.NewStore(pool)
	leaveStore := leave.NewStore(pool)
	reportsStore := reports.NewStore(pool)

	notifySvc := notifications.NewService(slack.New(cfg))
	authSvc := auth.NewService(authStore, employeeStore, []byte(cfg.JWTSecret), cfg.JWTTTL)
	employeeSvc := employee.NewService(employeeStore, pool)
	dayOffSvc := dayoff.NewService(dayOffStore)
	leaveSvc := leave.NewService(leaveStore, employeeStore, dayOffSvc, pool, notifySvc)
	reportsSvc := reports.NewService(reportsStore)
	jobsSvc := jobs.New(pool, cfg, employeeSvc, notifySvc)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	if cfg.MetricsEnabled {
		router.Use(metrics.Middleware)
	}
	router.Use(middleware.Auth([]byte(cfg.JWTSecret)))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authSvc, employeeStore).RegisterRoutes(r)
		leavehandler.NewHandler(leaveSvc, authStore).RegisterRoutes(r)
		dayoffhandler.NewHandler(dayOffSvc, authStore).RegisterRoutes(r)
		corehandler.NewHandler(employeeSvc, authStore).RegisterRoutes(r)
		reportshandler.NewHandler(reportsSvc, jobsSvc, authStore).RegisterRoutes(r)
	})

	return &App{Config: cfg, Pool: pool, Router: router, Jobs: jobsSvc}, nil
}

func (a *App) Close() {
	a.Pool.Close()
}

func Run() {
	cfg := config.Load()

	ctx := context.Background()
	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	app.Jobs.Start(ctx)

	log.Printf("leave server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
