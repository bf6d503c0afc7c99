package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Spok95/gym-console/internal/auth"
	"github.com/Spok95/gym-console/internal/clock"
	"github.com/Spok95/gym-console/internal/config"
	"github.com/Spok95/gym-console/internal/domain/attendance"
	"github.com/Spok95/gym-console/internal/domain/members"
	"github.com/Spok95/gym-console/internal/domain/payments"
	"github.com/Spok95/gym-console/internal/domain/plans"
	"github.com/Spok95/gym-console/internal/domain/reconcile"
	"github.com/Spok95/gym-console/internal/domain/reports"
	"github.com/Spok95/gym-console/internal/domain/tenants"
	"github.com/Spok95/gym-console/internal/infra/db"
	httpx "github.com/Spok95/gym-console/internal/infra/http"
	"github.com/Spok95/gym-console/internal/infra/logger"
	"github.com/Spok95/gym-console/internal/infra/metrics"
	"github.com/Spok95/gym-console/internal/infra/notify"
)

func main() {
	defaultPath := os.Getenv("GYM_CONFIG")
	if defaultPath == "" {
		defaultPath = "config/example.yaml"
	}
	path := flag.String("config", defaultPath, "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.App.Env)

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func newNotifier(cfg config.Config, t *tenants.Service, log *slog.Logger) reconcile.Notifier {
	if cfg.Telegram.Token == "" {
		log.Info("telegram token not set, expiring digest goes to the log")
		return notify.NewLog(log)
	}
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Error("telegram init failed, expiring digest goes to the log", "err", err)
		return notify.NewLog(log)
	}
	log.Info("telegram notifier ready", "bot", api.Self.UserName)
	return notify.NewTelegram(api, cfg.Telegram.AdminChatID, t, log)
}

func run(cfg config.Config, log *slog.Logger) error {
	if err := db.Migrate(cfg.Postgres.DSN); err != nil {
		return err
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("db connected")

	cal, err := clock.NewCalendar(clock.System(), cfg.App.Timezone)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	tenantRepo := tenants.NewRepo(pool)
	planRepo := plans.NewRepo(pool)
	memberRepo := members.NewRepo(pool)
	paymentRepo := payments.NewRepo(pool)
	attendanceRepo := attendance.NewRepo(pool)

	tenantSvc := tenants.NewService(tenantRepo)
	planSvc := plans.NewService(planRepo)
	memberSvc := members.NewService(memberRepo, planSvc, cal, log)
	attendanceSvc := attendance.NewService(attendanceRepo, memberSvc, tenantSvc, cal, log, m)
	paymentSvc := payments.NewService(paymentRepo, memberRepo, planSvc, cal, log, m)
	reportSvc := reports.NewService(memberRepo, attendanceRepo, paymentRepo, cal, log)

	rec := reconcile.New(memberRepo, cal, log, newNotifier(cfg, tenantSvc, log), m, cfg.Reconcile.ExpiringDays)
	sched, err := reconcile.NewScheduler(rec, cal.Location, cfg.Reconcile.SweepSpec, cfg.Reconcile.DigestSpec, log)
	if err != nil {
		return err
	}
	sched.Start(ctx)

	deps := httpx.Deps{
		Log:        log,
		Calendar:   cal,
		Issuer:     auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL, clock.System()),
		Tenants:    tenantSvc,
		Plans:      planSvc,
		Members:    memberSvc,
		Attendance: attendanceSvc,
		Payments:   paymentSvc,
		Reports:    reportSvc,
		DB:         pool,
		Recorder:   m,
	}
	if cfg.Metrics.Enabled {
		deps.Gatherer = reg
	}
	srv := httpx.New(cfg.HTTP.Addr, httpx.NewRouter(deps))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr, "timezone", cfg.App.Timezone)

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil {
			log.Error("http server error", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	sched.Stop(shutdownCtx)
	log.Info("graceful shutdown complete")
	return err
}
