package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultSweepSpec  = "0 0 * * *"
	DefaultDigestSpec = "0 9 * * 1"
	jobTimeout        = 5 * time.Minute
)

type cronLogger struct{ log *slog.Logger }

func (l cronLogger) Info(msg string, kv ...any) { l.log.Debug(msg, kv...) }

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Error(msg, append(kv, "err", err)...)
}

// Scheduler runs the sweep and the digest on cron specs evaluated in the
// reference timezone. A run still in progress makes the next tick skip.
type Scheduler struct {
	cron *cron.Cron
	r    *Reconciler
	log  *slog.Logger
}

func NewScheduler(r *Reconciler, loc *time.Location, sweepSpec, digestSpec string, log *slog.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if sweepSpec == "" {
		sweepSpec = DefaultSweepSpec
	}
	if digestSpec == "" {
		digestSpec = DefaultDigestSpec
	}
	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s := &Scheduler{cron: c, r: r, log: log}

	if _, err := c.AddFunc(sweepSpec, s.runSweep); err != nil {
		return nil, fmt.Errorf("schedule sweep %q: %w", sweepSpec, err)
	}
	if _, err := c.AddFunc(digestSpec, s.runDigest); err != nil {
		return nil, fmt.Errorf("schedule digest %q: %w", digestSpec, err)
	}
	return s, nil
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if _, err := s.r.Sweep(ctx); err != nil {
		s.log.Error("status sweep failed", "err", err)
	}
}

func (s *Scheduler) runDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if _, err := s.r.ExpiringDigest(ctx); err != nil {
		s.log.Error("expiring digest failed", "err", err)
	}
}

// Start runs one sweep immediately so statuses are correct after downtime,
// then hands over to cron.
func (s *Scheduler) Start(ctx context.Context) {
	if _, err := s.r.Sweep(ctx); err != nil {
		s.log.Error("startup sweep failed", "err", err)
	}
	s.cron.Start()
	s.log.Info("reconcile scheduler started", "entries", len(s.cron.Entries()))
}

// Stop stops scheduling and waits for a running job, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("reconcile scheduler stop timed out")
	}
}
