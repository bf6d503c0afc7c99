package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Spok95/gym-console/internal/clock"
	"github.com/Spok95/gym-console/internal/domain/members"
)

type Store interface {
	Mismatched(ctx context.Context, today time.Time) ([]members.Transition, error)
	ApplyTransition(ctx context.Context, t members.Transition, today time.Time) (bool, error)
	ExpiringBetween(ctx context.Context, from, to time.Time) ([]members.Member, error)
}

// Notifier receives the weekly digest of memberships about to lapse.
type Notifier interface {
	NotifyExpiring(ctx context.Context, d Digest) error
}

type Recorder interface {
	StatusTransition(to string)
	SweepFailure()
}

type Result struct {
	Checked     int `json:"checked"`
	Activated   int `json:"activated"`
	Deactivated int `json:"deactivated"`
	Failed      int `json:"failed"`
}

type TenantDigest struct {
	TenantID int64            `json:"tenantId"`
	Members  []members.Member `json:"members"`
}

type Digest struct {
	From    time.Time      `json:"from"`
	To      time.Time      `json:"to"`
	Tenants []TenantDigest `json:"tenants"`
}

func (d Digest) Total() int {
	n := 0
	for _, t := range d.Tenants {
		n += len(t.Members)
	}
	return n
}

type Reconciler struct {
	store        Store
	cal          clock.Calendar
	log          *slog.Logger
	notifier     Notifier
	metrics      Recorder
	expiringDays int
}

func New(store Store, cal clock.Calendar, log *slog.Logger, n Notifier, rec Recorder, expiringDays int) *Reconciler {
	if expiringDays <= 0 {
		expiringDays = 7
	}
	return &Reconciler{store: store, cal: cal, log: log, notifier: n, metrics: rec, expiringDays: expiringDays}
}

// Sweep brings every member's stored status in line with its expiry date as
// of today. A failure on one member is logged and counted; the rest of the
// sweep carries on. Running it twice on the same day changes nothing the
// second time.
func (r *Reconciler) Sweep(ctx context.Context) (Result, error) {
	today := r.cal.Today()
	list, err := r.store.Mismatched(ctx, today)
	if err != nil {
		return Result{}, fmt.Errorf("select mismatched members: %w", err)
	}

	res := Result{Checked: len(list)}
	for _, t := range list {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		changed, err := r.store.ApplyTransition(ctx, t, today)
		if err != nil {
			res.Failed++
			if r.metrics != nil {
				r.metrics.SweepFailure()
			}
			r.log.Error("status transition failed", "tenant_id", t.TenantID, "member_id", t.ID, "to", t.To, "err", err)
			continue
		}
		if !changed {
			r.log.Debug("status transition skipped", "tenant_id", t.TenantID, "member_id", t.ID)
			continue
		}
		if t.To == members.StatusActive {
			res.Activated++
		} else {
			res.Deactivated++
		}
		if r.metrics != nil {
			r.metrics.StatusTransition(string(t.To))
		}
	}

	r.log.Info("status sweep done",
		"date", today.Format(time.DateOnly),
		"checked", res.Checked,
		"activated", res.Activated,
		"deactivated", res.Deactivated,
		"failed", res.Failed,
	)
	return res, nil
}

// ExpiringDigest collects Active members expiring within the configured
// window, grouped per tenant, and hands them to the notifier.
func (r *Reconciler) ExpiringDigest(ctx context.Context) (Digest, error) {
	today := r.cal.Today()
	d := Digest{From: today, To: clock.AddDays(today, r.expiringDays)}

	list, err := r.store.ExpiringBetween(ctx, d.From, d.To)
	if err != nil {
		return d, fmt.Errorf("select expiring members: %w", err)
	}
	for _, m := range list {
		if n := len(d.Tenants); n == 0 || d.Tenants[n-1].TenantID != m.TenantID {
			d.Tenants = append(d.Tenants, TenantDigest{TenantID: m.TenantID})
		}
		last := &d.Tenants[len(d.Tenants)-1]
		last.Members = append(last.Members, m)
	}

	r.log.Info("expiring digest built", "from", d.From.Format(time.DateOnly), "to", d.To.Format(time.DateOnly), "tenants", len(d.Tenants), "members", d.Total())
	if r.notifier == nil || d.Total() == 0 {
		return d, nil
	}
	if err := r.notifier.NotifyExpiring(ctx, d); err != nil {
		return d, fmt.Errorf("notify expiring: %w", err)
	}
	return d, nil
}
