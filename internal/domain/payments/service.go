package payments

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Spok95/gym-console/internal/apperr"
	"github.com/Spok95/gym-console/internal/clock"
	"github.com/Spok95/gym-console/internal/domain/plans"
)

type Store interface {
	Insert(ctx context.Context, p *Payment) error
	History(ctx context.Context, tenantID, memberID int64) ([]Payment, error)
	List(ctx context.Context, tenantID int64, from, to time.Time) ([]Payment, error)
}

// MemberDirectory resolves member references without importing the members package.
type MemberDirectory interface {
	Exists(ctx context.Context, tenantID, memberID int64) (bool, error)
	Names(ctx context.Context, tenantID int64) (map[int64]string, error)
}

type PlanResolver interface {
	Resolve(ctx context.Context, tenantID int64, name string) (*plans.Plan, error)
}

type Recorder interface {
	PaymentRecorded(method string, amount float64)
}

type Service struct {
	store   Store
	members MemberDirectory
	plans   PlanResolver
	cal     clock.Calendar
	log     *slog.Logger
	metrics Recorder
}

func NewService(store Store, members MemberDirectory, plans PlanResolver, cal clock.Calendar, log *slog.Logger, m Recorder) *Service {
	return &Service{store: store, members: members, plans: plans, cal: cal, log: log, metrics: m}
}

type RecordInput struct {
	MemberID int64      `json:"memberId" validate:"required,gt=0"`
	Amount   float64    `json:"amount" validate:"required,money"`
	Method   Method     `json:"method" validate:"required,oneof=Cash UPI Card"`
	Plan     string     `json:"plan" validate:"required"`
	Date     *time.Time `json:"date"`
}

func (s *Service) Record(ctx context.Context, tenantID int64, in RecordInput) (*Payment, error) {
	if err := apperr.Check(in); err != nil {
		return nil, err
	}
	ok, err := s.members.Exists(ctx, tenantID, in.MemberID)
	if err != nil {
		return nil, fmt.Errorf("resolve member: %w", err)
	}
	if !ok {
		return nil, apperr.NotFound("member")
	}
	plan, err := s.plans.Resolve(ctx, tenantID, in.Plan)
	if err != nil {
		return nil, err
	}

	date := s.cal.Now()
	if in.Date != nil {
		date = *in.Date
	}
	p := &Payment{
		TenantID: tenantID,
		MemberID: in.MemberID,
		Amount:   in.Amount,
		Date:     date,
		Method:   in.Method,
		Plan:     plan.Name,
	}
	if err := s.store.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	if s.metrics != nil {
		s.metrics.PaymentRecorded(string(p.Method), p.Amount)
	}
	s.log.Info("payment recorded", "tenant_id", tenantID, "member_id", p.MemberID, "payment_id", p.ID, "amount", p.Amount)
	return p, nil
}

func (s *Service) History(ctx context.Context, tenantID, memberID int64) ([]Payment, error) {
	ok, err := s.members.Exists(ctx, tenantID, memberID)
	if err != nil {
		return nil, fmt.Errorf("resolve member: %w", err)
	}
	if !ok {
		return nil, apperr.NotFound("member")
	}
	return s.store.History(ctx, tenantID, memberID)
}

// Export projects payments dated within [from, to] (calendar dates, either
// may be zero) into flat rows. Rows whose member no longer resolves are skipped.
func (s *Service) Export(ctx context.Context, tenantID int64, from, to time.Time) ([]ExportRow, error) {
	var lo, hi time.Time
	if !from.IsZero() {
		lo = s.cal.StartOf(from)
	}
	if !to.IsZero() {
		hi = s.cal.StartOf(clock.AddDays(to, 1))
	}
	if !lo.IsZero() && !hi.IsZero() && !lo.Before(hi) {
		return nil, apperr.Validation("INVALID_RANGE", "from must not be after to", nil)
	}

	list, err := s.store.List(ctx, tenantID, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	names, err := s.members.Names(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("member names: %w", err)
	}

	out := make([]ExportRow, 0, len(list))
	for _, p := range list {
		name, ok := names[p.MemberID]
		if !ok {
			s.log.Warn("export skipped payment", "err", apperr.Orphan("payment", p.ID, p.MemberID))
			continue
		}
		out = append(out, ExportRow{
			PaymentID:  p.ID,
			MemberID:   p.MemberID,
			MemberName: name,
			Amount:     p.Amount,
			Plan:       p.Plan,
			Method:     p.Method,
			Date:       s.cal.In(p.Date),
		})
	}
	return out, nil
}
