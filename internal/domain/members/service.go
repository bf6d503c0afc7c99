package members

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Spok95/gym-console/internal/apperr"
	"github.com/Spok95/gym-console/internal/clock"
	"github.com/Spok95/gym-console/internal/domain/payments"
	"github.com/Spok95/gym-console/internal/domain/plans"
)

type Store interface {
	CreateWithPayment(ctx context.Context, m *Member, p *payments.Payment) error
	RenewWithPayment(ctx context.Context, m *Member, p *payments.Payment) error
	Get(ctx context.Context, tenantID, id int64) (*Member, error)
	GetByPhone(ctx context.Context, tenantID int64, phone string) (*Member, error)
	List(ctx context.Context, tenantID int64, f Filter) ([]Member, error)
	Update(ctx context.Context, m *Member) error
}

type PlanResolver interface {
	Resolve(ctx context.Context, tenantID int64, name string) (*plans.Plan, error)
}

var ErrExists = apperr.Conflict("MEMBER_EXISTS", "member already exists")

type Service struct {
	store Store
	plans PlanResolver
	cal   clock.Calendar
	log   *slog.Logger
}

func NewService(store Store, plans PlanResolver, cal clock.Calendar, log *slog.Logger) *Service {
	return &Service{store: store, plans: plans, cal: cal, log: log}
}

type CreateInput struct {
	Name          string          `json:"name" validate:"required,max=100"`
	Email         string          `json:"email" validate:"omitempty,email"`
	Phone         string          `json:"phone" validate:"required,number,min=10,max=15"`
	Gender        Gender          `json:"gender" validate:"required,oneof=Male Female Other"`
	DateOfBirth   string          `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Address       string          `json:"address" validate:"max=300"`
	Plan          string          `json:"plan" validate:"required"`
	JoinDate      string          `json:"joinDate" validate:"omitempty,datetime=2006-01-02"`
	PaymentMethod payments.Method `json:"paymentMethod" validate:"omitempty,oneof=Cash UPI Card"`
	Amount        *float64        `json:"amount" validate:"omitempty,money"`
}

// Create registers a member together with its first payment. The expiry is
// joinDate plus the plan duration.
func (s *Service) Create(ctx context.Context, tenantID int64, in CreateInput) (*Member, *payments.Payment, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if err := apperr.Check(in); err != nil {
		return nil, nil, err
	}
	plan, err := s.plans.Resolve(ctx, tenantID, in.Plan)
	if err != nil {
		return nil, nil, err
	}

	today := s.cal.Today()
	join := today
	if in.JoinDate != "" {
		join, _ = clock.ParseDate(in.JoinDate)
	}
	var dob *time.Time
	if in.DateOfBirth != "" {
		d, _ := clock.ParseDate(in.DateOfBirth)
		dob = &d
	}
	method := in.PaymentMethod
	if method == "" {
		method = payments.MethodCash
	}
	amount := plan.Price
	if in.Amount != nil {
		amount = *in.Amount
	}

	expiry := clock.AddMonths(join, plan.DurationMonths)
	m := &Member{
		TenantID:    tenantID,
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		Gender:      in.Gender,
		DateOfBirth: dob,
		Address:     strings.TrimSpace(in.Address),
		Plan:        plan.Name,
		JoinDate:    join,
		RenewalDate: join,
		ExpiryDate:  expiry,
		Status:      StatusFor(expiry, today),
	}
	p := &payments.Payment{
		TenantID: tenantID,
		Amount:   amount,
		Date:     s.paymentTime(join, today),
		Method:   method,
		Plan:     plan.Name,
	}
	if err := s.store.CreateWithPayment(ctx, m, p); err != nil {
		return nil, nil, fmt.Errorf("create member: %w", err)
	}
	s.log.Info("member created", "tenant_id", tenantID, "member_id", m.ID, "plan", m.Plan, "expiry", m.ExpiryDate.Format(time.DateOnly))
	return m, p, nil
}

// paymentTime dates a payment on the given calendar day: now if that day is
// today, otherwise the start of that day in the reference timezone.
func (s *Service) paymentTime(day, today time.Time) time.Time {
	if day.Equal(today) {
		return s.cal.Now()
	}
	return s.cal.StartOf(day)
}

func (s *Service) Get(ctx context.Context, tenantID, id int64) (*Member, error) {
	m, err := s.store.Get(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	if m == nil {
		return nil, apperr.NotFound("member")
	}
	return m, nil
}

func (s *Service) GetByPhone(ctx context.Context, tenantID int64, phone string) (*Member, error) {
	m, err := s.store.GetByPhone(ctx, tenantID, strings.TrimSpace(phone))
	if err != nil {
		return nil, fmt.Errorf("get member by phone: %w", err)
	}
	if m == nil {
		return nil, apperr.NotFound("member")
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, tenantID int64, f Filter) ([]Member, error) {
	if f.Status != "" && f.Status != StatusActive && f.Status != StatusInactive {
		return nil, apperr.Validation("INVALID_INPUT", "unknown status filter", map[string]string{"status": "oneof=Active Inactive"})
	}
	if _, ok := sortColumns[f.Sort]; f.Sort != "" && !ok {
		return nil, apperr.Validation("INVALID_INPUT", "unknown sort key", map[string]string{"sort": "oneof=name joinDate expiryDate createdAt"})
	}
	return s.store.List(ctx, tenantID, f)
}

type UpdateInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,number,min=10,max=15"`
	Gender      *Gender `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	DateOfBirth *string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Address     *string `json:"address" validate:"omitempty,max=300"`
	ExpiryDate  *string `json:"expiryDate" validate:"omitempty,datetime=2006-01-02"`
}

// Update edits profile fields and allows a manual expiry correction. The
// status follows on the next reconciliation sweep.
func (s *Service) Update(ctx context.Context, tenantID, id int64, in UpdateInput) (*Member, error) {
	in.Name = trimmed(in.Name)
	in.Phone = trimmed(in.Phone)
	in.Address = trimmed(in.Address)
	if in.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &e
	}
	if err := apperr.Check(in); err != nil {
		return nil, err
	}
	m, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		m.Name = *in.Name
	}
	if in.Email != nil {
		m.Email = *in.Email
	}
	if in.Phone != nil {
		m.Phone = *in.Phone
	}
	if in.Gender != nil {
		m.Gender = *in.Gender
	}
	if in.DateOfBirth != nil {
		d, _ := clock.ParseDate(*in.DateOfBirth)
		m.DateOfBirth = &d
	}
	if in.Address != nil {
		m.Address = *in.Address
	}
	if in.ExpiryDate != nil {
		d, _ := clock.ParseDate(*in.ExpiryDate)
		if d.Before(m.RenewalDate) {
			return nil, apperr.Validation("INVALID_INPUT", "expiry date precedes renewal date", map[string]string{"expiryDate": "gtefield=renewalDate"})
		}
		m.ExpiryDate = d
	}
	if err := s.store.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return m, nil
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

type RenewInput struct {
	Plan   string          `json:"plan" validate:"required"`
	Method payments.Method `json:"method" validate:"omitempty,oneof=Cash UPI Card"`
	Amount *float64        `json:"amount" validate:"omitempty,money"`
}

// Renew restarts the membership today on the given plan and records the
// payment in the same transaction, whatever the previous status was.
func (s *Service) Renew(ctx context.Context, tenantID, id int64, in RenewInput) (*Member, *payments.Payment, error) {
	if err := apperr.Check(in); err != nil {
		return nil, nil, err
	}
	m, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	plan, err := s.plans.Resolve(ctx, tenantID, in.Plan)
	if err != nil {
		return nil, nil, err
	}

	today := s.cal.Today()
	m.Plan = plan.Name
	m.RenewalDate = today
	m.ExpiryDate = clock.AddMonths(today, plan.DurationMonths)
	m.Status = StatusActive

	method := in.Method
	if method == "" {
		method = payments.MethodCash
	}
	amount := plan.Price
	if in.Amount != nil {
		amount = *in.Amount
	}
	p := &payments.Payment{
		TenantID: tenantID,
		MemberID: m.ID,
		Amount:   amount,
		Date:     s.cal.Now(),
		Method:   method,
		Plan:     plan.Name,
	}
	if err := s.store.RenewWithPayment(ctx, m, p); err != nil {
		return nil, nil, fmt.Errorf("renew member: %w", err)
	}
	s.log.Info("member renewed", "tenant_id", tenantID, "member_id", m.ID, "plan", m.Plan, "expiry", m.ExpiryDate.Format(time.DateOnly))
	return m, p, nil
}
