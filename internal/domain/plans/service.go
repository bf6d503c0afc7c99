package plans

import (
	"context"
	"fmt"
	"strings"

	"github.com/Spok95/gym-console/internal/apperr"
)

type Store interface {
	List(ctx context.Context, tenantID int64) ([]Plan, error)
	Get(ctx context.Context, tenantID int64, name string) (*Plan, error)
	Upsert(ctx context.Context, p Plan) (*Plan, error)
}

var (
	ErrUnknown  = apperr.Validation("PLAN_UNKNOWN", "plan does not exist", nil)
	ErrInactive = apperr.Validation("PLAN_INACTIVE", "plan is not active", nil)
)

type Service struct{ store Store }

func NewService(store Store) *Service { return &Service{store: store} }

func (s *Service) List(ctx context.Context, tenantID int64) ([]Plan, error) {
	return s.store.List(ctx, tenantID)
}

// Resolve returns the named plan only if it exists and is active.
func (s *Service) Resolve(ctx context.Context, tenantID int64, name string) (*Plan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("INVALID_INPUT", "plan is required", map[string]string{"plan": "required"})
	}
	p, err := s.store.Get(ctx, tenantID, name)
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	if p == nil {
		return nil, &apperr.Error{Kind: ErrUnknown.Kind, Code: ErrUnknown.Code, Message: fmt.Sprintf("plan %q does not exist", name)}
	}
	if !p.Active {
		return nil, &apperr.Error{Kind: ErrInactive.Kind, Code: ErrInactive.Code, Message: fmt.Sprintf("plan %q is not active", name)}
	}
	return p, nil
}

type UpsertInput struct {
	Name           string  `json:"name" validate:"required,max=40"`
	DurationMonths int     `json:"durationMonths" validate:"required,min=1,max=60"`
	Price          float64 `json:"price" validate:"required,money"`
	Active         *bool   `json:"isActive"`
}

func (s *Service) Upsert(ctx context.Context, tenantID int64, in UpsertInput) (*Plan, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := apperr.Check(in); err != nil {
		return nil, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return s.store.Upsert(ctx, Plan{
		TenantID:       tenantID,
		Name:           in.Name,
		DurationMonths: in.DurationMonths,
		Price:          in.Price,
		Active:         active,
	})
}
