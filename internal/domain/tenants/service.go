package tenants

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Spok95/gym-console/internal/apperr"
)

type Store interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id int64) (*Tenant, error)
	GetByEmail(ctx context.Context, email string) (*Tenant, error)
	GetByCode(ctx context.Context, code string) (*Tenant, error)
	UpdateProfile(ctx context.Context, id int64, name, gymName string) (*Tenant, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

var (
	ErrExists             = apperr.Conflict("TENANT_EXISTS", "email or gym code already registered")
	ErrInvalidCredentials = apperr.Unauthorized("invalid email or password")
)

type Service struct {
	store Store
	cost  int
}

func NewService(store Store) *Service { return &Service{store: store, cost: bcrypt.DefaultCost} }

// WithCost lowers the bcrypt cost; tests use bcrypt.MinCost.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	GymName  string `json:"gymName" validate:"required,max=100"`
	GymCode  string `json:"gymCode" validate:"required,alphanum,min=4,max=12"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Tenant, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.GymName = strings.TrimSpace(in.GymName)
	in.GymCode = strings.ToUpper(strings.TrimSpace(in.GymCode))
	if err := apperr.Check(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	t := &Tenant{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		GymName:      in.GymName,
		GymCode:      in.GymCode,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (*Tenant, error) {
	t, err := s.store.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	if t == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(t.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Tenant, error) {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	if t == nil {
		return nil, apperr.NotFound("tenant")
	}
	return t, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Tenant, error) {
	t, err := s.store.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("get tenant by code: %w", err)
	}
	if t == nil {
		return nil, apperr.NotFound("gym")
	}
	return t, nil
}

type ProfileInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	GymName string `json:"gymName" validate:"required,max=100"`
}

func (s *Service) UpdateProfile(ctx context.Context, id int64, in ProfileInput) (*Tenant, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.GymName = strings.TrimSpace(in.GymName)
	if err := apperr.Check(in); err != nil {
		return nil, err
	}
	t, err := s.store.UpdateProfile(ctx, id, in.Name, in.GymName)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if t == nil {
		return nil, apperr.NotFound("tenant")
	}
	return t, nil
}

type PasswordInput struct {
	Current string `json:"currentPassword" validate:"required"`
	New     string `json:"newPassword" validate:"required,min=8,max=72"`
}

func (s *Service) ChangePassword(ctx context.Context, id int64, in PasswordInput) error {
	if err := apperr.Check(in); err != nil {
		return err
	}
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(t.PasswordHash), []byte(in.Current)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.New), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.UpdatePassword(ctx, id, string(hash))
}
