// Package testutil holds in-memory implementations of the repository
// interfaces. They mirror the constraints the Postgres schema enforces so
// service tests see the same conflicts the real database would raise.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Spok95/gym-console/internal/apperr"
	"github.com/Spok95/gym-console/internal/domain/attendance"
	"github.com/Spok95/gym-console/internal/domain/members"
	"github.com/Spok95/gym-console/internal/domain/payments"
	"github.com/Spok95/gym-console/internal/domain/plans"
	"github.com/Spok95/gym-console/internal/domain/tenants"
)

type planKey struct {
	tenantID int64
	name     string
}

// DB is the shared state behind every store.
type DB struct {
	mu         sync.Mutex
	seq        int64
	tenants    map[int64]tenants.Tenant
	plans      map[planKey]plans.Plan
	members    map[int64]members.Member
	payments   []payments.Payment
	attendance []attendance.Attendance
}

func NewDB() *DB {
	return &DB{
		tenants: map[int64]tenants.Tenant{},
		plans:   map[planKey]plans.Plan{},
		members: map[int64]members.Member{},
	}
}

func (db *DB) next() int64 {
	db.seq++
	return db.seq
}

func (db *DB) Tenants() *TenantStore        { return &TenantStore{db} }
func (db *DB) Plans() *PlanStore            { return &PlanStore{db} }
func (db *DB) Members() *MemberStore        { return &MemberStore{db} }
func (db *DB) Payments() *PaymentStore      { return &PaymentStore{db} }
func (db *DB) Attendance() *AttendanceStore { return &AttendanceStore{db} }

// AddAttendance appends a raw record, bypassing uniqueness. Tests use it to
// plant records that point at members which do not exist.
func (db *DB) AddAttendance(a attendance.Attendance) {
	db.mu.Lock()
	defer db.mu.Unlock()
	a.ID = db.next()
	db.attendance = append(db.attendance, a)
}

// AddPayment appends a raw payment without checking the member.
func (db *DB) AddPayment(p payments.Payment) {
	db.mu.Lock()
	defer db.mu.Unlock()
	p.ID = db.next()
	db.payments = append(db.payments, p)
}

// PutMember stores m as-is, assigning an id when it has none.
func (db *DB) PutMember(m members.Member) members.Member {
	db.mu.Lock()
	defer db.mu.Unlock()
	if m.ID == 0 {
		m.ID = db.next()
	}
	db.members[m.ID] = m
	return m
}

func (db *DB) Member(id int64) (members.Member, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	m, ok := db.members[id]
	return m, ok
}

func (db *DB) AttendanceCount(tenantID, memberID int64, day time.Time) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, a := range db.attendance {
		if a.TenantID == tenantID && a.MemberID == memberID && a.Day.Equal(day) {
			n++
		}
	}
	return n
}

func (db *DB) PaymentsOf(tenantID, memberID int64) []payments.Payment {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []payments.Payment
	for _, p := range db.payments {
		if p.TenantID == tenantID && p.MemberID == memberID {
			out = append(out, p)
		}
	}
	return out
}

type TenantStore struct{ db *DB }

func (s *TenantStore) Create(_ context.Context, t *tenants.Tenant) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, x := range s.db.tenants {
		if strings.EqualFold(x.Email, t.Email) || x.GymCode == t.GymCode {
			return tenants.ErrExists
		}
	}
	t.ID = s.db.next()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	s.db.tenants[t.ID] = *t
	for _, p := range plans.Defaults(t.ID) {
		s.db.plans[planKey{t.ID, p.Name}] = p
	}
	return nil
}

func (s *TenantStore) find(match func(tenants.Tenant) bool) *tenants.Tenant {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, t := range s.db.tenants {
		if match(t) {
			return &t
		}
	}
	return nil
}

func (s *TenantStore) GetByID(_ context.Context, id int64) (*tenants.Tenant, error) {
	return s.find(func(t tenants.Tenant) bool { return t.ID == id }), nil
}

func (s *TenantStore) GetByEmail(_ context.Context, email string) (*tenants.Tenant, error) {
	return s.find(func(t tenants.Tenant) bool { return strings.EqualFold(t.Email, email) }), nil
}

func (s *TenantStore) GetByCode(_ context.Context, code string) (*tenants.Tenant, error) {
	return s.find(func(t tenants.Tenant) bool { return t.GymCode == strings.ToUpper(code) }), nil
}

func (s *TenantStore) UpdateProfile(_ context.Context, id int64, name, gymName string) (*tenants.Tenant, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tenants[id]
	if !ok {
		return nil, nil
	}
	t.Name, t.GymName, t.UpdatedAt = name, gymName, time.Now()
	s.db.tenants[id] = t
	return &t, nil
}

func (s *TenantStore) UpdatePassword(_ context.Context, id int64, hash string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tenants[id]
	if !ok {
		return apperr.NotFound("tenant")
	}
	t.PasswordHash = hash
	s.db.tenants[id] = t
	return nil
}

type PlanStore struct{ db *DB }

func (s *PlanStore) List(_ context.Context, tenantID int64) ([]plans.Plan, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []plans.Plan
	for k, p := range s.db.plans {
		if k.tenantID == tenantID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DurationMonths != out[j].DurationMonths {
			return out[i].DurationMonths < out[j].DurationMonths
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *PlanStore) Get(_ context.Context, tenantID int64, name string) (*plans.Plan, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.plans[planKey{tenantID, name}]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *PlanStore) Upsert(_ context.Context, p plans.Plan) (*plans.Plan, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p.UpdatedAt = time.Now()
	s.db.plans[planKey{p.TenantID, p.Name}] = p
	return &p, nil
}

type MemberStore struct{ db *DB }

// unique mirrors members_tenant_phone_key and members_tenant_email_key.
func (s *MemberStore) unique(m *members.Member) error {
	for _, x := range s.db.members {
		if x.TenantID != m.TenantID || x.ID == m.ID {
			continue
		}
		if x.Phone == m.Phone {
			return &apperr.Error{Kind: members.ErrExists.Kind, Code: members.ErrExists.Code, Message: "a member with this phone already exists", Fields: map[string]string{"phone": "unique"}}
		}
		if m.Email != "" && strings.EqualFold(x.Email, m.Email) {
			return &apperr.Error{Kind: members.ErrExists.Kind, Code: members.ErrExists.Code, Message: "a member with this email already exists", Fields: map[string]string{"email": "unique"}}
		}
	}
	return nil
}

func (s *MemberStore) CreateWithPayment(_ context.Context, m *members.Member, p *payments.Payment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.unique(m); err != nil {
		return err
	}
	m.ID = s.db.next()
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	s.db.members[m.ID] = *m

	p.ID = s.db.next()
	p.MemberID = m.ID
	p.CreatedAt = m.CreatedAt
	s.db.payments = append(s.db.payments, *p)
	return nil
}

func (s *MemberStore) RenewWithPayment(_ context.Context, m *members.Member, p *payments.Payment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.members[m.ID]
	if !ok || cur.TenantID != m.TenantID {
		return apperr.NotFound("member")
	}
	cur.Plan, cur.RenewalDate, cur.ExpiryDate, cur.Status = m.Plan, m.RenewalDate, m.ExpiryDate, m.Status
	cur.UpdatedAt = time.Now()
	s.db.members[m.ID] = cur
	m.UpdatedAt = cur.UpdatedAt

	p.ID = s.db.next()
	p.CreatedAt = cur.UpdatedAt
	s.db.payments = append(s.db.payments, *p)
	return nil
}

func (s *MemberStore) Get(_ context.Context, tenantID, id int64) (*members.Member, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	m, ok := s.db.members[id]
	if !ok || m.TenantID != tenantID {
		return nil, nil
	}
	return &m, nil
}

func (s *MemberStore) GetByPhone(_ context.Context, tenantID int64, phone string) (*members.Member, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, m := range s.db.members {
		if m.TenantID == tenantID && m.Phone == phone {
			return &m, nil
		}
	}
	return nil, nil
}

func (s *MemberStore) List(_ context.Context, tenantID int64, f members.Filter) ([]members.Member, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []members.Member
	for _, m := range s.db.members {
		if m.TenantID != tenantID {
			continue
		}
		if f.Status != "" && m.Status != f.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(m.Name), search) && !strings.Contains(m.Phone, search) {
			continue
		}
		out = append(out, m)
	}
	less := func(a, b members.Member) bool {
		switch f.Sort {
		case members.SortName:
			if !strings.EqualFold(a.Name, b.Name) {
				return strings.ToLower(a.Name) < strings.ToLower(b.Name)
			}
		case members.SortJoinDate:
			if !a.JoinDate.Equal(b.JoinDate) {
				return a.JoinDate.Before(b.JoinDate)
			}
		case members.SortExpiry:
			if !a.ExpiryDate.Equal(b.ExpiryDate) {
				return a.ExpiryDate.Before(b.ExpiryDate)
			}
		}
		return a.ID < b.ID
	}
	sort.Slice(out, func(i, j int) bool {
		if f.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out, nil
}

func (s *MemberStore) Update(_ context.Context, m *members.Member) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.members[m.ID]
	if !ok || cur.TenantID != m.TenantID {
		return apperr.NotFound("member")
	}
	if err := s.unique(m); err != nil {
		return err
	}
	m.UpdatedAt = time.Now()
	// status is owned by the sweep and renewals
	m.Status = cur.Status
	s.db.members[m.ID] = *m
	return nil
}

func (s *MemberStore) Exists(ctx context.Context, tenantID, memberID int64) (bool, error) {
	m, err := s.Get(ctx, tenantID, memberID)
	return m != nil, err
}

func (s *MemberStore) Names(_ context.Context, tenantID int64) (map[int64]string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := map[int64]string{}
	for _, m := range s.db.members {
		if m.TenantID == tenantID {
			out[m.ID] = m.Name
		}
	}
	return out, nil
}

func (s *MemberStore) Mismatched(_ context.Context, today time.Time) ([]members.Transition, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []members.Transition
	for _, m := range s.db.members {
		if want := members.StatusFor(m.ExpiryDate, today); want != m.Status {
			out = append(out, members.Transition{ID: m.ID, TenantID: m.TenantID, ExpiryDate: m.ExpiryDate, From: m.Status, To: want})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemberStore) ApplyTransition(_ context.Context, t members.Transition, today time.Time) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	m, ok := s.db.members[t.ID]
	if !ok || m.Status != t.From || members.StatusFor(m.ExpiryDate, today) != t.To {
		return false, nil
	}
	m.Status = t.To
	s.db.members[t.ID] = m
	return true, nil
}

func (s *MemberStore) ExpiringBetween(_ context.Context, from, to time.Time) ([]members.Member, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []members.Member
	for _, m := range s.db.members {
		if m.Status == members.StatusActive && !m.ExpiryDate.Before(from) && !m.ExpiryDate.After(to) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TenantID != out[j].TenantID {
			return out[i].TenantID < out[j].TenantID
		}
		if !out[i].ExpiryDate.Equal(out[j].ExpiryDate) {
			return out[i].ExpiryDate.Before(out[j].ExpiryDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type PaymentStore struct{ db *DB }

func (s *PaymentStore) Insert(_ context.Context, p *payments.Payment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p.ID = s.db.next()
	p.CreatedAt = time.Now()
	s.db.payments = append(s.db.payments, *p)
	return nil
}

func (s *PaymentStore) History(_ context.Context, tenantID, memberID int64) ([]payments.Payment, error) {
	out := s.db.PaymentsOf(tenantID, memberID)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *PaymentStore) List(_ context.Context, tenantID int64, from, to time.Time) ([]payments.Payment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []payments.Payment
	for _, p := range s.db.payments {
		if p.TenantID != tenantID {
			continue
		}
		if !from.IsZero() && p.Date.Before(from) {
			continue
		}
		if !to.IsZero() && !p.Date.Before(to) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

type AttendanceStore struct{ db *DB }

// Insert mirrors attendance_member_day_key.
func (s *AttendanceStore) Insert(_ context.Context, a *attendance.Attendance) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, x := range s.db.attendance {
		if x.TenantID == a.TenantID && x.MemberID == a.MemberID && x.Day.Equal(a.Day) {
			return attendance.ErrAlreadyMarked
		}
	}
	a.ID = s.db.next()
	s.db.attendance = append(s.db.attendance, *a)
	return nil
}

func (s *AttendanceStore) filter(keep func(attendance.Attendance) bool) []attendance.Attendance {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []attendance.Attendance
	for _, a := range s.db.attendance {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func within(d, from, to time.Time) bool { return !d.Before(from) && !d.After(to) }

func (s *AttendanceStore) ListRange(_ context.Context, tenantID int64, from, to time.Time) ([]attendance.Attendance, error) {
	out := s.filter(func(a attendance.Attendance) bool { return a.TenantID == tenantID && within(a.Day, from, to) })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func (s *AttendanceStore) ListForMember(_ context.Context, tenantID, memberID int64, from, to time.Time) ([]attendance.Attendance, error) {
	out := s.filter(func(a attendance.Attendance) bool {
		return a.TenantID == tenantID && a.MemberID == memberID && within(a.Day, from, to)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func (s *AttendanceStore) History(_ context.Context, tenantID, memberID int64) ([]attendance.Attendance, error) {
	out := s.filter(func(a attendance.Attendance) bool { return a.TenantID == tenantID && a.MemberID == memberID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Day.After(out[j].Day) })
	return out, nil
}
