package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Spok95/gym-console/internal/auth"
	"github.com/Spok95/gym-console/internal/clock"
	"github.com/Spok95/gym-console/internal/domain/attendance"
	"github.com/Spok95/gym-console/internal/domain/members"
	"github.com/Spok95/gym-console/internal/domain/payments"
	"github.com/Spok95/gym-console/internal/domain/plans"
	"github.com/Spok95/gym-console/internal/domain/reports"
	"github.com/Spok95/gym-console/internal/domain/tenants"
)

type Tenants interface {
	Register(ctx context.Context, in tenants.RegisterInput) (*tenants.Tenant, error)
	Authenticate(ctx context.Context, email, password string) (*tenants.Tenant, error)
	Get(ctx context.Context, id int64) (*tenants.Tenant, error)
	UpdateProfile(ctx context.Context, id int64, in tenants.ProfileInput) (*tenants.Tenant, error)
	ChangePassword(ctx context.Context, id int64, in tenants.PasswordInput) error
}

type Plans interface {
	List(ctx context.Context, tenantID int64) ([]plans.Plan, error)
	Upsert(ctx context.Context, tenantID int64, in plans.UpsertInput) (*plans.Plan, error)
}

type Members interface {
	Create(ctx context.Context, tenantID int64, in members.CreateInput) (*members.Member, *payments.Payment, error)
	Get(ctx context.Context, tenantID, id int64) (*members.Member, error)
	List(ctx context.Context, tenantID int64, f members.Filter) ([]members.Member, error)
	Update(ctx context.Context, tenantID, id int64, in members.UpdateInput) (*members.Member, error)
	Renew(ctx context.Context, tenantID, id int64, in members.RenewInput) (*members.Member, *payments.Payment, error)
}

type Attendance interface {
	Mark(ctx context.Context, tenantID, memberID int64, by attendance.MarkedBy) (*attendance.Marked, error)
	CheckIn(ctx context.Context, gymCode, phone string) (*attendance.Marked, error)
	ListForDay(ctx context.Context, tenantID int64, day time.Time) ([]attendance.Present, error)
	ListForMonth(ctx context.Context, tenantID int64, year int, month time.Month) (*attendance.Sheet, error)
	MemberCalendar(ctx context.Context, tenantID, memberID int64, fromYear int, fromMonth time.Month, toYear int, toMonth time.Month) (*attendance.Calendar, error)
	History(ctx context.Context, tenantID, memberID int64) ([]attendance.Attendance, error)
}

type Payments interface {
	Record(ctx context.Context, tenantID int64, in payments.RecordInput) (*payments.Payment, error)
	History(ctx context.Context, tenantID, memberID int64) ([]payments.Payment, error)
	Export(ctx context.Context, tenantID int64, from, to time.Time) ([]payments.ExportRow, error)
}

type Reports interface {
	Revenue(ctx context.Context, tenantID int64) (*reports.Revenue, error)
	AttendanceStats(ctx context.Context, tenantID int64, year int, month time.Month) (*reports.AttendanceStats, error)
	MemberAttendance(ctx context.Context, tenantID int64, year int, month time.Month) (*reports.MemberAttendanceReport, error)
	Expiring(ctx context.Context, tenantID int64, days int) (*reports.Expiring, error)
	Dashboard(ctx context.Context, tenantID int64) (*reports.Dashboard, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Log        *slog.Logger
	Calendar   clock.Calendar
	Issuer     *auth.Issuer
	Tenants    Tenants
	Plans      Plans
	Members    Members
	Attendance Attendance
	Payments   Payments
	Reports    Reports
	// DB backs /ready; nil skips the check.
	DB Pinger
	// Gatherer backs /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
	Recorder RequestRecorder
}

type handler struct {
	Deps
}

// NewRouter wires every route onto a ServeMux and wraps it with the
// request-id, recovery and access-log middleware.
func NewRouter(d Deps) http.Handler {
	h := &handler{Deps: d}
	mux := http.NewServeMux()
	authed := func(f http.HandlerFunc) http.HandlerFunc { return requireTenant(d.Issuer, d.Log, f) }

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /ready", h.ready)
	if d.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("POST /api/checkin", h.checkIn)

	mux.HandleFunc("GET /api/profile", authed(h.profile))
	mux.HandleFunc("PATCH /api/profile", authed(h.updateProfile))
	mux.HandleFunc("PUT /api/profile/password", authed(h.changePassword))

	mux.HandleFunc("GET /api/plans", authed(h.listPlans))
	mux.HandleFunc("PUT /api/plans/{name}", authed(h.upsertPlan))

	mux.HandleFunc("GET /api/members", authed(h.listMembers))
	mux.HandleFunc("POST /api/members", authed(h.createMember))
	mux.HandleFunc("GET /api/members/{id}", authed(h.getMember))
	mux.HandleFunc("PATCH /api/members/{id}", authed(h.updateMember))
	mux.HandleFunc("POST /api/members/{id}/renew", authed(h.renewMember))
	mux.HandleFunc("GET /api/members/{id}/payments", authed(h.memberPayments))
	mux.HandleFunc("GET /api/members/{id}/attendance", authed(h.memberAttendance))

	mux.HandleFunc("POST /api/attendance", authed(h.markAttendance))
	mux.HandleFunc("GET /api/attendance/day", authed(h.attendanceDay))
	mux.HandleFunc("GET /api/attendance/month", authed(h.attendanceMonth))

	mux.HandleFunc("POST /api/payments", authed(h.recordPayment))
	mux.HandleFunc("GET /api/payments/export", authed(h.exportPayments))

	mux.HandleFunc("GET /api/reports/revenue", authed(h.revenue))
	mux.HandleFunc("GET /api/reports/attendance", authed(h.attendanceStats))
	mux.HandleFunc("GET /api/reports/attendance/members", authed(h.memberAttendanceReport))
	mux.HandleFunc("GET /api/reports/expiring", authed(h.expiring))
	mux.HandleFunc("GET /api/reports/dashboard", authed(h.dashboard))

	return recoverer(d.Log, withRequestID(accessLog(d.Log, d.Recorder, mux)))
}

func (h *handler) ready(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			h.Log.Warn("readiness check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
