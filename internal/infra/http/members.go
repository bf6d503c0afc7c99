package http

import (
	"net/http"
	"strings"

	"github.com/Spok95/gym-console/internal/apperr"
	"github.com/Spok95/gym-console/internal/clock"
	"github.com/Spok95/gym-console/internal/domain/attendance"
	"github.com/Spok95/gym-console/internal/domain/members"
	"github.com/Spok95/gym-console/internal/domain/payments"
	"github.com/Spok95/gym-console/internal/domain/plans"
)

type memberWithPayment struct {
	Member  *members.Member   `json:"member"`
	Payment *payments.Payment `json:"payment"`
}

func (h *handler) listPlans(w http.ResponseWriter, r *http.Request) {
	list, err := h.Plans.List(r.Context(), tenantID(r))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) upsertPlan(w http.ResponseWriter, r *http.Request) {
	var in plans.UpsertInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	in.Name = r.PathValue("name")
	p, err := h.Plans.Upsert(r.Context(), tenantID(r), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) listMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := members.Filter{
		Status: members.Status(q.Get("status")),
		Search: strings.TrimSpace(q.Get("search")),
		Sort:   members.SortKey(q.Get("sort")),
		Desc:   strings.EqualFold(q.Get("order"), "desc"),
	}
	list, err := h.Members.List(r.Context(), tenantID(r), f)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if list == nil {
		list = []members.Member{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) createMember(w http.ResponseWriter, r *http.Request) {
	var in members.CreateInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	m, p, err := h.Members.Create(r.Context(), tenantID(r), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, memberWithPayment{Member: m, Payment: p})
}

func (h *handler) getMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	m, err := h.Members.Get(r.Context(), tenantID(r), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *handler) updateMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var in members.UpdateInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	m, err := h.Members.Update(r.Context(), tenantID(r), id, in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *handler) renewMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var in members.RenewInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	m, p, err := h.Members.Renew(r.Context(), tenantID(r), id, in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, memberWithPayment{Member: m, Payment: p})
}

func (h *handler) memberPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	list, err := h.Payments.History(r.Context(), tenantID(r), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if list == nil {
		list = []payments.Payment{}
	}
	writeJSON(w, http.StatusOK, list)
}

// memberAttendance answers with the day-by-day calendar when from/to
// (YYYY-MM) are given and with the raw check-in history otherwise.
func (h *handler) memberAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" && to == "" {
		list, err := h.Attendance.History(r.Context(), tenantID(r), id)
		if err != nil {
			writeError(w, r, h.Log, err)
			return
		}
		if list == nil {
			list = []attendance.Attendance{}
		}
		writeJSON(w, http.StatusOK, list)
		return
	}
	if from == "" {
		from = to
	}
	if to == "" {
		to = from
	}
	fy, fm, err := clock.ParseMonth(from)
	if err != nil {
		writeError(w, r, h.Log, apperr.Validation("INVALID_INPUT", err.Error(), map[string]string{"from": "datetime=2006-01"}))
		return
	}
	ty, tm, err := clock.ParseMonth(to)
	if err != nil {
		writeError(w, r, h.Log, apperr.Validation("INVALID_INPUT", err.Error(), map[string]string{"to": "datetime=2006-01"}))
		return
	}
	cal, err := h.Attendance.MemberCalendar(r.Context(), tenantID(r), id, fy, fm, ty, tm)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}
