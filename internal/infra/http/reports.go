package http

import (
	"net/http"

	"github.com/Spok95/gym-console/internal/domain/reports"
)

func (h *handler) revenue(w http.ResponseWriter, r *http.Request) {
	rev, err := h.Reports.Revenue(r.Context(), tenantID(r))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *handler) attendanceStats(w http.ResponseWriter, r *http.Request) {
	y, m, err := monthParam(r, "month", h.Calendar)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	st, err := h.Reports.AttendanceStats(r.Context(), tenantID(r), y, m)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handler) memberAttendanceReport(w http.ResponseWriter, r *http.Request) {
	y, m, err := monthParam(r, "month", h.Calendar)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	rep, err := h.Reports.MemberAttendance(r.Context(), tenantID(r), y, m)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *handler) expiring(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", reports.DefaultExpiringDays)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	res, err := h.Reports.Expiring(r.Context(), tenantID(r), days)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Reports.Dashboard(r.Context(), tenantID(r))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
