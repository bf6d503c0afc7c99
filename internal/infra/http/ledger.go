package http

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/Spok95/gym-console/internal/domain/attendance"
	"github.com/Spok95/gym-console/internal/domain/payments"
	"github.com/Spok95/gym-console/internal/infra/export"
)

type markRequest struct {
	MemberID int64               `json:"memberId"`
	MarkedBy attendance.MarkedBy `json:"markedBy"`
}

func (h *handler) markAttendance(w http.ResponseWriter, r *http.Request) {
	var in markRequest
	if err := decode(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	res, err := h.Attendance.Mark(r.Context(), tenantID(r), in.MemberID, in.MarkedBy)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type checkInRequest struct {
	GymCode string `json:"gymCode"`
	Phone   string `json:"phone"`
}

func (h *handler) checkIn(w http.ResponseWriter, r *http.Request) {
	var in checkInRequest
	if err := decode(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	res, err := h.Attendance.CheckIn(r.Context(), in.GymCode, in.Phone)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handler) attendanceDay(w http.ResponseWriter, r *http.Request) {
	day, err := dateParam(r, "date", h.Calendar.Today())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	list, err := h.Attendance.ListForDay(r.Context(), tenantID(r), day)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":    day.Format(time.DateOnly),
		"count":   len(list),
		"members": list,
	})
}

func (h *handler) attendanceMonth(w http.ResponseWriter, r *http.Request) {
	y, m, err := monthParam(r, "month", h.Calendar)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	sheet, err := h.Attendance.ListForMonth(r.Context(), tenantID(r), y, m)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}

func (h *handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var in payments.RecordInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	p, err := h.Payments.Record(r.Context(), tenantID(r), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *handler) exportPayments(w http.ResponseWriter, r *http.Request) {
	from, err := dateParam(r, "from", time.Time{})
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	to, err := dateParam(r, "to", time.Time{})
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	rows, err := h.Payments.Export(r.Context(), tenantID(r), from, to)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Payments(&buf, rows); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.PaymentsFileName(h.Calendar.Now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
