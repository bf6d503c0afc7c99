package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Spok95/gym-console/internal/apperr"
	"github.com/Spok95/gym-console/internal/clock"
)

const maxBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "err", err)
	}
}

// writeError maps typed errors to their status and body. Anything untyped or
// internal is logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var e *apperr.Error
	if errors.As(err, &e) && e.Kind != apperr.KindInternal && e.Kind != apperr.KindAggregationData {
		if e.Kind == apperr.KindUnauthorized {
			w.Header().Set("WWW-Authenticate", `Bearer realm="gym-console"`)
		}
		writeJSON(w, e.HTTPStatus(), e)
		return
	}
	log.Error("request failed",
		"request_id", RequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"err", err,
	)
	writeJSON(w, http.StatusInternalServerError, apperr.Internal("internal error", nil))
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("INVALID_JSON", "request body is not valid JSON: "+err.Error(), nil)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("INVALID_ID", name+" must be a positive integer", map[string]string{name: "gt=0"})
	}
	return id, nil
}

// monthParam parses ?key=YYYY-MM, falling back to the current month.
func monthParam(r *http.Request, key string, cal clock.Calendar) (int, time.Month, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		y, m, _ := cal.Today().Date()
		return y, m, nil
	}
	y, m, err := clock.ParseMonth(s)
	if err != nil {
		return 0, 0, apperr.Validation("INVALID_INPUT", err.Error(), map[string]string{key: "datetime=2006-01"})
	}
	return y, m, nil
}

// dateParam parses ?key=YYYY-MM-DD; an absent key yields def.
func dateParam(r *http.Request, key string, def time.Time) (time.Time, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	d, err := clock.ParseDate(s)
	if err != nil {
		return time.Time{}, apperr.Validation("INVALID_INPUT", err.Error(), map[string]string{key: "datetime=2006-01-02"})
	}
	return d, nil
}

func intParam(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperr.Validation("INVALID_INPUT", key+" must be an integer", map[string]string{key: "numeric"})
	}
	return n, nil
}
