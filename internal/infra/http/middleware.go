package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/gym-console/internal/apperr"
	"github.com/Spok95/gym-console/internal/auth"
)

const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// withRequestID keeps a well-formed incoming X-Request-ID or assigns a new one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// RequestRecorder receives per-request measurements.
type RequestRecorder interface {
	Request(route, code string, seconds float64)
}

// accessLog must wrap the mux directly: the mux fills r.Pattern on the
// request it is handed, which is what labels the route.
func accessLog(log *slog.Logger, rec RequestRecorder, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(sr, r)
		if sr.status == 0 {
			sr.status = http.StatusOK
		}
		elapsed := time.Since(start)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		if rec != nil {
			rec.Request(route, strconv.Itoa(sr.status), elapsed.Seconds())
		}
		log.Info("http request",
			"request_id", RequestID(r.Context()),
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"status", sr.status,
			"bytes", sr.bytes,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

func recoverer(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				log.Error("panic in handler", "path", r.URL.Path, "panic", v)
				writeJSON(w, http.StatusInternalServerError, apperr.Internal("internal error", nil))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// TokenVerifier is satisfied by *auth.Issuer.
type TokenVerifier interface {
	Verify(raw string) (int64, error)
}

func requireTenant(v TokenVerifier, log *slog.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, r, log, apperr.Unauthorized("missing bearer token"))
			return
		}
		tenantID, err := v.Verify(strings.TrimSpace(raw))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		next(w, r.WithContext(auth.WithTenant(r.Context(), tenantID)))
	}
}

func tenantID(r *http.Request) int64 {
	id, _ := auth.TenantID(r.Context())
	return id
}
