package httpapi

import (
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/dmitrijs2005/siteadmin/internal/common"
	"github.com/dmitrijs2005/siteadmin/internal/logging"
	"github.com/dmitrijs2005/siteadmin/internal/server/auth"
	"github.com/gorilla/mux"
)

// TokenVerifier checks a bearer token and returns the admin id it carries.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// statusRecorder captures the status code and whether the response has
// started.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// Logging logs one line per request.
func Logging(log logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.Info(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}

// Recovery turns a panic into a 500 with the generic server error body. If
// the handler already started its response, the panic is only logged.
func Recovery(log logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					log.Error(r.Context(), "panic in handler", "panic", p, "stack", string(debug.Stack()))
					if !rec.wroteHeader {
						writeMessage(w, http.StatusInternalServerError, msgServerError)
					}
				}
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

// MaxBytes limits request bodies to n bytes.
func MaxBytes(n int64) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}

// BearerAuth rejects requests without a valid bearer token and stores the
// admin id in the request context. All token rejections share one response.
func BearerAuth(v TokenVerifier, log logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.ParseBearer(r.Header.Get("Authorization"))
			if !ok {
				writeMessage(w, http.StatusUnauthorized, msgNotAuthorized)
				return
			}

			id, err := v.Verify(token)
			if err != nil {
				if errors.Is(err, auth.ErrMissingSigningSecret) {
					log.Error(r.Context(), "token verification unavailable", "error", err)
					writeMessage(w, http.StatusInternalServerError, msgServerError)
					return
				}
				log.Info(r.Context(), "bearer token rejected", "reason", tokenRejectReason(err))
				writeMessage(w, http.StatusUnauthorized, msgNotAuthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithAdminID(r.Context(), id)))
		})
	}
}

func tokenRejectReason(err error) string {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return "expired"
	case errors.Is(err, common.ErrInvalidSignature):
		return "bad signature"
	case errors.Is(err, common.ErrMalformedToken):
		return "malformed"
	default:
		return "invalid"
	}
}
