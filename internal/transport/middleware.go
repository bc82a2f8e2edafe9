package transport

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bosflow/bosflow/internal/config"
	"github.com/bosflow/bosflow/internal/observability"
	"github.com/bosflow/bosflow/model"
)

type contextKey int

const (
	correlationIDCtxKey contextKey = iota
	claimsCtxKey
	capabilitiesCtxKey
)

const correlationHeader = "X-Correlation-Id"

// CorrelationIDFrom returns the correlation ID planted by RequestID, or
// an empty string outside the middleware chain.
func CorrelationIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDCtxKey).(string)
	return id
}

// WithClaims stashes verified JWT claims for BuildRequestContext.
func WithClaims(ctx context.Context, claims map[string]any) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// ClaimsFrom returns the verified claims, or nil when the request was
// not authenticated.
func ClaimsFrom(ctx context.Context) map[string]any {
	claims, _ := ctx.Value(claimsCtxKey).(map[string]any)
	return claims
}

// CapabilitiesFrom returns the resolved capability set, or nil when
// ResolveCapabilities did not run.
func CapabilitiesFrom(ctx context.Context) model.CapabilitySet {
	caps, _ := ctx.Value(capabilitiesCtxKey).(model.CapabilitySet)
	return caps
}

// Recovery turns a downstream panic into a 500 with the standard error
// envelope instead of a dropped connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
				)
				WriteError(w, model.NewInternalError())
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// CORS answers preflight requests and stamps the allow headers for
// origins on the configured list. Unlisted origins get no CORS headers
// at all.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := fmt.Sprintf("%d", cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := w.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Methods", methods)
					h.Set("Access-Control-Allow-Headers", headers)
					h.Set("Access-Control-Max-Age", maxAge)
					h.Set("Access-Control-Expose-Headers", correlationHeader)
					h.Set("Vary", "Origin")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID adopts the caller's X-Correlation-Id or mints one, and
// echoes it on the response so clients can quote it back.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(correlationHeader)
		if id == "" {
			id = newCorrelationID()
		}
		w.Header().Set(correlationHeader, id)
		ctx := context.WithValue(r.Context(), correlationIDCtxKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SecurityHeaders applies the baseline hardening headers to every
// response, API and UI endpoints alike.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "0")
		h.Set("Cache-Control", "no-store")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// BuildRequestContext assembles the model.RequestContext handlers and
// the capability resolver read: subject, email and roles from the
// verified claims, locale from the request, plus the correlation and
// trace IDs. With authentication disabled the claims are nil and the
// identity fields stay empty.
func BuildRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFrom(r.Context())
		rctx := &model.RequestContext{
			SubjectID:     claimString(claims, "sub"),
			Email:         claimString(claims, "email"),
			Roles:         claimStringSlice(claims, "roles"),
			Claims:        claims,
			Locale:        r.Header.Get("Accept-Language"),
			CorrelationID: CorrelationIDFrom(r.Context()),
			TraceID:       observability.TraceIDFromContext(r.Context()),
		}
		next.ServeHTTP(w, r.WithContext(model.WithRequestContext(r.Context(), rctx)))
	})
}

// ResolveCapabilities resolves the caller's capability set once per
// request and stores it for RequireCapability. Resolution failures are
// logged and leave the set absent, which downstream guards treat as
// no access.
func ResolveCapabilities(resolver model.CapabilityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rctx := model.RequestContextFrom(r.Context())
			if resolver != nil && rctx != nil {
				caps, err := resolver.Resolve(rctx)
				if err != nil {
					slog.Warn("capability resolution failed",
						"error", err,
						"subject_id", rctx.SubjectID,
					)
				} else {
					r = r.WithContext(context.WithValue(r.Context(), capabilitiesCtxKey, caps))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCapability guards a route with a single capability. A request
// carrying no capability set at all passes through: that only happens
// when authentication is disabled and no resolver is installed.
func RequireCapability(capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caps := CapabilitiesFrom(r.Context())
			if caps != nil && !caps.Has(capability) {
				WriteForbidden(w, fmt.Sprintf("Missing capability %q", capability))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HandlerTimeout bounds each request with a context deadline. Zero or
// negative disables the bound.
func HandlerTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogging emits one structured line per request after the
// handler returns.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"correlation_id", CorrelationIDFrom(r.Context()),
		)
	})
}

// statusRecorder captures the first status code written so the logging
// middleware can report it.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

func claimString(claims map[string]any, key string) string {
	v, _ := claims[key].(string)
	return v
}

func claimStringSlice(claims map[string]any, key string) []string {
	raw, ok := claims[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func newCorrelationID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
