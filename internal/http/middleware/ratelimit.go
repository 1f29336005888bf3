package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/kspl/approval-api/internal/auth"
	"github.com/kspl/approval-api/internal/config"
	"go.uber.org/zap"
)

// RateLimiter throttles requests per client. Unauthenticated traffic is
// keyed by IP; once the auth middleware has run, authenticated traffic is
// keyed by user ID with its own (usually higher) budget.
type RateLimiter struct {
	cfg         *config.RateLimitConfig
	logger      *zap.Logger
	anonymous   func(http.Handler) http.Handler
	perUser     func(http.Handler) http.Handler
	exemptIPs   map[string]struct{}
	exemptPaths map[string]struct{}
}

// NewRateLimiter creates a rate limiter from config
func NewRateLimiter(cfg *config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		cfg:         cfg,
		logger:      logger,
		exemptIPs:   make(map[string]struct{}, len(cfg.WhitelistIPs)),
		exemptPaths: make(map[string]struct{}, len(cfg.WhitelistPaths)),
	}
	for _, ip := range cfg.WhitelistIPs {
		rl.exemptIPs[ip] = struct{}{}
	}
	for _, path := range cfg.WhitelistPaths {
		rl.exemptPaths[path] = struct{}{}
	}

	rl.anonymous = httprate.Limit(
		cfg.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rl.reject),
	)
	rl.perUser = httprate.Limit(
		cfg.RequestsPerMinuteAuth,
		time.Minute,
		httprate.WithKeyFuncs(rl.keyByUserOrIP),
		httprate.WithLimitHandler(rl.reject),
	)

	logger.Info("rate limiter configured",
		zap.Bool("enabled", cfg.Enabled),
		zap.Int("requests_per_minute", cfg.RequestsPerMinute),
		zap.Int("requests_per_minute_auth", cfg.RequestsPerMinuteAuth),
	)

	return rl
}

// Limit applies per-user limits when a user context is present, falling back
// to per-IP limits. Meant to run after authentication.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.exempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		if _, ok := auth.FromContext(r.Context()); ok {
			rl.perUser(next).ServeHTTP(w, r)
			return
		}
		rl.anonymous(next).ServeHTTP(w, r)
	})
}

// LimitByIP applies per-IP limits only. Meant to run before authentication.
func (rl *RateLimiter) LimitByIP(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.exempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		rl.anonymous(next).ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) exempt(r *http.Request) bool {
	if rl.pathExempt(r.URL.Path) {
		return true
	}
	_, ok := rl.exemptIPs[clientIP(r)]
	return ok
}

func (rl *RateLimiter) pathExempt(path string) bool {
	if _, ok := rl.exemptPaths[path]; ok {
		return true
	}
	// Entries ending in /* exempt the whole subtree
	for entry := range rl.exemptPaths {
		if prefix, ok := strings.CutSuffix(entry, "/*"); ok && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (rl *RateLimiter) keyByUserOrIP(r *http.Request) (string, error) {
	if userCtx, ok := auth.FromContext(r.Context()); ok {
		return "user:" + userCtx.UserID.String(), nil
	}
	return "ip:" + clientIP(r), nil
}

// clientIP resolves the originating address, honoring proxy headers
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimiter) reject(w http.ResponseWriter, r *http.Request) {
	fields := []zap.Field{
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.String("client_ip", clientIP(r)),
	}
	if userCtx, ok := auth.FromContext(r.Context()); ok {
		fields = append(fields, zap.String("user_id", userCtx.UserID.String()))
	}
	rl.logger.Warn("rate limit exceeded", fields...)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"rate limit exceeded","message":"Too many requests. Please try again later."}`))
}
