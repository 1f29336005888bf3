package middleware

import (
	"net/http"
	"strconv"

	"github.com/kspl/approval-api/internal/config"
)

// SecurityHeaders attaches the configured browser hardening headers to every
// response and strips headers that advertise the server stack.
func SecurityHeaders(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	// The header set never changes at runtime, so build it once.
	static := map[string]string{}
	if cfg.ContentTypeNosniff {
		static["X-Content-Type-Options"] = "nosniff"
	}
	if cfg.FrameOptions != "" {
		static["X-Frame-Options"] = cfg.FrameOptions
	}
	if cfg.XSSProtection != "" {
		static["X-XSS-Protection"] = cfg.XSSProtection
	}
	if cfg.ContentSecurityPolicy != "" {
		static["Content-Security-Policy"] = cfg.ContentSecurityPolicy
	}
	if cfg.ReferrerPolicy != "" {
		static["Referrer-Policy"] = cfg.ReferrerPolicy
	}
	if cfg.PermissionsPolicy != "" {
		static["Permissions-Policy"] = cfg.PermissionsPolicy
	}
	if cfg.EnableHSTS {
		hsts := "max-age=" + strconv.Itoa(cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
		static["Strict-Transport-Security"] = hsts
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for name, value := range static {
				h.Set(name, value)
			}
			h.Del("X-Powered-By")
			h.Del("Server")

			next.ServeHTTP(w, r)
		})
	}
}
