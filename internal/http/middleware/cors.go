package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/kspl/approval-api/internal/config"
	"go.uber.org/zap"
)

func isDevEnvironment(environment string) bool {
	return environment == "development" || environment == "local" || environment == ""
}

// allowAnyOrigin reflects whatever Origin header arrives. Only safe behind
// an explicit wildcard config or in development.
func allowAnyOrigin(r *http.Request, origin string) bool {
	return origin != ""
}

// CORS builds the cross-origin middleware from config. An empty origin list
// means "allow everything" in development and "deny everything" in
// production, so a misconfigured deployment fails closed.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	switch {
	case hasWildcard(cfg.AllowedOrigins):
		if !isDevEnvironment(environment) {
			logger.Warn("cors wildcard origin outside development",
				zap.String("environment", environment))
		}
		options.AllowOriginFunc = allowAnyOrigin

	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("cors restricted to configured origins",
			zap.Strings("origins", cfg.AllowedOrigins))

	case isDevEnvironment(environment):
		options.AllowOriginFunc = allowAnyOrigin
		logger.Info("cors open to all origins in development")

	default:
		// The cors package treats an empty AllowedOrigins as "*", so denial
		// has to go through AllowOriginFunc.
		options.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
		logger.Warn("cors has no allowed origins, cross-origin requests will be rejected",
			zap.String("environment", environment))
	}

	return cors.Handler(options)
}

func hasWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
