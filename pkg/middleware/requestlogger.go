package middleware

import (
	"log/slog"
	"net/http"

	"github.com/crowrepuestos/storefront/pkg/logger"
)

// RequestLogger stores a request-scoped logger in context, enriched with
// the correlation ID, authenticated user, and active trace span when they
// are available. Handlers pick it up with logger.FromContext.
//
// Mount after RequestLogging and Tracing so both sources are populated.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID, ok := UserIDFromContext(ctx); ok && userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
