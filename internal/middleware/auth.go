package middleware

import (
	"net/http"
	"strings"

	"github.com/todoforge/todoforge/internal/database"
	"github.com/todoforge/todoforge/internal/request"
	"github.com/todoforge/todoforge/internal/services/auth"
	"go.uber.org/zap"
)

// Auth creates authentication middleware that validates bearer tokens and
// resolves the account into the request context.
func Auth(tokens *auth.TokenManager, users database.UserRepositoryInterface, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized", "Missing Authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, http.StatusUnauthorized, "Unauthorized", "Invalid Authorization header format")
				return
			}

			ctx := r.Context()
			userID, err := tokens.Verify(ctx, parts[1])
			if err != nil {
				logger.Debug("token_verification_failed", zap.Error(err))
				writeError(w, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token")
				return
			}

			user, err := users.GetByID(ctx, userID)
			if err != nil {
				// A valid token naming a deleted account is still unauthorized
				writeError(w, http.StatusUnauthorized, "Unauthorized", "Unknown account")
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}
