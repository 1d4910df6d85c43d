package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/peopledesk/hrms/internal/models"
	"github.com/peopledesk/hrms/internal/server/auth"
	"github.com/peopledesk/hrms/pkg/api"
)

// UserResolver разрешает Authorization header в учетную запись
type UserResolver interface {
	// CurrentUser resolves the Authorization header value into the account it belongs to.
	CurrentUser(ctx context.Context, authHeader string) (*models.User, error)
}

type contextKey string

// UserKey - ключ контекста для аутентифицированного пользователя
const UserKey contextKey = "user"

// UserFromContext возвращает пользователя, положенного в контекст AuthMiddleware
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserKey).(*models.User)
	return user, ok
}

// AuthMiddleware создает middleware для проверки access token.
// Разрешенная учетная запись кладется в контекст запроса.
func AuthMiddleware(logger *slog.Logger, resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolver.CurrentUser(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrUserNotFound):
					logger.WarnContext(r.Context(), "token subject no longer exists")
					writeError(w, "user not found", http.StatusNotFound)
				case errors.Is(err, auth.ErrUserInactive):
					logger.WarnContext(r.Context(), "inactive account", slog.String("path", r.URL.Path))
					writeError(w, "account is deactivated", http.StatusForbidden)
				case errors.Is(err, auth.ErrUnauthenticated):
					writeError(w, "not authenticated", http.StatusUnauthorized)
				default:
					logger.ErrorContext(r.Context(), "failed to resolve current user", slog.Any("error", err))
					writeError(w, "internal server error", http.StatusInternalServerError)
				}
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)

			logger.DebugContext(ctx, "user authenticated", slog.String("email", user.Email))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly пропускает дальше только администраторов.
// Должен стоять после AuthMiddleware.
func AdminOnly(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, "not authenticated", http.StatusUnauthorized)
				return
			}
			if !user.IsAdmin {
				logger.WarnContext(r.Context(), "admin access denied",
					slog.String("email", user.Email),
					slog.String("path", r.URL.Path))
				writeError(w, "admin access required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeError отправляет JSON ответ с ошибкой
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: message})
}
