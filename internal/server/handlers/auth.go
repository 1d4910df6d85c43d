package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/peopledesk/hrms/internal/models"
	"github.com/peopledesk/hrms/internal/server/auth"
	"github.com/peopledesk/hrms/internal/server/googleid"
	"github.com/peopledesk/hrms/internal/server/middleware"
	"github.com/peopledesk/hrms/pkg/api"
)

const (
	// Имя и путь refresh cookie фиксированы: браузер отдает ее только
	// на refresh эндпоинт, access token передается исключительно в заголовке
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/auth/refresh"
)

// AuthService выполняет операции аутентификации
type AuthService interface {
	// Login verifies a Google ID token and issues a token pair for the account.
	Login(ctx context.Context, idToken string) (*auth.LoginResult, error)
	// Refresh rotates a registered refresh token into a fresh pair.
	Refresh(ctx context.Context, refreshToken string) (*auth.RefreshResult, error)
	// Logout revokes the refresh token if it can be attributed; never fails.
	Logout(ctx context.Context, refreshToken string)
	// CurrentUser resolves the Authorization header into the account it belongs to.
	CurrentUser(ctx context.Context, authHeader string) (*models.User, error)
}

// CookieConfig задает атрибуты refresh cookie, зависящие от окружения
type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
	MaxAge   int // время жизни refresh token в секундах
}

// AuthHandler обрабатывает запросы аутентификации
type AuthHandler struct {
	logger  *slog.Logger
	svc     AuthService
	cookies CookieConfig
}

// NewAuthHandler создает новый handler для аутентификации
func NewAuthHandler(logger *slog.Logger, svc AuthService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{
		logger:  logger,
		svc:     svc,
		cookies: cookies,
	}
}

// GoogleLogin обрабатывает POST /api/auth/google-login
// Вход по Google ID token, полученному фронтендом
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.GoogleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode login request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Token == "" {
		sendError(h.logger, w, "token is required", http.StatusBadRequest)
		return
	}

	res, err := h.svc.Login(ctx, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, googleid.ErrNoEmail):
			sendError(h.logger, w, "token has no email claim", http.StatusBadRequest)
		case errors.Is(err, googleid.ErrInvalidToken):
			sendError(h.logger, w, "invalid Google token", http.StatusUnauthorized)
		case errors.Is(err, googleid.ErrUnavailable):
			sendError(h.logger, w, "identity provider unavailable", http.StatusBadGateway)
		case errors.Is(err, auth.ErrUserInactive):
			sendError(h.logger, w, "account is deactivated", http.StatusForbidden)
		default:
			h.logger.ErrorContext(ctx, "login failed", slog.Any("error", err))
			sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.setRefreshCookie(w, res.RefreshToken)

	resp := api.LoginResponse{
		User: toUserResponse(res.User),
		Tokens: api.TokenResponse{
			AccessToken: res.AccessToken,
			TokenType:   "bearer",
			ExpiresIn:   res.ExpiresIn,
		},
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Refresh обрабатывает POST /api/auth/refresh
// Ротация refresh token из http-only cookie
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		sendError(h.logger, w, "refresh token missing", http.StatusUnauthorized)
		return
	}

	res, err := h.svc.Refresh(ctx, cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrSessionRevoked):
			// Токен валиден, но уже не зарегистрирован: cookie очищаем
			h.clearRefreshCookie(w)
			sendError(h.logger, w, "session revoked", http.StatusUnauthorized)
		case errors.Is(err, auth.ErrUnauthenticated):
			// Битый токен или не тот вид: cookie не трогаем
			sendError(h.logger, w, "invalid refresh token", http.StatusUnauthorized)
		default:
			h.logger.ErrorContext(ctx, "refresh failed", slog.Any("error", err))
			sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.setRefreshCookie(w, res.RefreshToken)

	resp := api.TokenResponse{
		AccessToken: res.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   res.ExpiresIn,
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Logout обрабатывает POST /api/auth/logout
// Выход всегда выглядит успешным для клиента: отзыв на сервере best-effort,
// cookie очищается в любом случае
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	refreshToken := ""
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		refreshToken = cookie.Value
	}

	h.svc.Logout(r.Context(), refreshToken)
	h.clearRefreshCookie(w)

	sendJSON(h.logger, w, api.LogoutResponse{Message: "Successfully logged out"}, http.StatusOK)
}

// Me обрабатывает GET /api/auth/me
// Пользователь уже разрешен AuthMiddleware
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		sendError(h.logger, w, "not authenticated", http.StatusUnauthorized)
		return
	}

	sendJSON(h.logger, w, toUserResponse(user), http.StatusOK)
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   h.cookies.MaxAge,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.cookies.SameSite,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.cookies.SameSite,
	})
}

// toUserResponse строит публичное представление учетной записи
func toUserResponse(user *models.User) api.UserResponse {
	return api.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Picture:   user.Picture,
		IsActive:  user.IsActive,
		IsAdmin:   user.IsAdmin,
		LastLogin: user.LastLogin,
	}
}
