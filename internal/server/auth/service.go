// Package auth реализует оркестратор аутентификации: вход через Google,
// ротацию refresh token, выход и разрешение текущей сессии.
// Состояние на сервере — только один refresh token на аккаунт
// (слот в строке пользователя); все остальное несет сам токен.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/peopledesk/hrms/internal/models"
	"github.com/peopledesk/hrms/internal/server/googleid"
	"github.com/peopledesk/hrms/internal/server/storage"
	"github.com/peopledesk/hrms/internal/server/token"
)

// IdentityVerifier проверяет федеративный identity token и возвращает
// подтвержденные claims. Реализуется googleid.Verifier, в тестах — моком.
type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, idToken string) (*googleid.Claims, error)
}

// Service координирует кодек токенов, внешний verifier и хранилище
// аккаунтов. Все операции — короткоживущие, в рамках одного запроса.
type Service struct {
	logger   *slog.Logger
	users    storage.UserStorage
	codec    *token.Codec
	verifier IdentityVerifier
}

// NewService создает оркестратор аутентификации
func NewService(logger *slog.Logger, users storage.UserStorage, codec *token.Codec, verifier IdentityVerifier) *Service {
	return &Service{
		logger:   logger,
		users:    users,
		codec:    codec,
		verifier: verifier,
	}
}

// LoginResult представляет результат успешного входа
type LoginResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string // вызывающий обязан отдать его только в cookie
	ExpiresIn    int64  // время жизни access token в секундах
}

// RefreshResult представляет результат успешной ротации
type RefreshResult struct {
	AccessToken  string
	RefreshToken string // новый refresh token взамен использованного
	ExpiresIn    int64
}

// Login проверяет Google ID token, создает или обновляет аккаунт и
// выпускает пару токенов. До успешной проверки идентичности никаких
// изменений в хранилище не происходит.
// Ошибки verifier (googleid.ErrInvalidToken, ErrUnavailable, ErrNoEmail)
// пробрасываются как есть — им соответствуют разные статусы и политика
// повторов на стороне вызывающего.
func (s *Service) Login(ctx context.Context, idToken string) (*LoginResult, error) {
	claims, err := s.verifier.VerifyIdentity(ctx, idToken)
	if err != nil {
		if errors.Is(err, googleid.ErrUnavailable) {
			s.logger.ErrorContext(ctx, "identity verifier unavailable", slog.Any("error", err))
		} else {
			s.logger.WarnContext(ctx, "identity verification failed", slog.Any("error", err))
		}
		return nil, err
	}

	user, err := s.upsertUser(ctx, claims)
	if err != nil {
		return nil, err
	}

	accessToken, expiresIn, err := s.codec.IssueAccess(user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, err := s.codec.IssueRefresh(user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	if err := s.users.SetRefreshToken(ctx, user.Email, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	// Не критично: вход состоялся даже если отметка не записалась
	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.Email, now); err != nil {
		s.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	} else {
		user.LastLogin = &now
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("email", user.Email))

	return &LoginResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

// upsertUser создает аккаунт при первом входе или обновляет имя и
// аватар при повторном — вход всегда освежает отображаемые данные
func (s *Service) upsertUser(ctx context.Context, claims *googleid.Claims) (*models.User, error) {
	name := optional(claims.Name)
	picture := optional(claims.Picture)

	user, err := s.users.GetUserByEmail(ctx, claims.Email)
	if err == nil {
		if !user.IsActive {
			s.logger.WarnContext(ctx, "login attempt for deactivated account",
				slog.String("email", user.Email))
			return nil, ErrUserInactive
		}
		if err := s.users.UpdateProfile(ctx, claims.Email, name, picture); err != nil {
			return nil, fmt.Errorf("failed to update user profile: %w", err)
		}
		user.Name = name
		user.Picture = picture
		return user, nil
	}

	if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	now := time.Now()
	user = &models.User{
		ID:        uuid.New().String(),
		Email:     claims.Email,
		Name:      name,
		Picture:   picture,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "new user created", slog.String("email", user.Email))
	return user, nil
}

// Refresh проверяет refresh token, сверяет его с зарегистрированным в
// хранилище и ротирует: новый refresh token замещает использованный,
// что делает повтор последнего невозможным.
//
// Различаются два отказа: ErrUnauthenticated (токен не прошел проверку
// или не того вида — cookie не трогаем, сигнал остается для аудита) и
// ErrSessionRevoked (токен валиден, но уже не зарегистрирован —
// cookie следует очистить).
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		s.logger.WarnContext(ctx, "refresh token verification failed", slog.Any("error", err))
		return nil, ErrUnauthenticated
	}

	if claims.Kind() != token.KindRefresh {
		s.logger.WarnContext(ctx, "wrong token kind presented for refresh",
			slog.String("kind", string(claims.Kind())))
		return nil, ErrUnauthenticated
	}

	// Единственная точка отзыва: токен обязан совпадать с текущим
	// значением слота активного аккаунта
	user, err := s.users.GetUserByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.logger.WarnContext(ctx, "refresh token not registered, possible reuse after rotation",
				slog.String("subject", claims.Subject))
			return nil, ErrSessionRevoked
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	// Subject внутри токена обязан совпадать с email найденного
	// аккаунта; расхождение равнозначно "не найден"
	if claims.Subject != user.Email {
		s.logger.WarnContext(ctx, "refresh token subject mismatch",
			slog.String("subject", claims.Subject))
		return nil, ErrSessionRevoked
	}

	accessToken, expiresIn, err := s.codec.IssueAccess(user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	newRefreshToken, err := s.codec.IssueRefresh(user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	// Ротация: перезапись слота инвалидирует только что использованный
	// токен. Гонка одновременных refresh решается последней записью.
	if err := s.users.SetRefreshToken(ctx, user.Email, newRefreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "tokens refreshed", slog.String("email", user.Email))

	return &RefreshResult{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

// Logout отзывает refresh token аккаунта, если его удается установить.
// Операция никогда не возвращает ошибку: выход обязан выглядеть
// успешным для клиента независимо от состояния на сервере.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}

	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		s.logger.WarnContext(ctx, "unverifiable token during logout, clearing cookie anyway",
			slog.Any("error", err))
		return
	}

	if claims.Subject == "" {
		s.logger.WarnContext(ctx, "no subject in refresh token during logout")
		return
	}

	cleared, err := s.users.ClearRefreshToken(ctx, claims.Subject)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to clear refresh token during logout",
			slog.Any("error", err))
		return
	}

	if cleared {
		s.logger.InfoContext(ctx, "user logged out", slog.String("email", claims.Subject))
	}
}

// CurrentUser разрешает аккаунт по заголовку Authorization.
// Сверки с хранилищем для access token нет намеренно: они
// неотзываемы до естественного истечения, короткий TTL ограничивает
// окно после деактивации аккаунта.
func (s *Service) CurrentUser(ctx context.Context, authHeader string) (*models.User, error) {
	accessToken, err := BearerToken(authHeader)
	if err != nil {
		return nil, err
	}

	claims, err := s.codec.Verify(accessToken)
	if err != nil {
		s.logger.WarnContext(ctx, "access token verification failed", slog.Any("error", err))
		return nil, ErrUnauthenticated
	}

	if claims.Kind() != token.KindAccess {
		s.logger.WarnContext(ctx, "wrong token kind presented as access token",
			slog.String("kind", string(claims.Kind())))
		return nil, ErrUnauthenticated
	}

	user, err := s.users.GetUserByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.IsActive {
		s.logger.WarnContext(ctx, "inactive user attempted access", slog.String("email", user.Email))
		return nil, ErrUserInactive
	}

	return user, nil
}

// BearerToken извлекает токен из заголовка "Authorization: Bearer <token>".
// Отсутствие заголовка или другая схема — жесткий отказ, а не
// анонимный доступ.
func BearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrUnauthenticated
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrUnauthenticated
	}

	return parts[1], nil
}

// optional возвращает nil для пустой строки
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
