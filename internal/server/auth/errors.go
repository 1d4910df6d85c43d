package auth

import "errors"

// Типизированные ошибки операций аутентификации. HTTP-слой отображает
// их в статусы; внутри пакета нет ничего про HTTP.
var (
	// ErrUnauthenticated indicates a missing, malformed, expired or
	// wrong-kind token
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrSessionRevoked indicates a structurally valid refresh token
	// that is no longer the registered one (rotated away or revoked).
	// The HTTP layer clears the cookie on this error and only on it.
	ErrSessionRevoked = errors.New("refresh token revoked or superseded")

	// ErrUserNotFound indicates the account vanished between token
	// issuance and lookup
	ErrUserNotFound = errors.New("user not found")

	// ErrUserInactive indicates a deactivated account presenting an
	// otherwise valid token
	ErrUserInactive = errors.New("user account is inactive")
)
