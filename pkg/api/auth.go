package api

import "time"

// GoogleLoginRequest представляет запрос на вход через Google
type GoogleLoginRequest struct {
	Token string `json:"token"` // Google ID token, полученный фронтендом
}

// UserResponse представляет публичное представление учетной записи
type UserResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      *string    `json:"name,omitempty"`
	Picture   *string    `json:"picture,omitempty"`
	IsActive  bool       `json:"is_active"`
	IsAdmin   bool       `json:"is_admin"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// TokenResponse представляет ответ с access token.
// Refresh token в теле ответа не передается — только в http-only cookie.
type TokenResponse struct {
	AccessToken string `json:"access_token"` // JWT access token
	TokenType   string `json:"token_type"`   // всегда "bearer"
	ExpiresIn   int64  `json:"expires_in"`   // время жизни access token в секундах
}

// LoginResponse представляет ответ на успешный вход
type LoginResponse struct {
	User   UserResponse  `json:"user"`
	Tokens TokenResponse `json:"tokens"`
}

// LogoutResponse представляет ответ на выход
type LogoutResponse struct {
	Message string `json:"message"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
