package models

import "time"

// User представляет учетную запись сотрудника в системе.
// Создается при первом успешном входе через Google и служит якорем
// для выдачи токенов (subject = email).
type User struct {
	ID           string     `json:"id"`         // UUID пользователя
	Email        string     `json:"email"`      // уникальный email, subject токенов
	Name         *string    `json:"name"`       // отображаемое имя из Google профиля
	Picture      *string    `json:"picture"`    // URL аватара из Google профиля
	RefreshToken *string    `json:"-"`          // текущий refresh token, максимум один
	IsActive     bool       `json:"is_active"`  // деактивированный аккаунт не аутентифицируется
	IsAdmin      bool       `json:"is_admin"`   // административные права
	LastLogin    *time.Time `json:"last_login"` // время последнего входа
	CreatedAt    time.Time  `json:"created_at"` // время создания
	UpdatedAt    time.Time  `json:"updated_at"` // время последнего обновления
}
