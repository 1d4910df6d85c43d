package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/peopledesk/hrms/internal/models"
	"github.com/peopledesk/hrms/internal/server/storage"
)

// CreateUser creates a new user account
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, picture, is_active, is_admin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Picture,
		user.IsActive,
		user.IsAdmin,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		// Проверяем на duplicate email
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

const userColumns = `id, email, name, picture, refresh_token, is_active, is_admin, last_login, created_at, updated_at`

// scanUser читает строку users в модель, разворачивая nullable колонки
func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var name, picture, refreshToken sql.NullString
	var lastLogin sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Email,
		&name,
		&picture,
		&refreshToken,
		&user.IsActive,
		&user.IsAdmin,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if name.Valid {
		user.Name = &name.String
	}
	if picture.Valid {
		user.Picture = &picture.String
	}
	if refreshToken.Valid {
		user.RefreshToken = &refreshToken.String
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}

	return user, nil
}

// GetUserByEmail retrieves user by email
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetUserByRefreshToken retrieves the active user holding the token.
// Деактивированные аккаунты не совпадают намеренно: их refresh token
// считается отозванным.
func (s *Storage) GetUserByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE refresh_token = ? AND is_active = 1`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by refresh token: %w", err)
	}

	return user, nil
}

// UpdateProfile updates display name and picture for the account
func (s *Storage) UpdateProfile(ctx context.Context, email string, name, picture *string) error {
	query := `UPDATE users SET name = ?, picture = ?, updated_at = ? WHERE email = ?`

	result, err := s.db.ExecContext(ctx, query, name, picture, time.Now(), email)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return requireRow(result, storage.ErrUserNotFound)
}

// SetRefreshToken overwrites the account's refresh token slot.
// Прежнее значение при этом теряется — истории токенов нет.
func (s *Storage) SetRefreshToken(ctx context.Context, email, token string) error {
	query := `UPDATE users SET refresh_token = ?, updated_at = ? WHERE email = ?`

	result, err := s.db.ExecContext(ctx, query, token, time.Now(), email)
	if err != nil {
		return fmt.Errorf("failed to set refresh token: %w", err)
	}

	return requireRow(result, storage.ErrUserNotFound)
}

// ClearRefreshToken empties the refresh token slot and reports whether
// an account existed to clear
func (s *Storage) ClearRefreshToken(ctx context.Context, email string) (bool, error) {
	query := `UPDATE users SET refresh_token = NULL, updated_at = ? WHERE email = ?`

	result, err := s.db.ExecContext(ctx, query, time.Now(), email)
	if err != nil {
		return false, fmt.Errorf("failed to clear refresh token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// UpdateLastLogin updates the last login timestamp
func (s *Storage) UpdateLastLogin(ctx context.Context, email string, lastLogin time.Time) error {
	query := `UPDATE users SET last_login = ? WHERE email = ?`

	result, err := s.db.ExecContext(ctx, query, lastLogin, email)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return requireRow(result, storage.ErrUserNotFound)
}

// requireRow возвращает notFound, если запрос не затронул ни одной строки
func requireRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return notFound
	}

	return nil
}
