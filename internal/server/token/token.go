// Package token реализует кодек подписанных токенов: выпуск и проверку
// JWT с субъектом (email), видом токена и сроком действия.
// Отзыв токенов здесь не проверяется — это задача оркестратора.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind различает виды выпускаемых токенов
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	// ErrInvalidToken indicates a malformed, badly signed or expired token
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnsupportedAlgorithm indicates a non-HMAC signing algorithm in config
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
)

// Claims представляет JWT claims приложения
type Claims struct {
	TokenType string `json:"type"` // access или refresh
	jwt.RegisteredClaims
}

// Kind возвращает вид токена
func (c *Claims) Kind() Kind {
	return Kind(c.TokenType)
}

// Codec выпускает и проверяет подписанные токены.
// Секрет, алгоритм и TTL задаются при конструировании, глобального
// состояния нет.
type Codec struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// New creates a token codec. Only the HMAC family (HS256/HS384/HS512)
// is accepted; anything else is a configuration error.
func New(secret, algorithm string, accessTTL, refreshTTL time.Duration) (*Codec, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}

	return &Codec{
		secret:     []byte(secret),
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// AccessTTL возвращает настроенное время жизни access token
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL возвращает настроенное время жизни refresh token
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess выпускает короткоживущий access token для субъекта.
// Возвращает токен и время жизни в секундах.
func (c *Codec) IssueAccess(subject string) (string, int64, error) {
	tokenString, err := c.Issue(subject, KindAccess, c.accessTTL)
	if err != nil {
		return "", 0, err
	}
	return tokenString, int64(c.accessTTL.Seconds()), nil
}

// IssueRefresh выпускает долгоживущий refresh token для субъекта
func (c *Codec) IssueRefresh(subject string) (string, error) {
	return c.Issue(subject, KindRefresh, c.refreshTTL)
}

// Issue выпускает подписанный токен с заданным видом и TTL.
// Побочных эффектов нет.
func (c *Codec) Issue(subject string, kind Kind, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		TokenType: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			// jti делает каждый выпущенный токен уникальным: ротация
			// в пределах одной секунды обязана дать другой токен
			ID: uuid.New().String(),
		},
	}

	tokenString, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Verify проверяет подпись и срок действия токена.
// Токен с exp <= now считается истекшим (строгое неравенство).
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Принимаем только HMAC подписи с нашим секретом
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
