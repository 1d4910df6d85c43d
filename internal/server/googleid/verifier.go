// Package googleid реализует адаптер проверки Google ID token через
// внешний tokeninfo endpoint. Доверие федеративной идентичности
// полностью делегировано Google — здесь только потребляется вердикт.
package googleid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultEndpoint = "https://oauth2.googleapis.com/tokeninfo"

// Таймаут исходящего вызова — единственный блокирующий сетевой вызов
// в подсистеме аутентификации
const defaultTimeout = 10 * time.Second

var (
	// ErrInvalidToken indicates the token was rejected by Google
	// (bad signature, wrong audience, expired)
	ErrInvalidToken = errors.New("invalid google id token")

	// ErrUnavailable indicates a network or Google-side failure;
	// the token itself was not judged
	ErrUnavailable = errors.New("token verification service unavailable")

	// ErrNoEmail indicates a verified payload without an email claim
	ErrNoEmail = errors.New("no email claim in google id token")
)

// Claims содержит проверенные Google данные пользователя
type Claims struct {
	Email   string
	Name    string
	Picture string
}

// tokeninfoResponse представляет ответ Google tokeninfo endpoint
type tokeninfoResponse struct {
	Audience string `json:"aud"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
}

// Verifier validates Google ID tokens issued for a specific OAuth
// client ID. Construct with New; no global state is read.
type Verifier struct {
	httpClient *http.Client
	clientID   string
	endpoint   string
}

// New creates a verifier bound to the deployment's Google client ID
func New(clientID string) *Verifier {
	return &Verifier{
		clientID: clientID,
		endpoint: defaultEndpoint,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// VerifyIdentity проверяет Google ID token и возвращает подтвержденные
// email/name/picture. Различает отказ Google (ErrInvalidToken) и
// недоступность сервиса (ErrUnavailable) — вызывающий использует это
// для выбора статуса и политики логирования.
func (v *Verifier) VerifyIdentity(ctx context.Context, idToken string) (*Claims, error) {
	if idToken == "" {
		return nil, ErrInvalidToken
	}

	reqURL := v.endpoint + "?id_token=" + url.QueryEscape(idToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// продолжаем разбор ответа
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// Google отверг токен
		return nil, ErrInvalidToken
	default:
		return nil, fmt.Errorf("%w: tokeninfo returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var info tokeninfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: failed to decode tokeninfo response: %w", ErrUnavailable, err)
	}

	// Токен должен быть выпущен для нашего client ID
	if info.Audience != v.clientID {
		return nil, ErrInvalidToken
	}

	if info.Email == "" {
		return nil, ErrNoEmail
	}

	return &Claims{
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}
