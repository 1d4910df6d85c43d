package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peopledesk/hrms/internal/server/auth"
	"github.com/peopledesk/hrms/internal/server/config"
	"github.com/peopledesk/hrms/internal/server/googleid"
	"github.com/peopledesk/hrms/internal/server/storage/sqlite"
	"github.com/peopledesk/hrms/internal/server/token"
	"github.com/peopledesk/hrms/pkg/api"
)

// stubVerifier принимает любой токен и возвращает фиксированные claims
type stubVerifier struct {
	email string
}

func (v *stubVerifier) VerifyIdentity(ctx context.Context, idToken string) (*googleid.Claims, error) {
	return &googleid.Claims{Email: v.email, Name: "Integration User"}, nil
}

// stubBlobs хранит содержимое документов в памяти
type stubBlobs struct {
	objects map[string][]byte
}

func (b *stubBlobs) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.objects[key] = data
	return nil
}

func (b *stubBlobs) PresignGet(ctx context.Context, key string) (string, time.Duration, error) {
	return "https://s3.local/" + key, 15 * time.Minute, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Env: "local",
		HTTPServer: config.HTTPServer{
			Address:      ":0",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  time.Minute,
		},
		Auth: config.Auth{
			JWTSecret:       "integration-secret",
			JWTAlgorithm:    "HS256",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 360 * time.Hour,
			GoogleClientID:  "client-id",
			SameSiteCookie:  "lax",
		},
		RateLimit: config.RateLimit{LoginRate: 100, LoginWindow: time.Minute},
	}
}

// newTestServer поднимает сервер с :memory: базой и стабами внешних систем
func newTestServer(t *testing.T, email string) (*httptest.Server, *sqlite.Storage) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	codec, err := token.New(cfg.Auth.JWTSecret, cfg.Auth.JWTAlgorithm,
		cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	require.NoError(t, err)

	authSvc := auth.NewService(logger, store, codec, &stubVerifier{email: email})

	srv := New(logger, cfg, authSvc, store, &stubBlobs{objects: make(map[string][]byte)}, "test")
	srv.limiter.Stop()

	ts := httptest.NewServer(srv.http.Handler)
	t.Cleanup(ts.Close)

	return ts, store
}

func login(t *testing.T, ts *httptest.Server) (api.LoginResponse, *http.Cookie) {
	t.Helper()

	body, _ := json.Marshal(api.GoogleLoginRequest{Token: "any-google-token"})
	resp, err := http.Post(ts.URL+"/api/auth/google-login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp api.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loginResp))

	for _, c := range resp.Cookies() {
		if c.Name == "refresh_token" {
			return loginResp, c
		}
	}
	t.Fatal("refresh cookie not set")
	return loginResp, nil
}

func TestServer_LoginRefreshLogoutFlow(t *testing.T) {
	ts, _ := newTestServer(t, "flow@example.com")

	loginResp, cookie := login(t, ts)
	assert.Equal(t, "flow@example.com", loginResp.User.Email)
	assert.Equal(t, "/api/auth/refresh", cookie.Path)
	assert.True(t, cookie.HttpOnly)

	// Access token открывает /api/auth/me
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Tokens.AccessToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Refresh по cookie ротирует токен
	req, _ = http.NewRequest(http.MethodPost, ts.URL+"/api/auth/refresh", nil)
	req.AddCookie(cookie)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rotated *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "refresh_token" {
			rotated = c
		}
	}
	require.NotNil(t, rotated)
	assert.NotEqual(t, cookie.Value, rotated.Value)

	// Повтор использованного токена отклоняется и очищает cookie
	req, _ = http.NewRequest(http.MethodPost, ts.URL+"/api/auth/refresh", nil)
	req.AddCookie(cookie)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Logout всегда успешен
	req, _ = http.NewRequest(http.MethodPost, ts.URL+"/api/auth/logout", nil)
	req.AddCookie(rotated)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_ProtectedRoutesRequireAuth(t *testing.T) {
	ts, _ := newTestServer(t, "flow@example.com")

	for _, route := range []string{"/api/auth/me", "/api/employees", "/api/employees/1"} {
		resp, err := http.Get(ts.URL + route)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, route)
	}
}

func TestServer_AdminGating(t *testing.T) {
	ts, store := newTestServer(t, "staff@example.com")

	loginResp, _ := login(t, ts)

	createBody, _ := json.Marshal(api.CreateEmployeeRequest{
		UserEmail:      "staff@example.com",
		EmployeeNumber: "EMP100",
		FirstName:      "Staff",
		LastName:       "Member",
	})

	// Обычный пользователь не может создавать профили
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/employees", bytes.NewReader(createBody))
	req.Header.Set("Authorization", "Bearer "+loginResp.Tokens.AccessToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Делаем пользователя администратором и повторяем
	_, err = store.DB().Exec("UPDATE users SET is_admin = 1 WHERE email = ?", "staff@example.com")
	require.NoError(t, err)

	req, _ = http.NewRequest(http.MethodPost, ts.URL+"/api/employees", bytes.NewReader(createBody))
	req.Header.Set("Authorization", "Bearer "+loginResp.Tokens.AccessToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var emp api.EmployeeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&emp))
	assert.Equal(t, "EMP100", emp.EmployeeNumber)

	// Созданный профиль виден владельцу через /api/employees/me
	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/api/employees/me", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Tokens.AccessToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Health(t *testing.T) {
	ts, _ := newTestServer(t, "x@example.com")

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"status":"ok"`))
}

func TestSameSiteMode(t *testing.T) {
	assert.Equal(t, http.SameSiteStrictMode, sameSiteMode("strict"))
	assert.Equal(t, http.SameSiteNoneMode, sameSiteMode("none"))
	assert.Equal(t, http.SameSiteLaxMode, sameSiteMode("lax"))
	assert.Equal(t, http.SameSiteLaxMode, sameSiteMode(""))
}
