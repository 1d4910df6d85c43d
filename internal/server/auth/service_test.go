package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peopledesk/hrms/internal/models"
	"github.com/peopledesk/hrms/internal/server/googleid"
	"github.com/peopledesk/hrms/internal/server/storage"
	"github.com/peopledesk/hrms/internal/server/token"
)

// mockUserStorage is a mock implementation of storage.UserStorage for testing
type mockUserStorage struct {
	users        map[string]*models.User // email -> User
	getError     error
	createError  error
	setError     error
	createdUsers []string // emails of created users, in order
	setTokens    []string // all refresh tokens set, in order
}

func newMockUserStorage() *mockUserStorage {
	return &mockUserStorage{users: make(map[string]*models.User)}
}

func (m *mockUserStorage) CreateUser(ctx context.Context, user *models.User) error {
	if m.createError != nil {
		return m.createError
	}
	if _, exists := m.users[user.Email]; exists {
		return storage.ErrUserAlreadyExists
	}
	u := *user
	m.users[user.Email] = &u
	m.createdUsers = append(m.createdUsers, user.Email)
	return nil
}

func (m *mockUserStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	user, ok := m.users[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (m *mockUserStorage) GetUserByRefreshToken(ctx context.Context, tok string) (*models.User, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	for _, user := range m.users {
		// совпадать должен только активный аккаунт
		if user.RefreshToken != nil && *user.RefreshToken == tok && user.IsActive {
			u := *user
			return &u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) UpdateProfile(ctx context.Context, email string, name, picture *string) error {
	user, ok := m.users[email]
	if !ok {
		return storage.ErrUserNotFound
	}
	user.Name = name
	user.Picture = picture
	return nil
}

func (m *mockUserStorage) SetRefreshToken(ctx context.Context, email, tok string) error {
	if m.setError != nil {
		return m.setError
	}
	user, ok := m.users[email]
	if !ok {
		return storage.ErrUserNotFound
	}
	user.RefreshToken = &tok
	m.setTokens = append(m.setTokens, tok)
	return nil
}

func (m *mockUserStorage) ClearRefreshToken(ctx context.Context, email string) (bool, error) {
	user, ok := m.users[email]
	if !ok {
		return false, nil
	}
	user.RefreshToken = nil
	return true, nil
}

func (m *mockUserStorage) UpdateLastLogin(ctx context.Context, email string, lastLogin time.Time) error {
	if user, ok := m.users[email]; ok {
		user.LastLogin = &lastLogin
	}
	return nil
}

// mockVerifier is a mock implementation of IdentityVerifier for testing
type mockVerifier struct {
	claims *googleid.Claims
	err    error
	calls  int
}

func (m *mockVerifier) VerifyIdentity(ctx context.Context, idToken string) (*googleid.Claims, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.claims, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCodec(t *testing.T) *token.Codec {
	t.Helper()
	codec, err := token.New("test-secret", "HS256", 15*time.Minute, 15*24*time.Hour)
	require.NoError(t, err)
	return codec
}

func newTestService(t *testing.T, verifier IdentityVerifier) (*Service, *mockUserStorage, *token.Codec) {
	t.Helper()
	users := newMockUserStorage()
	codec := newTestCodec(t)
	return NewService(testLogger(), users, codec, verifier), users, codec
}

func googleClaims(email string) *googleid.Claims {
	return &googleid.Claims{
		Email:   email,
		Name:    "Test User",
		Picture: "https://example.com/a.png",
	}
}

func TestLogin_CreatesUserOnFirstLogin(t *testing.T) {
	ctx := context.Background()
	verifier := &mockVerifier{claims: googleClaims("a@x.com")}
	svc, users, codec := newTestService(t, verifier)

	res, err := svc.Login(ctx, "google-token")
	require.NoError(t, err)

	// Создан ровно один аккаунт
	assert.Equal(t, []string{"a@x.com"}, users.createdUsers)
	assert.Equal(t, "a@x.com", res.User.Email)
	assert.True(t, res.User.IsActive)
	require.NotNil(t, res.User.Name)
	assert.Equal(t, "Test User", *res.User.Name)

	// Access token валиден и имеет правильный вид
	claims, err := codec.Verify(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, token.KindAccess, claims.Kind())
	assert.Equal(t, "a@x.com", claims.Subject)

	// Refresh token сохранен в хранилище
	stored := users.users["a@x.com"]
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, res.RefreshToken, *stored.RefreshToken)
}

func TestLogin_RepeatLoginUpdatesProfileWithoutDuplicate(t *testing.T) {
	ctx := context.Background()
	verifier := &mockVerifier{claims: googleClaims("a@x.com")}
	svc, users, _ := newTestService(t, verifier)

	_, err := svc.Login(ctx, "google-token")
	require.NoError(t, err)

	// Второй вход с обновленным профилем
	verifier.claims = &googleid.Claims{Email: "a@x.com", Name: "Renamed", Picture: "https://example.com/b.png"}
	res, err := svc.Login(ctx, "google-token")
	require.NoError(t, err)

	// Дубликат не создан, имя и аватар обновлены
	assert.Equal(t, []string{"a@x.com"}, users.createdUsers)
	require.NotNil(t, res.User.Name)
	assert.Equal(t, "Renamed", *res.User.Name)
	require.NotNil(t, users.users["a@x.com"].Picture)
	assert.Equal(t, "https://example.com/b.png", *users.users["a@x.com"].Picture)
}

func TestLogin_VerifierErrorsPropagateWithoutMutation(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "invalid token", err: googleid.ErrInvalidToken, wantErr: googleid.ErrInvalidToken},
		{name: "verifier unavailable", err: googleid.ErrUnavailable, wantErr: googleid.ErrUnavailable},
		{name: "missing email claim", err: googleid.ErrNoEmail, wantErr: googleid.ErrNoEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &mockVerifier{err: tt.err}
			svc, users, _ := newTestService(t, verifier)

			res, err := svc.Login(context.Background(), "google-token")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, res)

			// До успешной проверки идентичности хранилище не тронуто
			assert.Empty(t, users.createdUsers)
			assert.Empty(t, users.setTokens)
		})
	}
}

func TestLogin_DeactivatedAccountRejected(t *testing.T) {
	ctx := context.Background()
	verifier := &mockVerifier{claims: googleClaims("a@x.com")}
	svc, users, _ := newTestService(t, verifier)

	_, err := svc.Login(ctx, "google-token")
	require.NoError(t, err)

	users.users["a@x.com"].IsActive = false

	res, err := svc.Login(ctx, "google-token")
	assert.ErrorIs(t, err, ErrUserInactive)
	assert.Nil(t, res)
}

func TestRefresh_RotationInvalidatesPreviousToken(t *testing.T) {
	ctx := context.Background()
	verifier := &mockVerifier{claims: googleClaims("a@x.com")}
	svc, users, _ := newTestService(t, verifier)

	loginRes, err := svc.Login(ctx, "google-token")
	require.NoError(t, err)
	t1 := loginRes.RefreshToken

	// Refresh(T1) успешен, в хранилище теперь T2 != T1
	refreshRes, err := svc.Refresh(ctx, t1)
	require.NoError(t, err)
	t2 := refreshRes.RefreshToken
	assert.NotEqual(t, t1, t2)
	assert.NotEmpty(t, refreshRes.AccessToken)

	stored := users.users["a@x.com"]
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, t2, *stored.RefreshToken)

	// Повтор Refresh(T1) — токен уже ротирован
	res, err := svc.Refresh(ctx, t1)
	assert.ErrorIs(t, err, ErrSessionRevoked)
	assert.Nil(t, res)

	// А T2 продолжает работать
	_, err = svc.Refresh(ctx, t2)
	assert.NoError(t, err)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	ctx := context.Background()
	verifier := &mockVerifier{claims: googleClaims("a@x.com")}
	svc, _, _ := newTestService(t, verifier)

	loginRes, err := svc.Login(ctx, "google-token")
	require.NoError(t, err)

	// Access token вместо refresh — отказ без очистки cookie
	res, err := svc.Refresh(ctx, loginRes.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.NotErrorIs(t, err, ErrSessionRevoked)
	assert.Nil(t, res)
}

func TestRefresh_MissingOrGarbageToken(t *testing.T) {
	svc, _, _ := newTestService(t, &mockVerifier{})

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "garbage token", token: "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Refresh(context.Background(), tt.token)
			assert.ErrorIs(t, err, ErrUnauthenticated)
			assert.Nil(t, res)
		})
	}
}

func TestRefresh_ExpiredToken(t *testing.T) {
	svc, _, codec := newTestService(t, &mockVerifier{})

	expired, err := codec.Issue("a@x.com", token.KindRefresh, -time.Minute)
	require.NoError(t, err)

	res, err := svc.Refresh(context.Background(), expired)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Nil(t, res)
}

func TestRefresh_SubjectMismatchTreatedAsRevoked(t *testing.T) {
	ctx := context.Background()
	svc, users, codec := newTestService(t, &mockVerifier{})

	// Валидный токен для b@x.com, но зарегистрирован он в слоте a@x.com
	tok, err := codec.IssueRefresh("b@x.com")
	require.NoError(t, err)

	users.users["a@x.com"] = &models.User{
		ID:           "u1",
		Email:        "a@x.com",
		RefreshToken: &tok,
		IsActive:     true,
	}

	res, err := svc.Refresh(ctx, tok)
	assert.ErrorIs(t, err, ErrSessionRevoked)
	assert.Nil(t, res)
}

func TestRefresh_InactiveAccountDoesNotMatch(t *testing.T) {
	ctx := context.Background()
	svc, users, codec := newTestService(t, &mockVerifier{})

	tok, err := codec.IssueRefresh("a@x.com")
	require.NoError(t, err)

	users.users["a@x.com"] = &models.User{
		ID:           "u1",
		Email:        "a@x.com",
		RefreshToken: &tok,
		IsActive:     false,
	}

	res, err := svc.Refresh(ctx, tok)
	assert.ErrorIs(t, err, ErrSessionRevoked)
	assert.Nil(t, res)
}

func TestLogout_Idempotent(t *testing.T) {
	ctx := context.Background()
	verifier := &mockVerifier{claims: googleClaims("a@x.com")}
	svc, users, _ := newTestService(t, verifier)

	loginRes, err := svc.Login(ctx, "google-token")
	require.NoError(t, err)

	// Первый выход очищает слот
	svc.Logout(ctx, loginRes.RefreshToken)
	assert.Nil(t, users.users["a@x.com"].RefreshToken)

	// Повторный выход, пустой и мусорный токены — без паники и ошибок
	svc.Logout(ctx, loginRes.RefreshToken)
	svc.Logout(ctx, "")
	svc.Logout(ctx, "garbage")
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()
	verifier := &mockVerifier{claims: googleClaims("a@x.com")}
	svc, users, codec := newTestService(t, verifier)

	loginRes, err := svc.Login(ctx, "google-token")
	require.NoError(t, err)

	refreshTok, err := codec.IssueRefresh("a@x.com")
	require.NoError(t, err)

	expiredTok, err := codec.Issue("a@x.com", token.KindAccess, -time.Minute)
	require.NoError(t, err)

	orphanTok, _, err := codec.IssueAccess("gone@x.com")
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{name: "valid access token", header: "Bearer " + loginRes.AccessToken, wantErr: nil},
		{name: "lowercase bearer accepted", header: "bearer " + loginRes.AccessToken, wantErr: nil},
		{name: "missing header", header: "", wantErr: ErrUnauthenticated},
		{name: "basic scheme rejected", header: "Basic xyz", wantErr: ErrUnauthenticated},
		{name: "no token after scheme", header: "Bearer ", wantErr: ErrUnauthenticated},
		{name: "refresh token rejected", header: "Bearer " + refreshTok, wantErr: ErrUnauthenticated},
		{name: "expired token", header: "Bearer " + expiredTok, wantErr: ErrUnauthenticated},
		{name: "account vanished", header: "Bearer " + orphanTok, wantErr: ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.CurrentUser(ctx, tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "a@x.com", user.Email)
			}
		})
	}

	// Деактивированный аккаунт с валидным токеном — Forbidden, не 401
	users.users["a@x.com"].IsActive = false
	user, err := svc.CurrentUser(ctx, "Bearer "+loginRes.AccessToken)
	assert.ErrorIs(t, err, ErrUserInactive)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
	assert.Nil(t, user)
}

func TestCurrentUser_StorageFailure(t *testing.T) {
	ctx := context.Background()
	svc, users, codec := newTestService(t, &mockVerifier{})

	tok, _, err := codec.IssueAccess("a@x.com")
	require.NoError(t, err)

	users.getError = errors.New("disk on fire")

	user, err := svc.CurrentUser(ctx, "Bearer "+tok)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
	assert.Nil(t, user)
}
