package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"cmspanel/internal/logger"
	"cmspanel/internal/models"
	"cmspanel/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// Минимальный мок хранилища токенов: один токен, CAS под мьютексом.
type fakeResetRepo struct {
	mu      sync.Mutex
	token   *models.PasswordResetToken
	userID  int64
	pwHash  string
	byEmail map[string]int64
}

func (f *fakeResetRepo) Create(_ context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = &models.PasswordResetToken{ID: 1, UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	return nil
}

func (f *fakeResetRepo) GetByHash(_ context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.token == nil || f.token.TokenHash != tokenHash {
		return nil, errors.New("no rows")
	}
	cp := *f.token
	return &cp, nil
}

func (f *fakeResetRepo) Consume(_ context.Context, tokenHash, newPasswordHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.token == nil || f.token.TokenHash != tokenHash || f.token.UsedAt != nil || !f.token.ExpiresAt.After(time.Now()) {
		return false, nil
	}
	now := time.Now()
	f.token.UsedAt = &now
	f.userID = f.token.UserID
	f.pwHash = newPasswordHash
	return true, nil
}

func (f *fakeResetRepo) UpdateUserPassword(_ context.Context, userID int64, passwordHash string) error {
	f.pwHash = passwordHash
	return nil
}

func (f *fakeResetRepo) FindUserIDByEmail(_ context.Context, email string) (int64, error) {
	id, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return 0, errors.New("no rows")
	}
	return id, nil
}

func (f *fakeResetRepo) DeleteStale(_ context.Context, _ time.Duration) (int64, error) { return 0, nil }

type fakeSender struct {
	mu    sync.Mutex
	links []string
}

func (s *fakeSender) SendPasswordReset(_ context.Context, _, link string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links = append(s.links, link)
	return nil
}

func (s *fakeSender) token(t *testing.T) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.links, "письмо не отправлено")
	link := s.links[len(s.links)-1]
	i := strings.Index(link, "token=")
	require.GreaterOrEqual(t, i, 0, "в ссылке нет токена")
	return link[i+len("token="):]
}

func newPasswordHandlerForTest(t *testing.T) (*PasswordHandler, *fakeResetRepo, *fakeSender) {
	t.Helper()
	repo := &fakeResetRepo{byEmail: map[string]int64{"user@example.com": 42}}
	sender := &fakeSender{}
	svc := services.NewPasswordService(repo, sender, "https://example.com", time.Hour)
	limiter := services.NewRateLimiter(nil) // без Redis лимитер пропускает всё
	return NewPasswordHandler(svc, nil, limiter, 5), repo, sender
}

func postJSON(h http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

func TestForgot_AlwaysGenericResponse(t *testing.T) {
	h, _, sender := newPasswordHandlerForTest(t)

	// Известный email
	rr := postJSON(h.Forgot, "/api/password/forgot", map[string]string{"email": "user@example.com"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, sender.links, 1)

	// Неизвестный email: тот же статус и то же тело
	rr2 := postJSON(h.Forgot, "/api/password/forgot", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusOK, rr2.Code)
	assert.Equal(t, rr.Body.String(), rr2.Body.String(), "ответы должны быть неотличимы")
	assert.Len(t, sender.links, 1, "письмо на неизвестный email не отправляется")
}

func TestForgot_BadPayload(t *testing.T) {
	h, _, _ := newPasswordHandlerForTest(t)

	rr := postJSON(h.Forgot, "/api/password/forgot", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postJSON(h.Forgot, "/api/password/forgot", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReset_Success(t *testing.T) {
	h, repo, sender := newPasswordHandlerForTest(t)

	postJSON(h.Forgot, "/api/password/forgot", map[string]string{"email": "user@example.com"})
	token := sender.token(t)

	rr := postJSON(h.Reset, "/api/password/reset", map[string]string{
		"token":        token,
		"new_password": "brand-new-password",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.EqualValues(t, 42, repo.userID)
	assert.NotEmpty(t, repo.pwHash)
}

func TestReset_ErrorCodes(t *testing.T) {
	h, _, sender := newPasswordHandlerForTest(t)

	postJSON(h.Forgot, "/api/password/forgot", map[string]string{"email": "user@example.com"})
	token := sender.token(t)

	// Неизвестный токен
	rr := postJSON(h.Reset, "/api/password/reset", map[string]string{
		"token":        "bogus",
		"new_password": "brand-new-password",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_token", decodeEnvelope(t, rr).Error)

	// Успешное гашение
	rr = postJSON(h.Reset, "/api/password/reset", map[string]string{
		"token":        token,
		"new_password": "brand-new-password",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	// Повторное гашение того же токена
	rr = postJSON(h.Reset, "/api/password/reset", map[string]string{
		"token":        token,
		"new_password": "brand-new-password",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "token_already_used", decodeEnvelope(t, rr).Error)
}

func TestReset_ExpiredToken(t *testing.T) {
	repo := &fakeResetRepo{byEmail: map[string]int64{"user@example.com": 42}}
	sender := &fakeSender{}
	// TTL отрицательный: токен рождается просроченным
	svc := services.NewPasswordService(repo, sender, "https://example.com", -time.Minute)
	h := NewPasswordHandler(svc, nil, services.NewRateLimiter(nil), 5)

	postJSON(h.Forgot, "/api/password/forgot", map[string]string{"email": "user@example.com"})
	token := sender.token(t)

	rr := postJSON(h.Reset, "/api/password/reset", map[string]string{
		"token":        token,
		"new_password": "brand-new-password",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "token_expired", decodeEnvelope(t, rr).Error)
}

func TestReset_ShortPassword(t *testing.T) {
	h, _, _ := newPasswordHandlerForTest(t)

	rr := postJSON(h.Reset, "/api/password/reset", map[string]string{
		"token":        "whatever",
		"new_password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
