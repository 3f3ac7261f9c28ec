package services

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"cmspanel/internal/logger"
	"cmspanel/internal/models"
	"cmspanel/internal/utils"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// Мок-хранилище токенов сброса. Consume повторяет семантику условного
// UPDATE: под общим мьютексом строку получает ровно один вызов.
type mockResetRepo struct {
	mu           sync.Mutex
	tokens       map[string]*models.PasswordResetToken
	passwords    map[int64]string
	nextID       int64
	usersByEmail map[string]int64
	consumeErr   error
}

func newMockResetRepo() *mockResetRepo {
	return &mockResetRepo{
		tokens:       make(map[string]*models.PasswordResetToken),
		passwords:    make(map[int64]string),
		usersByEmail: make(map[string]int64),
	}
}

func (m *mockResetRepo) Create(_ context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, t := range m.tokens {
		if t.UserID == userID && t.UsedAt == nil {
			used := now
			t.UsedAt = &used
		}
	}
	m.nextID++
	m.tokens[tokenHash] = &models.PasswordResetToken{
		ID:        m.nextID,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	return nil
}

func (m *mockResetRepo) GetByHash(_ context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenHash]
	if !ok {
		return nil, errors.New("no rows")
	}
	cp := *t
	return &cp, nil
}

func (m *mockResetRepo) Consume(_ context.Context, tokenHash, newPasswordHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consumeErr != nil {
		return false, m.consumeErr
	}
	t, ok := m.tokens[tokenHash]
	if !ok || t.UsedAt != nil || !t.ExpiresAt.After(time.Now()) {
		return false, nil
	}
	now := time.Now()
	t.UsedAt = &now
	m.passwords[t.UserID] = newPasswordHash
	return true, nil
}

func (m *mockResetRepo) UpdateUserPassword(_ context.Context, userID int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passwords[userID] = passwordHash
	return nil
}

func (m *mockResetRepo) FindUserIDByEmail(_ context.Context, email string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.usersByEmail[strings.ToLower(email)]
	if !ok {
		return 0, errors.New("no rows")
	}
	return id, nil
}

func (m *mockResetRepo) DeleteStale(_ context.Context, usedOlderThan time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for h, t := range m.tokens {
		if t.ExpiresAt.Before(time.Now()) {
			delete(m.tokens, h)
			n++
		}
	}
	return n, nil
}

// Мок-отправитель: запоминает письма, умеет отдавать ошибку.
type mockSender struct {
	mu    sync.Mutex
	links []string
	err   error
}

func (m *mockSender) SendPasswordReset(_ context.Context, to, resetLink string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.links = append(m.links, resetLink)
	return nil
}

func (m *mockSender) lastToken(t *testing.T) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.links) == 0 {
		t.Fatal("письмо не отправлено")
	}
	link := m.links[len(m.links)-1]
	i := strings.Index(link, "token=")
	if i < 0 {
		t.Fatalf("в ссылке нет токена: %s", link)
	}
	return link[i+len("token="):]
}

func newPasswordServiceForTest(repo *mockResetRepo, sender *mockSender, ttl time.Duration) *PasswordService {
	return NewPasswordService(repo, sender, "https://example.com", ttl)
}

func TestRequestReset_UnknownEmailSilent(t *testing.T) {
	repo := newMockResetRepo()
	sender := &mockSender{}
	svc := newPasswordServiceForTest(repo, sender, time.Hour)

	if err := svc.RequestReset(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("для неизвестного email ожидался nil, получено: %v", err)
	}
	if len(sender.links) != 0 {
		t.Fatal("письмо не должно отправляться на неизвестный email")
	}
}

func TestResetPassword_FullCycle(t *testing.T) {
	repo := newMockResetRepo()
	repo.usersByEmail["user@example.com"] = 7
	sender := &mockSender{}
	svc := newPasswordServiceForTest(repo, sender, time.Hour)

	if err := svc.RequestReset(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("ошибка запроса сброса: %v", err)
	}
	token := sender.lastToken(t)

	if err := svc.ResetPassword(context.Background(), token, "new-password-1"); err != nil {
		t.Fatalf("ошибка сброса пароля: %v", err)
	}

	hash, ok := repo.passwords[7]
	if !ok {
		t.Fatal("пароль пользователя не обновлён")
	}
	if !utils.CheckPasswordHash("new-password-1", hash) {
		t.Fatal("сохранён неверный хеш пароля")
	}

	// Повторное гашение того же токена
	err := svc.ResetPassword(context.Background(), token, "another-password")
	if !errors.Is(err, ErrTokenUsed) {
		t.Fatalf("ожидалась ErrTokenUsed, получено: %v", err)
	}
}

func TestResetPassword_InvalidToken(t *testing.T) {
	repo := newMockResetRepo()
	sender := &mockSender{}
	svc := newPasswordServiceForTest(repo, sender, time.Hour)

	err := svc.ResetPassword(context.Background(), "bogus-token", "new-password-1")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("ожидалась ErrTokenInvalid, получено: %v", err)
	}
}

func TestResetPassword_Expired(t *testing.T) {
	repo := newMockResetRepo()
	repo.usersByEmail["user@example.com"] = 3
	sender := &mockSender{}
	svc := newPasswordServiceForTest(repo, sender, -time.Minute) // токен рождается уже просроченным

	if err := svc.RequestReset(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("ошибка запроса сброса: %v", err)
	}
	token := sender.lastToken(t)

	err := svc.ResetPassword(context.Background(), token, "new-password-1")
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("ожидалась ErrTokenExpired, получено: %v", err)
	}
	if _, ok := repo.passwords[3]; ok {
		t.Fatal("пароль не должен меняться по просроченному токену")
	}
}

func TestResetPassword_TooShort(t *testing.T) {
	repo := newMockResetRepo()
	svc := newPasswordServiceForTest(repo, &mockSender{}, time.Hour)

	err := svc.ResetPassword(context.Background(), "whatever", "short")
	if !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("ожидалась ErrPasswordTooShort, получено: %v", err)
	}
}

func TestRequestReset_ReissueRetiresPrevious(t *testing.T) {
	repo := newMockResetRepo()
	repo.usersByEmail["user@example.com"] = 5
	sender := &mockSender{}
	svc := newPasswordServiceForTest(repo, sender, time.Hour)

	if err := svc.RequestReset(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("ошибка первого запроса: %v", err)
	}
	first := sender.lastToken(t)

	if err := svc.RequestReset(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("ошибка второго запроса: %v", err)
	}
	second := sender.lastToken(t)

	// Старый токен погашен при выдаче нового
	if err := svc.ResetPassword(context.Background(), first, "new-password-1"); !errors.Is(err, ErrTokenUsed) {
		t.Fatalf("старый токен должен быть погашен, получено: %v", err)
	}

	// Новый — работает
	if err := svc.ResetPassword(context.Background(), second, "new-password-1"); err != nil {
		t.Fatalf("новый токен должен сработать: %v", err)
	}
}

func TestRequestReset_SenderFailureKeepsToken(t *testing.T) {
	repo := newMockResetRepo()
	repo.usersByEmail["user@example.com"] = 9
	sender := &mockSender{err: errors.New("smtp down")}
	svc := newPasswordServiceForTest(repo, sender, time.Hour)

	if err := svc.RequestReset(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("сбой отправки не должен отдавать ошибку наружу: %v", err)
	}

	// Токен создан и остаётся действующим, несмотря на сбой почты
	var active int
	for _, tok := range repo.tokens {
		if tok.UserID == 9 && tok.UsedAt == nil {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("ожидался один действующий токен, найдено: %d", active)
	}
}

func TestResetPassword_ConcurrentSingleWinner(t *testing.T) {
	repo := newMockResetRepo()
	repo.usersByEmail["user@example.com"] = 11
	sender := &mockSender{}
	svc := newPasswordServiceForTest(repo, sender, time.Hour)

	if err := svc.RequestReset(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("ошибка запроса сброса: %v", err)
	}
	token := sender.lastToken(t)

	const workers = 50
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.ResetPassword(context.Background(), token, "new-password-1")
		}(i)
	}
	wg.Wait()

	var success, used int
	for _, err := range errs {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrTokenUsed):
			used++
		default:
			t.Fatalf("неожиданная ошибка при гонке: %v", err)
		}
	}

	if success != 1 {
		t.Fatalf("успешным должен быть ровно один запрос, получилось: %d", success)
	}
	if used != workers-1 {
		t.Fatalf("остальные должны получить ErrTokenUsed, получили: %d", used)
	}
	if _, ok := repo.passwords[11]; !ok {
		t.Fatal("пароль победителя не записан")
	}
}

func TestResetPassword_StorageErrorPropagates(t *testing.T) {
	repo := newMockResetRepo()
	repo.consumeErr = errors.New("db down")
	svc := newPasswordServiceForTest(repo, &mockSender{}, time.Hour)

	err := svc.ResetPassword(context.Background(), "whatever", "new-password-1")
	if err == nil || errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("ошибка хранилища не должна маскироваться под невалидный токен: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	repo := newMockResetRepo()
	svc := newPasswordServiceForTest(repo, &mockSender{}, time.Hour)

	oldHash, _ := utils.HashPassword("old-password")

	if _, err := svc.ChangePassword(context.Background(), 1, "wrong", "new-password-1", oldHash); err == nil {
		t.Fatal("ожидалась ошибка при неверном старом пароле")
	}

	newHash, err := svc.ChangePassword(context.Background(), 1, "old-password", "new-password-1", oldHash)
	if err != nil {
		t.Fatalf("ошибка смены пароля: %v", err)
	}
	if !utils.CheckPasswordHash("new-password-1", newHash) {
		t.Fatal("новый хеш не соответствует паролю")
	}
	if repo.passwords[1] != newHash {
		t.Fatal("новый хеш не сохранён в хранилище")
	}
}
