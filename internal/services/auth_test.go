package services

import (
	"context"
	"errors"
	"testing"

	"cmspanel/internal/config"
	"cmspanel/internal/models"
	"cmspanel/internal/utils"
)

// Мок-репозиторий (заглушка)
type mockUserRepo struct {
	users    map[string]*models.User
	lastUser *models.User
	refresh  map[int]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User), refresh: make(map[int]string)}
}

func (m *mockUserRepo) IsUsernameTaken(_ context.Context, username string) (bool, error) {
	_, exists := m.users[username]
	return exists, nil
}

func (m *mockUserRepo) IsEmailTaken(_ context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *models.User) error {
	user.ID = len(m.users) + 1
	user.IsActive = true
	m.users[user.Username] = user
	m.lastUser = user
	return nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id int) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockUserRepo) GetAllUsersPaginated(_ context.Context, limit, offset int) ([]*models.User, int, error) {
	var out []*models.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) UpdateUserFields(_ context.Context, id int, input *models.UpdateUserRequest) error {
	u, err := m.GetUserByID(context.Background(), id)
	if err != nil {
		return err
	}
	if input.Role != nil {
		u.Role = *input.Role
	}
	if input.IsActive != nil {
		u.IsActive = *input.IsActive
	}
	return nil
}

func (m *mockUserRepo) DeleteUserByID(_ context.Context, userID int) error {
	for name, u := range m.users {
		if u.ID == userID {
			delete(m.users, name)
			return nil
		}
	}
	return nil
}

func (m *mockUserRepo) SaveRefreshToken(_ context.Context, userID int, token string) error {
	m.refresh[userID] = token
	return nil
}

func (m *mockUserRepo) IsRefreshTokenValid(_ context.Context, userID int, token string) (bool, error) {
	return m.refresh[userID] == token, nil
}

func (m *mockUserRepo) DeleteRefreshToken(_ context.Context, userID int, token string) error {
	delete(m.refresh, userID)
	return nil
}

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "mysecret",
		AccessTokenTTL:  "15m",
		RefreshTokenTTL: "720h",
	}
}

func TestRegister(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo, testAuthConfig())

	user, err := service.Register(context.Background(), "testuser", "Тестовый Пользователь", "test@example.com", "secret-password")
	if err != nil {
		t.Fatalf("ошибка регистрации: %v", err)
	}

	if repo.lastUser == nil || repo.lastUser.PasswordHash == "" {
		t.Fatal("пароль не захеширован или пользователь не сохранён")
	}
	if user.Role != models.RoleUser {
		t.Fatalf("новому пользователю должна назначаться роль user, получено: %s", user.Role)
	}

	_, err = service.Register(context.Background(), "testuser", "", "other@example.com", "secret-password")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("ожидалась ErrUsernameTaken, получено: %v", err)
	}

	_, err = service.Register(context.Background(), "otheruser", "", "test@example.com", "secret-password")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("ожидалась ErrEmailTaken, получено: %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo, testAuthConfig())

	// создаём пользователя вручную
	hashed, _ := utils.HashPassword("secret-password")
	repo.users["testuser"] = &models.User{
		ID:           1,
		Username:     "testuser",
		PasswordHash: hashed,
		Role:         models.RoleUser,
		IsActive:     true,
	}

	access, refresh, user, err := service.LoginUserWithUser(context.Background(), "testuser", "secret-password")
	if err != nil {
		t.Fatalf("ошибка логина: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("токены не сгенерированы")
	}
	if user.ID != 1 {
		t.Fatal("вернулся не тот пользователь")
	}
	if repo.refresh[1] != refresh {
		t.Fatal("refresh-токен не сохранён")
	}
}

func TestLogin_Fail(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo, testAuthConfig())

	_, _, _, err := service.LoginUserWithUser(context.Background(), "unknown", "pass")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("ожидалась ErrInvalidCredentials, получено: %v", err)
	}
}

func TestLogin_InactiveUser(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo, testAuthConfig())

	hashed, _ := utils.HashPassword("secret-password")
	repo.users["blocked"] = &models.User{
		ID:           2,
		Username:     "blocked",
		PasswordHash: hashed,
		Role:         models.RoleUser,
		IsActive:     false,
	}

	_, _, _, err := service.LoginUserWithUser(context.Background(), "blocked", "secret-password")
	if !errors.Is(err, ErrUserInactive) {
		t.Fatalf("ожидалась ErrUserInactive, получено: %v", err)
	}
}

func TestRefreshTokens(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo, testAuthConfig())

	hashed, _ := utils.HashPassword("secret-password")
	repo.users["testuser"] = &models.User{
		ID:           1,
		Username:     "testuser",
		PasswordHash: hashed,
		Role:         models.RoleUser,
		IsActive:     true,
	}

	_, refresh, _, err := service.LoginUserWithUser(context.Background(), "testuser", "secret-password")
	if err != nil {
		t.Fatalf("ошибка логина: %v", err)
	}

	access2, refresh2, err := service.RefreshTokens(context.Background(), 1, refresh)
	if err != nil {
		t.Fatalf("ошибка обновления токенов: %v", err)
	}
	if access2 == "" || refresh2 == "" {
		t.Fatal("новая пара токенов не сгенерирована")
	}
	if repo.refresh[1] != refresh2 {
		t.Fatal("новый refresh-токен не сохранён")
	}

	// Токен, которого нет в базе, не принимается
	if _, _, err := service.RefreshTokens(context.Background(), 1, "bogus"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("ожидалась ErrInvalidCredentials, получено: %v", err)
	}
}
