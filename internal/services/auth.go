package services

import (
	"context"
	"errors"
	"time"

	"cmspanel/internal/config"
	"cmspanel/internal/logger"
	"cmspanel/internal/models"
	"cmspanel/internal/utils"

	"go.uber.org/zap"
)

var (
	ErrUsernameTaken      = errors.New("имя пользователя занято")
	ErrEmailTaken         = errors.New("email уже зарегистрирован")
	ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")
	ErrUserInactive       = errors.New("пользователь заблокирован")
)

// UserRepo — контракт хранилища пользователей, который нужен сервису.
type UserRepo interface {
	CreateUser(ctx context.Context, user *models.User) error
	IsUsernameTaken(ctx context.Context, username string) (bool, error)
	IsEmailTaken(ctx context.Context, email string) (bool, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetAllUsersPaginated(ctx context.Context, limit, offset int) ([]*models.User, int, error)
	UpdateUserFields(ctx context.Context, id int, input *models.UpdateUserRequest) error
	DeleteUserByID(ctx context.Context, userID int) error
	SaveRefreshToken(ctx context.Context, userID int, token string) error
	IsRefreshTokenValid(ctx context.Context, userID int, token string) (bool, error)
	DeleteRefreshToken(ctx context.Context, userID int, token string) error
}

type AuthService struct {
	repo UserRepo
	cfg  *config.Config
}

func NewAuthService(repo UserRepo, cfg *config.Config) *AuthService {
	return &AuthService{repo: repo, cfg: cfg}
}

// Register создаёт пользователя с ролью user.
func (s *AuthService) Register(ctx context.Context, username, fullName, email, password string) (*models.User, error) {
	logger.Log.Info("Регистрация пользователя", zap.String("username", username), zap.String("email", email))

	taken, err := s.repo.IsUsernameTaken(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		logger.Log.Warn("Username занят", zap.String("username", username))
		return nil, ErrUsernameTaken
	}

	taken, err = s.repo.IsEmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		logger.Log.Warn("Email занят", zap.String("email", email))
		return nil, ErrEmailTaken
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		logger.Log.Error("Ошибка хеширования пароля", zap.Error(err))
		return nil, err
	}

	user := &models.User{
		Username:     username,
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		logger.Log.Error("Ошибка создания пользователя", zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Пользователь зарегистрирован", zap.Int("user_id", user.ID))
	return user, nil
}

// LoginUserWithUser проверяет пару логин/пароль, выдаёт access+refresh
// и возвращает самого пользователя (нужен хендлеру для ответа).
func (s *AuthService) LoginUserWithUser(ctx context.Context, username, password string) (accessToken, refreshToken string, user *models.User, err error) {
	logger.Log.Info("Попытка входа", zap.String("username", username))

	user, err = s.repo.GetByUsername(ctx, username)
	if err != nil {
		logger.Log.Warn("Пользователь не найден", zap.String("username", username))
		return "", "", nil, ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		logger.Log.Warn("Неверный пароль", zap.String("username", username))
		return "", "", nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		logger.Log.Warn("Вход заблокированного пользователя", zap.Int("user_id", user.ID))
		return "", "", nil, ErrUserInactive
	}

	accessToken, err = utils.GenerateToken(s.cfg.JWTSecret, user.ID, user.Role, s.cfg.AccessTokenDuration(), "access")
	if err != nil {
		return "", "", nil, err
	}
	refreshToken, err = utils.GenerateToken(s.cfg.JWTSecret, user.ID, user.Role, s.cfg.RefreshTokenDuration(), "refresh")
	if err != nil {
		return "", "", nil, err
	}

	if err = s.repo.SaveRefreshToken(ctx, user.ID, refreshToken); err != nil {
		logger.Log.Error("Ошибка сохранения refresh-токена", zap.Error(err))
		return "", "", nil, err
	}

	logger.Log.Info("Успешный вход", zap.Int("user_id", user.ID), zap.String("role", user.Role))
	return accessToken, refreshToken, user, nil
}

// ValidateRefreshToken сверяет refresh-токен с сохранённым в базе.
func (s *AuthService) ValidateRefreshToken(ctx context.Context, userID int, token string) (bool, error) {
	return s.repo.IsRefreshTokenValid(ctx, userID, token)
}

// RefreshTokens выдаёт новую пару по действующему refresh-токену (ротация).
func (s *AuthService) RefreshTokens(ctx context.Context, userID int, oldRefresh string) (accessToken, refreshToken string, err error) {
	ok, err := s.repo.IsRefreshTokenValid(ctx, userID, oldRefresh)
	if err != nil {
		return "", "", err
	}
	if !ok {
		logger.Log.Warn("Неизвестный refresh-токен", zap.Int("user_id", userID))
		return "", "", ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	if !user.IsActive {
		return "", "", ErrUserInactive
	}

	accessToken, err = utils.GenerateToken(s.cfg.JWTSecret, user.ID, user.Role, s.cfg.AccessTokenDuration(), "access")
	if err != nil {
		return "", "", err
	}
	refreshToken, err = utils.GenerateToken(s.cfg.JWTSecret, user.ID, user.Role, s.cfg.RefreshTokenDuration(), "refresh")
	if err != nil {
		return "", "", err
	}
	if err = s.repo.SaveRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// Logout удаляет refresh-токен, access доживает свой TTL.
func (s *AuthService) Logout(ctx context.Context, userID int, refreshToken string) error {
	logger.Log.Info("Выход пользователя", zap.Int("user_id", userID))
	return s.repo.DeleteRefreshToken(ctx, userID, refreshToken)
}

func (s *AuthService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *AuthService) GetUsersPaginated(ctx context.Context, page, pageSize int) ([]*models.User, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.repo.GetAllUsersPaginated(ctx, pageSize, offset)
}

func (s *AuthService) UpdateUser(ctx context.Context, id int, input *models.UpdateUserRequest) error {
	logger.Log.Info("Обновление пользователя", zap.Int("user_id", id))
	if input.Email != nil {
		taken, err := s.repo.IsEmailTaken(ctx, *input.Email)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
	}
	return s.repo.UpdateUserFields(ctx, id, input)
}

func (s *AuthService) DeleteUser(ctx context.Context, id int) error {
	logger.Log.Info("Удаление пользователя", zap.Int("user_id", id))
	return s.repo.DeleteUserByID(ctx, id)
}

// TokenTTLs отдаёт срок жизни токенов (нужно хендлеру для maxAge куки).
func (s *AuthService) TokenTTLs() (access, refresh time.Duration) {
	return s.cfg.AccessTokenDuration(), s.cfg.RefreshTokenDuration()
}
