package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"cmspanel/internal/logger"
	"cmspanel/internal/repository"
	"cmspanel/internal/utils"

	"go.uber.org/zap"
)

// Ошибки гашения токена. Наружу уходят как коды в теле 400-ответа:
// пользователю важно понять, что надо запросить новую ссылку.
var (
	ErrTokenInvalid     = errors.New("неверный токен")
	ErrTokenExpired     = errors.New("токен истёк")
	ErrTokenUsed        = errors.New("токен уже использован")
	ErrPasswordTooShort = errors.New("пароль слишком короткий")
)

type PasswordService struct {
	repo        repository.PasswordResetRepo
	emailSender EmailSender // интерфейс отправки писем
	appURL      string      // фронтовый URL: https://example.com (ссылка вида /reset-password?token=...)
	tokenTTL    time.Duration
}

type EmailSender interface {
	SendPasswordReset(ctx context.Context, to, resetLink string) error
}

func NewPasswordService(repo repository.PasswordResetRepo, emailSender EmailSender, appURL string, tokenTTL time.Duration) *PasswordService {
	return &PasswordService{
		repo:        repo,
		emailSender: emailSender,
		appURL:      strings.TrimRight(appURL, "/"),
		tokenTTL:    tokenTTL,
	}
}

// RequestReset генерирует одноразовый токен и отправляет письмо со ссылкой.
// Возвращает nil всегда — не раскрываем, существует ли такой e-mail.
func (s *PasswordService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	logger.Log.Info("Запрос на сброс пароля", zap.String("email", email))

	userID, err := s.repo.FindUserIDByEmail(ctx, email)
	if err != nil {
		// Не раскрываем наличие почты пользователю, но логируем для нас:
		logger.Log.Warn("Не удалось найти пользователя по email при запросе сброса",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil
	}

	// Криптостойкий токен: 32 байта (256 бит) из crypto/rand
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		logger.Log.Error("Ошибка генерации токена для сброса", zap.Error(err), zap.Int64("user_id", userID))
		return nil
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	// В базе храним только хеш
	tokenHash := HashResetToken(token)

	expires := time.Now().Add(s.tokenTTL)
	// Create в одной транзакции гасит прежние токены пользователя:
	// действующая ссылка в любой момент ровно одна.
	if err := s.repo.Create(ctx, userID, tokenHash, expires); err != nil {
		logger.Log.Error("Ошибка сохранения токена сброса пароля",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, token)
	if err := s.emailSender.SendPasswordReset(ctx, email, resetLink); err != nil {
		logger.Log.Error("Ошибка отправки письма для сброса пароля",
			zap.Int64("user_id", userID),
			zap.String("email", email),
			zap.Error(err),
		)
		// Токен при этом остаётся действующим — письмо можно запросить повторно
	}

	logger.Log.Info("Письмо со ссылкой на сброс пароля поставлено на отправку",
		zap.Int64("user_id", userID),
		zap.Time("expires_at", expires),
	)
	return nil
}

// ResetPassword гасит токен и устанавливает новый пароль.
// Гашение и смена пароля — одна атомарная операция в хранилище;
// при конкурентных запросах с одним токеном успешным будет ровно один.
func (s *PasswordService) ResetPassword(ctx context.Context, token, newPassword string) error {
	logger.Log.Info("Попытка сброса пароля по токену")

	if len(newPassword) < 8 {
		logger.Log.Warn("Слишком короткий новый пароль")
		return ErrPasswordTooShort
	}

	tokenHash := HashResetToken(token)

	// Хешируем пароль до записи — plaintext никогда не попадает ни в базу, ни в логи
	pwHash, err := utils.HashPassword(newPassword)
	if err != nil {
		logger.Log.Error("Ошибка генерации хеша пароля", zap.Error(err))
		return err
	}

	applied, err := s.repo.Consume(ctx, tokenHash, pwHash)
	if err != nil {
		logger.Log.Error("Ошибка хранилища при сбросе пароля", zap.Error(err))
		return err
	}
	if applied {
		logger.Log.Info("Пароль успешно сброшен")
		return nil
	}

	// Условное обновление не сработало — выясняем почему.
	// Это уже только диагностика: исход решён атомарным шагом выше.
	rec, err := s.repo.GetByHash(ctx, tokenHash)
	if err != nil || rec == nil {
		logger.Log.Warn("Неизвестный токен при сбросе пароля")
		return ErrTokenInvalid
	}
	if rec.Consumed() {
		logger.Log.Warn("Повторное использование токена сброса", zap.Int64("token_id", rec.ID))
		return ErrTokenUsed
	}
	if rec.Expired(time.Now()) {
		logger.Log.Warn("Просроченный токен сброса", zap.Int64("token_id", rec.ID))
		return ErrTokenExpired
	}
	// Строка выглядит активной, но UPDATE её не взял — проиграна гонка
	return ErrTokenUsed
}

// ChangePassword меняет пароль для авторизованного пользователя по старому паролю.
func (s *PasswordService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword, currentHash string) (string, error) {
	logger.Log.Info("Смена пароля (авторизованный пользователь)", zap.Int64("user_id", userID))

	if len(newPassword) < 8 {
		logger.Log.Warn("Слишком короткий новый пароль", zap.Int64("user_id", userID))
		return "", ErrPasswordTooShort
	}

	if !utils.CheckPasswordHash(oldPassword, currentHash) {
		logger.Log.Warn("Старый пароль не совпадает", zap.Int64("user_id", userID))
		return "", errors.New("старый пароль неверен")
	}

	newHash, err := utils.HashPassword(newPassword)
	if err != nil {
		logger.Log.Error("Ошибка генерации нового хеша пароля", zap.Error(err), zap.Int64("user_id", userID))
		return "", err
	}

	if err := s.repo.UpdateUserPassword(ctx, userID, newHash); err != nil {
		logger.Log.Error("Ошибка обновления пароля пользователя",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return "", err
	}

	logger.Log.Info("Пароль успешно изменён", zap.Int64("user_id", userID))
	return newHash, nil
}

// HashResetToken — sha256 от сырого токена в base64url.
// Общая точка для выдачи и гашения, чтобы хеши гарантированно совпадали.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// StartTokenSweeper раз в час чистит истёкшие и давно погашенные токены.
// Фоновая гигиена: валидация при гашении от неё не зависит.
func StartTokenSweeper(repo repository.PasswordResetRepo) {
	t := time.NewTicker(1 * time.Hour)
	go func() {
		for range t.C {
			n, err := repo.DeleteStale(context.Background(), 24*time.Hour)
			if err != nil {
				logger.Log.Warn("Не удалось почистить токены сброса", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Log.Info("Чистка токенов сброса", zap.Int64("deleted", n))
			}
		}
	}()
}
