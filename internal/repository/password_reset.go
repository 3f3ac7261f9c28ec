package repository

import (
	"context"
	"errors"
	"time"

	"cmspanel/internal/logger"
	"cmspanel/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PasswordResetRepository struct {
	db *pgxpool.Pool
}

func NewPasswordResetRepository(db *pgxpool.Pool) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

type PasswordResetRepo interface {
	Create(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	GetByHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error)
	Consume(ctx context.Context, tokenHash string, newPasswordHash string) (bool, error)
	UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error
	FindUserIDByEmail(ctx context.Context, email string) (int64, error)
	DeleteStale(ctx context.Context, usedOlderThan time.Duration) (int64, error)
}

// Create сохраняет новый токен и в той же транзакции гасит все прежние
// непогашенные токены пользователя: действующая ссылка всегда одна.
func (r *PasswordResetRepository) Create(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE password_reset_tokens SET used_at = now() WHERE user_id = $1 AND used_at IS NULL`,
		userID,
	)
	if err != nil {
		logger.Log.Error("Не удалось погасить прежние токены сброса", zap.Error(err), zap.Int64("user_id", userID))
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO password_reset_tokens (user_id, token_hash, expires_at) VALUES ($1,$2,$3)`,
		userID, tokenHash, expiresAt,
	)
	if err != nil {
		logger.Log.Error("Create reset token failed", zap.Error(err), zap.Int64("user_id", userID))
		return err
	}

	return tx.Commit(ctx)
}

// GetByHash возвращает токен в любом состоянии — нужен сервису,
// чтобы различить "нет такого" / "истёк" / "уже использован".
func (r *PasswordResetRepository) GetByHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, used_at, created_at
		FROM password_reset_tokens
		WHERE token_hash = $1
	`, tokenHash)

	var t models.PasswordResetToken
	if err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Consume атомарно гасит токен и меняет пароль владельца в одной транзакции.
// Условный UPDATE с used_at IS NULL гарантирует, что из двух конкурентных
// запросов ровно один получит строку — второму вернётся (false, nil).
// Раздельные "прочитал — записал" здесь недопустимы.
func (r *PasswordResetRepository) Consume(ctx context.Context, tokenHash string, newPasswordHash string) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var userID int64
	err = tx.QueryRow(ctx, `
		UPDATE password_reset_tokens
		SET used_at = now()
		WHERE token_hash = $1
		  AND used_at IS NULL
		  AND expires_at > now()
		RETURNING user_id
	`, tokenHash).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		// токен не активен: нет такого, истёк, погашен или проиграна гонка
		return false, nil
	}
	if err != nil {
		return false, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`,
		newPasswordHash, userID,
	)
	if err != nil {
		logger.Log.Error("Ошибка обновления пароля в транзакции сброса", zap.Error(err), zap.Int64("user_id", userID))
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (r *PasswordResetRepository) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, passwordHash, userID)
	return err
}

func (r *PasswordResetRepository) FindUserIDByEmail(ctx context.Context, email string) (int64, error) {
	var userID int64
	err := r.db.QueryRow(ctx, `SELECT id FROM users WHERE lower(email)=lower($1) AND is_active LIMIT 1`, email).Scan(&userID)
	return userID, err
}

// DeleteStale удаляет истёкшие и давно погашенные строки.
// Чисто гигиеническая операция — корректность от неё не зависит.
func (r *PasswordResetRepository) DeleteStale(ctx context.Context, usedOlderThan time.Duration) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM password_reset_tokens
		WHERE expires_at < now()
		   OR (used_at IS NOT NULL AND used_at < now() - make_interval(secs => $1))
	`, usedOlderThan.Seconds())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
