package models

import "time"

// PasswordResetToken — одноразовый токен сброса пароля.
// В базе хранится только sha256-хеш значения, сырой токен уходит в письмо.
type PasswordResetToken struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Consumed — токен погашен (терминальное состояние).
func (t *PasswordResetToken) Consumed() bool {
	return t.UsedAt != nil
}

// Expired — срок действия вышел (вычисляется по часам, не хранится отдельным статусом).
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
