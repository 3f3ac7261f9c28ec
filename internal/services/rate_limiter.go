package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cmspanel/internal/logger"

	"github.com/go-redis/redis/v9"
	"go.uber.org/zap"
)

// RateLimiter — счётчик попыток в Redis (INCR + EXPIRE в одном пайплайне).
// При недоступном Redis пропускаем запрос: лимитер защищает от перебора,
// но не должен класть восстановление пароля целиком.
type RateLimiter struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	return &RateLimiter{rdb: rdb, now: time.Now}
}

// AllowPerHour возвращает false, когда за текущий час по ключу
// уже сделано limit попыток.
func (r *RateLimiter) AllowPerHour(ctx context.Context, key string, limit int) bool {
	if r.rdb == nil || limit <= 0 {
		return true
	}

	k := fmt.Sprintf("ratelimit:%s:h%d", key, r.now().Hour())

	cmds, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, k)
		pipe.Expire(ctx, k, time.Hour)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return false
	}
	if err != nil {
		logger.Log.Error("Rate limiter: ошибка Redis, пропускаем запрос", zap.Error(err))
		return true
	}

	intCmd := cmds[0].(*redis.IntCmd)
	return intCmd.Val() <= int64(limit)
}
