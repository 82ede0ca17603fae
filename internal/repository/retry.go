package repository

import (
	"context"
	"errors"
	"time"

	"tailingsiq-risk/internal/domain"

	"go.uber.org/zap"
)

// RetryConfig 存储操作重试配置
type RetryConfig struct {
	MaxAttempts int           // 最大尝试次数（含首次），默认 3
	BaseBackoff time.Duration // 初始退避时长，每次失败后翻倍
}

// DefaultRetryConfig 默认重试配置
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseBackoff: 100 * time.Millisecond,
	}
}

// WithRetry 带有界指数退避地执行存储操作
// 校验类错误（ValidationError/FacilityError/ErrNotFound）不重试；
// 其余错误重试至多 MaxAttempts 次，耗尽后包装为 StoreError 上抛
func WithRetry(ctx context.Context, cfg RetryConfig, logger *zap.Logger, op string, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 100 * time.Millisecond
	}

	backoff := cfg.BaseBackoff
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if !isStoreRetryable(lastErr) {
			return lastErr
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		logger.Warn("Store operation failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(lastErr),
		)

		select {
		case <-ctx.Done():
			return &domain.StoreError{Op: op, Attempts: attempt, Err: ctx.Err()}
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return &domain.StoreError{Op: op, Attempts: cfg.MaxAttempts, Err: lastErr}
}

// isStoreRetryable 调用方可修正的错误不重试
func isStoreRetryable(err error) bool {
	if errors.Is(err, domain.ErrNotFound) {
		return false
	}
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return false
	}
	var facilityErr *domain.FacilityError
	return !errors.As(err, &facilityErr)
}
