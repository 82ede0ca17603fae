package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tailingsiq-risk/internal/config"
	"tailingsiq-risk/internal/domain"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CacheManager Redis 缓存管理器（最新评估缓存）
type CacheManager struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewCacheManager 创建缓存管理器
func NewCacheManager(
	cfg *config.Config,
	redisClient *redis.Client,
	logger *zap.Logger,
) *CacheManager {
	return &CacheManager{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

// latestKey 构建最新评估缓存键
func (c *CacheManager) latestKey(facilityID string) string {
	return fmt.Sprintf("%s%s%s",
		c.config.Cache.LatestKeyPrefix,
		facilityID,
		c.config.Cache.LatestSuffix,
	)
}

// GetLatestAssessment 从 Redis 读取最新评估
// 缓存未命中返回 domain.ErrNotFound，调用方回源到账本
func (c *CacheManager) GetLatestAssessment(ctx context.Context, facilityID string) (*domain.RiskAssessment, error) {
	val, err := c.redisClient.Get(ctx, c.latestKey(facilityID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	var assessment domain.RiskAssessment
	if err := json.Unmarshal([]byte(val), &assessment); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached assessment: %w", err)
	}

	return &assessment, nil
}

// UpdateLatestAssessment 更新最新评估缓存（带 TTL）
func (c *CacheManager) UpdateLatestAssessment(ctx context.Context, assessment *domain.RiskAssessment) error {
	jsonData, err := json.Marshal(assessment)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment: %w", err)
	}

	err = c.redisClient.Set(
		ctx,
		c.latestKey(assessment.FacilityID),
		jsonData,
		time.Duration(c.config.Cache.LatestTTL)*time.Second,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to set assessment cache: %w", err)
	}

	return nil
}
