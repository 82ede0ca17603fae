package ingest

import (
	"context"
	"encoding/json"
	"time"

	commonredis "tailingsiq-risk/common/redis"
	"tailingsiq-risk/internal/domain"
	"tailingsiq-risk/internal/repository"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Service 监测读数采集服务
// 校验 → 持久化（有界重试）→ 发布到 Redis Stream（尽力而为）
type Service struct {
	validator    *Validator
	readingsRepo repository.ReadingsRepository
	redisClient  *redis.Client // 可为 nil（禁用流发布）
	streamName   string
	retryCfg     repository.RetryConfig
	logger       *zap.Logger
}

// NewService 创建采集服务
func NewService(
	validator *Validator,
	readingsRepo repository.ReadingsRepository,
	redisClient *redis.Client,
	streamName string,
	retryCfg repository.RetryConfig,
	logger *zap.Logger,
) *Service {
	return &Service{
		validator:    validator,
		readingsRepo: readingsRepo,
		redisClient:  redisClient,
		streamName:   streamName,
		retryCfg:     retryCfg,
		logger:       logger,
	}
}

// Ingest 采集一条监测读数，返回存储分配的读数ID
// 校验失败时不产生任何持久化副作用
func (s *Service) Ingest(ctx context.Context, facilityID string, timestamp time.Time, sensors map[string]float64) (string, error) {
	validated, err := s.validator.Validate(ctx, facilityID, timestamp, sensors)
	if err != nil {
		return "", err
	}

	var readingID string
	err = repository.WithRetry(ctx, s.retryCfg, s.logger, "append reading", func(ctx context.Context) error {
		id, appendErr := s.readingsRepo.AppendReading(ctx, validated)
		if appendErr != nil {
			return appendErr
		}
		readingID = id
		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("Reading ingested",
		zap.String("reading_id", readingID),
		zap.String("facility_id", facilityID),
		zap.Time("timestamp", timestamp),
		zap.Int("sensor_count", len(sensors)),
	)

	// 流发布失败不影响采集结果，下游消费方按需补偿
	s.publishToStream(ctx, readingID, validated)

	return readingID, nil
}

// publishToStream 将入库读数发布到 Redis Stream
func (s *Service) publishToStream(ctx context.Context, readingID string, reading *domain.ValidatedReading) {
	if s.redisClient == nil || s.streamName == "" {
		return
	}

	sensorsJSON, err := json.Marshal(reading.Sensors)
	if err != nil {
		s.logger.Warn("Failed to marshal sensors for stream publish",
			zap.String("reading_id", readingID),
			zap.Error(err),
		)
		return
	}

	_, err = commonredis.PublishToStream(ctx, s.redisClient, s.streamName, map[string]interface{}{
		"reading_id":  readingID,
		"facility_id": reading.FacilityID,
		"timestamp":   reading.Timestamp.Unix(),
		"sensors":     string(sensorsJSON),
	})
	if err != nil {
		s.logger.Warn("Failed to publish reading to stream",
			zap.String("reading_id", readingID),
			zap.String("stream", s.streamName),
			zap.Error(err),
		)
	}
}
