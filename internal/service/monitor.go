package service

import (
	"context"
	"database/sql"
	"fmt"

	"tailingsiq-risk/common/database"
	commonmqtt "tailingsiq-risk/common/mqtt"
	commonredis "tailingsiq-risk/common/redis"
	"tailingsiq-risk/internal/config"
	"tailingsiq-risk/internal/consumer"
	"tailingsiq-risk/internal/ingest"
	internalmqtt "tailingsiq-risk/internal/mqtt"
	"tailingsiq-risk/internal/registry"
	"tailingsiq-risk/internal/repository"
	"tailingsiq-risk/internal/risk"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// MonitorService 风险监测服务（整合各层）
// MQTT 采集 + 定时评估调度，一个进程内两条独立流水线
type MonitorService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *commonmqtt.Client // 可为 nil（未配置 broker）
	logger      *zap.Logger

	// 各层组件
	facilitiesRepo    repository.FacilitiesRepository
	readingsRepo      repository.ReadingsRepository
	assessmentsRepo   repository.AssessmentsRepository
	cacheManager      *consumer.CacheManager
	scheduler         *consumer.Scheduler
	ingestService     *ingest.Service
	assessmentService *AssessmentService
	monitorBroker     *internalmqtt.MonitorBroker
}

// NewMonitorService 创建风险监测服务
func NewMonitorService(cfg *config.Config, logger *zap.Logger) (*MonitorService, error) {
	// 1. 连接数据库
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 2. 连接 Redis
	redisClient := commonredis.NewRedisClient(&cfg.Redis)
	if err := commonredis.Ping(context.Background(), redisClient); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. 创建 Repository 层
	// 配置了 REGISTRY_URL 时设施元数据走远程注册中心，否则读本地库
	var facilitiesRepo repository.FacilitiesRepository
	if cfg.Registry.BaseURL != "" {
		facilitiesRepo = registry.NewClient(cfg.Registry.BaseURL, cfg.Registry.APIKey, logger)
		logger.Info("Using remote facility registry",
			zap.String("base_url", cfg.Registry.BaseURL),
		)
	} else {
		facilitiesRepo = repository.NewPostgresFacilitiesRepository(db)
	}
	readingsRepo := repository.NewPostgresReadingsRepository(db)
	assessmentsRepo := repository.NewPostgresAssessmentsRepository(db, logger)

	// 4. 创建缓存 / 调度层
	cacheManager := consumer.NewCacheManager(cfg, redisClient, logger)
	scheduler := consumer.NewScheduler(cfg, facilitiesRepo, logger)

	// 5. 创建核心服务
	retryCfg := repository.RetryConfig{
		MaxAttempts: cfg.Store.MaxAttempts,
		BaseBackoff: cfg.Store.BaseBackoff,
	}
	validator := ingest.NewValidator(facilitiesRepo, cfg.Ingest.MaxClockSkew, logger)
	ingestService := ingest.NewService(validator, readingsRepo, redisClient, cfg.Ingest.StreamName, retryCfg, logger)
	engine := risk.NewEngine(cfg.Risk.Weights, logger)
	assessmentService := NewAssessmentService(cfg, facilitiesRepo, readingsRepo, assessmentsRepo, engine, cacheManager, logger)

	// 6. MQTT 采集（可选）
	var mqttClient *commonmqtt.Client
	monitorBroker := internalmqtt.NewMonitorBroker(ingestService, logger)
	if cfg.MQTT.Broker != "" {
		mqttClient, err = commonmqtt.NewClient(&cfg.MQTT, logger)
		if err != nil {
			redisClient.Close()
			db.Close()
			return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
		}
	}

	return &MonitorService{
		config:            cfg,
		db:                db,
		redisClient:       redisClient,
		mqttClient:        mqttClient,
		logger:            logger,
		facilitiesRepo:    facilitiesRepo,
		readingsRepo:      readingsRepo,
		assessmentsRepo:   assessmentsRepo,
		cacheManager:      cacheManager,
		scheduler:         scheduler,
		ingestService:     ingestService,
		assessmentService: assessmentService,
		monitorBroker:     monitorBroker,
	}, nil
}

// IngestService 采集服务访问器
func (s *MonitorService) IngestService() *ingest.Service {
	return s.ingestService
}

// AssessmentService 评估服务访问器
func (s *MonitorService) AssessmentService() *AssessmentService {
	return s.assessmentService
}

// Start 启动服务（阻塞直到 ctx 取消）
func (s *MonitorService) Start(ctx context.Context) error {
	s.logger.Info("Starting monitor service",
		zap.Duration("lookback", s.config.Risk.Lookback),
		zap.Duration("poll_interval", s.config.Scheduler.PollInterval),
		zap.Bool("mqtt_enabled", s.mqttClient != nil),
	)

	// MQTT 订阅（每个设施一个主题层级）
	if s.mqttClient != nil {
		topic := "tailingsiq/+/monitoring"
		if err := s.mqttClient.Subscribe(topic, s.config.MQTT.QoS, s.monitorBroker.HandleMessage); err != nil {
			return fmt.Errorf("failed to subscribe to monitoring topic: %w", err)
		}
		s.logger.Info("Subscribed to monitoring topic",
			zap.String("topic", topic),
		)
	}

	// 定时评估（阻塞）
	return s.scheduler.Start(ctx, s.assessmentService)
}

// Stop 停止服务
func (s *MonitorService) Stop() error {
	s.logger.Info("Stopping monitor service")

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}

	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis client",
			zap.Error(err),
		)
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database",
			zap.Error(err),
		)
		return err
	}

	return nil
}
