package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tailingsiq-risk/internal/config"
	"tailingsiq-risk/internal/consumer"
	"tailingsiq-risk/internal/domain"
	"tailingsiq-risk/internal/repository"
	"tailingsiq-risk/internal/risk"

	"go.uber.org/zap"
)

// AssessmentService 风险评估服务（编排层）
// 读窗口 + 取设施元数据 + 引擎评分 + 写账本 + 更新缓存
type AssessmentService struct {
	config          *config.Config
	facilitiesRepo  repository.FacilitiesRepository
	readingsRepo    repository.ReadingsRepository
	assessmentsRepo repository.AssessmentsRepository
	engine          *risk.Engine
	cacheManager    *consumer.CacheManager // 可为 nil（禁用缓存）
	logger          *zap.Logger
	now             func() time.Time
}

// NewAssessmentService 创建风险评估服务
func NewAssessmentService(
	cfg *config.Config,
	facilitiesRepo repository.FacilitiesRepository,
	readingsRepo repository.ReadingsRepository,
	assessmentsRepo repository.AssessmentsRepository,
	engine *risk.Engine,
	cacheManager *consumer.CacheManager,
	logger *zap.Logger,
) *AssessmentService {
	return &AssessmentService{
		config:          cfg,
		facilitiesRepo:  facilitiesRepo,
		readingsRepo:    readingsRepo,
		assessmentsRepo: assessmentsRepo,
		engine:          engine,
		cacheManager:    cacheManager,
		logger:          logger,
		now:             time.Now,
	}
}

// 确保实现了调度器接口
var _ consumer.Assessor = (*AssessmentService)(nil)

// AssessFacility 对设施执行一次风险评估并写入账本
// requestedBy: 触发评估的已验证身份（外部认证协作方提供），定时评估为 "scheduler"
// 整个评估受 AssessTimeout 约束，超时视为可重试的瞬态失败
func (s *AssessmentService) AssessFacility(ctx context.Context, facilityID, requestedBy string) (*domain.RiskAssessment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Risk.AssessTimeout)
	defer cancel()

	// 1. 设施元数据
	facility, err := s.facilitiesRepo.GetFacility(ctx, facilityID)
	if err != nil {
		// 设施确实不存在 → 致命；注册中心调用失败/超时 → 瞬态
		return nil, &domain.RiskEngineError{
			Kind:       domain.RiskEngineMissingFacilityContext,
			FacilityID: facilityID,
			Transient:  !errors.Is(err, domain.ErrNotFound),
			Err:        err,
		}
	}

	// 2. 评估窗口读数
	evaluatedAt := s.now()
	windowStart := evaluatedAt.Add(-s.config.Risk.Lookback)

	var window []domain.MonitoringReading
	err = repository.WithRetry(ctx, s.retryConfig(), s.logger, "query readings", func(ctx context.Context) error {
		readings, queryErr := s.readingsRepo.QueryReadings(ctx, facilityID, windowStart, evaluatedAt)
		if queryErr != nil {
			return queryErr
		}
		window = readings
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 3. 引擎评分（纯函数）
	assessment, err := s.engine.Assess(facility, window, evaluatedAt)
	if err != nil {
		return nil, err
	}
	assessment.RequestedBy = requestedBy

	// 4. 写入账本
	var assessmentID string
	err = repository.WithRetry(ctx, s.retryConfig(), s.logger, "append assessment", func(ctx context.Context) error {
		id, appendErr := s.assessmentsRepo.AppendAssessment(ctx, assessment)
		if appendErr != nil {
			return appendErr
		}
		assessmentID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	assessment.AssessmentID = assessmentID

	// 5. 更新缓存（失败不影响评估结果）
	if s.cacheManager != nil {
		if cacheErr := s.cacheManager.UpdateLatestAssessment(ctx, assessment); cacheErr != nil {
			s.logger.Warn("Failed to update assessment cache",
				zap.String("facility_id", facilityID),
				zap.Error(cacheErr),
			)
		}
	}

	s.logger.Info("Facility assessed",
		zap.String("facility_id", facilityID),
		zap.String("assessment_id", assessmentID),
		zap.Bool("data_insufficient", assessment.DataInsufficient),
		zap.Int("score", assessment.Score),
		zap.String("level", string(assessment.Level)),
		zap.Int("window_size", len(window)),
	)

	return assessment, nil
}

// LatestAssessment 获取设施最新评估（优先缓存，回源账本）
func (s *AssessmentService) LatestAssessment(ctx context.Context, facilityID string) (*domain.RiskAssessment, error) {
	if s.cacheManager != nil {
		cached, err := s.cacheManager.GetLatestAssessment(ctx, facilityID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("Assessment cache read failed, falling back to ledger",
				zap.String("facility_id", facilityID),
				zap.Error(err),
			)
		}
	}

	return s.assessmentsRepo.LatestAssessment(ctx, facilityID)
}

// AssessmentHistory 按评估时间升序返回窗口内的评估历史
// 查询是确定性的，调用方可随时用相同窗口重新发起（可重启遍历）
func (s *AssessmentService) AssessmentHistory(ctx context.Context, facilityID string, start, end time.Time) ([]domain.RiskAssessment, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("history window end %s is before start %s", end, start)
	}
	return s.assessmentsRepo.AssessmentHistory(ctx, facilityID, start, end)
}

func (s *AssessmentService) retryConfig() repository.RetryConfig {
	return repository.RetryConfig{
		MaxAttempts: s.config.Store.MaxAttempts,
		BaseBackoff: s.config.Store.BaseBackoff,
	}
}
