package consumer

import (
	"context"
	"fmt"
	"time"

	"tailingsiq-risk/internal/config"
	"tailingsiq-risk/internal/domain"
	"tailingsiq-risk/internal/repository"

	"go.uber.org/zap"
)

// Assessor 评估执行方接口（由 service.AssessmentService 实现）
type Assessor interface {
	AssessFacility(ctx context.Context, facilityID, requestedBy string) (*domain.RiskAssessment, error)
}

// Scheduler 定时评估调度器（轮询所有运行中设施）
type Scheduler struct {
	config         *config.Config
	facilitiesRepo repository.FacilitiesRepository
	logger         *zap.Logger
}

// NewScheduler 创建定时评估调度器
func NewScheduler(
	cfg *config.Config,
	facilitiesRepo repository.FacilitiesRepository,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		config:         cfg,
		facilitiesRepo: facilitiesRepo,
		logger:         logger,
	}
}

// Start 启动调度器（阻塞直到 ctx 取消）
func (s *Scheduler) Start(ctx context.Context, assessor Assessor) error {
	s.logger.Info("Assessment scheduler started",
		zap.Duration("poll_interval", s.config.Scheduler.PollInterval),
	)

	ticker := time.NewTicker(s.config.Scheduler.PollInterval)
	defer ticker.Stop()

	// 启动时立即执行一轮
	if err := s.assessAllFacilities(ctx, assessor); err != nil {
		s.logger.Error("Failed to assess facilities on startup",
			zap.Error(err),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Assessment scheduler stopped")
			return nil
		case <-ticker.C:
			if err := s.assessAllFacilities(ctx, assessor); err != nil {
				s.logger.Error("Failed to assess facilities",
					zap.Error(err),
				)
				// 继续轮询，不中断
			}
		}
	}
}

// assessAllFacilities 评估所有运行中的设施
// 单个设施失败只记录日志，不中断本轮其余设施
func (s *Scheduler) assessAllFacilities(ctx context.Context, assessor Assessor) error {
	facilities, err := s.facilitiesRepo.ListFacilities(ctx, &domain.FacilityFilters{
		Status: domain.FacilityStatusActive,
	})
	if err != nil {
		return fmt.Errorf("failed to list active facilities: %w", err)
	}

	s.logger.Debug("Assessment sweep started",
		zap.Int("facility_count", len(facilities)),
	)

	for _, facility := range facilities {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		assessment, err := assessor.AssessFacility(ctx, facility.FacilityID, "scheduler")
		if err != nil {
			s.logger.Error("Failed to assess facility",
				zap.String("facility_id", facility.FacilityID),
				zap.Bool("retryable", domain.IsRetryable(err)),
				zap.Error(err),
			)
			continue
		}

		if assessment.DataInsufficient {
			s.logger.Warn("Facility assessed with insufficient data",
				zap.String("facility_id", facility.FacilityID),
			)
		}
	}

	return nil
}
