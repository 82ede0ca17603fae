package ingest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"tailingsiq-risk/internal/domain"
	"tailingsiq-risk/internal/repository"

	"go.uber.org/zap"
)

// Validator 监测读数校验器
// 纯校验，无副作用；通过校验的读数由调用方持久化
type Validator struct {
	facilitiesRepo repository.FacilitiesRepository
	maxClockSkew   time.Duration
	logger         *zap.Logger
	now            func() time.Time
}

// NewValidator 创建校验器
// maxClockSkew: 允许的传感器时钟未来偏差（防止传感器时钟损坏），默认 5分钟
func NewValidator(facilitiesRepo repository.FacilitiesRepository, maxClockSkew time.Duration, logger *zap.Logger) *Validator {
	if maxClockSkew <= 0 {
		maxClockSkew = 5 * time.Minute
	}
	return &Validator{
		facilitiesRepo: facilitiesRepo,
		maxClockSkew:   maxClockSkew,
		logger:         logger,
		now:            time.Now,
	}
}

// Validate 校验一条待入库读数
// 依次检查：设施存在且运行中 → 时间戳偏差 → 读数结构
func (v *Validator) Validate(ctx context.Context, facilityID string, timestamp time.Time, sensors map[string]float64) (*domain.ValidatedReading, error) {
	// 1. 设施必须存在且处于运行状态
	facility, err := v.facilitiesRepo.GetFacility(ctx, facilityID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.FacilityError{
				Kind:       domain.FacilityUnknownOrInactive,
				FacilityID: facilityID,
			}
		}
		return nil, fmt.Errorf("failed to resolve facility: %w", err)
	}
	if !facility.IsActive() {
		return nil, &domain.FacilityError{
			Kind:       domain.FacilityUnknownOrInactive,
			FacilityID: facilityID,
		}
	}

	// 2. 传感器时间不能超前于入库时间太多（时钟损坏防护）
	// 乱序与历史补传允许，只拒绝未来时间
	ingestTime := v.now()
	if timestamp.After(ingestTime.Add(v.maxClockSkew)) {
		return nil, domain.NewValidationError(
			domain.ValidationTimestampOutOfBounds,
			"timestamp",
			fmt.Sprintf("timestamp %s is more than %s ahead of ingestion time %s",
				timestamp.UTC().Format(time.RFC3339), v.maxClockSkew, ingestTime.UTC().Format(time.RFC3339)),
		)
	}

	// 3. 读数必须非空且数值有限
	if len(sensors) == 0 {
		return nil, domain.NewValidationError(
			domain.ValidationMalformedReading,
			"sensors",
			"readings must contain at least one sensor value",
		)
	}
	for name, value := range sensors {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, domain.NewValidationError(
				domain.ValidationMalformedReading,
				name,
				fmt.Sprintf("sensor value must be finite, got %v", value),
			)
		}
	}

	validated := &domain.ValidatedReading{
		FacilityID: facilityID,
		Timestamp:  timestamp,
		Sensors:    sensors,
	}

	v.logger.Debug("Reading validated",
		zap.String("facility_id", facilityID),
		zap.Time("timestamp", timestamp),
		zap.Int("sensor_count", len(sensors)),
	)

	return validated, nil
}
