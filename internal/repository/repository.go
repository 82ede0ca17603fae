package repository

import (
	"context"
	"time"

	"tailingsiq-risk/internal/domain"
)

// FacilitiesRepository 设施注册中心接口
// 设施的创建/变更由外部系统负责，这里只消费元数据
type FacilitiesRepository interface {
	// GetFacility 按ID获取设施，未找到返回 domain.ErrNotFound
	GetFacility(ctx context.Context, facilityID string) (*domain.Facility, error)

	// ListFacilities 按过滤条件列出设施
	ListFacilities(ctx context.Context, filters *domain.FacilityFilters) ([]domain.Facility, error)
}

// ReadingsRepository 监测读数时序存储接口（仅追加）
type ReadingsRepository interface {
	// AppendReading 追加一条读数，入库时间由存储端分配，返回读数ID
	AppendReading(ctx context.Context, reading *domain.ValidatedReading) (string, error)

	// QueryReadings 查询时间窗口内的读数，按（传感器时间, 入库时间）升序
	QueryReadings(ctx context.Context, facilityID string, start, end time.Time) ([]domain.MonitoringReading, error)
}

// AssessmentsRepository 风险评估账本接口（仅追加，不覆盖）
type AssessmentsRepository interface {
	// AppendAssessment 原子追加一条评估，返回评估ID
	// 同一设施的并发追加都必须成功且都可查询
	AppendAssessment(ctx context.Context, assessment *domain.RiskAssessment) (string, error)

	// LatestAssessment 获取设施最新评估，未找到返回 domain.ErrNotFound
	LatestAssessment(ctx context.Context, facilityID string) (*domain.RiskAssessment, error)

	// AssessmentHistory 按评估时间升序返回窗口内的评估
	// 评估时间相同时按追加顺序排序
	AssessmentHistory(ctx context.Context, facilityID string, start, end time.Time) ([]domain.RiskAssessment, error)
}
