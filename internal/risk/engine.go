package risk

import (
	"fmt"
	"math"
	"time"

	"tailingsiq-risk/internal/domain"

	"go.uber.org/zap"
)

// Engine 风险评估引擎
// 纯函数式评分：相同的设施元数据 + 相同的读数集合 → 字节级一致的评估结果
// （只有 EvaluatedAt 字段随调用时间变化，且由调用方传入）
type Engine struct {
	factors []FactorDefinition
	weights map[string]map[string]float64 // 设施类型 -> 因子类别 -> 权重
	logger  *zap.Logger
}

// NewEngine 创建风险评估引擎
// weights 为空时使用均等权重
func NewEngine(weights map[string]map[string]float64, logger *zap.Logger) *Engine {
	return &Engine{
		factors: DefaultFactors(),
		weights: weights,
		logger:  logger,
	}
}

// Assess 对设施的评估窗口读数进行风险评估
// window 为空时返回 data-insufficient 降级评估，不会用零数据编造分值
func (e *Engine) Assess(facility *domain.Facility, window []domain.MonitoringReading, evaluatedAt time.Time) (*domain.RiskAssessment, error) {
	if facility == nil {
		return nil, &domain.RiskEngineError{
			Kind: domain.RiskEngineMissingFacilityContext,
		}
	}

	if len(window) == 0 {
		e.logger.Warn("Assessment window is empty, returning degraded assessment",
			zap.String("facility_id", facility.FacilityID),
		)
		return &domain.RiskAssessment{
			FacilityID:       facility.FacilityID,
			EvaluatedAt:      evaluatedAt,
			DataInsufficient: true,
			Recommendations: []string{
				"Restore monitoring data flow before relying on assessments",
			},
		}, nil
	}

	// 读数按（传感器时间, 入库时间）排序后再评估，保证确定性
	sorted := make([]domain.MonitoringReading, len(window))
	copy(sorted, window)
	domain.SortReadings(sorted)

	weights := e.weightsForType(facility.Type)

	// 因子按目录固定顺序评估；无数据的因子不参与评分
	var factors []domain.RiskFactor
	weightedSum := 0.0
	weightTotal := 0.0
	for _, def := range e.factors {
		values := sensorSeries(sorted, def.Sensor)
		if len(values) == 0 {
			continue
		}

		result := def.Evaluate(values)
		weight := weights[def.Category]
		weightedSum += weight * result.SubScore
		weightTotal += weight

		factors = append(factors, domain.RiskFactor{
			Category:    def.Category,
			Severity:    result.Severity,
			Description: result.Detail,
		})
	}

	if weightTotal == 0 {
		// 窗口有读数但没有任何已登记因子的传感器数据
		return &domain.RiskAssessment{
			FacilityID:       facility.FacilityID,
			EvaluatedAt:      evaluatedAt,
			DataInsufficient: true,
			Recommendations: []string{
				"No registered risk sensors reported in the evaluation window",
			},
		}, nil
	}

	score := int(math.Round(weightedSum / weightTotal * 100))
	level := domain.LevelForScore(score)

	assessment := &domain.RiskAssessment{
		FacilityID:      facility.FacilityID,
		EvaluatedAt:     evaluatedAt,
		Score:           score,
		Level:           level,
		Factors:         factors,
		Recommendations: recommendationsFor(factors),
	}

	e.logger.Debug("Assessment computed",
		zap.String("facility_id", facility.FacilityID),
		zap.Int("score", score),
		zap.String("level", string(level)),
		zap.Int("factor_count", len(factors)),
	)

	return assessment, nil
}

// weightsForType 返回设施类型的权重表，未知类型回退到均等权重
func (e *Engine) weightsForType(facilityType domain.FacilityType) map[string]float64 {
	if w, ok := e.weights[string(facilityType)]; ok {
		return w
	}
	if w, ok := e.weights["other"]; ok {
		return w
	}

	equal := make(map[string]float64, len(e.factors))
	for _, def := range e.factors {
		equal[def.Category] = 1.0 / float64(len(e.factors))
	}
	return equal
}

// sensorSeries 提取指定传感器的数值序列（时间升序）
func sensorSeries(sorted []domain.MonitoringReading, sensor string) []float64 {
	var values []float64
	for i := range sorted {
		if v, ok := sorted[i].Sensors[sensor]; ok {
			values = append(values, v)
		}
	}
	return values
}

// recommendationsFor 根据触发的因子推导运营建议（固定顺序）
func recommendationsFor(factors []domain.RiskFactor) []string {
	var recommendations []string
	elevated := false
	for _, f := range factors {
		if f.Severity == domain.SeverityLow {
			continue
		}
		elevated = true
		switch f.Category {
		case "structural":
			recommendations = append(recommendations, "Schedule structural inspection")
		case "hydrological":
			recommendations = append(recommendations, "Review water management and freeboard controls")
		case "seepage":
			recommendations = append(recommendations, "Review environmental controls and seepage collection")
		case "deformational":
			recommendations = append(recommendations, "Commission a deformation survey")
		default:
			recommendations = append(recommendations, fmt.Sprintf("Investigate elevated %s risk factor", f.Category))
		}
	}

	if elevated {
		recommendations = append([]string{"Increase monitoring frequency"}, recommendations...)
	} else {
		recommendations = append(recommendations, "Maintain routine monitoring schedule")
	}

	return recommendations
}
