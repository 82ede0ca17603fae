package risk

import (
	"fmt"

	"tailingsiq-risk/internal/domain"
)

// FactorResult 单个风险因子的评估结果
type FactorResult struct {
	SubScore float64 // 归一化子分值 [0,1]
	Severity domain.Severity
	Detail   string
}

// FactorDefinition 风险因子定义
// Sensor 指定因子消费的传感器；窗口内无该传感器数据时因子不参与评分
type FactorDefinition struct {
	Category string
	Sensor   string
	Evaluate func(values []float64) FactorResult
}

// DefaultFactors 默认风险因子目录（固定顺序，保证评估确定性）
// 归一化基准来自各传感器的工程量纲：
//   pore-pressure  kPa，100 kPa 视为满分
//   water-level    m（相对警戒水位），20 m 视为满分
//   seepage-flow   L/s，50 L/s 视为满分
//   displacement   mm，25 mm 视为满分
func DefaultFactors() []FactorDefinition {
	return []FactorDefinition{
		{
			Category: "structural",
			Sensor:   "pore-pressure",
			Evaluate: func(values []float64) FactorResult {
				// 绝对水平为主，上升趋势加权
				level := clamp01(mean(values) / 100)
				trend := 0.0
				if len(values) > 1 {
					trend = clamp01((values[len(values)-1] - values[0]) / 50)
				}
				sub := clamp01(0.7*level + 0.3*trend)
				return FactorResult{
					SubScore: sub,
					Severity: severityForSubScore(sub),
					Detail:   fmt.Sprintf("pore pressure mean %.2f kPa over %d readings", mean(values), len(values)),
				}
			},
		},
		{
			Category: "hydrological",
			Sensor:   "water-level",
			Evaluate: func(values []float64) FactorResult {
				sub := clamp01(mean(values) / 20)
				return FactorResult{
					SubScore: sub,
					Severity: severityForSubScore(sub),
					Detail:   fmt.Sprintf("pond water level mean %.2f m over %d readings", mean(values), len(values)),
				}
			},
		},
		{
			Category: "seepage",
			Sensor:   "seepage-flow",
			Evaluate: func(values []float64) FactorResult {
				sub := clamp01(maxOf(values) / 50)
				return FactorResult{
					SubScore: sub,
					Severity: severityForSubScore(sub),
					Detail:   fmt.Sprintf("seepage flow peak %.2f L/s over %d readings", maxOf(values), len(values)),
				}
			},
		},
		{
			Category: "deformational",
			Sensor:   "displacement",
			Evaluate: func(values []float64) FactorResult {
				sub := clamp01(maxOf(values) / 25)
				return FactorResult{
					SubScore: sub,
					Severity: severityForSubScore(sub),
					Detail:   fmt.Sprintf("crest displacement peak %.2f mm over %d readings", maxOf(values), len(values)),
				}
			},
		},
	}
}

// severityForSubScore 子分值映射严重程度，与总分分档保持同一阈值
func severityForSubScore(sub float64) domain.Severity {
	switch {
	case sub >= 0.67:
		return domain.SeverityHigh
	case sub >= 0.34:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}
