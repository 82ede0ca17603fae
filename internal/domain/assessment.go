package domain

import "time"

// RiskLevel 风险等级
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"    // score < 34
	RiskLevelMedium RiskLevel = "medium" // 34 <= score <= 66
	RiskLevelHigh   RiskLevel = "high"   // score > 66
)

// 风险等级分档阈值
const (
	RiskScoreMediumFloor = 34
	RiskScoreHighFloor   = 67
)

// LevelForScore 根据分值计算风险等级
func LevelForScore(score int) RiskLevel {
	switch {
	case score >= RiskScoreHighFloor:
		return RiskLevelHigh
	case score >= RiskScoreMediumFloor:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// Severity 风险因子严重程度
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// RiskFactor 风险因子（类别 + 严重程度 + 描述）
type RiskFactor struct {
	Category    string   `json:"category"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// RiskAssessment 风险评估领域模型（对应 risk_assessments 表）
// 创建后不可变，只会被同一设施的后续评估取代
type RiskAssessment struct {
	AssessmentID string    `db:"assessment_id"` // UUID, NOT NULL
	FacilityID   string    `db:"facility_id"`   // UUID, NOT NULL
	EvaluatedAt  time.Time `db:"evaluated_at"`  // TIMESTAMPTZ, NOT NULL

	// 评估窗口内无数据时 DataInsufficient=true，此时 Score/Level 无意义
	DataInsufficient bool `db:"data_insufficient"` // BOOLEAN, NOT NULL

	Score int       `db:"score"` // INTEGER, 0-100
	Level RiskLevel `db:"level"` // VARCHAR(10)

	Factors         []RiskFactor `db:"factors"`         // JSONB（有序）
	Recommendations []string     `db:"recommendations"` // JSONB（有序）

	// 触发评估的已验证身份（外部认证协作方提供），可为空
	RequestedBy string `db:"requested_by"` // VARCHAR(100)

	CreatedAt time.Time `db:"created_at"` // TIMESTAMPTZ, NOT NULL（入库时间）
}
