package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"tailingsiq-risk/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostgresAssessmentsRepository 风险评估账本Repository实现
// risk_assessments 表只追加；seq BIGSERIAL 记录追加顺序，
// 同一 evaluated_at 的并发追加按 seq 决出稳定次序
type PostgresAssessmentsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresAssessmentsRepository 创建风险评估Repository
func NewPostgresAssessmentsRepository(db *sql.DB, logger *zap.Logger) *PostgresAssessmentsRepository {
	return &PostgresAssessmentsRepository{
		db:     db,
		logger: logger,
	}
}

// 确保实现了接口
var _ AssessmentsRepository = (*PostgresAssessmentsRepository)(nil)

const assessmentColumns = `
	assessment_id::text,
	facility_id::text,
	evaluated_at,
	data_insufficient,
	score,
	level,
	factors,
	recommendations,
	requested_by,
	created_at
`

// AppendAssessment 原子追加一条评估
func (r *PostgresAssessmentsRepository) AppendAssessment(ctx context.Context, assessment *domain.RiskAssessment) (string, error) {
	if assessment == nil {
		return "", fmt.Errorf("assessment is required")
	}
	if assessment.FacilityID == "" {
		return "", fmt.Errorf("facility_id is required")
	}

	factorsJSON, err := json.Marshal(assessment.Factors)
	if err != nil {
		return "", fmt.Errorf("failed to marshal factors: %w", err)
	}
	recommendationsJSON, err := json.Marshal(assessment.Recommendations)
	if err != nil {
		return "", fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	assessmentID := assessment.AssessmentID
	if assessmentID == "" {
		assessmentID = uuid.New().String()
	}

	// 单条 INSERT，无读-改-写，并发追加互不干扰
	query := `
		INSERT INTO risk_assessments (
			assessment_id, facility_id, evaluated_at, data_insufficient,
			score, level, factors, recommendations, requested_by, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING assessment_id::text
	`

	var requestedBy sql.NullString
	if assessment.RequestedBy != "" {
		requestedBy = sql.NullString{String: assessment.RequestedBy, Valid: true}
	}

	var insertedID string
	err = r.db.QueryRowContext(ctx, query,
		assessmentID,
		assessment.FacilityID,
		assessment.EvaluatedAt,
		assessment.DataInsufficient,
		assessment.Score,
		string(assessment.Level),
		factorsJSON,
		recommendationsJSON,
		requestedBy,
	).Scan(&insertedID)
	if err != nil {
		return "", fmt.Errorf("failed to insert assessment: %w", err)
	}

	r.logger.Debug("Assessment appended",
		zap.String("assessment_id", insertedID),
		zap.String("facility_id", assessment.FacilityID),
	)

	return insertedID, nil
}

// LatestAssessment 获取设施最新评估
func (r *PostgresAssessmentsRepository) LatestAssessment(ctx context.Context, facilityID string) (*domain.RiskAssessment, error) {
	if facilityID == "" {
		return nil, fmt.Errorf("facility_id is required")
	}

	query := `SELECT ` + assessmentColumns + `
		FROM risk_assessments
		WHERE facility_id = $1
		ORDER BY evaluated_at DESC, seq DESC
		LIMIT 1
	`

	row := r.db.QueryRowContext(ctx, query, facilityID)
	assessment, err := scanAssessmentRow(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest assessment: %w", err)
	}

	return assessment, nil
}

// AssessmentHistory 按评估时间升序返回窗口内的评估
func (r *PostgresAssessmentsRepository) AssessmentHistory(ctx context.Context, facilityID string, start, end time.Time) ([]domain.RiskAssessment, error) {
	if facilityID == "" {
		return nil, fmt.Errorf("facility_id is required")
	}

	query := `SELECT ` + assessmentColumns + `
		FROM risk_assessments
		WHERE facility_id = $1
		  AND evaluated_at >= $2
		  AND evaluated_at <= $3
		ORDER BY evaluated_at ASC, seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query, facilityID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessment history: %w", err)
	}
	defer rows.Close()

	var assessments []domain.RiskAssessment
	for rows.Next() {
		assessment, err := scanAssessmentRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		assessments = append(assessments, *assessment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assessments: %w", err)
	}

	return assessments, nil
}

// scanAssessmentRow 扫描单条评估记录（Row 和 Rows 共用）
func scanAssessmentRow(scan func(dest ...interface{}) error) (*domain.RiskAssessment, error) {
	var a domain.RiskAssessment
	var requestedBy sql.NullString
	var factorsJSON, recommendationsJSON []byte

	err := scan(
		&a.AssessmentID,
		&a.FacilityID,
		&a.EvaluatedAt,
		&a.DataInsufficient,
		&a.Score,
		&a.Level,
		&factorsJSON,
		&recommendationsJSON,
		&requestedBy,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if requestedBy.Valid {
		a.RequestedBy = requestedBy.String
	}
	if len(factorsJSON) > 0 {
		if err := json.Unmarshal(factorsJSON, &a.Factors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal factors: %w", err)
		}
	}
	if len(recommendationsJSON) > 0 {
		if err := json.Unmarshal(recommendationsJSON, &a.Recommendations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recommendations: %w", err)
		}
	}

	return &a, nil
}
