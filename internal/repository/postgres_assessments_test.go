package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"tailingsiq-risk/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockAssessmentsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresAssessmentsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := NewPostgresAssessmentsRepository(db, logger)

	return db, mock, repo
}

func TestAppendAssessment_Success(t *testing.T) {
	db, mock, repo := setupMockAssessmentsDB(t)
	defer db.Close()

	ctx := context.Background()
	facilityID := uuid.New().String()
	evaluatedAt := time.Now()

	mock.ExpectQuery(`INSERT INTO risk_assessments`).
		WillReturnRows(sqlmock.NewRows([]string{"assessment_id"}).AddRow("a-1"))

	id, err := repo.AppendAssessment(ctx, &domain.RiskAssessment{
		FacilityID:  facilityID,
		EvaluatedAt: evaluatedAt,
		Score:       8,
		Level:       domain.RiskLevelLow,
		Factors: []domain.RiskFactor{
			{Category: "structural", Severity: domain.SeverityLow, Description: "pore pressure mean 11.00 kPa over 3 readings"},
		},
		Recommendations: []string{"Maintain routine monitoring schedule"},
	})

	require.NoError(t, err)
	assert.Equal(t, "a-1", id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendAssessment_MissingFacilityID(t *testing.T) {
	db, _, repo := setupMockAssessmentsDB(t)
	defer db.Close()

	_, err := repo.AppendAssessment(context.Background(), &domain.RiskAssessment{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "facility_id is required")
}

func TestLatestAssessment_Success(t *testing.T) {
	db, mock, repo := setupMockAssessmentsDB(t)
	defer db.Close()

	ctx := context.Background()
	facilityID := uuid.New().String()
	evaluatedAt := time.Now()
	createdAt := time.Now()

	rows := sqlmock.NewRows([]string{
		"assessment_id", "facility_id", "evaluated_at", "data_insufficient",
		"score", "level", "factors", "recommendations", "requested_by", "created_at",
	}).AddRow(
		"a-1", facilityID, evaluatedAt, false,
		42, "medium",
		`[{"category":"structural","severity":"medium","description":"pore pressure mean 55.00 kPa over 3 readings"}]`,
		`["Increase monitoring frequency"]`,
		"scheduler", createdAt,
	)

	mock.ExpectQuery(`SELECT`).
		WithArgs(facilityID).
		WillReturnRows(rows)

	assessment, err := repo.LatestAssessment(ctx, facilityID)

	require.NoError(t, err)
	assert.Equal(t, "a-1", assessment.AssessmentID)
	assert.Equal(t, facilityID, assessment.FacilityID)
	assert.Equal(t, 42, assessment.Score)
	assert.Equal(t, domain.RiskLevelMedium, assessment.Level)
	require.Len(t, assessment.Factors, 1)
	assert.Equal(t, "structural", assessment.Factors[0].Category)
	assert.Equal(t, []string{"Increase monitoring frequency"}, assessment.Recommendations)
	assert.Equal(t, "scheduler", assessment.RequestedBy)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestAssessment_NotFound(t *testing.T) {
	db, mock, repo := setupMockAssessmentsDB(t)
	defer db.Close()

	facilityID := uuid.New().String()

	mock.ExpectQuery(`SELECT`).
		WithArgs(facilityID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.LatestAssessment(context.Background(), facilityID)

	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentHistory_OrderedRows(t *testing.T) {
	db, mock, repo := setupMockAssessmentsDB(t)
	defer db.Close()

	facilityID := uuid.New().String()
	start := time.Now().Add(-24 * time.Hour)
	end := time.Now()

	rows := sqlmock.NewRows([]string{
		"assessment_id", "facility_id", "evaluated_at", "data_insufficient",
		"score", "level", "factors", "recommendations", "requested_by", "created_at",
	}).AddRow(
		"a-1", facilityID, start.Add(time.Hour), false, 8, "low", `[]`, `["Maintain routine monitoring schedule"]`, nil, start.Add(time.Hour),
	).AddRow(
		"a-2", facilityID, start.Add(2*time.Hour), true, 0, "", `[]`, `["Restore monitoring data flow before relying on assessments"]`, "scheduler", start.Add(2*time.Hour),
	)

	mock.ExpectQuery(`SELECT`).
		WithArgs(facilityID, start, end).
		WillReturnRows(rows)

	history, err := repo.AssessmentHistory(context.Background(), facilityID, start, end)

	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "a-1", history[0].AssessmentID)
	assert.Equal(t, "a-2", history[1].AssessmentID)
	assert.True(t, history[1].DataInsufficient)

	require.NoError(t, mock.ExpectationsWereMet())
}
