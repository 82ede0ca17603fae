package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"tailingsiq-risk/internal/domain"

	"github.com/google/uuid"
)

// PostgresReadingsRepository 监测读数时序Repository实现
// monitoring_readings 表只追加，created_at 由数据库分配（单调递增的入库时间）
type PostgresReadingsRepository struct {
	db *sql.DB
}

// NewPostgresReadingsRepository 创建监测读数Repository
func NewPostgresReadingsRepository(db *sql.DB) *PostgresReadingsRepository {
	return &PostgresReadingsRepository{db: db}
}

// 确保实现了接口
var _ ReadingsRepository = (*PostgresReadingsRepository)(nil)

// AppendReading 追加一条读数
func (r *PostgresReadingsRepository) AppendReading(ctx context.Context, reading *domain.ValidatedReading) (string, error) {
	if reading == nil {
		return "", fmt.Errorf("reading is required")
	}

	sensorsJSON, err := json.Marshal(reading.Sensors)
	if err != nil {
		return "", fmt.Errorf("failed to marshal sensors: %w", err)
	}

	readingID := uuid.New().String()

	query := `
		INSERT INTO monitoring_readings (reading_id, facility_id, timestamp, sensors, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING reading_id::text
	`

	var insertedID string
	err = r.db.QueryRowContext(ctx, query,
		readingID,
		reading.FacilityID,
		reading.Timestamp,
		sensorsJSON,
	).Scan(&insertedID)
	if err != nil {
		return "", fmt.Errorf("failed to insert reading: %w", err)
	}

	return insertedID, nil
}

// QueryReadings 查询时间窗口内的读数
// 乱序到达的读数在这里按（传感器时间, 入库时间）升序返回
func (r *PostgresReadingsRepository) QueryReadings(ctx context.Context, facilityID string, start, end time.Time) ([]domain.MonitoringReading, error) {
	if facilityID == "" {
		return nil, fmt.Errorf("facility_id is required")
	}

	query := `
		SELECT
			reading_id::text,
			facility_id::text,
			timestamp,
			sensors,
			created_at
		FROM monitoring_readings
		WHERE facility_id = $1
		  AND timestamp >= $2
		  AND timestamp <= $3
		ORDER BY timestamp ASC, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, facilityID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var readings []domain.MonitoringReading
	for rows.Next() {
		var reading domain.MonitoringReading
		var sensorsJSON []byte

		if err := rows.Scan(
			&reading.ReadingID,
			&reading.FacilityID,
			&reading.Timestamp,
			&sensorsJSON,
			&reading.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}

		if err := json.Unmarshal(sensorsJSON, &reading.Sensors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sensors: %w", err)
		}

		readings = append(readings, reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate readings: %w", err)
	}

	return readings, nil
}
