package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tailingsiq-risk/internal/domain"
)

// PostgresFacilitiesRepository 设施Repository实现
type PostgresFacilitiesRepository struct {
	db *sql.DB
}

// NewPostgresFacilitiesRepository 创建设施Repository
func NewPostgresFacilitiesRepository(db *sql.DB) *PostgresFacilitiesRepository {
	return &PostgresFacilitiesRepository{db: db}
}

// 确保实现了接口
var _ FacilitiesRepository = (*PostgresFacilitiesRepository)(nil)

const facilityColumns = `
	facility_id::text,
	name,
	location,
	type,
	owner,
	status,
	created_at
`

// GetFacility 按ID获取设施
func (r *PostgresFacilitiesRepository) GetFacility(ctx context.Context, facilityID string) (*domain.Facility, error) {
	if facilityID == "" {
		return nil, fmt.Errorf("facility_id is required")
	}

	query := `SELECT ` + facilityColumns + `
		FROM facilities
		WHERE facility_id = $1
	`

	row := r.db.QueryRowContext(ctx, query, facilityID)
	facility, err := scanFacility(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get facility: %w", err)
	}

	return facility, nil
}

// ListFacilities 按过滤条件列出设施
func (r *PostgresFacilitiesRepository) ListFacilities(ctx context.Context, filters *domain.FacilityFilters) ([]domain.Facility, error) {
	query := `SELECT ` + facilityColumns + ` FROM facilities`

	var where []string
	var args []interface{}
	argN := 1

	if filters != nil {
		if filters.Owner != "" {
			where = append(where, fmt.Sprintf("owner = $%d", argN))
			args = append(args, filters.Owner)
			argN++
		}
		if filters.Status != "" {
			where = append(where, fmt.Sprintf("status = $%d", argN))
			args = append(args, string(filters.Status))
			argN++
		}
		if filters.Type != "" {
			where = append(where, fmt.Sprintf("type = $%d", argN))
			args = append(args, string(filters.Type))
			argN++
		}
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query facilities: %w", err)
	}
	defer rows.Close()

	var facilities []domain.Facility
	for rows.Next() {
		var f domain.Facility
		var location, owner sql.NullString
		if err := rows.Scan(
			&f.FacilityID,
			&f.Name,
			&location,
			&f.Type,
			&owner,
			&f.Status,
			&f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan facility: %w", err)
		}
		if location.Valid {
			f.Location = location.String
		}
		if owner.Valid {
			f.Owner = owner.String
		}
		facilities = append(facilities, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate facilities: %w", err)
	}

	return facilities, nil
}

// scanFacility 扫描单条设施记录
func scanFacility(row *sql.Row) (*domain.Facility, error) {
	var f domain.Facility
	var location, owner sql.NullString

	err := row.Scan(
		&f.FacilityID,
		&f.Name,
		&location,
		&f.Type,
		&owner,
		&f.Status,
		&f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if location.Valid {
		f.Location = location.String
	}
	if owner.Valid {
		f.Owner = owner.String
	}

	return &f, nil
}
