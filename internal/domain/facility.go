package domain

import "time"

// FacilityType 设施类型
type FacilityType string

const (
	FacilityTypeTailingsDam FacilityType = "tailings-dam" // 尾矿坝
	FacilityTypeHeapLeach   FacilityType = "heap-leach"   // 堆浸场
	FacilityTypeOther       FacilityType = "other"        // 其他
)

// FacilityStatus 设施状态
type FacilityStatus string

const (
	FacilityStatusActive         FacilityStatus = "active"         // 运行中
	FacilityStatusInactive       FacilityStatus = "inactive"       // 停用
	FacilityStatusDecommissioned FacilityStatus = "decommissioned" // 已退役（不可变终态）
)

// Facility 设施领域模型（对应 facilities 表）
// 退役（decommissioned）后不可变，不再接受监测数据
type Facility struct {
	FacilityID string         `db:"facility_id"` // UUID, NOT NULL
	Name       string         `db:"name"`        // VARCHAR(200), NOT NULL
	Location   string         `db:"location"`    // VARCHAR(200)
	Type       FacilityType   `db:"type"`        // VARCHAR(20), NOT NULL
	Owner      string         `db:"owner"`       // VARCHAR(200)
	Status     FacilityStatus `db:"status"`      // VARCHAR(20), NOT NULL
	CreatedAt  time.Time      `db:"created_at"`  // TIMESTAMPTZ, NOT NULL
}

// IsActive 设施是否可接收监测数据
func (f *Facility) IsActive() bool {
	return f.Status == FacilityStatusActive
}

// FacilityFilters 设施列表过滤条件
type FacilityFilters struct {
	Owner  string
	Status FacilityStatus
	Type   FacilityType
}
