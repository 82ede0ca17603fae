package domain

import (
	"sort"
	"time"
)

// MonitoringReading 监测读数领域模型（对应 monitoring_readings 表）
// 一次读数包含同一时刻多个传感器的数值，入库后不可变
type MonitoringReading struct {
	ReadingID  string             `db:"reading_id"`  // UUID, NOT NULL
	FacilityID string             `db:"facility_id"` // UUID, NOT NULL（外部引用，不拥有）
	Timestamp  time.Time          `db:"timestamp"`   // TIMESTAMPTZ, NOT NULL（传感器时间，允许乱序到达）
	Sensors    map[string]float64 `db:"sensors"`     // JSONB, NOT NULL（传感器名 → 数值）
	CreatedAt  time.Time          `db:"created_at"`  // TIMESTAMPTZ, NOT NULL（服务端入库时间，单调递增）
}

// SensorNames 按字典序返回读数中出现的传感器名
// map 迭代无序，需要确定性输出的路径一律经过这里
func (r *MonitoringReading) SensorNames() []string {
	names := make([]string, 0, len(r.Sensors))
	for name := range r.Sensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortReadings 按（传感器时间, 入库时间）升序排序
// 乱序到达的读数在查询/评估前统一排序
func SortReadings(readings []MonitoringReading) {
	sort.SliceStable(readings, func(i, j int) bool {
		if readings[i].Timestamp.Equal(readings[j].Timestamp) {
			return readings[i].CreatedAt.Before(readings[j].CreatedAt)
		}
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})
}

// ValidatedReading 通过校验的待入库读数
// 校验器输出，由调用方负责持久化
type ValidatedReading struct {
	FacilityID string
	Timestamp  time.Time
	Sensors    map[string]float64
}
