package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound 通用未找到哨兵错误（注册中心/存储未命中）
var ErrNotFound = errors.New("not found")

// ValidationErrorKind 校验错误类型
type ValidationErrorKind string

const (
	ValidationTimestampOutOfBounds ValidationErrorKind = "TimestampOutOfBounds" // 传感器时间超出允许偏差
	ValidationMalformedReading     ValidationErrorKind = "MalformedReading"     // 读数为空或包含非法数值
)

// ValidationError 校验错误（调用方可修正，不自动重试）
type ValidationError struct {
	Kind   ValidationErrorKind
	Field  string // 出错的字段/传感器名
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed (%s): field %q: %s", e.Kind, e.Field, e.Detail)
	}
	return fmt.Sprintf("validation failed (%s): %s", e.Kind, e.Detail)
}

// NewValidationError 创建校验错误
func NewValidationError(kind ValidationErrorKind, field, detail string) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Detail: detail}
}

// FacilityErrorKind 设施错误类型
type FacilityErrorKind string

const (
	FacilityUnknownOrInactive FacilityErrorKind = "UnknownOrInactiveFacility" // 设施不存在或不在运行状态
)

// FacilityError 设施引用错误（只报告，不重试）
type FacilityError struct {
	Kind       FacilityErrorKind
	FacilityID string
}

func (e *FacilityError) Error() string {
	return fmt.Sprintf("facility error (%s): facility %s", e.Kind, e.FacilityID)
}

// RiskEngineErrorKind 风险引擎错误类型
type RiskEngineErrorKind string

const (
	RiskEngineMissingFacilityContext RiskEngineErrorKind = "MissingFacilityContext" // 设施元数据不可用
)

// RiskEngineError 风险引擎错误
// Transient=true 表示注册中心调用超时等瞬态故障（可重试）
// Transient=false 表示设施确实不存在（致命）
type RiskEngineError struct {
	Kind       RiskEngineErrorKind
	FacilityID string
	Transient  bool
	Err        error
}

func (e *RiskEngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("risk engine error (%s): facility %s: %v", e.Kind, e.FacilityID, e.Err)
	}
	return fmt.Sprintf("risk engine error (%s): facility %s", e.Kind, e.FacilityID)
}

func (e *RiskEngineError) Unwrap() error {
	return e.Err
}

// StoreError 存储错误（重试耗尽后上抛，对调用方表现为服务不可用）
type StoreError struct {
	Op       string // 失败的存储操作，如 "append reading"
	Attempts int    // 已尝试次数
	Err      error  // 最后一次错误
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store unavailable: %s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsRetryable 判断错误是否可重试（瞬态引擎错误或存储错误）
func IsRetryable(err error) bool {
	var engineErr *RiskEngineError
	if errors.As(err, &engineErr) {
		return engineErr.Transient
	}
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}
