package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tailingsiq-risk/internal/domain"
	"tailingsiq-risk/internal/repository"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// facilityPayload 注册中心返回的设施元数据
type facilityPayload struct {
	FacilityID string  `json:"facility_id"`
	Name       string  `json:"name"`
	Location   string  `json:"location"`
	Type       string  `json:"type"`
	Owner      string  `json:"owner"`
	Status     string  `json:"status"`
	CreatedAt  float64 `json:"created_at"` // 秒级 Unix 时间戳
}

// Client 设施注册中心 HTTP 客户端（远程部署模式）
// 注册中心是外部协作方，本服务只读取设施元数据
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient 创建注册中心客户端
func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}

	return &Client{
		httpClient: client,
		logger:     logger,
	}
}

// 确保实现了接口
var _ repository.FacilitiesRepository = (*Client)(nil)

// GetFacility 按ID获取设施
// 404 映射为 domain.ErrNotFound（致命），网络/超时错误原样上抛（瞬态）
func (c *Client) GetFacility(ctx context.Context, facilityID string) (*domain.Facility, error) {
	var payload facilityPayload
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&payload).
		Get("/facilities/" + facilityID)
	if err != nil {
		c.logger.Error("Registry call failed",
			zap.String("facility_id", facilityID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to call facility registry: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("facility registry error: status %d", resp.StatusCode())
	}

	return payloadToFacility(&payload), nil
}

// ListFacilities 按过滤条件列出设施
func (c *Client) ListFacilities(ctx context.Context, filters *domain.FacilityFilters) ([]domain.Facility, error) {
	req := c.httpClient.R().SetContext(ctx)

	if filters != nil {
		if filters.Owner != "" {
			req.SetQueryParam("owner", filters.Owner)
		}
		if filters.Status != "" {
			req.SetQueryParam("status", string(filters.Status))
		}
		if filters.Type != "" {
			req.SetQueryParam("type", string(filters.Type))
		}
	}

	var payloads []facilityPayload
	resp, err := req.SetResult(&payloads).Get("/facilities")
	if err != nil {
		return nil, fmt.Errorf("failed to call facility registry: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("facility registry error: status %d", resp.StatusCode())
	}

	facilities := make([]domain.Facility, 0, len(payloads))
	for i := range payloads {
		facilities = append(facilities, *payloadToFacility(&payloads[i]))
	}

	return facilities, nil
}

// IsTransient 判断注册中心错误是否为瞬态（超时/网络故障）
// 设施确实不存在（ErrNotFound）是致命错误
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false
	}
	return true
}

// payloadToFacility 载荷转换为领域模型
func payloadToFacility(p *facilityPayload) *domain.Facility {
	sec := int64(p.CreatedAt)
	nsec := int64((p.CreatedAt - float64(sec)) * 1e9)
	return &domain.Facility{
		FacilityID: p.FacilityID,
		Name:       p.Name,
		Location:   p.Location,
		Type:       domain.FacilityType(p.Type),
		Owner:      p.Owner,
		Status:     domain.FacilityStatus(p.Status),
		CreatedAt:  time.Unix(sec, nsec).UTC(),
	}
}
