package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tailingsiq-risk/internal/ingest"

	"go.uber.org/zap"
)

// receivedReading 传感器网关上报的单条读数
// 主题格式：tailingsiq/{facility_id}/monitoring，payload 为读数数组
type receivedReading struct {
	FacilityID string             `json:"facility_id,omitempty"` // 为空时取主题中的设施ID
	Timestamp  float64            `json:"timestamp"`             // 秒级 Unix 时间戳
	Readings   map[string]float64 `json:"readings"`
}

// MonitorBroker 监测数据 MQTT 消息处理模块
type MonitorBroker struct {
	ingestService *ingest.Service
	logger        *zap.Logger
}

// NewMonitorBroker 创建监测数据 Broker
func NewMonitorBroker(ingestService *ingest.Service, logger *zap.Logger) *MonitorBroker {
	return &MonitorBroker{
		ingestService: ingestService,
		logger:        logger,
	}
}

// HandleMessage 处理 MQTT 消息
// 单条读数失败只记录日志，继续处理同批其余读数
func (b *MonitorBroker) HandleMessage(topic string, payload []byte) error {
	var messages []receivedReading
	if err := json.Unmarshal(payload, &messages); err != nil {
		return fmt.Errorf("failed to unmarshal monitoring payload: %w", err)
	}

	topicFacilityID := facilityIDFromTopic(topic)

	b.logger.Debug("MQTT monitoring message received",
		zap.String("topic", topic),
		zap.Int("reading_count", len(messages)),
	)

	ctx := context.Background()
	for i := range messages {
		if err := b.processReading(ctx, topicFacilityID, &messages[i]); err != nil {
			b.logger.Error("Failed to process monitoring reading",
				zap.String("topic", topic),
				zap.Int("index", i),
				zap.Error(err),
			)
		}
	}

	return nil
}

// processReading 处理单条读数
func (b *MonitorBroker) processReading(ctx context.Context, topicFacilityID string, msg *receivedReading) error {
	facilityID := msg.FacilityID
	if facilityID == "" {
		facilityID = topicFacilityID
	}
	if facilityID == "" {
		return fmt.Errorf("facility_id missing from payload and topic")
	}

	sec := int64(msg.Timestamp)
	nsec := int64((msg.Timestamp - float64(sec)) * 1e9)
	timestamp := time.Unix(sec, nsec).UTC()

	_, err := b.ingestService.Ingest(ctx, facilityID, timestamp, msg.Readings)
	return err
}

// facilityIDFromTopic 从主题中提取设施ID
// 主题格式：tailingsiq/{facility_id}/monitoring
func facilityIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) == 3 && parts[0] == "tailingsiq" && parts[2] == "monitoring" {
		return parts[1]
	}
	return ""
}
