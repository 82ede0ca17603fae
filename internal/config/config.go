package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"tailingsiq-risk/common/config"
)

// Config 风险监测服务配置
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig
	Registry config.RegistryConfig

	// 采集校验配置
	Ingest struct {
		MaxClockSkew time.Duration // 允许的传感器时钟未来偏差，默认 5分钟
		StreamName   string        // 入库读数发布的 Redis Stream 名称
	}

	// 风险评估配置
	Risk struct {
		Lookback      time.Duration // 评估窗口回看时长，默认 7天
		AssessTimeout time.Duration // 单次评估超时，默认 10秒

		// 各设施类型的因子权重（按因子类别）
		Weights map[string]map[string]float64
	}

	// Redis 缓存配置
	Cache struct {
		LatestKeyPrefix string // 最新评估缓存键前缀，如 "tailingsiq:facility:"
		LatestSuffix    string // 最新评估缓存键后缀，如 ":assessment"
		LatestTTL       int    // 最新评估 TTL（秒）
	}

	// 定时评估配置
	Scheduler struct {
		PollInterval time.Duration // 全量评估轮询间隔，默认 15分钟
	}

	// 存储重试配置
	Store struct {
		MaxAttempts int           // 存储操作最大尝试次数，默认 3
		BaseBackoff time.Duration // 初始退避时长，按指数增长
	}

	Log struct {
		Level  string
		Format string
	}
}

// DefaultWeights 默认因子权重（按设施类型）
// 权重在引擎内归一化，绝对值只表达相对重要性
func DefaultWeights() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"tailings-dam": {
			"structural":    0.40,
			"hydrological":  0.30,
			"seepage":       0.20,
			"deformational": 0.10,
		},
		"heap-leach": {
			"structural":    0.25,
			"hydrological":  0.25,
			"seepage":       0.35,
			"deformational": 0.15,
		},
		"other": {
			"structural":    0.25,
			"hydrological":  0.25,
			"seepage":       0.25,
			"deformational": 0.25,
		},
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 数据库（默认值 + 环境变量覆盖）
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = 5432
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "tailingsiq")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "tailingsiq-risk")
	cfg.MQTT.QoS = 1
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Registry.LoadFromEnv("REGISTRY")

	// 采集配置
	cfg.Ingest.MaxClockSkew = getEnvDuration("INGEST_MAX_SKEW", 5*time.Minute)
	cfg.Ingest.StreamName = getEnv("INGEST_STREAM", "tailingsiq:readings")

	// 评估配置
	cfg.Risk.Lookback = getEnvDuration("RISK_LOOKBACK", 7*24*time.Hour)
	cfg.Risk.AssessTimeout = getEnvDuration("ASSESS_TIMEOUT", 10*time.Second)
	cfg.Risk.Weights = DefaultWeights()

	// RISK_WEIGHTS 为 JSON 覆盖，按设施类型合并到默认权重
	// 例：{"tailings-dam":{"structural":0.5,"hydrological":0.3,"seepage":0.1,"deformational":0.1}}
	if raw := os.Getenv("RISK_WEIGHTS"); raw != "" {
		var overrides map[string]map[string]float64
		if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
			return nil, fmt.Errorf("failed to parse RISK_WEIGHTS: %w", err)
		}
		for facilityType, weights := range overrides {
			cfg.Risk.Weights[facilityType] = weights
		}
	}

	// 缓存配置
	cfg.Cache.LatestKeyPrefix = getEnv("CACHE_LATEST_PREFIX", "tailingsiq:facility:")
	cfg.Cache.LatestSuffix = ":assessment"
	cfg.Cache.LatestTTL = getEnvInt("CACHE_LATEST_TTL", 300)

	// 定时评估
	cfg.Scheduler.PollInterval = getEnvDuration("POLL_INTERVAL", 15*time.Minute)

	// 存储重试
	cfg.Store.MaxAttempts = getEnvInt("STORE_MAX_ATTEMPTS", 3)
	cfg.Store.BaseBackoff = getEnvDuration("STORE_BASE_BACKOFF", 100*time.Millisecond)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// WeightsForType 返回指定设施类型的权重，未知类型回退到 "other"
func (c *Config) WeightsForType(facilityType string) map[string]float64 {
	if w, ok := c.Risk.Weights[facilityType]; ok {
		return w
	}
	return c.Risk.Weights["other"]
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
