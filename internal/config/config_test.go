package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tailingsiq", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)

	assert.Equal(t, 5*time.Minute, cfg.Ingest.MaxClockSkew)
	assert.Equal(t, "tailingsiq:readings", cfg.Ingest.StreamName)

	assert.Equal(t, 7*24*time.Hour, cfg.Risk.Lookback)
	assert.Equal(t, 10*time.Second, cfg.Risk.AssessTimeout)

	assert.Equal(t, "tailingsiq:facility:", cfg.Cache.LatestKeyPrefix)
	assert.Equal(t, 300, cfg.Cache.LatestTTL)

	assert.Equal(t, 15*time.Minute, cfg.Scheduler.PollInterval)
	assert.Equal(t, 3, cfg.Store.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Store.BaseBackoff)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("INGEST_MAX_SKEW", "2m")
	t.Setenv("RISK_LOOKBACK", "48h")
	t.Setenv("STORE_MAX_ATTEMPTS", "5")
	t.Setenv("CACHE_LATEST_TTL", "60")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Ingest.MaxClockSkew)
	assert.Equal(t, 48*time.Hour, cfg.Risk.Lookback)
	assert.Equal(t, 5, cfg.Store.MaxAttempts)
	assert.Equal(t, 60, cfg.Cache.LatestTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_WeightOverridesMergeByType(t *testing.T) {
	t.Setenv("RISK_WEIGHTS", `{"tailings-dam":{"structural":0.7,"hydrological":0.3}}`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.7, cfg.Risk.Weights["tailings-dam"]["structural"])
	// 未覆盖的类型保留默认
	assert.Equal(t, 0.35, cfg.Risk.Weights["heap-leach"]["seepage"])
}

func TestLoad_InvalidWeightsJSON(t *testing.T) {
	t.Setenv("RISK_WEIGHTS", "{not json")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse RISK_WEIGHTS")
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("RISK_LOOKBACK", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7*24*time.Hour, cfg.Risk.Lookback)
}

func TestDefaultWeights_SumToOnePerType(t *testing.T) {
	weights := DefaultWeights()
	require.Contains(t, weights, "tailings-dam")
	require.Contains(t, weights, "heap-leach")
	require.Contains(t, weights, "other")

	for facilityType, w := range weights {
		sum := 0.0
		for _, v := range w {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "weights for %s should sum to 1", facilityType)
	}
}

func TestWeightsForType_UnknownFallsBackToOther(t *testing.T) {
	cfg := &Config{}
	cfg.Risk.Weights = DefaultWeights()

	w := cfg.WeightsForType("open-pit")
	assert.Equal(t, cfg.Risk.Weights["other"], w)

	w = cfg.WeightsForType("tailings-dam")
	assert.Equal(t, 0.40, w["structural"])
}
