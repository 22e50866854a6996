package configs

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ECG_monitor/internal/ecg"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "50051", cfg.App.GRPCPort)
	assert.Equal(t, "medical/ecg/+/samples", cfg.MQTT.Topic)
	assert.Equal(t, 1, cfg.MQTT.QoS)
	assert.False(t, cfg.NATS.Enabled)
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Equal(t, "ecg-monitor-auth", cfg.Auth.Issuer)
	assert.Equal(t, ecg.DefaultConfig(), cfg.ECG.Filters)
	assert.Equal(t, ecg.DefaultReorderWindow, cfg.ECG.ReorderWindow)
	assert.Equal(t, ecg.DefaultLiveWindow, cfg.ECG.LiveWindow)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("MQTT_QOS", "2")
	t.Setenv("NATS_ENABLED", "yes")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ECG_REMOVE_SPIKES", "false")
	t.Setenv("ECG_POWERLINE_HZ", "50")
	t.Setenv("ECG_PAPER_SPEED", "25")
	t.Setenv("ECG_LIVE_WINDOW", "5s")
	t.Setenv("ECG_ANALYSIS_INTERVAL", "0.5")

	cfg := LoadConfig()
	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 2, cfg.MQTT.QoS)
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.False(t, cfg.ECG.Filters.RemoveSpikes)
	assert.Equal(t, 50, cfg.ECG.Filters.PowerlineFreqHz)
	assert.Equal(t, 25, cfg.ECG.Filters.PaperSpeedMmPerSec)
	assert.Equal(t, 5*time.Second, cfg.ECG.LiveWindow)
	assert.Equal(t, 500*time.Millisecond, cfg.ECG.AnalysisInterval)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigInvalidValues(t *testing.T) {
	t.Setenv("MQTT_QOS", "two")
	t.Setenv("ECG_REMOVE_BASELINE", "maybe")
	t.Setenv("ECG_POWERLINE_HZ", "55")

	cfg := LoadConfig()
	assert.Equal(t, 1, cfg.MQTT.QoS)
	assert.True(t, cfg.ECG.Filters.RemoveBaseline)
	assert.ErrorIs(t, cfg.Validate(), ecg.ErrInvalidConfiguration)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewLoggerFormatsTime(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "info", "development")
	log.Info("сессия запущена", "session_id", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abc", entry["session_id"])
	_, err := time.ParseInLocation("2006-01-02 15:04:05", entry["time"].(string), time.Local)
	assert.NoError(t, err)
	assert.Contains(t, entry, "source")

	buf.Reset()
	log.Debug("не должно попасть")
	assert.Zero(t, buf.Len())
}
