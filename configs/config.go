// configs/config.go
package configs

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"ECG_monitor/internal/ecg"
)

type Config struct {
	Database DatabaseConfig
	App      AppConfig
	MQTT     MQTTConfig
	NATS     NATSConfig
	Auth     AuthConfig
	ECG      ECGConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	TimeZone string
}

type AppConfig struct {
	Port     string // HTTP_PORT из .env
	GRPCPort string // GRPC_PORT из .env
	LogLevel string
	Env      string
}

type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      int
	Topic    string
}

type NATSConfig struct {
	Enabled       bool
	URL           string
	SubjectPrefix string
}

// AuthConfig проверка токенов внешнего сервиса авторизации; пустой секрет отключает её
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// ECGConfig параметры обработки сигнала
type ECGConfig struct {
	Filters          ecg.Config
	ReorderWindow    int
	LiveWindow       time.Duration
	AnalysisInterval time.Duration
}

// LoadConfig загружает конфигурацию из .env файла и окружения
func LoadConfig() *Config {
	// .env необязателен: в контейнере всё приходит через окружение
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Не удалось прочитать .env", "error", err)
	}

	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "ecg_user"),
			Password: getEnv("DB_PASSWORD", "ecg_password"),
			DBName:   getEnv("DB_NAME", "ecg_monitor"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "Europe/Moscow"),
		},
		App: AppConfig{
			Port:     getEnv("HTTP_PORT", "8080"),
			GRPCPort: getEnv("GRPC_PORT", "50051"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
			Env:      getEnv("ENV", "development"),
		},
		MQTT: MQTTConfig{
			Broker:   getEnv("MQTT_BROKER", "tcp://localhost:1883"),
			ClientID: getEnv("MQTT_CLIENT_ID", "ecg_monitor_service"),
			Username: getEnv("MQTT_USERNAME", ""),
			Password: getEnv("MQTT_PASSWORD", ""),
			QoS:      getEnvAsInt("MQTT_QOS", 1),
			Topic:    getEnv("MQTT_TOPIC", "medical/ecg/+/samples"),
		},
		NATS: NATSConfig{
			Enabled:       getEnvAsBool("NATS_ENABLED", false),
			URL:           getEnv("NATS_URL", "nats://localhost:4222"),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "ecg"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", "ecg-monitor-auth"),
		},
		ECG: ECGConfig{
			Filters: ecg.Config{
				RemoveBaseline:     getEnvAsBool("ECG_REMOVE_BASELINE", true),
				RemovePowerline:    getEnvAsBool("ECG_REMOVE_POWERLINE", true),
				RemoveSpikes:       getEnvAsBool("ECG_REMOVE_SPIKES", true),
				RemoveMuscleNoise:  getEnvAsBool("ECG_REMOVE_MUSCLE_NOISE", true),
				PowerlineFreqHz:    getEnvAsInt("ECG_POWERLINE_HZ", ecg.PowerlineHz60),
				PaperSpeedMmPerSec: getEnvAsInt("ECG_PAPER_SPEED", ecg.PaperSpeedAuto),
				MedianWindow:       getEnvAsInt("ECG_MEDIAN_WINDOW", ecg.DefaultMedianWindow),
			},
			ReorderWindow:    getEnvAsInt("ECG_REORDER_WINDOW", ecg.DefaultReorderWindow),
			LiveWindow:       getEnvAsDuration("ECG_LIVE_WINDOW", ecg.DefaultLiveWindow),
			AnalysisInterval: getEnvAsDuration("ECG_ANALYSIS_INTERVAL", time.Second),
		},
	}
}

// Validate проверяет то, что нельзя исправить значением по умолчанию
func (c *Config) Validate() error {
	return c.ECG.Filters.Validate()
}

// getEnv получает переменную окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt получает переменную окружения как int
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool понимает true/false, 1/0, yes/no
func getEnvAsBool(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "":
		return defaultValue
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvAsDuration принимает "10s", "500ms" или число секунд
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if sec := getEnvAsFloat(key, -1); sec >= 0 {
		return time.Duration(sec * float64(time.Second))
	}
	return defaultValue
}
