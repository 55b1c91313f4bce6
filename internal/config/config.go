package config

import (
	"os"
	"strconv"

	"lane-detector-go/internal/database"
	"lane-detector-go/internal/lane"
)

// Config структура конфигурации приложения
type Config struct {
	Server struct {
		Port        int
		Host        string
		Environment string
	}
	Database database.Config
	Storage  struct {
		StaticDir string
	}
	Pipeline struct {
		SlopeWindow lane.SlopeWindow
		Workers     int
	}
	Logging struct {
		Level string
	}
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() *Config {
	cfg := &Config{}

	// Конфигурация сервера
	cfg.Server.Port = getEnvInt("SERVER_PORT", 8080)
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.Server.Environment = getEnv("ENVIRONMENT", "development")

	// Конфигурация базы данных
	cfg.Database = database.Config{
		Driver:   getEnv("DB_DRIVER", database.DriverPostgres),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		Database: getEnv("DB_NAME", "lane_detector"),
		Username: getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres123"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		Path:     getEnv("DB_PATH", "lane_detector.db"),
	}

	// Хранилище загруженных и обработанных файлов
	cfg.Storage.StaticDir = getEnv("STATIC_DIR", "./static")

	// Конфигурация обработки
	window := lane.DefaultSlopeWindow()
	cfg.Pipeline.SlopeWindow = lane.SlopeWindow{
		MinSlope: getEnvFloat("LANE_MIN_SLOPE", window.MinSlope),
		MaxSlope: getEnvFloat("LANE_MAX_SLOPE", window.MaxSlope),
	}
	cfg.Pipeline.Workers = getEnvInt("PIPELINE_WORKERS", 4)

	// Конфигурация логирования
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	return cfg
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает int значение переменной окружения или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat получает float64 значение переменной окружения или возвращает значение по умолчанию
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
