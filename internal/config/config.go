package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config содержит все настройки сервера
type Config struct {
	// Сервер
	ServerPort     string   `json:"server_port" yaml:"server_port"`
	PublicURL      string   `json:"public_url" yaml:"public_url"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
	LogLevel       string   `json:"log_level" yaml:"log_level"`

	// Пути
	DatabasePath string `json:"database_path" yaml:"database_path"`

	// Клиентские настройки
	HeartbeatIntervalSeconds int   `json:"heartbeat_interval_seconds" yaml:"heartbeat_interval_seconds"`
	MaxUploadBytes           int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`

	Scoring Scoring `json:"scoring" yaml:"scoring"`
}

// Scoring описывает начисление баллов
type Scoring struct {
	PointsPerPercent     int `json:"points_per_percent" yaml:"points_per_percent"`
	QuizBonusPoints      int `json:"quiz_bonus_points" yaml:"quiz_bonus_points"`
	PointsPerDay         int `json:"points_per_day" yaml:"points_per_day"`
	ChallengeBonusPoints int `json:"challenge_bonus_points" yaml:"challenge_bonus_points"`
	TimePointsPerMinute  int `json:"time_points_per_minute" yaml:"time_points_per_minute"`
	VideoPointsPerMinute int `json:"video_points_per_minute" yaml:"video_points_per_minute"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		ServerPort:               "8080",
		PublicURL:                "http://localhost:8080",
		AllowedOrigins:           []string{"*"},
		LogLevel:                 "info",
		DatabasePath:             "numerom.db",
		HeartbeatIntervalSeconds: 60,
		MaxUploadBytes:           20 << 20,
		Scoring: Scoring{
			PointsPerPercent:     1,
			QuizBonusPoints:      20,
			PointsPerDay:         10,
			ChallengeBonusPoints: 50,
			TimePointsPerMinute:  1,
			VideoPointsPerMinute: 10,
		},
	}
}

// Load читает конфигурацию из JSON- или YAML-файла (по расширению)
// и применяет переопределения из переменных окружения.
// Пустой путь означает конфигурацию по умолчанию.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, cfg)
		default:
			err = json.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ServerPort = getEnv("NUMEROM_PORT", c.ServerPort)
	c.DatabasePath = getEnv("NUMEROM_DATABASE_PATH", c.DatabasePath)
	c.PublicURL = getEnv("NUMEROM_PUBLIC_URL", c.PublicURL)
	c.LogLevel = getEnv("NUMEROM_LOG_LEVEL", c.LogLevel)
	c.HeartbeatIntervalSeconds = getEnvInt("NUMEROM_HEARTBEAT_INTERVAL", c.HeartbeatIntervalSeconds)

	if origins := os.Getenv("NUMEROM_ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}
}

// Validate проверяет обязательные настройки
func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("server_port must be set")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path must be set")
	}
	if c.HeartbeatIntervalSeconds <= 0 {
		return fmt.Errorf("heartbeat_interval_seconds must be positive, got %d", c.HeartbeatIntervalSeconds)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}

// SlogLevel переводит log_level в уровень slog
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Save сохраняет конфигурацию в файл, формат выбирается по расширению
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
