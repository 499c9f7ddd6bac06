package config

import (
	"errors"
	"fmt"
	"os"

	"calcbot/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Singleton  SingletonConfig  `yaml:"singleton"`
	Exports    ExportConfig     `yaml:"exports"`
	Bot        BotConfig        `yaml:"bot"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken string  `yaml:"bot_token"`
	Channel  string  `yaml:"channel"` // канал подписки, с @
	Admins   []int64 `yaml:"admins"`
	Debug    bool    `yaml:"debug"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type SingletonConfig struct {
	LockPath  string `yaml:"lock_path"`
	RivalScan bool   `yaml:"rival_scan"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type BotConfig struct {
	MaintenanceInterval int `yaml:"maintenance_interval"` // секунды
	RetentionDays       int `yaml:"retention_days"`
	BroadcastRate       int `yaml:"broadcast_rate"` // сообщений в секунду
	HistoryLimit        int `yaml:"history_limit"`
}

func Load(configPath string) (*Config, error) {
	// .env не обязателен — переменные могут прийти из окружения
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}

	if c.Telegram.Channel == "" {
		return errors.New("telegram channel is required")
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	return nil
}

// IsAdmin проверяет, входит ли пользователь в список администраторов.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Telegram.Admins {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) applyDefaults() {
	if c.Singleton.LockPath == "" {
		c.Singleton.LockPath = "bot.lock"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}

	// Bot defaults
	if c.Bot.MaintenanceInterval == 0 {
		c.Bot.MaintenanceInterval = int(models.MaintenanceInterval.Seconds())
	}
	if c.Bot.RetentionDays == 0 {
		c.Bot.RetentionDays = models.CleanupRetentionDays
	}
	if c.Bot.BroadcastRate == 0 {
		c.Bot.BroadcastRate = models.DefaultBroadcastRate
	}
	if c.Bot.HistoryLimit == 0 {
		c.Bot.HistoryLimit = models.DefaultHistoryLimit
	}
}
