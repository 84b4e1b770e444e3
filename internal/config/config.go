package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/fixwellinc/household-services-platform-sub009/pkg/types"
)

var (
	// ErrReadConfig возвращается при ошибке чтения или разбора файла конфигурации
	ErrReadConfig = errors.New("config: failed to read config")

	// ErrInvalidConfig возвращается при некорректных значениях конфигурации
	ErrInvalidConfig = errors.New("config: invalid config")
)

// Config конфигурация сервиса
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Logs       LogsConfig       `toml:"logs"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Redis      RedisConfig      `toml:"redis"`
	Scheduling SchedulingConfig `toml:"scheduling"`
}

// ServerConfig настройки HTTP сервера (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MetricsConfig настройки Prometheus метрик
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// RedisConfig настройки кэша типов услуг
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

// SchedulingConfig настройки движка расписания
type SchedulingConfig struct {
	BusinessOpen             types.TimeString `toml:"business_open"`
	BusinessClose            types.TimeString `toml:"business_close"`
	SlotStepMinutes          int              `toml:"slot_step_minutes"` // 0 = длительность записи
	CommitRetries            int              `toml:"commit_retries"`
	ValidationTimeoutSeconds int              `toml:"validation_timeout_seconds"`
}

// Load загружает конфигурацию из TOML файла, применяет значения по умолчанию
// и переопределения из переменных окружения
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadConfig, path, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 30,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "scheduling-service",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			TTLSeconds: 300,
		},
		Scheduling: SchedulingConfig{
			BusinessOpen:             types.TimeString("09:00"),
			BusinessClose:            types.TimeString("18:00"),
			CommitRetries:            3,
			ValidationTimeoutSeconds: 10,
		},
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port must be a valid TCP port (got %d)", ErrInvalidConfig, c.Server.HTTPPort)
	}

	if c.Database.Host == "" || c.Database.DBName == "" {
		return fmt.Errorf("%w: database.host and database.dbname are required", ErrInvalidConfig)
	}

	if err := c.Scheduling.BusinessOpen.Validate(); err != nil {
		return fmt.Errorf("%w: scheduling.business_open: %v", ErrInvalidConfig, err)
	}
	if err := c.Scheduling.BusinessClose.Validate(); err != nil {
		return fmt.Errorf("%w: scheduling.business_close: %v", ErrInvalidConfig, err)
	}
	if !c.Scheduling.BusinessOpen.IsBefore(c.Scheduling.BusinessClose) {
		return fmt.Errorf("%w: scheduling.business_open must be before business_close", ErrInvalidConfig)
	}

	if c.Scheduling.SlotStepMinutes < 0 {
		return fmt.Errorf("%w: scheduling.slot_step_minutes must not be negative", ErrInvalidConfig)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("%w: redis.addr is required when redis is enabled", ErrInvalidConfig)
	}

	return nil
}

// applyEnv переопределяет секреты из переменных окружения
func applyEnv(cfg *Config) {
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
}
