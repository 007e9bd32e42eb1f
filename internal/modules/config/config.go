package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"trade_ledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDirENV      = "CONFIG_DIR"
)

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"

	MarkerMemory = "memory"
	MarkerLedger = "ledger"
	MarkerRedis  = "redis"
)

// Config ...
type Config struct {
	Telegram struct {
		Token string `yaml:"token"`
		// Канал/чат, куда уходят алерты и ежедневный отчёт
		BroadcastChatID int64         `yaml:"broadcast_chat_id"`
		AdminChatID     int64         `yaml:"admin_chat_id"`
		Timeout         time.Duration `yaml:"timeout"`
		Disabled        bool          `yaml:"disabled"`
	} `yaml:"telegram"`

	Storage struct {
		Driver     string `yaml:"driver"` // memory | sqlite | postgres
		DSN        string `yaml:"dsn"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"storage"`

	Service struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"service"`

	Report struct {
		Timezone     string        `yaml:"timezone"`
		At           string        `yaml:"at"` // HH:MM в Timezone
		WindowDays   int           `yaml:"window_days"`
		PollInterval time.Duration `yaml:"poll_interval"`
		Marker       string        `yaml:"marker"` // memory | ledger | redis
	} `yaml:"report"`

	Redis struct {
		Addr string `yaml:"addr"`
		DB   int    `yaml:"db"`
		Key  string `yaml:"key"`
	} `yaml:"redis"`

	Algo struct {
		Name     string   `yaml:"name"`
		Signal   string   `yaml:"signal"`
		Status   string   `yaml:"status"`
		Risk     string   `yaml:"risk"`
		Sessions []string `yaml:"sessions"`
	} `yaml:"algo"`

	Tracing struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"tracing"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`

	// Количество по умолчанию, если сигнал его не прислал
	DefaultQuantity string `yaml:"default_quantity"`
	// Сколько ждём ответа транспорта на одну доставку
	DeliveryTimeout time.Duration `yaml:"delivery_timeout"`

	location *time.Location
}

func defaults() Config {
	var c Config
	c.Telegram.Timeout = 10 * time.Second
	c.Storage.Driver = StorageSQLite
	c.Storage.SQLitePath = "trading.db"
	c.Service.Host = "0.0.0.0"
	c.Service.Port = 8080
	c.Report.Timezone = "UTC"
	c.Report.At = "00:00"
	c.Report.WindowDays = 7
	c.Report.PollInterval = time.Minute
	c.Report.Marker = MarkerLedger
	c.Redis.Key = "trade_ledger:report:last_fired_day"
	c.Algo.Name = "Quick Profits BTC 5M"
	c.Algo.Signal = "POC Breakout + RSI Cross"
	c.Algo.Status = "Active 24/7"
	c.Algo.Risk = "5% per trade"
	c.Algo.Sessions = []string{
		"Asia: 20:00-08:00 UTC",
		"Europe: 08:00-16:00 UTC",
		"USA: 14:00-22:00 UTC",
	}
	c.Tracing.Host = "localhost"
	c.Tracing.Port = 6831
	c.Log.Level = "info"
	c.DefaultQuantity = "0.05"
	c.DeliveryTimeout = 15 * time.Second
	return c
}

func NewConfig() (*Config, error) {
	env := viper.New()
	env.AutomaticEnv()
	env.SetDefault(configFilePathENV, "values_local.yaml")
	env.SetDefault(configDirENV, "configs")

	path := env.GetString(configDirENV) + "/" + env.GetString(configFilePathENV)
	file, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		// без файла живём на дефолтах и env
		cfg := defaults()
		return finish(&cfg, env)
	}

	defer func() {
		_ = file.Close()
	}()

	cfg, err := Parse(file)
	if err != nil {
		return nil, err
	}
	return finish(cfg, env)
}

// Parse декодирует yaml поверх дефолтов без env-оверрайдов.
func Parse(r io.Reader) (*Config, error) {
	cfg := defaults()
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	return &cfg, nil
}

func finish(cfg *Config, env *viper.Viper) (*Config, error) {
	applyEnv(cfg, env)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, env *viper.Viper) {
	if v := env.GetString("TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if env.IsSet("BROADCAST_CHAT_ID") {
		cfg.Telegram.BroadcastChatID = env.GetInt64("BROADCAST_CHAT_ID")
	}
	if env.IsSet("ADMIN_CHAT_ID") {
		cfg.Telegram.AdminChatID = env.GetInt64("ADMIN_CHAT_ID")
	}
	if v := env.GetString("DATABASE_DSN"); v != "" {
		cfg.Storage.DSN = v
		cfg.Storage.Driver = StoragePostgres
	}
	if v := env.GetString("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if env.IsSet("PORT") {
		cfg.Service.Port = env.GetInt("PORT")
	}
	if v := env.GetString("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := env.GetString("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate проверяет то, без чего отчёт и хранилище не поднимутся.
func (c *Config) Validate() error {
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return fmt.Errorf("report.timezone %q: %w", c.Report.Timezone, err)
	}
	c.location = loc

	if _, _, err := c.ReportAt(); err != nil {
		return err
	}
	if c.Report.WindowDays <= 0 {
		return fmt.Errorf("report.window_days must be > 0")
	}
	if c.Report.PollInterval <= 0 {
		return fmt.Errorf("report.poll_interval must be > 0")
	}

	if _, err := decimal.NewFromString(c.DefaultQuantity); err != nil {
		return fmt.Errorf("default_quantity %q: %w", c.DefaultQuantity, err)
	}

	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	switch c.Report.Marker {
	case MarkerMemory, MarkerLedger:
	case MarkerRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for report.marker=redis")
		}
	default:
		return fmt.Errorf("unknown report.marker %q", c.Report.Marker)
	}
	return nil
}

// Location — опорная таймзона для календарных дней.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// ReportAt разбирает report.at (HH:MM).
func (c *Config) ReportAt() (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(c.Report.At))
	if err != nil {
		return 0, 0, fmt.Errorf("report.at %q: expected HH:MM", c.Report.At)
	}
	return t.Hour(), t.Minute(), nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Service.Host, c.Service.Port)
}

// DefaultQty — количество для входа без quantity.
func (c *Config) DefaultQty() decimal.Decimal {
	d, err := decimal.NewFromString(c.DefaultQuantity)
	if err != nil {
		return decimal.RequireFromString("0.05")
	}
	return d
}

func (c *Config) AlgoInfo() models.AlgoInfo {
	return models.AlgoInfo{
		Name:     c.Algo.Name,
		Signal:   c.Algo.Signal,
		Status:   c.Algo.Status,
		Risk:     c.Algo.Risk,
		Sessions: append([]string(nil), c.Algo.Sessions...),
	}
}
