// Package config loads the client configuration: defaults, then an optional
// YAML file, then CARTSYNC_* environment variables. Command-line flags are
// applied last by the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	httpClient "github.com/iudanet/cartsync/internal/client/api"
	"github.com/iudanet/cartsync/internal/client/cart"
	"github.com/iudanet/cartsync/internal/client/connectivity"
	"github.com/iudanet/cartsync/internal/client/oplog"
	"github.com/iudanet/cartsync/internal/client/recovery"
)

// Переменные окружения
const (
	EnvServer    = "CARTSYNC_SERVER"
	EnvDB        = "CARTSYNC_DB"
	EnvCSRFToken = "CARTSYNC_CSRF_TOKEN"
	EnvOffline   = "CARTSYNC_OFFLINE"
	EnvLogLevel  = "CARTSYNC_LOG_LEVEL"
)

// Config настройки клиента
type Config struct {
	Server         string        `yaml:"server"`
	DBPath         string        `yaml:"db"`         // DBPath путь к файлу bbolt; пустой путь означает хранение в памяти
	CSRFToken      string        `yaml:"csrf_token"` // CSRFToken фиксированный токен; пустой означает запрос у сервера
	LogLevel       string        `yaml:"log_level"`
	Timeout        time.Duration `yaml:"timeout"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
	ProbeInterval  time.Duration `yaml:"probe_interval"`
	Retention      time.Duration `yaml:"retention"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	QuotaBytes     int64         `yaml:"quota_bytes"` // QuotaBytes лимит локального хранилища, 0 без лимита
	MaxRetries     int           `yaml:"max_retries"`
	ErrorLogSize   int           `yaml:"error_log_size"`
	Offline        bool          `yaml:"offline"`
	AutoSync       bool          `yaml:"auto_sync"`
}

// Default возвращает конфигурацию по умолчанию
func Default() Config {
	return Config{
		Server:         "http://localhost:8080",
		DBPath:         "cartsync.db",
		LogLevel:       "warn",
		Timeout:        httpClient.DefaultTimeout,
		RetryBaseDelay: httpClient.DefaultBaseDelay,
		ProbeInterval:  connectivity.DefaultProbeInterval,
		Retention:      oplog.DefaultRetention,
		CacheTTL:       httpClient.DefaultCacheTTL,
		MaxRetries:     httpClient.DefaultMaxRetries,
		ErrorLogSize:   recovery.DefaultErrorLogSize,
		AutoSync:       true,
	}
}

// Load возвращает конфигурацию по умолчанию, дополненную файлом path и
// переменными окружения. Пустой path пропускается; отсутствующий файл
// является ошибкой.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		if err := cfg.Decode(f); err != nil {
			return cfg, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Decode накладывает YAML из r на cfg. Неизвестные поля отклоняются.
func (c *Config) Decode(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// ApplyEnv применяет переменные окружения. lookup обычно os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvServer); ok && v != "" {
		c.Server = v
	}
	if v, ok := lookup(EnvDB); ok {
		c.DBPath = v
	}
	if v, ok := lookup(EnvCSRFToken); ok && v != "" {
		c.CSRFToken = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvOffline); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvOffline, err)
		}
		c.Offline = b
	}
	return nil
}

// Validate проверяет значения
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Server)
	switch {
	case c.Server == "":
		errs = append(errs, errors.New("server url is required"))
	case err != nil:
		errs = append(errs, fmt.Errorf("invalid server url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("server url must be http or https, got %q", c.Server))
	}

	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.RetryBaseDelay <= 0 {
		errs = append(errs, fmt.Errorf("retry_base_delay must be positive, got %s", c.RetryBaseDelay))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries))
	}
	if c.Retention <= 0 {
		errs = append(errs, fmt.Errorf("retention must be positive, got %s", c.Retention))
	}
	if c.QuotaBytes < 0 {
		errs = append(errs, fmt.Errorf("quota_bytes must not be negative, got %d", c.QuotaBytes))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("cache_ttl must not be negative, got %s", c.CacheTTL))
	}

	return errors.Join(errs...)
}

// SlogLevel разбирает LogLevel
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// CartConfig возвращает настройки фасада
func (c *Config) CartConfig() cart.Config {
	out := cart.DefaultConfig()
	out.Retention = c.Retention
	out.RetryBaseDelay = c.RetryBaseDelay
	out.RetryMaxRetries = c.MaxRetries
	out.AutoSync = c.AutoSync
	if c.ErrorLogSize > 0 {
		out.ErrorLogSize = c.ErrorLogSize
	}
	return out
}

// ClientOptions возвращает опции HTTP клиента
func (c *Config) ClientOptions() []httpClient.Option {
	return []httpClient.Option{
		httpClient.WithTimeout(c.Timeout),
		httpClient.WithBaseDelay(c.RetryBaseDelay),
		httpClient.WithMaxRetries(c.MaxRetries),
		httpClient.WithCache(c.CacheTTL, httpClient.DefaultCacheSize),
	}
}
