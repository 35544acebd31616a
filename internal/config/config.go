package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-leave/internal/balance"
	"go-leave/internal/leave"
	"go-leave/internal/rbac"
	"go-leave/internal/shared/connection"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

type Config struct {
	Port        string       `mapstructure:"port"`
	DB          DBConfig     `mapstructure:"db"`
	RedisAddr   string       `mapstructure:"redis_addr"`
	KafkaBroker string       `mapstructure:"kafka_broker"`
	JWTSecret   string       `mapstructure:"jwt_secret"`
	HTTP        HTTPConfig   `mapstructure:"http"`
	Worker      WorkerConfig `mapstructure:"worker"`
	Leave       LeaveConfig  `mapstructure:"leave"`
	RBAC        rbac.Policy  `mapstructure:"rbac"`
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	Port     string `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`
}

// HTTPConfig limits every /api/v1 call per client IP, ahead of auth. A zero
// rate disables the limiter.
type HTTPConfig struct {
	RatePerIP  float64 `mapstructure:"rate_per_ip"`
	BurstPerIP int     `mapstructure:"burst_per_ip"`
}

type WorkerConfig struct {
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	BatchSize     int           `mapstructure:"batch_size"`
	ConsumerGroup string        `mapstructure:"consumer_group"`
	// MetricsAddr exposes /metrics from the worker and consumer binaries.
	// Empty disables the listener.
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// ReasonCategory is one row of the reason lookup table. It is a list rather
// than a map because viper lowercases map keys and reasons match exactly.
type ReasonCategory struct {
	Reason   string `mapstructure:"reason"`
	Category string `mapstructure:"category"`
}

type LeaveConfig struct {
	Allotments       map[string]int   `mapstructure:"allotments"`
	ReasonCategories []ReasonCategory `mapstructure:"reason_categories"`
	ApplyRate        float64          `mapstructure:"apply_rate"`
	ApplyBurst       int              `mapstructure:"apply_burst"`
}

// envBindings keeps the plain variable names used in .env files.
var envBindings = map[string]string{
	"port":                  "PORT",
	"db.host":               "DB_HOST",
	"db.user":               "DB_USER",
	"db.password":           "DB_PASSWORD",
	"db.name":               "DB_NAME",
	"db.port":               "DB_PORT",
	"db.sslmode":            "DB_SSLMODE",
	"redis_addr":            "REDIS_ADDR",
	"kafka_broker":          "KAFKA_BROKER",
	"jwt_secret":            "JWT_SECRET",
	"http.rate_per_ip":      "HTTP_RATE_PER_IP",
	"http.burst_per_ip":     "HTTP_BURST_PER_IP",
	"worker.poll_interval":  "OUTBOX_POLL_INTERVAL",
	"worker.batch_size":     "OUTBOX_BATCH_SIZE",
	"worker.consumer_group": "KAFKA_CONSUMER_GROUP",
	"worker.metrics_addr":   "WORKER_METRICS_ADDR",
	"leave.apply_rate":      "LEAVE_APPLY_RATE",
	"leave.apply_burst":     "LEAVE_APPLY_BURST",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("http.rate_per_ip", 20.0)
	v.SetDefault("http.burst_per_ip", 40)
	v.SetDefault("worker.poll_interval", "3s")
	v.SetDefault("worker.batch_size", 50)
	v.SetDefault("worker.consumer_group", "go-leave-balance-seed")
	v.SetDefault("leave.apply_rate", 1.0)
	v.SetDefault("leave.apply_burst", 5)
}

// Load reads the environment and, when path is not empty, a YAML file. The
// environment wins over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail far from their source.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("jwt_secret is required")
	}
	if c.Worker.BatchSize < 0 {
		return fmt.Errorf("worker.batch_size must not be negative, got %d", c.Worker.BatchSize)
	}
	for name, days := range c.Leave.Allotments {
		if !balance.Category(name).Valid() {
			return fmt.Errorf("leave.allotments: unknown category %q", name)
		}
		if days < 0 {
			return fmt.Errorf("leave.allotments.%s must not be negative, got %d", name, days)
		}
	}
	for i, rc := range c.Leave.ReasonCategories {
		if strings.TrimSpace(rc.Reason) == "" {
			return fmt.Errorf("leave.reason_categories[%d]: reason is required", i)
		}
		if !balance.Category(rc.Category).Valid() {
			return fmt.Errorf("leave.reason_categories[%d]: unknown category %q", i, rc.Category)
		}
	}
	if c.HTTP.RatePerIP < 0 || c.HTTP.BurstPerIP < 0 {
		return errors.New("http.rate_per_ip and http.burst_per_ip must not be negative")
	}
	if c.Leave.ApplyRate < 0 || c.Leave.ApplyBurst < 0 {
		return errors.New("leave.apply_rate and leave.apply_burst must not be negative")
	}
	return nil
}

func (c DBConfig) Postgres() connection.PostgresConfig {
	return connection.PostgresConfig{
		Host:     c.Host,
		User:     c.User,
		Password: c.Password,
		Name:     c.Name,
		Port:     c.Port,
		SSLMode:  c.SSLMode,
	}
}

// Policy merges configured allotments and reasons over the defaults.
func (c LeaveConfig) Policy() leave.Policy {
	p := leave.DefaultPolicy()
	for name, days := range c.Allotments {
		p.Allotments[balance.Category(name)] = days
	}
	if len(c.ReasonCategories) > 0 {
		p.Categories = make(leave.CategoryTable, len(c.ReasonCategories))
		for _, rc := range c.ReasonCategories {
			p.Categories[strings.TrimSpace(rc.Reason)] = balance.Category(rc.Category)
		}
	}
	return p
}

func (c LeaveConfig) Limit() (rate.Limit, int) {
	return rate.Limit(c.ApplyRate), c.ApplyBurst
}

// IPLimit reports the per-IP limiter settings and whether it is enabled.
func (c HTTPConfig) IPLimit() (rate.Limit, int, bool) {
	return rate.Limit(c.RatePerIP), c.BurstPerIP, c.RatePerIP > 0
}

// RBACPolicy falls back to the built-in role table when none is configured.
func (c *Config) RBACPolicy() rbac.Policy {
	if len(c.RBAC.Permissions) == 0 {
		return rbac.DefaultPolicy()
	}
	return c.RBAC
}
