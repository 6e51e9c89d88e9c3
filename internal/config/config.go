package config

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type PaystackConfig struct {
	SecretKey   string `yaml:"secret_key"`
	BaseURL     string `yaml:"base_url"`
	CallbackURL string `yaml:"callback_url"`
}

type MonnifyConfig struct {
	APIKey       string `yaml:"api_key"`
	SecretKey    string `yaml:"secret_key"`
	ContractCode string `yaml:"contract_code"`
	BaseURL      string `yaml:"base_url"`
	CallbackURL  string `yaml:"callback_url"`
}

type PaymentConfig struct {
	Paystack       PaystackConfig `yaml:"paystack"`
	Monnify        MonnifyConfig  `yaml:"monnify"`
	VerifyTimeout  time.Duration  `yaml:"verify_timeout"`
	DefaultGateway string         `yaml:"default_gateway"` // paystack | monnify
}

type SchedulerConfig struct {
	LifecycleCron      string        `yaml:"lifecycle_cron"` // default "0 6 * * *"
	RetryBackoff       time.Duration `yaml:"retry_backoff"`
	WarningWindowsDays []int         `yaml:"warning_windows_days"`
	ReconcileInterval  time.Duration `yaml:"reconcile_interval"`
	ReconcileStale     time.Duration `yaml:"reconcile_stale"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	From     string `yaml:"from"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type WorkerConfig struct {
	PoolSize    int `yaml:"pool_size"`   // webhook continuation workers
	Concurrency int `yaml:"concurrency"` // asynq consumer concurrency
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Payment   PaymentConfig   `yaml:"payment"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Worker    WorkerConfig    `yaml:"worker"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the yaml file, applies environment overrides for secrets
// (a .env file is honored when present), fills defaults and validates.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&cfg.Database.URL, "DATABASE_URL")
	override(&cfg.Redis.Addr, "REDIS_ADDR")
	override(&cfg.Redis.Password, "REDIS_PASSWORD")
	override(&cfg.Payment.Paystack.SecretKey, "PAYSTACK_SECRET_KEY")
	override(&cfg.Payment.Monnify.APIKey, "MONNIFY_API_KEY")
	override(&cfg.Payment.Monnify.SecretKey, "MONNIFY_SECRET_KEY")
	override(&cfg.SMTP.Password, "SMTP_PASSWORD")
	override(&cfg.Server.JWTSecret, "ADMIN_JWT_SECRET")
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Payment.VerifyTimeout <= 0 {
		cfg.Payment.VerifyTimeout = 15 * time.Second
	}
	if cfg.Payment.DefaultGateway == "" {
		cfg.Payment.DefaultGateway = "paystack"
	}
	if cfg.Payment.Paystack.BaseURL == "" {
		cfg.Payment.Paystack.BaseURL = "https://api.paystack.co"
	}
	if cfg.Payment.Monnify.BaseURL == "" {
		cfg.Payment.Monnify.BaseURL = "https://api.monnify.com"
	}
	if cfg.Scheduler.LifecycleCron == "" {
		cfg.Scheduler.LifecycleCron = "0 6 * * *"
	}
	if cfg.Scheduler.RetryBackoff <= 0 {
		cfg.Scheduler.RetryBackoff = 30 * time.Minute
	}
	if len(cfg.Scheduler.WarningWindowsDays) == 0 {
		cfg.Scheduler.WarningWindowsDays = []int{14, 7}
	}
	if cfg.Scheduler.ReconcileInterval <= 0 {
		cfg.Scheduler.ReconcileInterval = 5 * time.Minute
	}
	if cfg.Scheduler.ReconcileStale <= 0 {
		cfg.Scheduler.ReconcileStale = 15 * time.Minute
	}
	if cfg.Worker.PoolSize <= 0 {
		cfg.Worker.PoolSize = 8
	}
	if cfg.Worker.Concurrency <= 0 {
		cfg.Worker.Concurrency = 10
	}
}

func (c *Config) validate() error {
	if err := validation.ValidateStruct(&c.Database,
		validation.Field(&c.Database.URL, validation.Required),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Redis,
		validation.Field(&c.Redis.Addr, validation.Required),
	); err != nil {
		return err
	}
	// In dev mode gateway keys may be absent; webhooks will reject everything.
	if c.Runtime.Dev {
		return nil
	}
	return validation.ValidateStruct(&c.Payment.Paystack,
		validation.Field(&c.Payment.Paystack.SecretKey, validation.Required),
	)
}
