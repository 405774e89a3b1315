// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port      int `yaml:"port"`       // public ingress (payments API)
	AdminPort int `yaml:"admin_port"` // admin API + /metrics + /health
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// CardConfig configures the hosted-checkout card processor.
type CardConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	BaseURL       string `yaml:"base_url"`
	SuccessURL    string `yaml:"success_url"`
	CancelURL     string `yaml:"cancel_url"`
}

// GatewayConfig configures the regional redirect gateway.
type GatewayConfig struct {
	StoreID       string `yaml:"store_id"`
	StorePassword string `yaml:"store_password"`
	CallbackURL   string `yaml:"callback_url"`
	Sandbox       bool   `yaml:"sandbox"`
}

type PaymentConfig struct {
	Card     CardConfig    `yaml:"card"`
	Gateway  GatewayConfig `yaml:"gateway"`
	Currency string        `yaml:"currency"`
}

type AdminConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	APIKey    string        `yaml:"api_key"` // exchanged for a session JWT at login
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type SMTPConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	From string `yaml:"from"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

type NotifyConfig struct {
	SMTP     SMTPConfig     `yaml:"smtp"`
	Telegram TelegramConfig `yaml:"telegram"`
}

type ReconcilerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Payment    PaymentConfig    `yaml:"payment"`
	Admin      AdminConfig      `yaml:"admin"`
	Notify     NotifyConfig     `yaml:"notify"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.AdminPort == 0 {
		cfg.Server.AdminPort = 9090
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Payment.Currency == "" {
		cfg.Payment.Currency = "BDT"
	}
	if cfg.Payment.Card.BaseURL == "" {
		cfg.Payment.Card.BaseURL = "https://api.stripe.com"
	}
	if cfg.Admin.TokenTTL <= 0 {
		cfg.Admin.TokenTTL = 30 * time.Minute
	}
	if cfg.Reconciler.Interval <= 0 {
		cfg.Reconciler.Interval = time.Minute
	}
	if cfg.Reconciler.StaleAfter <= 0 {
		cfg.Reconciler.StaleAfter = 10 * time.Minute
	}

	// Provider secrets are required at process start; a missing secret is a
	// configuration error, never a per-request error.
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if !dev {
		// Dev mode swaps in noop providers and has no secrets to check.
		if cfg.Payment.Card.SecretKey == "" {
			return nil, errors.New("payment.card.secret_key is required")
		}
		if cfg.Payment.Card.WebhookSecret == "" {
			return nil, errors.New("payment.card.webhook_secret is required")
		}
		if cfg.Payment.Gateway.StoreID == "" {
			return nil, errors.New("payment.gateway.store_id is required")
		}
		if cfg.Payment.Gateway.StorePassword == "" {
			return nil, errors.New("payment.gateway.store_password is required")
		}
	}
	if cfg.Admin.JWTSecret == "" {
		return nil, errors.New("admin.jwt_secret is required")
	}
	if cfg.Admin.APIKey == "" {
		return nil, errors.New("admin.api_key is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
