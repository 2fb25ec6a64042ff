package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

// Config is loaded from the environment. The three EmailJS credentials
// are the only required values; everything else has a usable default.
// Redis and Telegram are optional integrations, enabled when their
// addresses or tokens are set.
type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	CatalogPath string `env:"CATALOG_PATH"`

	EmailJSBaseURL    string        `env:"EMAILJS_BASE_URL" envDefault:"https://api.emailjs.com"`
	EmailJSServiceID  string        `env:"EMAILJS_SERVICE_ID,required"`
	EmailJSTemplateID string        `env:"EMAILJS_TEMPLATE_ID,required"`
	EmailJSPublicKey  string        `env:"EMAILJS_PUBLIC_KEY,required"`
	RequestTimeout    time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	TelegramToken string `env:"TELEGRAM_TOKEN"`
	AdminChatID   int64  `env:"ADMIN_CHAT_ID"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
