package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr           string        `env:"APP_ADDR" envDefault:":8080" validate:"required"`
	BaseURL        string        `env:"OPENLIBRARY_BASE_URL" envDefault:"https://openlibrary.org" validate:"required,url"`
	Subject        string        `env:"SUBJECT" envDefault:"education_technology" validate:"required,max=128"`
	Limit          int           `env:"RESULT_LIMIT" envDefault:"50" validate:"min=1,max=1000"`
	UserAgent      string        `env:"USER_AGENT" envDefault:"subjectview/1.0" validate:"required"`
	FetchTimeout   time.Duration `env:"FETCH_TIMEOUT" envDefault:"15s" validate:"gt=0"`
	ImagesDir      string        `env:"IMAGES_DIR" envDefault:"images"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS" envDefault:"20" validate:"gte=0"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" envDefault:"40" validate:"gte=0"`
	EnableHSTS     bool          `env:"ENABLE_HSTS" envDefault:"false"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"30m" validate:"gt=0"`
	MaxSessions    int           `env:"MAX_SESSIONS" envDefault:"1000" validate:"min=1"`
}

var validate = validator.New()

// Load reads .env.local when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var msgs []string
	if err := validate.Struct(c); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("config validation failed: %w", err)
		}
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	// A limiter with zero burst admits nothing.
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		msgs = append(msgs, "RateLimitBurst failed min (must be at least 1 when RateLimitRPS is set)")
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(msgs, "; "))
}
