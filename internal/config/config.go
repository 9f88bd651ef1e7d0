package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"RevStay"`
		Port int    `envconfig:"PORT" default:"8080"`
		Env  string `envconfig:"APP_ENV" default:"development"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"revstay"`
	}

	Server struct {
		Timeout         time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
	}

	Auth struct {
		JWTSecret   string        `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`
		TokenTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`
		CORSOrigins []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	}

	Payment struct {
		KeyID     string        `envconfig:"RAZORPAY_KEY_ID"`
		KeySecret string        `envconfig:"RAZORPAY_KEY_SECRET"`
		BaseURL   string        `envconfig:"RAZORPAY_BASE_URL" default:"https://api.razorpay.com/v1"`
		Currency  string        `envconfig:"PAYMENT_CURRENCY" default:"INR"`
		MaxAmount int64         `envconfig:"PAYMENT_MAX_AMOUNT" default:"100000"` // Major units
		Timeout   time.Duration `envconfig:"PAYMENT_TIMEOUT" default:"10s"`
		Mock      bool          `envconfig:"PAYMENT_GATEWAY_MOCK" default:"false"`
	}

	Notify struct {
		QueueSize   int           `envconfig:"NOTIFY_QUEUE_SIZE" default:"256"`
		Workers     int           `envconfig:"NOTIFY_WORKERS" default:"4"`
		SendTimeout time.Duration `envconfig:"NOTIFY_SEND_TIMEOUT" default:"30s"`
		RabbitURL   string        `envconfig:"RABBIT_URL"`
		Exchange    string        `envconfig:"NOTIFY_EXCHANGE" default:"revstay.notifications"`
		Queue       string        `envconfig:"NOTIFY_QUEUE" default:"revstay.email"`
	}

	Mail struct {
		Host     string `envconfig:"SMTP_HOST"`
		Port     int    `envconfig:"SMTP_PORT" default:"587"`
		Username string `envconfig:"SMTP_USERNAME"`
		Password string `envconfig:"SMTP_PASSWORD"`
		From     string `envconfig:"MAIL_FROM" default:"no-reply@revstay.local"`
		FromName string `envconfig:"MAIL_FROM_NAME" default:"RevStay"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// MaxAmountMinor is the payment ceiling in minor units.
func (c *Config) MaxAmountMinor() int64 {
	return c.Payment.MaxAmount * 100
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
