package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Payments      PaymentsConfig      `mapstructure:"payments"`
	SMTP          SMTPConfig          `mapstructure:"smtp"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	BaseURL           string        `mapstructure:"base_url" validate:"omitempty,url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source" validate:"required"`
}

// PaymentsConfig mirrors the per-provider credential blocks. A provider with
// empty credentials fails at adapter construction, not at startup, so a
// deployment can enable only the providers it uses.
type PaymentsConfig struct {
	AdminEmail string       `mapstructure:"admin_email" validate:"omitempty,email"`
	Stripe     StripeConfig `mapstructure:"stripe"`
	Redsys     RedsysConfig `mapstructure:"redsys"`
	PayPal     PayPalConfig `mapstructure:"paypal"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	PublicKey     string `mapstructure:"public_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	// APIBaseURL overrides the Stripe API host; tests point it at a local server.
	APIBaseURL string `mapstructure:"api_base_url" validate:"omitempty,url"`
}

type RedsysConfig struct {
	MerchantCode string `mapstructure:"merchant_code"`
	SecretKey    string `mapstructure:"secret_key"`
	Terminal     string `mapstructure:"terminal"`
	Environment  string `mapstructure:"environment" validate:"omitempty,oneof=test live"`
	// FormBaseURL / RestBaseURL override the terminal endpoints for tests.
	FormBaseURL string `mapstructure:"form_base_url" validate:"omitempty,url"`
	RestBaseURL string `mapstructure:"rest_base_url" validate:"omitempty,url"`
}

type PayPalConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Environment  string `mapstructure:"environment" validate:"omitempty,oneof=sandbox live"`
	APIBaseURL   string `mapstructure:"api_base_url" validate:"omitempty,url"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from" validate:"omitempty,email"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds the configuration purely from environment
// variables, used for container deployments without a config file.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:           getEnv("HTTP_BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("HTTP_ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DB_SOURCE", ""),
		},
		Payments: PaymentsConfig{
			AdminEmail: getEnv("PAYMENT_ADMIN_EMAIL", "admin@example.com"),
			Stripe: StripeConfig{
				SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
				PublicKey:     getEnv("STRIPE_PUBLIC_KEY", ""),
				WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
				APIBaseURL:    getEnv("STRIPE_API_BASE_URL", ""),
			},
			Redsys: RedsysConfig{
				MerchantCode: getEnv("REDSYS_MERCHANT_CODE", ""),
				SecretKey:    getEnv("REDSYS_SECRET_KEY", ""),
				Terminal:     getEnv("REDSYS_TERMINAL", "1"),
				Environment:  getEnv("REDSYS_ENVIRONMENT", "test"),
				FormBaseURL:  getEnv("REDSYS_FORM_BASE_URL", ""),
				RestBaseURL:  getEnv("REDSYS_REST_BASE_URL", ""),
			},
			PayPal: PayPalConfig{
				ClientID:     getEnv("PAYPAL_CLIENT_ID", ""),
				ClientSecret: getEnv("PAYPAL_CLIENT_SECRET", ""),
				Environment:  getEnv("PAYPAL_ENVIRONMENT", "sandbox"),
				APIBaseURL:   getEnv("PAYPAL_API_BASE_URL", ""),
			},
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "payments@example.com"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
}

// Validate checks structural constraints on the loaded configuration.
// Provider credentials are deliberately not required here; see PaymentsConfig.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}
