package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration loaded from environment variables or a .env file.
type Config struct {
	AppEnv  string `mapstructure:"APP_ENV" validate:"required,oneof=development staging production test"`
	AppPort string `mapstructure:"APP_PORT" validate:"required"`

	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"required,oneof=debug info warn error dpanic panic fatal"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"required,oneof=json console"`

	DBDriver    string `mapstructure:"DB_DRIVER" validate:"required,oneof=sqlite postgres"`
	DatabaseDSN string `mapstructure:"DATABASE_DSN" validate:"required"`

	JWTSecret string        `mapstructure:"JWT_SECRET" validate:"required,min=8"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL" validate:"required"`

	StorageDriver  string `mapstructure:"STORAGE_DRIVER" validate:"required,oneof=disk s3"`
	UploadDir      string `mapstructure:"UPLOAD_DIR" validate:"required_if=StorageDriver disk"`
	MaxUploadFiles int    `mapstructure:"MAX_UPLOAD_FILES" validate:"gte=1,lte=100"`
	BodyLimitMB    int    `mapstructure:"BODY_LIMIT_MB" validate:"gte=1"`

	S3Bucket          string `mapstructure:"S3_BUCKET" validate:"required_if=StorageDriver s3"`
	S3Region          string `mapstructure:"S3_REGION"`
	S3Endpoint        string `mapstructure:"S3_ENDPOINT"`
	S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3Prefix          string `mapstructure:"S3_PREFIX"`

	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`

	RateLimitMax int    `mapstructure:"RATE_LIMIT_MAX" validate:"gte=0"`
	CORSOrigins  string `mapstructure:"CORS_ORIGINS"`
}

var (
	validate = validator.New(validator.WithRequiredStructEnabled())

	keys = []string{
		"APP_ENV", "APP_PORT",
		"LOG_LEVEL", "LOG_FORMAT",
		"DB_DRIVER", "DATABASE_DSN",
		"JWT_SECRET", "TOKEN_TTL",
		"STORAGE_DRIVER", "UPLOAD_DIR", "MAX_UPLOAD_FILES", "BODY_LIMIT_MB",
		"S3_BUCKET", "S3_REGION", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY", "S3_PREFIX",
		"RABBITMQ_URL",
		"RATE_LIMIT_MAX", "CORS_ORIGINS",
	}
)

// Load reads .env (if present), applies defaults, binds env vars and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", ":4000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "showroom.db")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("STORAGE_DRIVER", "disk")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("MAX_UPLOAD_FILES", 10)
	v.SetDefault("BODY_LIMIT_MB", 50)
	v.SetDefault("S3_REGION", "auto")
	v.SetDefault("S3_PREFIX", "cars")
	v.SetDefault("RATE_LIMIT_MAX", 120)
	v.SetDefault("CORS_ORIGINS", "*")

	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	if s := v.GetString("TOKEN_TTL"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
		}
		c.TokenTTL = d
	}

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &c, nil
}
