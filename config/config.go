package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Media    MediaConfig
	JWT      JWTConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port            string        `env:"PORT" env-default:"8080"`
	Environment     string        `env:"ENV" env-default:"development"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type DatabaseConfig struct {
	Host           string        `env:"DB_HOST" env-default:"localhost"`
	Port           uint16        `env:"DB_PORT" env-default:"5432"`
	User           string        `env:"DB_USER" env-default:"postgres"`
	Password       string        `env:"DB_PASSWORD" env-default:"postgres"`
	Name           string        `env:"DB_NAME" env-default:"toolrent"`
	SSLMode        string        `env:"DB_SSLMODE" env-default:"disable"`
	MaxOpenConns   int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns   int           `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	MaxLifetime    time.Duration `env:"DB_MAX_LIFETIME" env-default:"5m"`
	MigrationsPath string        `env:"MIGRATIONS_PATH" env-default:"./migrations"`
	AutoMigrate    bool          `env:"DB_AUTO_MIGRATE" env-default:"false"`
}

// StorageConfig selects and configures the object storage backend.
// Driver is "s3" (AWS S3 or any S3-compatible service) or "memory".
type StorageConfig struct {
	Driver          string `env:"STORAGE_DRIVER" env-default:"s3"`
	Bucket          string `env:"STORAGE_BUCKET" env-default:"toolrent-media"`
	Region          string `env:"STORAGE_REGION" env-default:"us-east-1"`
	Endpoint        string `env:"STORAGE_ENDPOINT"`
	AccessKeyID     string `env:"STORAGE_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"STORAGE_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `env:"STORAGE_USE_PATH_STYLE" env-default:"false"`
	PublicBaseURL   string `env:"STORAGE_PUBLIC_BASE_URL"`
}

type MediaConfig struct {
	MaxImageSize      int64  `env:"MEDIA_MAX_IMAGE_SIZE" env-default:"5242880"`
	MaxMultipartSize  int64  `env:"MEDIA_MAX_MULTIPART_SIZE" env-default:"67108864"`
	ArticleFolder     string `env:"MEDIA_ARTICLE_FOLDER" env-default:"articles"`
	InlineImageFolder string `env:"MEDIA_INLINE_FOLDER" env-default:"articles/inline"`
	DeleteConcurrency int    `env:"MEDIA_DELETE_CONCURRENCY" env-default:"4"`
}

type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET" env-default:"your-secret-key-change-this-in-production"`
	Expiration time.Duration `env:"JWT_EXPIRATION" env-default:"24h"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"json"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables always win.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	switch c.Storage.Driver {
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("STORAGE_BUCKET is required for the s3 driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q (use s3 or memory)", c.Storage.Driver)
	}
	if c.Media.MaxImageSize <= 0 {
		return fmt.Errorf("MEDIA_MAX_IMAGE_SIZE must be positive")
	}
	return nil
}

// GetDSN returns the key/value connection string used by gorm.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GetURL returns the postgres:// form used by the migration runner.
func (c *DatabaseConfig) GetURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Name,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}
