package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"listingboard/internal/logging"
)

const (
	MinTokenDuration = 7 * 24 * time.Hour
	MaxTokenDuration = 30 * 24 * time.Hour
)

type DB struct {
	URL        string
	DbHOST     string
	DbPORT     string
	DbUSER     string
	DbPASSWORD string
	DbNAME     string
	DbSSLMODE  string

	PoolMax         int
	PoolMaxIdle     int
	IdleTimeout     time.Duration
	ConnMaxLifetime time.Duration
	AcquireTimeout  time.Duration
	SlowQuery       time.Duration

	AutoMigrate    bool
	MigrationsPath string
}

type MinIO struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
	Region     string
	PublicURL  string
}

type Log struct {
	Level  string
	Format string
}

type Config struct {
	ServerPort      int
	DB              DB
	MinIO           MinIO
	Log             Log
	JWTSecretKey    string
	TokenDuration   time.Duration
	MaxUploadSize   int64
	MaxUploadFiles  int
	CORSOrigins     []string
	AuthRateLimit   int
	ShutdownTimeout time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", 8080)

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "listingboard")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_POOL_MAX", 20)
	v.SetDefault("DB_POOL_MAX_IDLE", 5)
	v.SetDefault("DB_IDLE_TIMEOUT", "30s")
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DB_ACQUIRE_TIMEOUT", "2s")
	v.SetDefault("DB_SLOW_QUERY", "500ms")
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("MIGRATIONS_PATH", "migrations/001_create_tables.sql")

	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET_NAME", "listing-images")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_REGION", "us-east-1")
	v.SetDefault("MINIO_PUBLIC_URL", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("JWT_SECRET_KEY", "")
	v.SetDefault("TOKEN_DURATION", "168h")
	v.SetDefault("MAX_UPLOAD_SIZE", 5*1024*1024)
	v.SetDefault("MAX_UPLOAD_FILES", 5)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("AUTH_RATE_LIMIT", 20)
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logging.Debug().Msg(".env file not found, using environment variables")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		ServerPort: v.GetInt("SERVER_PORT"),
		DB: DB{
			URL:             v.GetString("DATABASE_URL"),
			DbHOST:          v.GetString("DB_HOST"),
			DbPORT:          v.GetString("DB_PORT"),
			DbUSER:          v.GetString("DB_USER"),
			DbPASSWORD:      v.GetString("DB_PASSWORD"),
			DbNAME:          v.GetString("DB_NAME"),
			DbSSLMODE:       v.GetString("DB_SSLMODE"),
			PoolMax:         v.GetInt("DB_POOL_MAX"),
			PoolMaxIdle:     v.GetInt("DB_POOL_MAX_IDLE"),
			IdleTimeout:     v.GetDuration("DB_IDLE_TIMEOUT"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			AcquireTimeout:  v.GetDuration("DB_ACQUIRE_TIMEOUT"),
			SlowQuery:       v.GetDuration("DB_SLOW_QUERY"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
			MigrationsPath:  v.GetString("MIGRATIONS_PATH"),
		},
		MinIO: MinIO{
			Endpoint:   v.GetString("MINIO_ENDPOINT"),
			AccessKey:  v.GetString("MINIO_ACCESS_KEY"),
			SecretKey:  v.GetString("MINIO_SECRET_KEY"),
			BucketName: v.GetString("MINIO_BUCKET_NAME"),
			UseSSL:     v.GetBool("MINIO_USE_SSL"),
			Region:     v.GetString("MINIO_REGION"),
			PublicURL:  v.GetString("MINIO_PUBLIC_URL"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		JWTSecretKey:    v.GetString("JWT_SECRET_KEY"),
		TokenDuration:   v.GetDuration("TOKEN_DURATION"),
		MaxUploadSize:   v.GetInt64("MAX_UPLOAD_SIZE"),
		MaxUploadFiles:  v.GetInt("MAX_UPLOAD_FILES"),
		CORSOrigins:     splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		AuthRateLimit:   v.GetInt("AUTH_RATE_LIMIT"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
	}

	if cfg.MinIO.PublicURL == "" {
		scheme := "http"
		if cfg.MinIO.UseSSL {
			scheme = "https"
		}
		cfg.MinIO.PublicURL = scheme + "://" + cfg.MinIO.Endpoint
	}

	return cfg
}

// Validate checks settings the process cannot start without. The JWT secret is
// intentionally not checked here: token signing verifies it on every request.
func (c *Config) Validate() error {
	var errs []error

	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT out of range: %d", c.ServerPort))
	}
	if c.DB.URL == "" && (c.DB.DbHOST == "" || c.DB.DbNAME == "") {
		errs = append(errs, errors.New("DATABASE_URL or DB_HOST/DB_NAME must be set"))
	}
	if c.DB.PoolMax <= 0 {
		errs = append(errs, fmt.Errorf("DB_POOL_MAX must be positive, got %d", c.DB.PoolMax))
	}
	if c.MinIO.BucketName == "" {
		errs = append(errs, errors.New("MINIO_BUCKET_NAME must be set"))
	}
	if _, err := url.Parse(c.MinIO.PublicURL); err != nil {
		errs = append(errs, fmt.Errorf("MINIO_PUBLIC_URL is invalid: %w", err))
	}
	if c.MaxUploadSize <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_SIZE must be positive"))
	}
	if c.MaxUploadFiles <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_FILES must be positive"))
	}

	if c.TokenDuration < MinTokenDuration {
		c.TokenDuration = MinTokenDuration
	}
	if c.TokenDuration > MaxTokenDuration {
		c.TokenDuration = MaxTokenDuration
	}

	return errors.Join(errs...)
}

// DSN returns the lib/pq connection string.
func (d DB) DSN() string {
	timeout := int(d.AcquireTimeout.Seconds())
	if timeout < 1 {
		timeout = 1
	}

	if d.URL != "" {
		u, err := url.Parse(d.URL)
		if err != nil {
			return d.URL
		}
		q := u.Query()
		if q.Get("sslmode") == "" && d.DbSSLMODE != "" {
			q.Set("sslmode", d.DbSSLMODE)
		}
		if q.Get("connect_timeout") == "" {
			q.Set("connect_timeout", fmt.Sprint(timeout))
		}
		u.RawQuery = q.Encode()
		return u.String()
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		d.DbHOST,
		d.DbPORT,
		d.DbUSER,
		d.DbPASSWORD,
		d.DbNAME,
		d.DbSSLMODE,
		timeout,
	)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
