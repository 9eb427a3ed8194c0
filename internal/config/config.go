package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"market-backend/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Port           string
	MongoURI       string
	JWTSecret      string
	JWTExpiry      string
	AllowedOrigins []string

	Redis RedisConfig
	SMTP  SMTPConfig
	Media MediaConfig

	RateLimitEnabled bool
	// RateLimitMaxKeys caps the limiter's in-memory window cache.
	RateLimitMaxKeys int
}

type RedisConfig struct {
	URL          string
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	RetryDelay   time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
}

type SMTPConfig struct {
	Host      string
	Port      string
	Username  string
	Password  string
	FromEmail string
	FromName  string
	AppURL    string
}

type MediaConfig struct {
	Bucket     string
	Region     string
	CDNBaseURL string
	// PresignTTL bounds how long an issued upload URL stays valid.
	PresignTTL time.Duration
}

func Load() *Config {
	// .env is optional outside local development
	if err := godotenv.Load(); err != nil {
		logger.Logger().Info("no .env file loaded", zap.Error(err))
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		logger.Logger().Fatal("MONGO_URI environment variable is not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173"
	}

	return &Config{
		Port:           port,
		MongoURI:       mongoURI,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTExpiry:      os.Getenv("JWT_EXPIRY"),
		AllowedOrigins: strings.Split(allowedOrigins, ","),

		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			Host:         envOr("REDIS_HOST", "localhost"),
			Port:         envOr("REDIS_PORT", "6379"),
			Password:     os.Getenv("REDIS_PASSWORD"),
			DB:           envInt("REDIS_DB", 0),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			MaxRetries:   envInt("REDIS_MAX_RETRIES", 3),
			RetryDelay:   envDuration("REDIS_RETRY_DELAY", time.Second),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  envDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
		},

		SMTP: SMTPConfig{
			Host:      os.Getenv("SMTP_HOST"),
			Port:      envOr("SMTP_PORT", "587"),
			Username:  os.Getenv("SMTP_USERNAME"),
			Password:  os.Getenv("SMTP_PASSWORD"),
			FromEmail: envOr("SMTP_FROM_EMAIL", "no-reply@marketplace.local"),
			FromName:  envOr("SMTP_FROM_NAME", "Marketplace Admin"),
			AppURL:    envOr("APP_URL", "http://localhost:5173"),
		},

		Media: MediaConfig{
			Bucket:     os.Getenv("MEDIA_BUCKET"),
			Region:     envOr("MEDIA_REGION", "us-east-1"),
			CDNBaseURL: os.Getenv("MEDIA_CDN_BASE_URL"),
			PresignTTL: envDuration("MEDIA_PRESIGN_TTL", 15*time.Minute),
		},

		RateLimitEnabled: envBool("RATE_LIMIT_ENABLED", true),
		RateLimitMaxKeys: envInt("RATE_LIMIT_MAX_KEYS", 10000),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		logger.Logger().Warn("invalid integer in environment, using default",
			zap.String("key", key), zap.Int("default", fallback))
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		logger.Logger().Warn("invalid duration in environment, using default",
			zap.String("key", key), zap.Duration("default", fallback))
	}
	return fallback
}
