package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is built once at startup and treated as read-only afterwards.
// Nothing outside this package reads the process environment.
type Config struct {
	Env  string
	Port string

	MongoURI  string
	MongoDB   string
	RedisAddr string

	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration

	BcryptCost int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
}

const (
	defaultAccessTTL  = 7 * 24 * time.Hour
	defaultRefreshTTL = 30 * 24 * time.Hour
)

func Load() (*Config, error) {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Env:          envOr("ENV", "development"),
		Port:         envOr("PORT", "5000"),
		MongoURI:     envOr("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:      envOr("MONGODB_DATABASE", "torilynq"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		EmailFrom:    envOr("EMAIL_FROM", "ToriLynq <no-reply@torilynq.app>"),
		S3Bucket:     os.Getenv("S3_BUCKET"),
		S3Region:     envOr("S3_REGION", "us-east-1"),
		S3Endpoint:   os.Getenv("S3_ENDPOINT"),
		S3AccessKey:  os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:  os.Getenv("S3_SECRET_KEY"),
		S3PublicURL:  os.Getenv("S3_PUBLIC_URL"),
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	cfg.AccessTokenSecret = []byte(secret)

	// Refresh tokens fall back to the access secret when no dedicated
	// refresh secret is configured.
	refreshSecret := os.Getenv("JWT_REFRESH_SECRET")
	if refreshSecret == "" {
		refreshSecret = secret
	}
	cfg.RefreshTokenSecret = []byte(refreshSecret)

	var err error
	if cfg.AccessTokenTTL, err = durationOr("JWT_EXPIRE", defaultAccessTTL); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = durationOr("JWT_REFRESH_EXPIRE", defaultRefreshTTL); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = intOr("BCRYPT_COST", 10); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = intOr("SMTP_PORT", 587); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intOr(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationOr(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
