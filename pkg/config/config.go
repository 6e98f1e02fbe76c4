package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Development-only secrets. Production refuses to start with any of them.
const (
	devJWTSecret       = "dev_secret"
	devHashSecret      = "dev_certificate_hash_secret"
	devSignedURLSecret = "dev_certificate_download_secret"
)

// ErrInsecureSecrets is returned when production would run on missing or development secrets.
var ErrInsecureSecrets = errors.New("production requires non-default secrets")

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Certificates CertificatesConfig
	Verification VerificationConfig
	Stats        StatsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the settings used to validate admin tokens minted by the auth service.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CertificatesConfig configures issuance, document rendering and downloads.
type CertificatesConfig struct {
	InstituteName     string
	PublicBaseURL     string
	HashSecret        string
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	WorkerConcurrency int
	WorkerRetries     int
	WorkerRetryDelay  time.Duration
	SweepSchedule     string
	SweepMinAge       time.Duration
}

// VerificationConfig tunes the public verification endpoint.
type VerificationConfig struct {
	RateLimit  int
	RateWindow time.Duration
}

// StatsConfig governs caching of per-year certificate statistics.
type StatsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: v.GetString("JWT_AUDIENCE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Certificates = CertificatesConfig{
		InstituteName:     v.GetString("CERTIFICATES_INSTITUTE_NAME"),
		PublicBaseURL:     strings.TrimRight(v.GetString("CERTIFICATES_PUBLIC_BASE_URL"), "/"),
		HashSecret:        v.GetString("CERTIFICATES_HASH_SECRET"),
		StorageDir:        v.GetString("CERTIFICATES_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("CERTIFICATES_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("CERTIFICATES_SIGNED_URL_TTL"), 15*time.Minute),
		WorkerConcurrency: v.GetInt("CERTIFICATES_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("CERTIFICATES_WORKER_RETRIES"),
		WorkerRetryDelay:  parseDuration(v.GetString("CERTIFICATES_WORKER_RETRY_DELAY"), 5*time.Second),
		SweepSchedule:     v.GetString("CERTIFICATES_SWEEP_SCHEDULE"),
		SweepMinAge:       parseDuration(v.GetString("CERTIFICATES_SWEEP_MIN_AGE"), time.Minute),
	}

	cfg.Verification = VerificationConfig{
		RateLimit:  v.GetInt("VERIFICATION_RATE_LIMIT"),
		RateWindow: parseDuration(v.GetString("VERIFICATION_RATE_WINDOW"), time.Minute),
	}

	cfg.Stats = StatsConfig{
		CacheEnabled: v.GetBool("STATS_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("STATS_CACHE_TTL"), 5*time.Minute),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects production configs that still rely on missing or well-known secrets.
func (c *Config) validate() error {
	if c.Env != EnvProduction {
		return nil
	}
	secrets := []struct {
		name, value, devDefault string
	}{
		{"JWT_SECRET", c.JWT.Secret, devJWTSecret},
		{"CERTIFICATES_HASH_SECRET", c.Certificates.HashSecret, devHashSecret},
		{"CERTIFICATES_SIGNED_URL_SECRET", c.Certificates.SignedURLSecret, devSignedURLSecret},
	}
	var insecure []string
	for _, secret := range secrets {
		if v := strings.TrimSpace(secret.value); v == "" || v == secret.devDefault {
			insecure = append(insecure, secret.name)
		}
	}
	if len(insecure) > 0 {
		return fmt.Errorf("%w: %s", ErrInsecureSecrets, strings.Join(insecure, ", "))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "csl_management")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", devJWTSecret)
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CERTIFICATES_INSTITUTE_NAME", "CSL Computer Training Institute")
	v.SetDefault("CERTIFICATES_PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("CERTIFICATES_HASH_SECRET", devHashSecret)
	v.SetDefault("CERTIFICATES_STORAGE_DIR", "./certificates")
	v.SetDefault("CERTIFICATES_SIGNED_URL_SECRET", devSignedURLSecret)
	v.SetDefault("CERTIFICATES_SIGNED_URL_TTL", "15m")
	v.SetDefault("CERTIFICATES_WORKER_CONCURRENCY", 2)
	v.SetDefault("CERTIFICATES_WORKER_RETRIES", 3)
	v.SetDefault("CERTIFICATES_WORKER_RETRY_DELAY", "5s")
	v.SetDefault("CERTIFICATES_SWEEP_SCHEDULE", "@every 5m")
	v.SetDefault("CERTIFICATES_SWEEP_MIN_AGE", "1m")

	v.SetDefault("VERIFICATION_RATE_LIMIT", 60)
	v.SetDefault("VERIFICATION_RATE_WINDOW", "1m")

	v.SetDefault("STATS_CACHE_ENABLED", true)
	v.SetDefault("STATS_CACHE_TTL", "5m")
}

// isMissingFile reports whether viper failed because the .env file is absent.
// SetConfigFile bypasses the search path, so viper returns a raw fs error there.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
