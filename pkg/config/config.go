package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Slots    SlotsConfig
	Booking  BookingConfig
	Payments PaymentsConfig
	Tutors   TutorsConfig
	Metrics  MetricsConfig
	Audit    AuditConfig
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
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SlotsConfig tunes slot resolution and its cache.
type SlotsConfig struct {
	Policy       string
	CacheEnabled bool
	CacheTTL     time.Duration
	BrowseDays   int
	HorizonDays  int
}

// BookingConfig governs the per tutor/date admission lock.
type BookingConfig struct {
	LockTTL  time.Duration
	LockWait time.Duration
}

// PaymentsConfig holds the mock payment settings.
type PaymentsConfig struct {
	PlatformFeeRate float64
	Currency        string
}

// TutorsConfig holds defaults applied to new tutor profiles.
type TutorsConfig struct {
	DefaultHourlyRate float64
}

// AuditConfig sizes the asynchronous audit writer.
type AuditConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
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

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
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
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Slots = SlotsConfig{
		Policy:       v.GetString("SLOT_POLICY"),
		CacheEnabled: v.GetBool("ENABLE_SLOT_CACHE"),
		CacheTTL:     parseDuration(v.GetString("SLOT_CACHE_TTL"), 5*time.Minute),
		BrowseDays:   positiveOr(v.GetInt("BROWSE_DAYS"), 7),
		HorizonDays:  positiveOr(v.GetInt("BOOKING_HORIZON_DAYS"), 14),
	}

	cfg.Booking = BookingConfig{
		LockTTL:  parseDuration(v.GetString("BOOKING_LOCK_TTL"), 10*time.Second),
		LockWait: parseDuration(v.GetString("BOOKING_LOCK_WAIT"), 2*time.Second),
	}

	feeRate := v.GetFloat64("PLATFORM_FEE_RATE")
	if feeRate <= 0 || feeRate >= 1 {
		feeRate = 0.20
	}
	cfg.Payments = PaymentsConfig{
		PlatformFeeRate: feeRate,
		Currency:        strings.ToUpper(v.GetString("CURRENCY")),
	}

	rate := v.GetFloat64("DEFAULT_HOURLY_RATE")
	if rate <= 0 {
		rate = 25.0
	}
	cfg.Tutors = TutorsConfig{DefaultHourlyRate: rate}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	cfg.Audit = AuditConfig{
		Workers:    positiveOr(v.GetInt("AUDIT_WORKERS"), 2),
		BufferSize: positiveOr(v.GetInt("AUDIT_BUFFER_SIZE"), 256),
		MaxRetries: v.GetInt("AUDIT_MAX_RETRIES"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lingua_tutor")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "lingua-tutor-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SLOT_POLICY", "whole_window")
	v.SetDefault("ENABLE_SLOT_CACHE", false)
	v.SetDefault("SLOT_CACHE_TTL", "5m")
	v.SetDefault("BROWSE_DAYS", 7)
	v.SetDefault("BOOKING_HORIZON_DAYS", 14)

	v.SetDefault("BOOKING_LOCK_TTL", "10s")
	v.SetDefault("BOOKING_LOCK_WAIT", "2s")

	v.SetDefault("PLATFORM_FEE_RATE", 0.20)
	v.SetDefault("CURRENCY", "EUR")
	v.SetDefault("DEFAULT_HOURLY_RATE", 25.0)

	v.SetDefault("ENABLE_METRICS", true)

	v.SetDefault("AUDIT_WORKERS", 2)
	v.SetDefault("AUDIT_BUFFER_SIZE", 256)
	v.SetDefault("AUDIT_MAX_RETRIES", 3)
}

func isMissingFile(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such file or directory")
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

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
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
