package config

import (
	"errors"
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

// Clash academic-year bases.
const (
	ClashAYBasisProgramYear = "program_year"
	ClashAYBasisBatch       = "batch"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Holidays  HolidayConfig
	Scheduler SchedulerConfig
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
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// HolidayConfig governs the holiday range cache.
type HolidayConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// SchedulerConfig carries the session generator policy knobs.
type SchedulerConfig struct {
	MaxRangeDays     int
	AYStartMonth     int
	AYStartDay       int
	AYEndMonth       int
	AYEndDay         int
	ClashAYBasis     string
	SerializeSubject bool
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
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
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Holidays = HolidayConfig{
		CacheEnabled: v.GetBool("ENABLE_HOLIDAY_CACHE"),
		CacheTTL:     parseDuration(v.GetString("HOLIDAY_CACHE_TTL"), 30*time.Minute),
	}

	basis := strings.ToLower(strings.TrimSpace(v.GetString("SCHEDULER_CLASH_AY_BASIS")))
	if basis != ClashAYBasisBatch {
		basis = ClashAYBasisProgramYear
	}
	maxRange := v.GetInt("SCHEDULER_MAX_RANGE_DAYS")
	if maxRange <= 0 {
		maxRange = 400
	}
	cfg.Scheduler = SchedulerConfig{
		MaxRangeDays:     maxRange,
		AYStartMonth:     clamp(v.GetInt("SCHEDULER_AY_START_MONTH"), 1, 12, 6),
		AYStartDay:       clamp(v.GetInt("SCHEDULER_AY_START_DAY"), 1, 31, 1),
		AYEndMonth:       clamp(v.GetInt("SCHEDULER_AY_END_MONTH"), 1, 12, 5),
		AYEndDay:         clamp(v.GetInt("SCHEDULER_AY_END_DAY"), 1, 31, 31),
		ClashAYBasis:     basis,
		SerializeSubject: v.GetBool("SCHEDULER_SERIALIZE_SUBJECT"),
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
	v.SetDefault("DB_NAME", "academic_scheduler")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_HOLIDAY_CACHE", false)
	v.SetDefault("HOLIDAY_CACHE_TTL", "30m")

	v.SetDefault("SCHEDULER_MAX_RANGE_DAYS", 400)
	v.SetDefault("SCHEDULER_AY_START_MONTH", 6)
	v.SetDefault("SCHEDULER_AY_START_DAY", 1)
	v.SetDefault("SCHEDULER_AY_END_MONTH", 5)
	v.SetDefault("SCHEDULER_AY_END_DAY", 31)
	v.SetDefault("SCHEDULER_CLASH_AY_BASIS", ClashAYBasisProgramYear)
	v.SetDefault("SCHEDULER_SERIALIZE_SUBJECT", true)
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

func clamp(value, min, max, fallback int) int {
	if value < min || value > max {
		return fallback
	}
	return value
}
