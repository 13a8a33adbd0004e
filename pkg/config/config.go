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

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Redis   RedisConfig
	CORS    CORSConfig
	Log     LogConfig
	Planner PlannerConfig
	Scoring ScoringConfig
	Cache   CacheConfig
	Jobs    JobsConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PlannerConfig holds the search defaults applied when a request does not override them.
type PlannerConfig struct {
	MaxSpawn       int
	MaxComponents  int
	MaxTime        time.Duration
	MaxIterations  int
	CheckIters     int
	InitialParents int
	MaxParents     int
	BiasTop        int
}

// ScoringConfig carries the preference weights of the scoring policy.
type ScoringConfig struct {
	ClashWeight         float64
	MaxClashHours       float64
	FreeDayBonus        float64
	EarlyStart          float64
	LateEnd             float64
	OutsideHoursPenalty float64
}

// CacheConfig toggles the Redis-backed result cache shared between instances.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// JobsConfig configures asynchronous search workers.
type JobsConfig struct {
	Workers    int
	BufferSize int
	Retries    int
	ResultTTL  time.Duration
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

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Planner = PlannerConfig{
		MaxSpawn:       v.GetInt("PLANNER_MAX_SPAWN"),
		MaxComponents:  v.GetInt("PLANNER_MAX_COMPONENTS"),
		MaxTime:        parseDuration(v.GetString("PLANNER_MAX_TIME"), 500*time.Millisecond),
		MaxIterations:  v.GetInt("PLANNER_MAX_ITERATIONS"),
		CheckIters:     v.GetInt("PLANNER_CHECK_ITERS"),
		InitialParents: v.GetInt("PLANNER_INITIAL_PARENTS"),
		MaxParents:     v.GetInt("PLANNER_MAX_PARENTS"),
		BiasTop:        v.GetInt("PLANNER_BIAS_TOP"),
	}

	cfg.Scoring = ScoringConfig{
		ClashWeight:         v.GetFloat64("SCORING_CLASH_WEIGHT"),
		MaxClashHours:       v.GetFloat64("SCORING_MAX_CLASH_HOURS"),
		FreeDayBonus:        v.GetFloat64("SCORING_FREE_DAY_BONUS"),
		EarlyStart:          v.GetFloat64("SCORING_EARLY_START"),
		LateEnd:             v.GetFloat64("SCORING_LATE_END"),
		OutsideHoursPenalty: v.GetFloat64("SCORING_OUTSIDE_HOURS_PENALTY"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_SHARED_CACHE"),
		TTL:     parseDuration(v.GetString("SHARED_CACHE_TTL"), 24*time.Hour),
	}

	cfg.Jobs = JobsConfig{
		Workers:    v.GetInt("SEARCH_JOB_WORKERS"),
		BufferSize: v.GetInt("SEARCH_JOB_BUFFER"),
		Retries:    v.GetInt("SEARCH_JOB_RETRIES"),
		ResultTTL:  parseDuration(v.GetString("SEARCH_JOB_TTL"), 30*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PLANNER_MAX_SPAWN", 5)
	v.SetDefault("PLANNER_MAX_COMPONENTS", 64)
	v.SetDefault("PLANNER_MAX_TIME", "500ms")
	v.SetDefault("PLANNER_MAX_ITERATIONS", 5000)
	v.SetDefault("PLANNER_CHECK_ITERS", 10)
	v.SetDefault("PLANNER_INITIAL_PARENTS", 100)
	v.SetDefault("PLANNER_MAX_PARENTS", 20)
	v.SetDefault("PLANNER_BIAS_TOP", 5)

	v.SetDefault("SCORING_CLASH_WEIGHT", 1.0)
	v.SetDefault("SCORING_MAX_CLASH_HOURS", 0.0)
	v.SetDefault("SCORING_FREE_DAY_BONUS", 0.0)
	v.SetDefault("SCORING_EARLY_START", 0.0)
	v.SetDefault("SCORING_LATE_END", 0.0)
	v.SetDefault("SCORING_OUTSIDE_HOURS_PENALTY", 0.0)

	v.SetDefault("ENABLE_SHARED_CACHE", false)
	v.SetDefault("SHARED_CACHE_TTL", "24h")

	v.SetDefault("SEARCH_JOB_WORKERS", 2)
	v.SetDefault("SEARCH_JOB_BUFFER", 16)
	v.SetDefault("SEARCH_JOB_RETRIES", 1)
	v.SetDefault("SEARCH_JOB_TTL", "30m")
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
