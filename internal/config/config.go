package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

type Config struct {
	Environment string `toml:"environment"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	// redis, used for the scheduling guard; empty host disables it
	RedisHost    string   `toml:"redis_host"`
	RedisPort    string   `toml:"redis_port"`
	RedisLockTTL Duration `toml:"redis_lock_ttl"`
	// exercise definitions cache
	CacheSizeBytes int      `toml:"cache_size_bytes"`
	CacheTTL       Duration `toml:"cache_ttl"`

	Progression   ProgressionConfig   `toml:"progression"`
	Deload        DeloadConfig        `toml:"deload"`
	Periodization PeriodizationConfig `toml:"periodization"`
}

type ProgressionConfig struct {
	SessionsLookback   int     `toml:"sessions_lookback"`
	DefaultTargetReps  int     `toml:"default_target_reps"`
	LargeMissThreshold float64 `toml:"large_miss_threshold"`
	WeightTolerance    float64 `toml:"weight_tolerance"`
	// Increments maps an exercise class (compound, isolation) to the weight
	// step in kilos.
	Increments map[string]float64 `toml:"increments"`
}

type DeloadConfig struct {
	LookbackWeeks       int `toml:"lookback_weeks"`
	PlateauWindowWeeks  int `toml:"plateau_window_weeks"`
	ConfidenceThreshold int `toml:"confidence_threshold"`
}

type PeriodizationConfig struct {
	MinWeeks int `toml:"min_weeks"`
	MaxWeeks int `toml:"max_weeks"`
}

// Duration lets TOML carry values like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the config section for env,
// with defaults applied and validated.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config section for env [%s] missing", env)
	}
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func Default() *Config {
	cfg := &Config{
		Environment: "development",
		LogLevel:    "info",
		LogToStdout: true,
	}
	cfg.ApplyDefaults()
	return cfg
}

func (c *Config) ApplyDefaults() {
	if c.PostgresHost == "" {
		c.PostgresHost = "localhost"
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.PostgresDBName == "" {
		c.PostgresDBName = "trainload"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.RedisLockTTL.Duration == 0 {
		c.RedisLockTTL.Duration = 10 * time.Second
	}
	if c.CacheSizeBytes == 0 {
		c.CacheSizeBytes = 1 << 20
	}
	if c.CacheTTL.Duration == 0 {
		c.CacheTTL.Duration = 10 * time.Minute
	}

	p := &c.Progression
	if p.SessionsLookback == 0 {
		p.SessionsLookback = 3
	}
	if p.DefaultTargetReps == 0 {
		p.DefaultTargetReps = 8
	}
	if p.LargeMissThreshold == 0 {
		p.LargeMissThreshold = 0.2
	}
	if p.WeightTolerance == 0 {
		p.WeightTolerance = 1e-6
	}
	if p.Increments == nil {
		p.Increments = map[string]float64{
			"compound":  2.5,
			"isolation": 1.0,
		}
	}

	d := &c.Deload
	if d.LookbackWeeks == 0 {
		d.LookbackWeeks = 8
	}
	if d.PlateauWindowWeeks == 0 {
		d.PlateauWindowWeeks = 3
	}
	if d.ConfidenceThreshold == 0 {
		d.ConfidenceThreshold = 50
	}

	if c.Periodization.MinWeeks == 0 {
		c.Periodization.MinWeeks = 2
	}
	if c.Periodization.MaxWeeks == 0 {
		c.Periodization.MaxWeeks = 16
	}
}

// Validate reports every problem found, not just the first one.
func (c *Config) Validate() error {
	var err error
	p := c.Progression
	if p.SessionsLookback < 2 {
		err = multierr.Append(err, fmt.Errorf("progression.sessions_lookback must be >= 2, got %d", p.SessionsLookback))
	}
	if p.DefaultTargetReps < 1 {
		err = multierr.Append(err, fmt.Errorf("progression.default_target_reps must be positive, got %d", p.DefaultTargetReps))
	}
	if p.LargeMissThreshold <= 0 || p.LargeMissThreshold >= 1 {
		err = multierr.Append(err, fmt.Errorf("progression.large_miss_threshold must be within (0, 1), got %v", p.LargeMissThreshold))
	}
	if p.WeightTolerance < 0 {
		err = multierr.Append(err, errors.New("progression.weight_tolerance must not be negative"))
	}
	for class, inc := range p.Increments {
		if inc <= 0 {
			err = multierr.Append(err, fmt.Errorf("progression.increments.%s must be positive, got %v", class, inc))
		}
	}

	d := c.Deload
	if d.LookbackWeeks < 1 {
		err = multierr.Append(err, fmt.Errorf("deload.lookback_weeks must be positive, got %d", d.LookbackWeeks))
	}
	if d.PlateauWindowWeeks < 1 || d.PlateauWindowWeeks > d.LookbackWeeks {
		err = multierr.Append(err, fmt.Errorf("deload.plateau_window_weeks must be within [1, lookback_weeks], got %d", d.PlateauWindowWeeks))
	}
	if d.ConfidenceThreshold < 0 || d.ConfidenceThreshold > 100 {
		err = multierr.Append(err, fmt.Errorf("deload.confidence_threshold must be within [0, 100], got %d", d.ConfidenceThreshold))
	}

	if c.Periodization.MinWeeks < 1 || c.Periodization.MinWeeks > c.Periodization.MaxWeeks {
		err = multierr.Append(err, fmt.Errorf(
			"periodization weeks range [%d, %d] is invalid",
			c.Periodization.MinWeeks, c.Periodization.MaxWeeks,
		))
	}
	if c.CacheSizeBytes < 0 {
		err = multierr.Append(err, errors.New("cache_size_bytes must not be negative"))
	}

	return err
}
