// Package config loads service and pipeline settings from defaults, an
// optional config.yaml and HARMONIZE_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"go.ngs.io/harmonize/internal/regrid"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Work   WorkConfig   `mapstructure:"work"`
	Regrid RegridConfig `mapstructure:"regrid"`
}

type ServerConfig struct {
	Port               int      `mapstructure:"port"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	// RegridRateLimit is the sustained POST /v1/regrid rate per second; 0 disables limiting.
	RegridRateLimit float64 `mapstructure:"regrid_rate_limit"`
	RegridBurst     int     `mapstructure:"regrid_burst"`
	MaxBodyBytes    int64   `mapstructure:"max_body_bytes"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type WorkConfig struct {
	Directory string `mapstructure:"directory"`
}

type RegridConfig struct {
	Method              string  `mapstructure:"method"`
	CoarsenRatio        float64 `mapstructure:"coarsen_ratio"`
	RefineRatio         float64 `mapstructure:"refine_ratio"`
	RefineFactor        float64 `mapstructure:"refine_factor"`
	MaxMissingFraction  float64 `mapstructure:"max_missing_fraction"`
	ConservativeEnabled bool    `mapstructure:"conservative_enabled"`
	ChunkSize           int     `mapstructure:"chunk_size"`
	MaxTargetCells      int     `mapstructure:"max_target_cells"`
}

// Policy returns the adaptive dispatch thresholds.
func (r RegridConfig) Policy() regrid.Policy {
	return regrid.Policy{
		CoarsenRatio: r.CoarsenRatio,
		RefineRatio:  r.RefineRatio,
		RefineFactor: r.RefineFactor,
	}
}

// AggregateOptions returns the aggregation tolerance.
func (r RegridConfig) AggregateOptions() regrid.AggregateOptions {
	return regrid.AggregateOptions{MaxMissingFraction: r.MaxMissingFraction}
}

func setDefaults(v *viper.Viper) {
	def := regrid.DefaultPolicy()
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_allowed_origins", []string{})
	v.SetDefault("server.regrid_rate_limit", 0)
	v.SetDefault("server.regrid_burst", 4)
	v.SetDefault("server.max_body_bytes", 64<<20)
	v.SetDefault("log.level", "info")
	v.SetDefault("work.directory", "./harmonize-work")
	v.SetDefault("regrid.method", regrid.MethodAdaptive)
	v.SetDefault("regrid.coarsen_ratio", def.CoarsenRatio)
	v.SetDefault("regrid.refine_ratio", def.RefineRatio)
	v.SetDefault("regrid.refine_factor", def.RefineFactor)
	v.SetDefault("regrid.max_missing_fraction", regrid.DefaultMaxMissingFraction)
	v.SetDefault("regrid.conservative_enabled", false)
	v.SetDefault("regrid.chunk_size", 0)
	v.SetDefault("regrid.max_target_cells", regrid.DefaultMaxTargetCells)
}

// Load reads configuration. When file is empty, config.yaml is looked up in
// the working directory and ./configs; a missing file is not an error.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		_ = v.ReadInConfig() // OK if missing
	}

	// Environment variables: HARMONIZE_REGRID_METHOD → regrid.method
	v.SetEnvPrefix("HARMONIZE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// A comma separated env value arrives as a single element.
	cfg.Server.CORSAllowedOrigins = splitOrigins(cfg.Server.CORSAllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func splitOrigins(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks that the configuration is usable and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RegridRateLimit < 0 {
		errs = append(errs, fmt.Sprintf("server.regrid_rate_limit must not be negative, got %v", c.Server.RegridRateLimit))
	}
	if c.Server.RegridRateLimit > 0 && c.Server.RegridBurst < 1 {
		errs = append(errs, fmt.Sprintf("server.regrid_burst must be >= 1 when rate limiting, got %d", c.Server.RegridBurst))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Sprintf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level))
	}
	if c.Work.Directory == "" {
		errs = append(errs, "work.directory is required")
	}
	if err := c.Regrid.Policy().Validate(); err != nil {
		errs = append(errs, "regrid: "+err.Error())
	}
	if f := c.Regrid.MaxMissingFraction; f < 0 || f >= 1 {
		errs = append(errs, fmt.Sprintf("regrid.max_missing_fraction must be in [0, 1), got %v", f))
	}
	if c.Regrid.ChunkSize < 0 {
		errs = append(errs, "regrid.chunk_size must not be negative")
	}
	if c.Regrid.MaxTargetCells <= 0 {
		errs = append(errs, fmt.Sprintf("regrid.max_target_cells must be positive, got %d", c.Regrid.MaxTargetCells))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
