package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string        `mapstructure:"PORT"`
	Env                string        `mapstructure:"ENV"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32         `mapstructure:"DB_MIN_CONNS"`
	DBStatementTimeout time.Duration `mapstructure:"DB_STATEMENT_TIMEOUT"`
	DBConnectTimeout   time.Duration `mapstructure:"DB_CONNECT_TIMEOUT"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	AuthSigningKey     string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer         string        `mapstructure:"AUTH_ISSUER"`
	CORSOrigins        []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS       float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int           `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit          string        `mapstructure:"BODY_LIMIT"`
	HospitalTimezone   string        `mapstructure:"HOSPITAL_TIMEZONE"`
	ChildAgeThreshold  int           `mapstructure:"CHILD_AGE_THRESHOLD"`
	AdultDoseUnits     float64       `mapstructure:"ADULT_DOSE_UNITS"`
	ChildDoseUnits     float64       `mapstructure:"CHILD_DOSE_UNITS"`
	LowStockThreshold  float64       `mapstructure:"LOW_STOCK_THRESHOLD"`
}

var envKeys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "DB_STATEMENT_TIMEOUT", "DB_CONNECT_TIMEOUT",
	"REQUEST_TIMEOUT", "AUTH_SIGNING_KEY", "AUTH_ISSUER", "CORS_ORIGINS",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "BODY_LIMIT",
	"HOSPITAL_TIMEZONE", "CHILD_AGE_THRESHOLD", "ADULT_DOSE_UNITS", "CHILD_DOSE_UNITS",
	"LOW_STOCK_THRESHOLD",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_STATEMENT_TIMEOUT", "5s")
	v.SetDefault("DB_CONNECT_TIMEOUT", "5s")
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("AUTH_ISSUER", "hms")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("HOSPITAL_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("CHILD_AGE_THRESHOLD", 12)
	v.SetDefault("ADULT_DOSE_UNITS", 1.0)
	v.SetDefault("CHILD_DOSE_UNITS", 0.5)
	v.SetDefault("LOW_STOCK_THRESHOLD", 10)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active, all requests get admin access.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location resolves HOSPITAL_TIMEZONE. The hospital's calendar day decides
// which visits count as "today".
func (c *Config) Location() (*time.Location, error) {
	if c.HospitalTimezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.HospitalTimezone)
	if err != nil {
		return nil, fmt.Errorf("HOSPITAL_TIMEZONE %q: %w", c.HospitalTimezone, err)
	}
	return loc, nil
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required when ENV=%q", c.Env)
	}
	if c.AuthSigningKey != "" && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 characters, got %d", len(c.AuthSigningKey))
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.ChildAgeThreshold <= 0 {
		return fmt.Errorf("CHILD_AGE_THRESHOLD must be positive, got %d", c.ChildAgeThreshold)
	}
	if c.AdultDoseUnits <= 0 || c.ChildDoseUnits <= 0 {
		return fmt.Errorf("ADULT_DOSE_UNITS and CHILD_DOSE_UNITS must be positive")
	}
	if c.ChildDoseUnits > c.AdultDoseUnits {
		return fmt.Errorf("CHILD_DOSE_UNITS (%v) must not exceed ADULT_DOSE_UNITS (%v)", c.ChildDoseUnits, c.AdultDoseUnits)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
