package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret   string   `mapstructure:"JWT_SECRET"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Booking tunables.
	DefaultAppointmentFee string `mapstructure:"DEFAULT_APPOINTMENT_FEE"`
	SlotDurationMinutes   int    `mapstructure:"SLOT_DURATION_MINUTES"`
	CancelWindowHours     int    `mapstructure:"CANCEL_WINDOW_HOURS"`

	// PublicBaseURL is the externally reachable address used to build
	// cancellation and password-reset links.
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`

	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPFrom string `mapstructure:"SMTP_FROM"`
	SMSFrom  string `mapstructure:"SMS_FROM"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("DEFAULT_APPOINTMENT_FEE", "500.00")
	v.SetDefault("SLOT_DURATION_MINUTES", 30)
	v.SetDefault("CANCEL_WINDOW_HOURS", 6)
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("DEFAULT_APPOINTMENT_FEE")
	v.BindEnv("SLOT_DURATION_MINUTES")
	v.BindEnv("CANCEL_WINDOW_HOURS")
	v.BindEnv("PUBLIC_BASE_URL")
	v.BindEnv("SMTP_HOST")
	v.BindEnv("SMTP_FROM")
	v.BindEnv("SMS_FROM")

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
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active: all requests get admin access.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: Set ENV=production and configure JWT_SECRET for production.")
		log.Println("WARNING: ============================================================")
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

// Validate checks that the configuration is safe to run. Outside
// development a real signing secret is required, and the booking
// tunables must be sane everywhere.
func (c *Config) Validate() error {
	if !c.IsDev() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when ENV=%q. Refusing to start without a signing secret", c.Env)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(c.JWTSecret))
		}
	}

	if c.SlotDurationMinutes <= 0 || c.SlotDurationMinutes > 8*60 {
		return fmt.Errorf("SLOT_DURATION_MINUTES must be between 1 and 480, got %d", c.SlotDurationMinutes)
	}
	if c.CancelWindowHours < 0 {
		return fmt.Errorf("CANCEL_WINDOW_HOURS must not be negative, got %d", c.CancelWindowHours)
	}
	if c.PublicBaseURL == "" {
		return fmt.Errorf("PUBLIC_BASE_URL is required")
	}

	return nil
}
