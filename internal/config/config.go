// Package config loads process settings from the environment. A .env file in
// the working directory is read first when present; real environment
// variables win over it.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	Port        string `envconfig:"PORT" default:"8080"`

	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL       time.Duration `envconfig:"JWT_TTL" default:"24h"`
	CookieSecure bool          `envconfig:"COOKIE_SECURE" default:"false"`
	BcryptCost   int           `envconfig:"BCRYPT_COST" default:"12"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`
	StaticDir   string   `envconfig:"STATIC_DIR"`

	MaxUploadBytes   int64 `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	MaxUploadRecords int   `envconfig:"MAX_UPLOAD_RECORDS" default:"50000"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads .env (if any) and then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	if err := c.validate(); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	return c, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.MaxUploadRecords < 0 {
		return fmt.Errorf("MAX_UPLOAD_RECORDS must not be negative, got %d", c.MaxUploadRecords)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}
