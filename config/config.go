package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const ProductionEnv = "production"

// Config holds all process configuration. Values come from the environment,
// optionally seeded from a .env file.
type Config struct {
	Port        string
	Environment string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiTimeout time.Duration

	AllowedOrigins []string
	MaxBodyBytes   int64

	Database DatabaseConfig
	Redis    RedisConfig
	S3       S3Config

	JWTSecret      string
	JWTExpiryMin   int
	RefreshExpiry  int
	StartupTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type S3Config struct {
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	PublicBase string
	PresignTTL time.Duration
}

var defaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"https://ai-chatbot-client-rho.vercel.app",
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Port:        getEnv("PORT", "5000"),
		Environment: getEnv("APP_ENV", "development"),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiTimeout: getEnvAsDuration("GEMINI_TIMEOUT", 30*time.Second),

		AllowedOrigins: getEnvAsOrigins("CORS_ALLOWED_ORIGINS", defaultOrigins),
		MaxBodyBytes:   getEnvAsInt64("MAX_BODY_BYTES", 50<<20),

		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "gemini_gateway"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		S3: S3Config{
			Region:     getEnv("S3_REGION", "us-east-1"),
			Bucket:     getEnv("S3_BUCKET", ""),
			AccessKey:  getEnv("S3_ACCESS_KEY", ""),
			SecretKey:  getEnv("S3_SECRET_KEY", ""),
			Endpoint:   getEnv("S3_ENDPOINT", ""),
			PublicBase: strings.TrimRight(getEnv("S3_PUBLIC_BASE", ""), "/"),
			PresignTTL: getEnvAsDuration("S3_PRESIGN_TTL", 15*time.Minute),
		},

		JWTSecret:      getEnv("JWT_SECRET", "change-me"),
		JWTExpiryMin:   getEnvAsInt("JWT_EXPIRY_MIN", 15),
		RefreshExpiry:  getEnvAsInt("REFRESH_EXPIRY_DAYS", 14),
		StartupTimeout: getEnvAsDuration("STARTUP_TIMEOUT", 10*time.Second),
	}
}

// Validate reports configuration that would make the process unusable.
func (c *Config) Validate() error {
	var errs []error
	if c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	if c.GeminiTimeout <= 0 {
		errs = append(errs, errors.New("GEMINI_TIMEOUT must be positive"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be positive"))
	}
	if len(c.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must list at least one origin"))
	}
	for _, o := range c.AllowedOrigins {
		if strings.Contains(o, "*") {
			errs = append(errs, fmt.Errorf("CORS_ALLOWED_ORIGINS must not contain wildcards (%q): credentials are allowed", o))
		}
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == "change-me") {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Environment == ProductionEnv
}

// StorageEnabled reports whether attachment uploads can be served.
func (c *Config) StorageEnabled() bool {
	return c.S3.Bucket != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsOrigins reads a comma separated origin list. Origins are compared
// byte for byte by the browser, so trailing slashes are dropped.
func getEnvAsOrigins(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return NormalizeOrigins(fallback)
	}
	return NormalizeOrigins(strings.Split(raw, ","))
}

// NormalizeOrigins trims whitespace and trailing slashes and drops empty and
// duplicate entries.
func NormalizeOrigins(origins []string) []string {
	seen := make(map[string]struct{}, len(origins))
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if _, dup := seen[o]; dup {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}
