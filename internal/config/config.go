package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr          = ":8080"
	defaultDatabaseURL       = "agrirent.db"
	defaultLogLevel          = "info"
	defaultLogFormat         = "json"
	defaultNearbyRadiusKm    = "50"
	defaultNearbyMaxRadiusKm = "500"
	defaultNearbyMaxResults  = "100"
	defaultBookingTimeout    = "10s"
	defaultWSBookingRate     = "5"
	defaultWSBookingBurst    = "10"
	defaultWSSendBuffer      = "256"
	defaultRedisDB           = "0"
	defaultEventsQueue       = "rental.slot_booked"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	DatabaseURL string
	LogLevel    string
	LogFormat   string

	// JWTSecret is shared with the auth service. Empty disables identity checks.
	JWTSecret          string
	CORSAllowedOrigins []string

	NearbyDefaultRadiusKm float64
	NearbyMaxRadiusKm     float64
	NearbyMaxResults      int

	BookingTimeout time.Duration

	WSBookingRate  float64
	WSBookingBurst int
	WSSendBuffer   int

	// RedisAddr enables the cross-instance room relay.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RabbitMQURL enables booking event publishing.
	RabbitMQURL        string
	BookingEventsQueue string
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Variables already set win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.LogLevel = strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(getEnv("LOG_FORMAT", defaultLogFormat)))
	cfg.JWTSecret = strings.TrimSpace(os.Getenv("JWT_SECRET"))
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RabbitMQURL = strings.TrimSpace(os.Getenv("RABBITMQ_URL"))
	cfg.BookingEventsQueue = strings.TrimSpace(getEnv("BOOKING_EVENTS_QUEUE", defaultEventsQueue))

	var err error
	if cfg.NearbyDefaultRadiusKm, err = parseFloatEnv("NEARBY_DEFAULT_RADIUS_KM", defaultNearbyRadiusKm); err != nil {
		return nil, err
	}
	if cfg.NearbyMaxRadiusKm, err = parseFloatEnv("NEARBY_MAX_RADIUS_KM", defaultNearbyMaxRadiusKm); err != nil {
		return nil, err
	}
	if cfg.NearbyMaxResults, err = parseIntEnv("NEARBY_MAX_RESULTS", defaultNearbyMaxResults); err != nil {
		return nil, err
	}
	if cfg.BookingTimeout, err = parseDurationEnv("BOOKING_TIMEOUT", defaultBookingTimeout); err != nil {
		return nil, err
	}
	if cfg.WSBookingRate, err = parseFloatEnv("WS_BOOKING_RATE", defaultWSBookingRate); err != nil {
		return nil, err
	}
	if cfg.WSBookingBurst, err = parseIntEnv("WS_BOOKING_BURST", defaultWSBookingBurst); err != nil {
		return nil, err
	}
	if cfg.WSSendBuffer, err = parseIntEnv("WS_SEND_BUFFER", defaultWSSendBuffer); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", defaultRedisDB); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProdLike reports whether the process runs in a production environment.
func (c *Config) IsProdLike() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	if cfg.NearbyDefaultRadiusKm <= 0 {
		return fmt.Errorf("NEARBY_DEFAULT_RADIUS_KM must be > 0")
	}
	if cfg.NearbyMaxRadiusKm < cfg.NearbyDefaultRadiusKm {
		return fmt.Errorf("NEARBY_MAX_RADIUS_KM must be >= NEARBY_DEFAULT_RADIUS_KM")
	}
	if cfg.NearbyMaxResults <= 0 {
		return fmt.Errorf("NEARBY_MAX_RESULTS must be > 0")
	}
	if cfg.BookingTimeout <= 0 {
		return fmt.Errorf("BOOKING_TIMEOUT must be > 0")
	}
	if cfg.WSBookingRate <= 0 {
		return fmt.Errorf("WS_BOOKING_RATE must be > 0")
	}
	if cfg.WSBookingBurst <= 0 {
		return fmt.Errorf("WS_BOOKING_BURST must be > 0")
	}
	if cfg.WSSendBuffer <= 0 {
		return fmt.Errorf("WS_SEND_BUFFER must be > 0")
	}
	if cfg.RabbitMQURL != "" && cfg.BookingEventsQueue == "" {
		return fmt.Errorf("BOOKING_EVENTS_QUEUE must not be empty when RABBITMQ_URL is set")
	}

	if isProdLike(cfg.AppEnv) && cfg.JWTSecret == "" {
		return fmt.Errorf("in prod/release JWT_SECRET must be set")
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseFloatEnv(name, fallback string) (float64, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return f, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
