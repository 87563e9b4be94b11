package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Admin
	AdminEmails string

	// Server
	Port        string
	CORSOrigins string

	// Redis (lock + hash cache). Empty address keeps both in-process.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Aggregation
	HashTimeout    time.Duration
	HashMaxBytes   int64
	HashCacheTTL   time.Duration
	PersistTimeout time.Duration
	LockTTL        time.Duration

	// Rules
	RestrictedZonesPath string
	BannedKeywords      []string
	CameraDistanceM     float64

	// Reverse geocoding. GEOCODER_URL=off disables lookups.
	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration

	SentryDSN string
}

// Load reads the environment, after merging an optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppEnv: getEnv("APP_ENV", "production"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "billguard"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "billguard.db"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m")),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h")),

		AdminEmails: getEnv("ADMIN_EMAILS", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       parseInt(getEnv("REDIS_DB", "0"), 0),

		HashTimeout:    parseDuration(getEnv("HASH_TIMEOUT", "15s")),
		HashMaxBytes:   int64(parseInt(getEnv("HASH_MAX_BYTES", "20971520"), 20<<20)),
		HashCacheTTL:   parseDuration(getEnv("HASH_CACHE_TTL", "168h")),
		PersistTimeout: parseDuration(getEnv("PERSIST_TIMEOUT", "10s")),
		LockTTL:        parseDuration(getEnv("LOCK_TTL", "30s")),

		RestrictedZonesPath: getEnv("RESTRICTED_ZONES_PATH", ""),
		BannedKeywords:      splitList(getEnv("BANNED_KEYWORDS", "")),
		CameraDistanceM:     parseFloat(getEnv("CAMERA_DISTANCE_M", "10"), 10),

		GeocoderURL:       getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: getEnv("GEOCODER_USER_AGENT", "Billguard/2.0"),
		GeocoderTimeout:   parseDuration(getEnv("GEOCODER_TIMEOUT", "5s")),

		SentryDSN: getEnv("SENTRY_DSN", ""),
	}
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.DBDriver {
	case "postgres":
		if c.DBPassword == "" {
			errs = append(errs, errors.New("DB_PASSWORD is required"))
		}
	case "sqlite":
	default:
		errs = append(errs, errors.New("DB_DRIVER must be postgres or sqlite"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDev() bool {
	return c.AppEnv == "development" || c.AppEnv == "dev"
}

func (c *Config) GeocodingEnabled() bool {
	return c.GeocoderURL != "" && c.GeocoderURL != "off"
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range splitList(c.AdminEmails) {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return f
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
