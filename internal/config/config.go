package config // package config loads application configuration from environment variables

import (
	"crypto/rand"   // random fallback secret for event signing
	"encoding/hex"  // hex encoding of the fallback secret
	"errors"        // joined validation errors
	"fmt"           // error formatting
	"os"            // os provides access to environment variables
	"strconv"       // strconv converts strings to other types
	"strings"       // driver name normalization
	"time"          // durations for session lifetime and purge interval

	"github.com/joho/godotenv" // .env loading in debug mode
)

// Storage backends understood by the database package.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// bcrypt accepts costs in [4, 31]; token bytes are bounded so the URL-safe
// encoding stays within 128..512 characters.
const (
	minBcryptCost   = 4
	maxBcryptCost   = 31
	minTokenBytes   = 96
	maxTokenBytes   = 384
	defaultTokenLen = 230
)

// Config holds all runtime configuration values.  It is built once by Load
// and handed to constructors; nothing reads the environment afterwards.
type Config struct {
	Debug bool   // development mode: relaxed cookies, text logs, .env loading
	Port  string // HTTP port to listen on

	BcryptCost           int           // bcrypt work factor for password hashing
	SessionTokenBytes    int           // random bytes per session token before encoding
	SessionMaxAge        time.Duration // server-side session lifetime
	SessionPurgeInterval time.Duration // how often expired session rows are removed
	CookieHashKey        string        // optional securecookie HMAC key for the session cookie
	CookieSecure         bool          // mark the session cookie Secure

	AdminEmail    string // bootstrap admin account
	AdminPassword string

	DB        DBConfig
	Events    EventsConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
}

// DBConfig selects the storage backend and its connection parameters.
type DBConfig struct {
	Driver     string // sqlite | mysql | postgres
	SQLitePath string // database file for the sqlite backend
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string // postgres only
}

// EventsConfig configures publishing of feed request decisions to RabbitMQ.
// An empty URL disables both the publisher and the consumer.
type EventsConfig struct {
	URL    string
	Secret string // HS256 key used to sign event envelopes
	LogDir string // where the consumer appends its audit log
}

// Enabled reports whether a broker URL was configured.
func (e EventsConfig) Enabled() bool { return e.URL != "" }

// Load reads configuration values from environment variables and returns a
// Config.  In debug mode a .env file in the working directory is applied
// first; variables already present in the environment win.
func Load() (Config, error) {
	debug := envBool("DEBUG", true)
	if debug {
		_ = godotenv.Load(".env") // a missing .env is fine
		debug = envBool("DEBUG", true)
	}

	cfg := Config{
		Debug: debug,
		Port:  envStr("APP_PORT", "8000"),

		BcryptCost:           clamp(envInt("BCRYPT_ROUNDS", 15), minBcryptCost, maxBcryptCost),
		SessionTokenBytes:    clamp(envInt("SESSION_TOKEN_LENGTH", defaultTokenLen), minTokenBytes, maxTokenBytes),
		SessionMaxAge:        time.Duration(envInt("SESSION_TIME", 30)) * 24 * time.Hour,
		SessionPurgeInterval: envDur("SESSION_PURGE_INTERVAL", time.Hour),
		CookieHashKey:        os.Getenv("SESSION_COOKIE_HASH_KEY"),
		CookieSecure:         envBool("SESSION_COOKIE_SECURE", false),

		AdminEmail:    strings.ToLower(strings.TrimSpace(envStr("ADMIN_USERNAME", "admin@example.com"))),
		AdminPassword: envStr("ADMIN_PASSWORD", "admin"),

		Cache:     LoadCacheConfig(),
		RateLimit: LoadRateLimitConfig(),
		Redis:     LoadRedisConfig(),
	}
	if cfg.SessionMaxAge <= 0 {
		cfg.SessionMaxAge = 30 * 24 * time.Hour
	}

	db, err := loadDB()
	if err != nil {
		return Config{}, err
	}
	cfg.DB = db

	cfg.Events = EventsConfig{
		URL:    envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
		Secret: os.Getenv("EVENT_SIGNING_SECRET"),
		LogDir: envStr("EVENT_LOG_DIR", "logs"),
	}
	if cfg.Events.Secret == "" {
		if cfg.Events.Secret, err = randomSecret(); err != nil {
			return Config{}, fmt.Errorf("generate event secret: %w", err)
		}
	}
	return cfg, nil
}

// loadDB picks the backend.  USE_SQLITE mirrors the historical switch;
// DB_DRIVER takes precedence when both are set.
func loadDB() (DBConfig, error) {
	def := DriverSQLite
	if !envBool("USE_SQLITE", true) {
		def = DriverPostgres
	}
	db := DBConfig{
		Driver:     strings.ToLower(envStr("DB_DRIVER", def)),
		SQLitePath: envStr("SQLITE_PATH", "database.sqlite3"),
		Host:       os.Getenv("DB_HOST"),
		User:       os.Getenv("DB_USER"),
		Password:   envStr("DB_PASSWORD", os.Getenv("DB_PASS")),
		Name:       os.Getenv("DB_NAME"),
		SSLMode:    envStr("DB_SSLMODE", "disable"),
	}
	switch db.Driver {
	case DriverSQLite:
		return db, nil
	case DriverMySQL:
		db.Port = envStr("DB_PORT", "3306")
	case DriverPostgres:
		db.Port = envStr("DB_PORT", "5432")
	default:
		return DBConfig{}, fmt.Errorf("unsupported DB_DRIVER %q", db.Driver)
	}

	var errs []error
	for key, v := range map[string]string{"DB_HOST": db.Host, "DB_USER": db.User, "DB_NAME": db.Name} {
		if v == "" {
			errs = append(errs, fmt.Errorf("missing required env var: %s", key))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return DBConfig{}, err
	}
	return db, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + c.Port }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil && dur > 0 {
		return dur
	}
	return d
}
