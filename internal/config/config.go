package config // package config loads application configuration from the environment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable, optionally provided through a .env file.
type Config struct {
	Env          string   // application environment (dev, test, prod)
	Port         string   // HTTP port to listen on
	DBDriver     string   // "mysql" or "sqlite"
	DBUser       string   // database username
	DBPass       string   // database password (optional)
	DBHost       string   // database host address
	DBPort       string   // database port number
	DBName       string   // database name
	SQLitePath   string   // file used when DBDriver is sqlite
	JWTSecret    string   // secret used to sign JWTs
	AccessTTLMin int      // access token time-to-live in minutes
	BcryptCost   int      // bcrypt cost for password hashing
	CORSOrigins  []string // origins allowed to call the API from a browser
	LogLevel     string   // logrus level name
	LogFile      string   // optional log file; stdout when empty
	AMQPURL      string   // RabbitMQ URL; events are disabled when empty
}

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// ErrMissing is wrapped by Load for every required variable that is unset.
var ErrMissing = errors.New("missing required env var")

// newEnv returns a viper instance bound to the process environment. A .env
// file in the working directory is merged first when present; real
// environment variables win over it.
func newEnv() *viper.Viper {
	_ = godotenv.Load()
	v := viper.New()
	v.AutomaticEnv()
	return v
}

// Load reads the application configuration. Required variables that are
// missing and integers that do not parse are reported together.
func Load() (Config, error) {
	v := newEnv()
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("DB_DRIVER", DriverMySQL)
	v.SetDefault("SQLITE_PATH", "data/assets.db")
	v.SetDefault("ACCESS_TOKEN_TTL_MIN", "60")
	v.SetDefault("BCRYPT_COST", "10")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")

	r := reader{v: v}
	cfg := Config{
		Env:          r.str("APP_ENV"),
		Port:         r.str("APP_PORT"),
		DBDriver:     strings.ToLower(r.str("DB_DRIVER")),
		DBPass:       r.str("DB_PASS"),
		SQLitePath:   r.str("SQLITE_PATH"),
		JWTSecret:    r.must("JWT_SECRET"),
		AccessTTLMin: r.mustInt("ACCESS_TOKEN_TTL_MIN"),
		BcryptCost:   r.mustInt("BCRYPT_COST"),
		CORSOrigins:  splitList(r.str("CORS_ORIGINS")),
		LogLevel:     r.str("LOG_LEVEL"),
		LogFile:      r.str("LOG_FILE"),
		AMQPURL:      r.str("AMQP_URL"),
	}
	switch cfg.DBDriver {
	case DriverMySQL:
		cfg.DBUser = r.must("DB_USER")
		cfg.DBHost = r.must("DB_HOST")
		cfg.DBPort = r.must("DB_PORT")
		cfg.DBName = r.must("DB_NAME")
	case DriverSQLite:
	default:
		r.errs = append(r.errs, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver))
	}
	if cfg.AccessTTLMin <= 0 {
		r.errs = append(r.errs, fmt.Errorf("ACCESS_TOKEN_TTL_MIN must be positive"))
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		r.errs = append(r.errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	return cfg, errors.Join(r.errs...)
}

// reader collects every problem instead of stopping at the first one.
type reader struct {
	v    *viper.Viper
	errs []error
}

func (r *reader) str(key string) string {
	return strings.TrimSpace(r.v.GetString(key))
}

func (r *reader) must(key string) string {
	s := r.str(key)
	if s == "" {
		r.errs = append(r.errs, fmt.Errorf("%w: %s", ErrMissing, key))
	}
	return s
}

func (r *reader) mustInt(key string) int {
	s := r.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid int for %s: %q", key, s))
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
