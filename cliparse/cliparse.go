package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Defaults
const (
	DefaultPort                = 3318
	DefaultDatabaseType        = "sqlite"
	DefaultRedisURL            = "redis://localhost:6379/0"
	DefaultBaseURL             = "http://localhost:3318"
	DefaultOAuthAuthorizeURL   = "/oauth/github/authorize"
	DefaultMaxPollsPerUser     = 40
	DefaultCreateRatePerMinute = 10
	DefaultStatementTimeout    = 5 * time.Second
)

type Config struct {
	Port                int           `validate:"min=1,max=65535"`
	DatabaseURL         string        `validate:"required"`
	DatabaseType        string        `validate:"oneof=sqlite postgres"`
	RedisURL            string        `validate:"required,url"`
	SessionSecret       string        `validate:"required"`
	BaseURL             string        `validate:"required,url"`
	OAuthAuthorizeURL   string        `validate:"required"`
	MaxPollsPerUser     int           `validate:"min=1"`
	CreateRatePerMinute int           `validate:"min=1"`
	StatementTimeout    time.Duration `validate:"gte=0"`
	AllowedOrigins      []string      `validate:"dive,url"`
	LogLevel            string        `validate:"omitempty,oneof=debug info warn error"`
	LogEncoding         string        `validate:"omitempty,oneof=json console"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseFlags parses flags, falls back to environment variables and then
// defaults, and validates the result
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("ghpolls", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.RedisURL, "redis", "", "Redis URL")
	fs.StringVar(&cfg.BaseURL, "base-url", "", "Public URL polls are shared under")
	origins := fs.String("cors-origins", "", "Comma-separated origins allowed to call the API with credentials")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSecret, "session-secret", "", "Session signing secret (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		port, err := envInt("PORT", DefaultPort)
		if err != nil {
			return Config{}, err
		}
		cfg.Port = port
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = envString("DATABASE_TYPE", DefaultDatabaseType)
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = envString("REDIS_URL", DefaultRedisURL)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = envString("BASE_URL", DefaultBaseURL)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.OAuthAuthorizeURL = envString("OAUTH_AUTHORIZE_URL", DefaultOAuthAuthorizeURL)
	if *origins == "" {
		*origins = os.Getenv("CORS_ORIGINS")
	}
	cfg.AllowedOrigins = splitList(*origins)

	// Secrets - MUST be provided
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	}
	if cfg.SessionSecret == "" {
		return Config{}, errors.New("SESSION_SECRET required")
	}

	var err error
	if cfg.MaxPollsPerUser, err = envInt("MAX_POLLS_PER_USER", DefaultMaxPollsPerUser); err != nil {
		return Config{}, err
	}
	if cfg.CreateRatePerMinute, err = envInt("CREATE_RATE_PER_MINUTE", DefaultCreateRatePerMinute); err != nil {
		return Config{}, err
	}
	if cfg.StatementTimeout, err = envDuration("STATEMENT_TIMEOUT", DefaultStatementTimeout); err != nil {
		return Config{}, err
	}

	cfg.LogLevel = envString("LOG_LEVEL", "info")
	cfg.LogEncoding = envString("LOG_ENCODING", "json")

	if err := validate.Struct(cfg); err != nil {
		return Config{}, describe(err)
	}
	return cfg, nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fe.Field(), fe.ActualTag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// splitList splits a comma-separated list, dropping blanks and trailing slashes.
func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimRight(strings.TrimSpace(item), "/")
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func envString(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", name)
	}
	return n, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", name)
	}
	return d, nil
}
