package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// devSecret is the signing key older deployments fell back to when nothing
// was configured. It is public, so it is refused outright.
const devSecret = "dev-secret-change-me"

// minSecretLen is the shortest AUTH_SECRET accepted at startup.
const minSecretLen = 16

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env     string `env:"APP_ENV" envDefault:"dev"`                       // application environment (dev, test, production)
	Port    string `env:"APP_PORT" envDefault:"8080"`                     // HTTP port to listen on
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"` // public origin used in mailed links and redirects

	DataDir     string `env:"DATA_DIR" envDefault:"data"`     // directory holding the JSON files
	StoreDriver string `env:"STORE_DRIVER" envDefault:"json"` // credential store: json or mysql

	DBUser string `env:"DB_USER"`
	DBPass string `env:"DB_PASS"` // empty allowed
	DBHost string `env:"DB_HOST"`
	DBPort string `env:"DB_PORT" envDefault:"3306"`
	DBName string `env:"DB_NAME"`

	AuthSecret     string        `env:"AUTH_SECRET,unset"`                  // HMAC key for session values
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"168h"`      // server-side session lifetime
	VerifyTTL      time.Duration `env:"VERIFY_TOKEN_TTL" envDefault:"48h"`  // email verification link lifetime
	MinPasswordLen int           `env:"MIN_PASSWORD_LEN" envDefault:"6"`    // shortest password accepted at registration

	AMQPURL   string `env:"RABBITMQ_URL"`                        // empty means mails go straight to the outbox file
	MailQueue string `env:"MAIL_QUEUE" envDefault:"email.outbox"` // queue carrying outgoing mails
	MailFrom  string `env:"MAIL_FROM" envDefault:"no-reply@localhost"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// Load parses the environment into a Config and validates it.  A missing or
// weak AUTH_SECRET is an error in every environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements that struct tags cannot express.
func (c Config) Validate() error {
	switch {
	case c.AuthSecret == "":
		return errors.New("missing required env var: AUTH_SECRET")
	case c.AuthSecret == devSecret:
		return errors.New("AUTH_SECRET must not be the development default")
	case len(c.AuthSecret) < minSecretLen:
		return fmt.Errorf("AUTH_SECRET must be at least %d bytes", minSecretLen)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.VerifyTTL <= 0 {
		return errors.New("VERIFY_TOKEN_TTL must be positive")
	}
	if c.MinPasswordLen < 1 {
		return errors.New("MIN_PASSWORD_LEN must be at least 1")
	}
	switch strings.ToLower(c.StoreDriver) {
	case "json":
	case "mysql":
		for k, v := range map[string]string{"DB_USER": c.DBUser, "DB_HOST": c.DBHost, "DB_NAME": c.DBName} {
			if v == "" {
				return fmt.Errorf("missing required env var for mysql store: %s", k)
			}
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// IsProduction reports whether cookies must be marked Secure and debug
// conveniences (such as echoing verification links) must be hidden.
func (c Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}
