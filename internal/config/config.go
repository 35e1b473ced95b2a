// /internal/config/config.go
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// GlobalHelpTrigger is the message that lists every loaded module.
const GlobalHelpTrigger = "!help"

// Store drivers accepted by StoreDriver.
const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

// Config is loaded once at startup and never mutated afterwards.
type Config struct {
	DiscordToken   string        `env:"DISCORD_TOKEN"`
	LoadCommand    string        `env:"SUNO_LOAD_COMMAND" envDefault:"!load"`
	Test           bool          `env:"SUNO_TEST" envDefault:"false"`
	Dev            bool          `env:"SUNO_DEV" envDefault:"false"`
	LogDir         string        `env:"SUNO_LOG_DIR" envDefault:"logs"`
	LogLevel       string        `env:"SUNO_LOG_LEVEL" envDefault:"info"`
	StoreDriver    string        `env:"SUNO_STORE_DRIVER" envDefault:"json"`
	StorePath      string        `env:"SUNO_STORE_PATH" envDefault:"datastore.json"`
	GuildsFile     string        `env:"SUNO_GUILDS_FILE" envDefault:"guilds.yaml"`
	OverwriteRoles bool          `env:"SUNO_OVERWRITE_ROLES" envDefault:"true"`
	RequestTimeout time.Duration `env:"SUNO_REQUEST_TIMEOUT" envDefault:"10s"`
	GuildBlacklist []string      `env:"SUNO_GUILD_BLACKLIST" envSeparator:","`
}

// LoadDotEnv loads a .env file if present. Missing files are not an error.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		logrus.Debug("No .env file found, falling back to system environment variables")
	}
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// New reads the environment (after .env) and validates the result.
func New() (*Config, error) {
	LoadDotEnv()

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that env tags cannot express.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreJSON, StoreSQLite:
	default:
		return fmt.Errorf("unsupported store driver %q (want %q or %q)", c.StoreDriver, StoreJSON, StoreSQLite)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if c.LoadCommand == "" {
		return fmt.Errorf("load command cannot be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// RequireToken fails when no Discord token is configured.
func (c *Config) RequireToken() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is not set")
	}
	return nil
}

// IsGuildBlacklisted reports whether the bot must leave guildID.
func (c *Config) IsGuildBlacklisted(guildID string) bool {
	return slices.Contains(c.GuildBlacklist, guildID)
}
