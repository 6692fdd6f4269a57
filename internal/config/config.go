package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	App struct {
		Name     string `mapstructure:"name"`
		Currency string `mapstructure:"currency"`
	} `mapstructure:"app"`
	Limits struct {
		MaxTransfer       string `mapstructure:"max_transfer"`
		MaxInitialDeposit string `mapstructure:"max_initial_deposit"`
	} `mapstructure:"limits"`
	Audit struct {
		Enabled bool   `mapstructure:"enabled"`
		File    string `mapstructure:"file"`
		Secret  string `mapstructure:"secret"`
	} `mapstructure:"audit"`
	Notifications struct {
		Enabled bool `mapstructure:"enabled"`
		Console bool `mapstructure:"console"`
		Email   bool `mapstructure:"email"`
		SMS     bool `mapstructure:"sms"`
	} `mapstructure:"notifications"`
	Metrics struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"metrics"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// Load reads configuration from LEDGER_* environment variables and a config
// file. An empty path looks for an optional ledger.{yaml,json,toml} in the
// working directory; an explicit path must exist.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", "Finance Ledger")
	v.SetDefault("app.currency", "EUR")
	v.SetDefault("limits.max_transfer", "10000")
	v.SetDefault("limits.max_initial_deposit", "1000000")
	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.file", "")
	v.SetDefault("audit.secret", "")
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.console", true)
	v.SetDefault("notifications.email", false)
	v.SetDefault("notifications.sms", false)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("log.level", "info")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("ledger")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if _, err := c.MaxTransfer(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.MaxInitialDeposit(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (c Config) MaxTransfer() (decimal.Decimal, error) {
	return positiveAmount("limits.max_transfer", c.Limits.MaxTransfer)
}

func (c Config) MaxInitialDeposit() (decimal.Decimal, error) {
	return positiveAmount("limits.max_initial_deposit", c.Limits.MaxInitialDeposit)
}

func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	return level, nil
}

func positiveAmount(key, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q is not a number", ErrInvalidConfig, key, raw)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, key, d)
	}
	return d, nil
}
