package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"ringwatch/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Extract  ExtractConfig  `mapstructure:"extract"`
	Tracking TrackingConfig `mapstructure:"tracking"`
	Alerting AlertingConfig `mapstructure:"alerting"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity. An empty DSN disables
// the database entirely; observations are then kept in memory only.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// ServerConfig governs the HTTP control API.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// FetchConfig covers retailer page retrieval.
type FetchConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// SweepConfig governs the politeness delay between retailer requests.
type SweepConfig struct {
	Pace time.Duration `mapstructure:"pace"`
}

// ExtractConfig bounds the plausible price window.
type ExtractConfig struct {
	MinPlausible float64 `mapstructure:"min_plausible"`
	MaxPlausible float64 `mapstructure:"max_plausible"`
}

// TrackingConfig locates the persisted tracking state file.
type TrackingConfig struct {
	StatePath string `mapstructure:"state_path"`
}

// AlertingConfig defines alert routing.
type AlertingConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Discord DiscordConfig `mapstructure:"discord"`
}

// DiscordConfig captures webhook delivery parameters.
type DiscordConfig struct {
	WebhookURL     string        `mapstructure:"webhook_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RINGWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ringwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("fetch.request_timeout", "10s")
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	v.SetDefault("sweep.pace", "2s")

	v.SetDefault("extract.min_plausible", 200.0)
	v.SetDefault("extract.max_plausible", 600.0)

	v.SetDefault("tracking.state_path", "tracking_state.json")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.discord.request_timeout", "10s")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port")
	}
	if c.Fetch.RequestTimeout <= 0 {
		return fmt.Errorf("fetch.request_timeout must be greater than zero")
	}
	if c.Sweep.Pace < 0 {
		return fmt.Errorf("sweep.pace cannot be negative")
	}
	if c.Extract.MinPlausible <= 0 || c.Extract.MaxPlausible <= c.Extract.MinPlausible {
		return fmt.Errorf("extract plausible range must satisfy 0 < min < max")
	}
	if c.Tracking.StatePath == "" {
		return fmt.Errorf("tracking.state_path must be set")
	}
	if c.Alerting.Enabled && c.Alerting.Discord.WebhookURL == "" {
		return fmt.Errorf("alerting.discord.webhook_url must be set when alerting is enabled")
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}

// Addr renders the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
