package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultPath is used when USERMAP_CONFIG does not point at a config artifact.
const DefaultPath = "config.yaml"

// Config holds the configuration settings for the usermap bot.
//
// Fields:
// - Env: The current environment (local, development, production).
// - Port: The port for the monitoring server.
// - BotToken: The telegram bot API token.
// - MapURL: Public URL of the rendered map, sent by /intro and /map.
// - ExportFile: Destination path of the export artifact (.csv or .json).
// - Lang: Preferred display language for bot replies.
// - LogFile: Log destination; empty means stdout.
// - Geocoder: Geocoding provider settings.
// - Database: PostgreSQL connection settings.
type Config struct {
	Env        string         `mapstructure:"env"`
	Port       int            `mapstructure:"port"`
	BotToken   string         `mapstructure:"bot_token"`
	MapURL     string         `mapstructure:"map_url"`
	ExportFile string         `mapstructure:"export_file"`
	Lang       string         `mapstructure:"lang"`
	LogFile    string         `mapstructure:"log_file"`
	Geocoder   GeocoderConfig `mapstructure:"geocoder"`
	Database   PostgresConfig `mapstructure:"postgres"`
}

// GeocoderConfig holds the geocoding provider settings.
type GeocoderConfig struct {
	Provider  string `mapstructure:"provider"`   // Provider type: dstk or google.
	BaseURL   string `mapstructure:"base_url"`   // Base URL of the DSTK instance.
	APIKey    string `mapstructure:"api_key"`    // API key (Google provider).
	RateLimit int    `mapstructure:"rate_limit"` // Requests per second to the provider.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`     // Host is the database server address.
	Port     string `mapstructure:"port"`     // Port is the database server port.
	User     string `mapstructure:"user"`     // User is the database user.
	Password string `mapstructure:"password"` // Password is the database user's password.
	Name     string `mapstructure:"db_name"`  // Name is the name of the database.
}

// MustLoad loads the configuration artifact and panics with a diagnostic when
// it is missing or invalid, so the process exits non-zero at startup rather
// than limping along half-configured.
func MustLoad() *Config {
	path := os.Getenv("USERMAP_CONFIG")
	if path == "" {
		path = DefaultPath
	}

	vpr := viper.New()
	vpr.SetConfigFile(path)

	vpr.SetDefault("env", "production")
	vpr.SetDefault("port", 8080)
	vpr.SetDefault("lang", "en")
	vpr.SetDefault("geocoder.provider", "dstk")
	vpr.SetDefault("geocoder.rate_limit", 5)
	vpr.SetDefault("postgres.port", "5432")

	vpr.SetEnvPrefix("USERMAP")
	vpr.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vpr.AutomaticEnv()

	if err := vpr.ReadInConfig(); err != nil {
		panic(fmt.Sprintf("failed to read config artifact %q: %v", path, err))
	}

	var cfg Config
	if err := vpr.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to parse config artifact %q: %v", path, err))
	}

	if err := cfg.validate(); err != nil {
		panic(fmt.Sprintf("invalid configuration: %v", err))
	}

	return &cfg
}

func (c *Config) validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("bot_token is required")
	}
	if c.ExportFile == "" {
		return fmt.Errorf("export_file is required")
	}
	// Unknown suffixes would silently produce no artifact at runtime; reject
	// them up front instead.
	if !strings.HasSuffix(c.ExportFile, ".csv") && !strings.HasSuffix(c.ExportFile, ".json") {
		return fmt.Errorf("export_file %q must end in .csv or .json", c.ExportFile)
	}

	return nil
}
