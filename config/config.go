package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Search  SearchConfig  `mapstructure:"search"`
	Preview PreviewConfig `mapstructure:"preview"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds configuration for the local presentation API
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SearchConfig holds the similarity search service configuration
type SearchConfig struct {
	BaseURL       string  `mapstructure:"base_url"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
}

// PreviewConfig holds preview generation configuration
type PreviewConfig struct {
	Dir          string `mapstructure:"dir"` // empty means the OS temp dir
	MaxDimension int    `mapstructure:"max_dimension"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DefaultBaseURL is the search service address used for local development
const DefaultBaseURL = "http://127.0.0.1:8080"

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/visualmatch/")

	v.SetEnvPrefix("VISUALMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env when present. Variables already set in the environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values.
// Every key needs a default so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5173")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*", "http://127.0.0.1:*"})

	v.SetDefault("search.base_url", DefaultBaseURL)
	v.SetDefault("search.rate_per_second", 2.0)
	v.SetDefault("search.burst", 4)

	v.SetDefault("preview.dir", "")
	v.SetDefault("preview.max_dimension", 320)

	v.SetDefault("log.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	u, err := url.Parse(config.Search.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("search base URL must be an absolute http(s) URL (set VISUALMATCH_SEARCH_BASE_URL), got: %q", config.Search.BaseURL)
	}

	if config.Search.RatePerSecond <= 0 {
		return fmt.Errorf("search rate per second must be positive, got: %v", config.Search.RatePerSecond)
	}

	if config.Search.Burst < 1 {
		return fmt.Errorf("search burst must be at least 1, got: %d", config.Search.Burst)
	}

	if config.Preview.MaxDimension <= 0 {
		return fmt.Errorf("preview max dimension must be positive, got: %d", config.Preview.MaxDimension)
	}

	if _, err := zapcore.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("log level must be one of debug, info, warn, error, got: %s", config.Log.Level)
	}

	return nil
}
