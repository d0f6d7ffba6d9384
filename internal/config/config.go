package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Bulk     BulkConfig     `mapstructure:"bulk"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// UpstreamConfig describes the Hospital Directory API connection.
type UpstreamConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	TimeoutSeconds float64 `mapstructure:"timeout_seconds"`
}

// BulkConfig holds bulk upload limits.
type BulkConfig struct {
	BatchSizeLimit int `mapstructure:"batch_size_limit"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("upstream.base_url", "https://hospital-directory.onrender.com")
	v.SetDefault("upstream.timeout_seconds", 10.0)
	v.SetDefault("bulk.batch_size_limit", 20)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind the documented environment variable names
	v.BindEnv("upstream.base_url", "HOSPITAL_DIRECTORY_API_BASE_URL")
	v.BindEnv("upstream.timeout_seconds", "OUTBOUND_TIMEOUT_SECONDS")
	v.BindEnv("bulk.batch_size_limit", "BATCH_SIZE_LIMIT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
