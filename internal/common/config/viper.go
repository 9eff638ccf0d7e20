package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// Exchange Type
	ExchangeTypeTopic = "topic"

	// Routing Keys
	RoutingLogDownload = "log.download"
	RoutingLogBatch    = "log.batch"
)

// Config is the struct that holds the configuration of the application
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Extractor  ExtractorConfig  `mapstructure:"extractor"`
	Downloader DownloaderConfig `mapstructure:"downloader"`
	RabbitMq   RabbitMQConfig   `mapstructure:"rabbitmq"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel int    `mapstructure:"logLevel"`
	Env      string `mapstructure:"env"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type ExtractorConfig struct {
	// Path to the yt-dlp executable
	Path string `mapstructure:"path"`
	// Timeout bounds each engine call, 0 disables it
	Timeout   time.Duration `mapstructure:"timeout"`
	ExtraArgs []string      `mapstructure:"extraArgs"`
}

type DownloaderConfig struct {
	DownloadDir      string `mapstructure:"downloadDir"`
	DefaultFormat    string `mapstructure:"defaultFormat"`
	MergeFormat      string `mapstructure:"mergeFormat"`
	BatchConcurrency int    `mapstructure:"batchConcurrency"`
	RemoveAfterServe bool   `mapstructure:"removeAfterServe"`
	// CleanOnStart empties downloadDir before the server starts
	CleanOnStart bool `mapstructure:"cleanOnStart"`
}

// RabbitMQConfig is optional, events are only published when URL is set
type RabbitMQConfig struct {
	URL              string        `mapstructure:"url"`
	Exchange         string        `mapstructure:"exchange"`
	ReconnectRetries int           `mapstructure:"reconnectRetries"`
	ReconnectTimeout time.Duration `mapstructure:"reconnectTimeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "anydownloader")
	v.SetDefault("app.logLevel", 4)
	v.SetDefault("app.env", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)

	v.SetDefault("extractor.path", "yt-dlp")
	v.SetDefault("extractor.timeout", "0s")
	v.SetDefault("extractor.extraArgs", []string{})

	v.SetDefault("downloader.downloadDir", "downloads")
	v.SetDefault("downloader.defaultFormat", "best")
	v.SetDefault("downloader.mergeFormat", "mp4")
	v.SetDefault("downloader.batchConcurrency", 1)
	v.SetDefault("downloader.removeAfterServe", false)
	v.SetDefault("downloader.cleanOnStart", false)

	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "anydownloader_events")
	v.SetDefault("rabbitmq.reconnectRetries", 5)
	v.SetDefault("rabbitmq.reconnectTimeout", "2s")
}

// Load config from .env, config.json in the working directory and the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := newViper()
	v.SetConfigName("config") // File name without extension
	v.SetConfigType("json")   // Set to JSON format
	v.AddConfigPath(".")      // Look for config file in current directory

	// Try to read configuration file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFile loads config from an explicit file path and the environment
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	// server.port is read from SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks that configuration values are usable
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Extractor.Path == "" {
		return fmt.Errorf("extractor.path is required")
	}
	if c.Extractor.Timeout < 0 {
		return fmt.Errorf("extractor.timeout must not be negative")
	}
	if c.Downloader.DownloadDir == "" {
		return fmt.Errorf("downloader.downloadDir is required")
	}
	if c.Downloader.BatchConcurrency < 1 {
		return fmt.Errorf("downloader.batchConcurrency must be at least 1")
	}
	if c.RabbitMq.URL != "" && c.RabbitMq.Exchange == "" {
		return fmt.Errorf("rabbitmq.exchange is required when rabbitmq.url is set")
	}
	return nil
}

// Addr is the listen address of the HTTP server
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Get config for downloader
func (c *Config) GetDownloaderConfig() *DownloaderConfig {
	return &c.Downloader
}

// Get config for RabbitMQ
func (c *Config) GetRabbitMQConfig() *RabbitMQConfig {
	return &c.RabbitMq
}
