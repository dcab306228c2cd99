package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source drivers understood by the capture layer.
const (
	DriverGoCV  = "gocv"
	DriverMJPEG = "mjpeg"
	DriverUDP   = "udp"
)

type Config struct {
	StreamURL    string `yaml:"stream_url"`
	SourceDriver string `yaml:"source_driver"`

	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	ModelPath          string  `yaml:"model_path"`
	ConfigPath         string  `yaml:"config_path"`
	DetectionThreshold float64 `yaml:"detection_threshold"`
	JPEGQuality        int     `yaml:"jpeg_quality"`

	StreamIntervalMs     int  `yaml:"stream_interval_ms"`      // Pause between chunks on one connection (0 = back-to-back)
	StreamWriteTimeoutMs int  `yaml:"stream_write_timeout_ms"` // Deadline for writing a single chunk
	ShutdownTimeoutS     int  `yaml:"shutdown_timeout_s"`
	ExitOnSourceFailure  bool `yaml:"exit_on_source_failure"`
	StatusLine           bool `yaml:"status_line"`

	LogDirectory string `yaml:"log_dir"`
	AdminToken   string `yaml:"admin_token"` // Required by destructive endpoints; empty disables them

	ArchiveEnabled        bool   `yaml:"archive_enabled"`
	ArchiveDirectory      string `yaml:"archive_dir"`
	DatabasePath          string `yaml:"database_path"`
	ArchiveBufferLimit    int    `yaml:"archive_buffer_limit"`
	ArchiveFlushIntervalS int    `yaml:"archive_flush_interval_s"`
	ArchiveMinIntervalS   int    `yaml:"archive_min_interval_s"`

	MQTTBroker   string `yaml:"mqtt_broker"`
	MQTTTopic    string `yaml:"mqtt_topic"`
	MQTTClientID string `yaml:"mqtt_client_id"`
}

func defaultConfig() *Config {
	return &Config{
		StreamURL:             "http://127.0.0.1:8080/video",
		SourceDriver:          DriverGoCV,
		Host:                  "0.0.0.0",
		Port:                  5000,
		ModelPath:             filepath.Join(".", "models", "frozen_inference_graph.pb"),
		ConfigPath:            filepath.Join(".", "models", "ssd_mobilenet_v1_coco_2017_11_17.pbtxt"),
		DetectionThreshold:    0.5,
		JPEGQuality:           80,
		StreamIntervalMs:      0,
		StreamWriteTimeoutMs:  10000,
		ShutdownTimeoutS:      5,
		ExitOnSourceFailure:   true,
		StatusLine:            true,
		LogDirectory:          filepath.Join(".", "logs"),
		ArchiveEnabled:        false,
		ArchiveDirectory:      filepath.Join(".", "snapshots"),
		DatabasePath:          filepath.Join(".", "data", "snapshots.db"),
		ArchiveBufferLimit:    10,
		ArchiveFlushIntervalS: 30,
		ArchiveMinIntervalS:   5,
		MQTTTopic:             "supervisor/detections",
		MQTTClientID:          "supervisor",
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, a .env file in the working directory and the process
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	// A missing .env is normal; godotenv never overrides variables already set.
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFile overlays YAML keys from path onto cfg.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.StreamURL = getEnv("STREAM_URL", cfg.StreamURL)
	cfg.SourceDriver = strings.ToLower(getEnv("SOURCE_DRIVER", cfg.SourceDriver))
	cfg.Host = getEnv("HOST", cfg.Host)
	cfg.Port = getEnvAsInt("PORT", cfg.Port)
	cfg.ModelPath = getEnv("MODEL_PATH", cfg.ModelPath)
	cfg.ConfigPath = getEnv("CONFIG_PATH", cfg.ConfigPath)
	cfg.DetectionThreshold = getEnvAsFloat("DETECTION_THRESHOLD", cfg.DetectionThreshold)
	cfg.JPEGQuality = getEnvAsInt("JPEG_QUALITY", cfg.JPEGQuality)
	cfg.StreamIntervalMs = getEnvAsInt("STREAM_INTERVAL_MS", cfg.StreamIntervalMs)
	cfg.StreamWriteTimeoutMs = getEnvAsInt("STREAM_WRITE_TIMEOUT_MS", cfg.StreamWriteTimeoutMs)
	cfg.ShutdownTimeoutS = getEnvAsInt("SHUTDOWN_TIMEOUT_S", cfg.ShutdownTimeoutS)
	cfg.ExitOnSourceFailure = getEnvAsBool("EXIT_ON_SOURCE_FAILURE", cfg.ExitOnSourceFailure)
	cfg.StatusLine = getEnvAsBool("STATUS_LINE", cfg.StatusLine)
	cfg.LogDirectory = getEnv("LOG_DIR", cfg.LogDirectory)
	cfg.AdminToken = getEnv("ADMIN_TOKEN", cfg.AdminToken)
	cfg.ArchiveEnabled = getEnvAsBool("ARCHIVE_ENABLED", cfg.ArchiveEnabled)
	cfg.ArchiveDirectory = getEnv("ARCHIVE_DIR", cfg.ArchiveDirectory)
	cfg.DatabasePath = getEnv("DATABASE_PATH", cfg.DatabasePath)
	cfg.ArchiveBufferLimit = getEnvAsInt("ARCHIVE_BUFFER_LIMIT", cfg.ArchiveBufferLimit)
	cfg.ArchiveFlushIntervalS = getEnvAsInt("ARCHIVE_FLUSH_INTERVAL_S", cfg.ArchiveFlushIntervalS)
	cfg.ArchiveMinIntervalS = getEnvAsInt("ARCHIVE_MIN_INTERVAL_S", cfg.ArchiveMinIntervalS)
	cfg.MQTTBroker = getEnv("MQTT_BROKER", cfg.MQTTBroker)
	cfg.MQTTTopic = getEnv("MQTT_TOPIC", cfg.MQTTTopic)
	cfg.MQTTClientID = getEnv("MQTT_CLIENT_ID", cfg.MQTTClientID)
}

// Validate checks the values that would otherwise fail late, at bind or
// encode time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.StreamURL) == "" {
		return errors.New("stream url is required")
	}
	switch c.SourceDriver {
	case DriverGoCV, DriverMJPEG, DriverUDP:
	default:
		return fmt.Errorf("unknown source driver %q", c.SourceDriver)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality %d out of range 1-100", c.JPEGQuality)
	}
	if c.StreamIntervalMs < 0 || c.StreamWriteTimeoutMs < 0 || c.ShutdownTimeoutS < 0 {
		return errors.New("intervals and timeouts must not be negative")
	}
	if c.ArchiveEnabled && (c.ArchiveBufferLimit <= 0 || c.ArchiveFlushIntervalS <= 0) {
		return errors.New("archive buffer limit and flush interval must be positive")
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) StreamInterval() time.Duration {
	return time.Duration(c.StreamIntervalMs) * time.Millisecond
}

func (c *Config) StreamWriteTimeout() time.Duration {
	return time.Duration(c.StreamWriteTimeoutMs) * time.Millisecond
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutS) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
