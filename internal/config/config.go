package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	GoEnv string `env:"GO_ENV" default:"development"`

	// Server transport
	Host          string        `env:"VC_HOST" default:"0.0.0.0"`
	Port          int           `env:"VC_PORT" default:"2010"`
	MaxPending    int           `env:"VC_MAX_PENDING" default:"3"`
	AcceptTimeout time.Duration `env:"VC_ACCEPT_TIMEOUT" default:"1s"`
	ReadTimeout   time.Duration `env:"VC_READ_TIMEOUT" default:"5s"`

	// Controller
	ControllerName string `env:"VC_CONTROLLER_NAME" default:"Player 1"`
	Profile        string `env:"VC_PROFILE" default:"joystick"`
	ProfilesFile   string `env:"VC_PROFILES_FILE"`

	// Virtual device
	DeviceName    string `env:"VC_DEVICE_NAME" default:"virtual_controller"`
	DeviceBus     string `env:"VC_DEVICE_BUS" default:"usb"`
	DeviceVersion int    `env:"VC_DEVICE_VERSION" default:"1"`

	// Client
	ClientHost  string `env:"VC_CLIENT_HOST" default:"192.168.1.80"`
	ClientPort  int    `env:"VC_CLIENT_PORT" default:"2010"`
	InputDevice string `env:"VC_INPUT_DEVICE"`

	// Per-connection rate limiting, 0 disables it
	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND" default:"0"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" default:"20"`

	// Admin API, 0 disables it
	AdminPort int `env:"ADMIN_PORT" default:"0"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"console"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// A missing .env is fine, system env vars still apply
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: .env file not loaded: %v\n", err)
	}
	return FromEnv()
}

// FromEnv reads the process environment without touching .env.
func FromEnv() (*Config, error) {
	config := &Config{}

	if err := loadEnvString(&config.GoEnv, "GO_ENV", "development"); err != nil {
		return nil, err
	}

	// Server transport
	if err := loadEnvString(&config.Host, "VC_HOST", "0.0.0.0"); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.Port, "VC_PORT", 2010); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.MaxPending, "VC_MAX_PENDING", 3); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.AcceptTimeout, "VC_ACCEPT_TIMEOUT", time.Second); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.ReadTimeout, "VC_READ_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	// Controller
	if err := loadEnvString(&config.ControllerName, "VC_CONTROLLER_NAME", "Player 1"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.Profile, "VC_PROFILE", "joystick"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.ProfilesFile, "VC_PROFILES_FILE", ""); err != nil {
		return nil, err
	}

	// Virtual device
	if err := loadEnvString(&config.DeviceName, "VC_DEVICE_NAME", "virtual_controller"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.DeviceBus, "VC_DEVICE_BUS", "usb"); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.DeviceVersion, "VC_DEVICE_VERSION", 1); err != nil {
		return nil, err
	}

	// Client
	if err := loadEnvString(&config.ClientHost, "VC_CLIENT_HOST", "192.168.1.80"); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.ClientPort, "VC_CLIENT_PORT", 2010); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.InputDevice, "VC_INPUT_DEVICE", ""); err != nil {
		return nil, err
	}

	// Rate limiting
	if err := loadEnvFloat(&config.RateLimitPerSecond, "RATE_LIMIT_PER_SECOND", 0); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.RateLimitBurst, "RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}

	if err := loadEnvInt(&config.AdminPort, "ADMIN_PORT", 0); err != nil {
		return nil, err
	}

	// Logging
	if err := loadEnvString(&config.LogLevel, "LOG_LEVEL", "info"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.LogFormat, "LOG_FORMAT", "console"); err != nil {
		return nil, err
	}
	config.LogLevel = strings.ToLower(config.LogLevel)
	config.LogFormat = strings.ToLower(config.LogFormat)

	return config, nil
}

// Helper functions for type conversion and validation
func loadEnvString(target *string, key, defaultValue string) error {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvFloat(target *float64, key string, defaultValue float64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errors []string

	if c.Port < 1 || c.Port > 65535 {
		errors = append(errors, "VC_PORT must be between 1 and 65535")
	}
	if c.ClientPort < 1 || c.ClientPort > 65535 {
		errors = append(errors, "VC_CLIENT_PORT must be between 1 and 65535")
	}
	if c.AdminPort < 0 || c.AdminPort > 65535 {
		errors = append(errors, "ADMIN_PORT must be between 0 and 65535")
	}
	if c.AdminPort != 0 && c.AdminPort == c.Port {
		errors = append(errors, "ADMIN_PORT must differ from VC_PORT")
	}
	if c.MaxPending < 1 {
		errors = append(errors, "VC_MAX_PENDING must be at least 1")
	}
	if c.AcceptTimeout <= 0 {
		errors = append(errors, "VC_ACCEPT_TIMEOUT must be positive")
	}
	if c.ReadTimeout <= 0 {
		errors = append(errors, "VC_READ_TIMEOUT must be positive")
	}
	if c.DeviceVersion < 0 || c.DeviceVersion > 0xffff {
		errors = append(errors, "VC_DEVICE_VERSION must fit in 16 bits")
	}
	if strings.TrimSpace(c.DeviceName) == "" {
		errors = append(errors, "VC_DEVICE_NAME must not be empty")
	}

	validBuses := []string{"pci", "isapnp", "usb", "hil", "bluetooth", "virtual"}
	if !contains(validBuses, strings.ToLower(c.DeviceBus)) {
		errors = append(errors, fmt.Sprintf("VC_DEVICE_BUS must be one of: %s", strings.Join(validBuses, ", ")))
	}

	if c.RateLimitPerSecond < 0 {
		errors = append(errors, "RATE_LIMIT_PER_SECOND must not be negative")
	}
	if c.RateLimitPerSecond > 0 && c.RateLimitBurst < 1 {
		errors = append(errors, "RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled")
	}

	validEnvs := []string{"development", "production", "test"}
	if !contains(validEnvs, c.GoEnv) {
		errors = append(errors, fmt.Sprintf("GO_ENV must be one of: %s", strings.Join(validEnvs, ", ")))
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	validLogFormats := []string{"console", "text", "json"}
	if !contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// GinMode maps GO_ENV onto the admin API's gin mode.
func (c *Config) GinMode() string {
	switch {
	case c.IsProduction():
		return "release"
	case c.IsDevelopment():
		return "debug"
	default:
		return "test"
	}
}

// ServerAddr is the host:port the relay server listens on.
func (c *Config) ServerAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ClientAddr is the host:port the client connects to.
func (c *Config) ClientAddr() string {
	return net.JoinHostPort(c.ClientHost, strconv.Itoa(c.ClientPort))
}

// AdminAddr is loopback-only; empty when the admin API is disabled.
func (c *Config) AdminAddr() string {
	if c.AdminPort == 0 {
		return ""
	}
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(c.AdminPort))
}

// Helper function to check if slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
