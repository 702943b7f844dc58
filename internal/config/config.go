// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"receipt-emulator/internal/escpos"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Listener ListenerConfig `mapstructure:"listener"`
	Decoder  DecoderConfig  `mapstructure:"decoder"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	App      AppConfig      `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// ListenerConfig groups the print job listeners
type ListenerConfig struct {
	TCP    TCPListenerConfig    `mapstructure:"tcp"`
	Serial SerialListenerConfig `mapstructure:"serial"`
}

// TCPListenerConfig represents the raw TCP (port 9100) listener
type TCPListenerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	MaxJobBytes int           `mapstructure:"max_job_bytes"`
}

// SerialListenerConfig represents the serial port listener
type SerialListenerConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Port              string        `mapstructure:"port"`
	BaudRate          int           `mapstructure:"baud_rate"`
	DataBits          int           `mapstructure:"data_bits"`
	StopBits          int           `mapstructure:"stop_bits"`
	Parity            string        `mapstructure:"parity"`
	InactivityTimeout time.Duration `mapstructure:"inactivity_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	MaxJobBytes       int           `mapstructure:"max_job_bytes"`
}

// DecoderConfig represents ESC/POS decoding options
type DecoderConfig struct {
	DefaultCodepage string `mapstructure:"default_codepage"`
	OutputCodepage  string `mapstructure:"output_codepage"`
}

// StorageConfig represents receipt file storage
type StorageConfig struct {
	OutputDir       string        `mapstructure:"output_dir"`
	Retention       time.Duration `mapstructure:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	DBName       string        `mapstructure:"dbname"`
	SSLMode      string        `mapstructure:"sslmode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
}

// NotifierConfig represents the job notification sound
type NotifierConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Player   string        `mapstructure:"player"`
	Cooldown time.Duration `mapstructure:"cooldown"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// Load loads configuration from file and environment variables. An empty path
// searches the default locations; a missing config file means defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/receipt-emulator")
	}

	// Environment variable support
	v.SetEnvPrefix("RECEIPT_EMULATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8085")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 16<<20)

	// Listener defaults
	v.SetDefault("listener.tcp.enabled", true)
	v.SetDefault("listener.tcp.host", "0.0.0.0")
	v.SetDefault("listener.tcp.port", 9100)
	v.SetDefault("listener.tcp.idle_timeout", "0s")
	v.SetDefault("listener.tcp.max_job_bytes", 16<<20)

	v.SetDefault("listener.serial.enabled", false)
	v.SetDefault("listener.serial.port", "COM2")
	v.SetDefault("listener.serial.baud_rate", 9600)
	v.SetDefault("listener.serial.data_bits", 8)
	v.SetDefault("listener.serial.stop_bits", 1)
	v.SetDefault("listener.serial.parity", "none")
	v.SetDefault("listener.serial.inactivity_timeout", "500ms")
	v.SetDefault("listener.serial.read_timeout", "100ms")
	v.SetDefault("listener.serial.max_job_bytes", 16<<20)

	// Decoder defaults
	v.SetDefault("decoder.default_codepage", "windows-1252")
	v.SetDefault("decoder.output_codepage", "windows-1251")

	// Storage defaults
	v.SetDefault("storage.output_dir", "receipts_output")
	v.SetDefault("storage.retention", "720h")
	v.SetDefault("storage.cleanup_interval", "1h")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "receipt_emulator")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_lifetime", "5m")

	// Notifier defaults
	v.SetDefault("notifier.enabled", true)
	v.SetDefault("notifier.player", "auto")
	v.SetDefault("notifier.cooldown", "400ms")

	// Security defaults
	v.SetDefault("security.allowed_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// App defaults
	v.SetDefault("app.name", "receipt-emulator")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if !config.Server.Enabled && !config.Listener.TCP.Enabled && !config.Listener.Serial.Enabled {
		return fmt.Errorf("at least one of server, listener.tcp or listener.serial must be enabled")
	}
	if config.Server.Enabled && config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Listener.TCP.Enabled && (config.Listener.TCP.Port <= 0 || config.Listener.TCP.Port > 65535) {
		return fmt.Errorf("listener.tcp.port must be between 1 and 65535")
	}
	if config.Listener.Serial.Enabled {
		if config.Listener.Serial.Port == "" {
			return fmt.Errorf("listener.serial.port is required")
		}
		if config.Listener.Serial.InactivityTimeout <= 0 {
			return fmt.Errorf("listener.serial.inactivity_timeout must be positive")
		}
	}
	if config.Storage.OutputDir == "" {
		return fmt.Errorf("storage.output_dir is required")
	}

	if _, err := escpos.ParseCodepage(config.Decoder.DefaultCodepage); err != nil {
		return fmt.Errorf("decoder.default_codepage: %w", err)
	}
	if _, err := escpos.ParseCodepage(config.Decoder.OutputCodepage); err != nil {
		return fmt.Errorf("decoder.output_codepage: %w", err)
	}

	validPlayers := []string{"auto", "powershell", "bell", "none"}
	if !slices.Contains(validPlayers, config.Notifier.Player) {
		return fmt.Errorf("notifier.player must be one of: %v", validPlayers)
	}

	validEnvs := []string{"development", "staging", "production", "test"}
	if !slices.Contains(validEnvs, config.App.Environment) {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !slices.Contains(validLevels, config.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

// DecoderOptions resolves the configured codepages
func (c *Config) DecoderOptions() escpos.Options {
	def, _ := escpos.ParseCodepage(c.Decoder.DefaultCodepage)
	out, _ := escpos.ParseCodepage(c.Decoder.OutputCodepage)
	return escpos.Options{DefaultCodepage: def, OutputCodepage: out}
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.DBName, c.Database.SSLMode)
}

// GetServerAddr returns the HTTP server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// GetTCPListenerAddr returns the raw print port address
func (c *Config) GetTCPListenerAddr() string {
	return fmt.Sprintf("%s:%d", c.Listener.TCP.Host, c.Listener.TCP.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}
