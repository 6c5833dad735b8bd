package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// current holds the application configuration. Watch swaps it while requests
// read it, so it is only reached through Get and Set.
var current atomic.Pointer[Config]

// Get returns the loaded configuration, or nil before Init.
func Get() *Config {
	return current.Load()
}

// Set replaces the configuration.
func Set(c *Config) {
	current.Store(c)
}

// v is the viper instance the configuration was loaded from, kept so Watch can reload it.
var v *viper.Viper

// Config struct is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Capture  CaptureConfig  `mapstructure:"capture"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port          string          `mapstructure:"port"`
	SessionSecret string          `mapstructure:"session_secret"`
	SecureCookies bool            `mapstructure:"secure_cookies"`
	AssetsDir     string          `mapstructure:"assets_dir"`
	MediaDir      string          `mapstructure:"media_dir"` // local videos mountable by path; empty allows URLs only
	RateLimit     RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig bounds how many mutating requests one client may send.
type RateLimitConfig struct {
	Window time.Duration `mapstructure:"window"`
	Limit  uint          `mapstructure:"limit"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.DBName, d.Port, d.SSLMode)
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// StorageConfig selects where click ledgers are persisted.
type StorageConfig struct {
	Driver  string        `mapstructure:"driver"` // memory, postgres or redis
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
	Sweep   time.Duration `mapstructure:"sweep"`
}

// CaptureConfig controls how clicks are turned into native coordinates.
type CaptureConfig struct {
	Mode          string  `mapstructure:"mode"`       // stretch or letterbox
	FrameRate     float64 `mapstructure:"frame_rate"` // 0 means unknown
	RequirePaused bool    `mapstructure:"require_paused"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", "change-me-in-production")
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("server.assets_dir", "./assets")
	v.SetDefault("server.media_dir", "")
	v.SetDefault("server.rate_limit.window", time.Second)
	v.SetDefault("server.rate_limit.limit", 20)

	// Database defaults
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "video-coords")
	v.SetDefault("database.sslmode", "disable")

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "clicks")

	// Storage defaults
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.idle_ttl", 7*24*time.Hour) // matches the session cookie lifetime
	v.SetDefault("storage.sweep", 10*time.Minute)

	// Capture defaults
	v.SetDefault("capture.mode", "stretch")
	v.SetDefault("capture.frame_rate", 0)
	v.SetDefault("capture.require_paused", true)

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs
}

// Init loads the configuration with Viper.
func Init(projectRoot string) error {
	v = viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("VIDCOORDS") // e.g., VIDCOORDS_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	Set(&conf)
	return nil
}

// Watch hot-reloads the configuration whenever the config file changes. Only settings read
// per request (capture, rate limit) pick up the change without a restart.
func Watch(log *zap.Logger) {
	if v == nil {
		return
	}
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		var conf Config
		if err := v.Unmarshal(&conf); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
			return
		}
		Set(&conf)
	})
}
