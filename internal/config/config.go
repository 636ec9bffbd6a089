package config

import (
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Logger   Logger   `mapstructure:"logger"`
	Auth     Auth     `mapstructure:"auth"`
	Realtime Realtime `mapstructure:"realtime"`
	Imaging  Imaging  `mapstructure:"imaging"`
	Client   Client   `mapstructure:"client"`
	Tracing  Tracing  `mapstructure:"tracing"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// Database holds the configuration for the database.
type Database struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres or mysql
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Auth holds the session settings.
type Auth struct {
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	BcryptCost   int           `mapstructure:"bcrypt_cost"`
}

// Realtime selects how trade change notifications are fanned out.
type Realtime struct {
	Backend       string `mapstructure:"backend"` // local or redis
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	ChannelPrefix string `mapstructure:"channel_prefix"`
}

// Imaging holds the screenshot compression policy.
type Imaging struct {
	MaxDimension  int   `mapstructure:"max_dimension"`
	Quality       int   `mapstructure:"quality"`
	MaxInputBytes int64 `mapstructure:"max_input_bytes"`
	MaxPixels     int64 `mapstructure:"max_pixels"`
}

// Client holds the configuration for the API client used by journalctl.
type Client struct {
	BaseURL        string  `mapstructure:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	SessionFile    string  `mapstructure:"session_file"`
}

// Tracing toggles the OpenTelemetry stdout exporter.
type Tracing struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error; defaults and the environment apply.
func LoadConfig(path string) (Config, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg)
	return cfg, err
}

// Watch reloads the config file whenever it changes and hands the new
// configuration to onChange. Only settings that are safe to swap at runtime
// should be applied by the callback.
func Watch(path string, onChange func(Config, error)) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		var cfg Config
		err := v.Unmarshal(&cfg)
		onChange(cfg, err)
	})
	v.WatchConfig()
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")

	// Allow environment variables to override config file
	v.SetEnvPrefix("JOURNAL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_upload_bytes", 32<<20)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "journal.db")
	v.SetDefault("database.log_level", "silent")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	v.SetDefault("auth.session_ttl", 7*24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("realtime.backend", "local")
	v.SetDefault("realtime.redis_addr", "localhost:6379")
	v.SetDefault("realtime.channel_prefix", "journal:trades")

	v.SetDefault("imaging.max_dimension", 1200)
	v.SetDefault("imaging.quality", 75)
	v.SetDefault("imaging.max_input_bytes", 20<<20)
	v.SetDefault("imaging.max_pixels", 40_000_000)

	v.SetDefault("client.base_url", "http://localhost:8080")
	v.SetDefault("client.rate_limit", 10) // requests per second
	v.SetDefault("client.rate_limit_burst", 5)
	v.SetDefault("client.session_file", ".journal-session")

	v.SetDefault("tracing.service_name", "trading-journal")
}
