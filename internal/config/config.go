package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
	} `mapstructure:"server"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
		MaxConns int32  `mapstructure:"max_conns"`
	} `mapstructure:"database"`

	Session struct {
		CookieName      string `mapstructure:"cookie_name"`
		Secret          string `mapstructure:"secret"`
		ExpirationHours int    `mapstructure:"expiration_hours"`
		Issuer          string `mapstructure:"issuer"`
		SecureCookie    bool   `mapstructure:"secure_cookie"`
	} `mapstructure:"session"`

	Redis struct {
		Enabled  bool   `mapstructure:"enabled"`
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Storage struct {
		Enabled    bool          `mapstructure:"enabled"`
		Endpoint   string        `mapstructure:"endpoint"`
		Region     string        `mapstructure:"region"`
		Bucket     string        `mapstructure:"bucket"`
		AccessKey  string        `mapstructure:"access_key"`
		SecretKey  string        `mapstructure:"secret_key"`
		PresignTTL time.Duration `mapstructure:"presign_ttl"`
	} `mapstructure:"storage"`

	Sequence struct {
		// "counter" (atomic, default) or "scan" (read current maximum)
		Strategy string        `mapstructure:"strategy"`
		LockTTL  time.Duration `mapstructure:"lock_ttl"`
	} `mapstructure:"sequence"`

	Log struct {
		Format string `mapstructure:"format"`
		Level  string `mapstructure:"level"`
	} `mapstructure:"log"`

	// IANA zone used to derive month prefixes and "today" for the dashboard
	Timezone string `mapstructure:"timezone"`

	// Source is the config file that was read, empty when running on defaults
	Source string `mapstructure:"-"`
}

// DSN returns the pgx connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func Load() (*Config, error) {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	if path := os.Getenv("SKYROUTE_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigFile("configs/config.yaml")
	}

	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config

	// Config file is optional
	if err := v.ReadInConfig(); err == nil {
		cfg.Source = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}

	applyEnvOverrides(&cfg)

	if cfg.Session.Secret == "" {
		return nil, fmt.Errorf("session secret is not set (SESSION_SECRET)")
	}
	if cfg.Sequence.Strategy != "counter" && cfg.Sequence.Strategy != "scan" {
		return nil, fmt.Errorf("unknown sequence strategy %q", cfg.Sequence.Strategy)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Sensible defaults so the binary works without a config file
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Content-Type"})
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "skyroute")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("session.cookie_name", "skyroute_session")
	v.SetDefault("session.expiration_hours", 12)
	v.SetDefault("session.issuer", "skyroute")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.presign_ttl", 15*time.Minute)
	v.SetDefault("sequence.strategy", "counter")
	v.SetDefault("sequence.lock_ttl", 5*time.Second)
	v.SetDefault("log.format", "json")
	v.SetDefault("log.level", "info")
	v.SetDefault("timezone", "Europe/London")
}

func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Database.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Name = name
	}

	if cfg.Session.Secret == "" || cfg.Session.Secret == "${SESSION_SECRET}" {
		cfg.Session.Secret = os.Getenv("SESSION_SECRET")
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}

	if bucket := os.Getenv("STORAGE_BUCKET"); bucket != "" {
		cfg.Storage.Bucket = bucket
		cfg.Storage.Enabled = true
	}
	if endpoint := os.Getenv("STORAGE_ENDPOINT"); endpoint != "" {
		cfg.Storage.Endpoint = endpoint
	}
	if key := os.Getenv("STORAGE_ACCESS_KEY"); key != "" {
		cfg.Storage.AccessKey = key
	}
	if secret := os.Getenv("STORAGE_SECRET_KEY"); secret != "" {
		cfg.Storage.SecretKey = secret
	}
}
