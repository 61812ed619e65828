package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Security SecurityConfig `yaml:"security"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTTLMinutes  int    `yaml:"access_ttl_minutes"`
	RefreshTTLMinutes int    `yaml:"refresh_ttl_minutes"`
}

// SecurityConfig holds the session-lifecycle knobs. Idle timeout and reauth
// window are deliberately independent durations: the first bounds how long a
// session may sit unused, the second bounds how long a password re-entry
// authorizes sensitive actions.
type SecurityConfig struct {
	IdleTimeoutMinutes   int `yaml:"idle_timeout_minutes"`
	ReauthWindowMinutes  int `yaml:"reauth_window_minutes"`
	AttemptWindowMinutes int `yaml:"attempt_window_minutes"`
	AttemptThreshold     int `yaml:"attempt_threshold"`
	StoreTimeoutSeconds  int `yaml:"store_timeout_seconds"`
}

// RedisConfig for the expiring key-value store and the notification queue.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		fileCfg := *DefaultConfig()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.overrideFromEnv()
	cfg.applyFloors()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "dineatlas.db",
		},
		JWT: JWTConfig{
			Secret:            "dineatlas-secret-key-change-in-production",
			AccessTTLMinutes:  15,
			RefreshTTLMinutes: 60,
		},
		Security: SecurityConfig{
			IdleTimeoutMinutes:   15,
			ReauthWindowMinutes:  15,
			AttemptWindowMinutes: 15,
			AttemptThreshold:     3,
			StoreTimeoutSeconds:  2,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Enabled = true
		c.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			c.Redis.DB = n
		}
	}
}

// applyFloors guards against zero/negative durations sneaking in from a
// hand-edited config file. Session security must never be configured off.
func (c *Config) applyFloors() {
	if c.JWT.AccessTTLMinutes <= 0 {
		c.JWT.AccessTTLMinutes = 15
	}
	if c.JWT.RefreshTTLMinutes <= 0 {
		c.JWT.RefreshTTLMinutes = 60
	}
	if c.Security.IdleTimeoutMinutes <= 0 {
		c.Security.IdleTimeoutMinutes = 15
	}
	if c.Security.ReauthWindowMinutes <= 0 {
		c.Security.ReauthWindowMinutes = 15
	}
	if c.Security.AttemptWindowMinutes <= 0 {
		c.Security.AttemptWindowMinutes = 15
	}
	if c.Security.AttemptThreshold <= 0 {
		c.Security.AttemptThreshold = 3
	}
	if c.Security.StoreTimeoutSeconds <= 0 {
		c.Security.StoreTimeoutSeconds = 2
	}
}

func (c *JWTConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMinutes) * time.Minute
}

func (c *JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLMinutes) * time.Minute
}

func (c *SecurityConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMinutes) * time.Minute
}

func (c *SecurityConfig) ReauthWindow() time.Duration {
	return time.Duration(c.ReauthWindowMinutes) * time.Minute
}

func (c *SecurityConfig) AttemptWindow() time.Duration {
	return time.Duration(c.AttemptWindowMinutes) * time.Minute
}

func (c *SecurityConfig) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutSeconds) * time.Second
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
