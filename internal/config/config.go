package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		StaticDir          string   `mapstructure:"static_dir"`
	} `mapstructure:"server"`

	Database struct {
		DSN        string `mapstructure:"dsn"`
		Host       string `mapstructure:"host"`
		Port       int    `mapstructure:"port"`
		User       string `mapstructure:"user"`
		Password   string `mapstructure:"password"`
		Name       string `mapstructure:"name"`
		MaxRetries int    `mapstructure:"max_retries"`
	} `mapstructure:"database"`

	JWT struct {
		Secret          string `mapstructure:"secret"`
		ExpirationHours int    `mapstructure:"expiration_hours"`
	} `mapstructure:"jwt"`

	Admin struct {
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"admin"`

	Log struct {
		SQL bool `mapstructure:"sql"`
	} `mapstructure:"log"`

	Reports struct {
		UnicodeFont string `mapstructure:"unicode_font"`
	} `mapstructure:"reports"`
}

// Load reads .env, then configs/config.yaml (optional), then the environment.
// DATABASE_HOST overrides database.host and so on.
func Load() (*Config, error) {
	// Load .env file if exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("[Config] No .env file found")
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}

	if cfg.JWT.Secret == "" {
		return nil, errors.New("jwt.secret (JWT_SECRET) is required")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.static_dir", "./web")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "inventory_db")
	v.SetDefault("database.max_retries", 5)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration_hours", 168)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "admin123")
	v.SetDefault("log.sql", false)
	v.SetDefault("reports.unicode_font", "")
}

// DSN returns the MySQL connection string
func (c *Config) DSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Name)
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.ExpirationHours) * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
