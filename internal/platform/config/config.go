package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		App    string `yaml:"app"`
	} `yaml:"log"`

	DB struct {
		DSN          string `yaml:"dsn"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
	} `yaml:"db"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		Issuer    string `yaml:"issuer"`
	} `yaml:"auth"`

	Notify struct {
		Driver       string `yaml:"driver"` // log | redis | webhook
		RedisAddr    string `yaml:"redis_addr"`
		RedisChannel string `yaml:"redis_channel"`
		WebhookURL   string `yaml:"webhook_url"`
		WebhookToken string `yaml:"webhook_token"`
	} `yaml:"notify"`
}

// Default devuelve la configuración usada cuando no hay archivo ni env.
func Default() Config {
	var c Config
	c.Port = "8080"
	c.Log.Level = "info"
	c.Log.Format = "text"
	c.Log.App = "sports-portal"
	c.DB.MaxOpenConns = 10
	c.DB.MaxIdleConns = 5
	c.Notify.Driver = "log"
	c.Notify.RedisChannel = "notifications"
	return c
}

// Load arma la configuración en capas:
// defaults -> .env (opcional) -> CONFIG_FILE yaml (opcional) -> variables de entorno.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Port, "PORT")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Log.App, "APP_NAME")
	setString(&cfg.DB.DSN, "DB_DSN")
	setInt(&cfg.DB.MaxOpenConns, "DB_MAX_OPEN_CONNS")
	setInt(&cfg.DB.MaxIdleConns, "DB_MAX_IDLE_CONNS")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Auth.Issuer, "JWT_ISSUER")
	setString(&cfg.Notify.Driver, "NOTIFY_DRIVER")
	setString(&cfg.Notify.RedisAddr, "REDIS_ADDR")
	setString(&cfg.Notify.RedisChannel, "REDIS_CHANNEL")
	setString(&cfg.Notify.WebhookURL, "NOTIFY_WEBHOOK_URL")
	setString(&cfg.Notify.WebhookToken, "NOTIFY_WEBHOOK_TOKEN")
}

func (c Config) validate() error {
	switch c.Notify.Driver {
	case "log":
	case "redis":
		if strings.TrimSpace(c.Notify.RedisAddr) == "" {
			return fmt.Errorf("notify driver redis requires REDIS_ADDR")
		}
	case "webhook":
		if strings.TrimSpace(c.Notify.WebhookURL) == "" {
			return fmt.Errorf("notify driver webhook requires NOTIFY_WEBHOOK_URL")
		}
	default:
		return fmt.Errorf("unknown notify driver %q", c.Notify.Driver)
	}
	return nil
}

func setString(dst *string, name string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, name string) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return
	}
	if i, err := strconv.Atoi(v); err == nil {
		*dst = i
	}
}
