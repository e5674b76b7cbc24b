package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultJWTSecret   = "change-me-jwt-secret"
	defaultTokenSecret = "change-me-token-secret"
)

// Config представляет конфигурацию приложения
type Config struct {
	App struct {
		Env string `mapstructure:"env"`
	} `mapstructure:"app"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Server struct {
		Port         int           `mapstructure:"port"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"server"`
	DB struct {
		Host            string        `mapstructure:"host"`
		Port            int           `mapstructure:"port"`
		User            string        `mapstructure:"user"`
		Password        string        `mapstructure:"password"`
		Name            string        `mapstructure:"name"`
		SSLMode         string        `mapstructure:"sslmode"`
		MaxOpenConns    int           `mapstructure:"max_open_conns"`
		MaxIdleConns    int           `mapstructure:"max_idle_conns"`
		ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	} `mapstructure:"db"`
	JWT struct {
		SecretKey  string        `mapstructure:"secret_key"`
		AccessTTL  time.Duration `mapstructure:"access_ttl"`
		RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
	} `mapstructure:"jwt"`
	Auth struct {
		// Ключ HMAC для хранения refresh- и reset-токенов
		TokenSecret string        `mapstructure:"token_secret"`
		ResetTTL    time.Duration `mapstructure:"reset_ttl"`
		RateLimit   int           `mapstructure:"rate_limit"`
		RateWindow  time.Duration `mapstructure:"rate_window"`
	} `mapstructure:"auth"`
	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		From     string `mapstructure:"from"`
	} `mapstructure:"smtp"`
	Frontend struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"frontend"`
	CORS struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`
	Postal struct {
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"postal"`
	Tenant struct {
		SuspendedAllowList []string `mapstructure:"suspended_allow_list"`
	} `mapstructure:"tenant"`
}

// NewConfig создает новый экземпляр конфигурации.
// Значения берутся из config.yaml (если есть) и переменных окружения (DB_HOST, JWT_SECRET_KEY, ...).
func NewConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("log.level", "info")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "lending_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 100)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", time.Hour)

	v.SetDefault("jwt.secret_key", defaultJWTSecret)
	v.SetDefault("jwt.access_ttl", 15*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 7*24*time.Hour)

	v.SetDefault("auth.token_secret", defaultTokenSecret)
	v.SetDefault("auth.reset_ttl", 60*time.Minute)
	v.SetDefault("auth.rate_limit", 20)
	v.SetDefault("auth.rate_window", time.Minute)

	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "no-reply@lendingdesk.local")

	v.SetDefault("frontend.url", "http://localhost:5173")
	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("postal.base_url", "https://viacep.com.br")
	v.SetDefault("postal.timeout", 5*time.Second)

	v.SetDefault("tenant.suspended_allow_list", []string{"/auth/me", "/v1/subscription", "/v1/support-tickets"})
}

// Validate проверяет обязательные настройки
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("jwt ttl values must be positive")
	}
	if c.IsProduction() {
		if c.JWT.SecretKey == defaultJWTSecret || c.JWT.SecretKey == "" {
			return errors.New("JWT_SECRET_KEY must be set in production")
		}
		if c.Auth.TokenSecret == defaultTokenSecret || c.Auth.TokenSecret == "" {
			return errors.New("AUTH_TOKEN_SECRET must be set in production")
		}
	}
	return nil
}

// IsProduction сообщает, запущено ли приложение в production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

// DatabaseDSN возвращает строку подключения для gorm
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

// MigrationURL возвращает URL подключения для golang-migrate
func (c *Config) MigrationURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     fmt.Sprintf("%s:%d", c.DB.Host, c.DB.Port),
		Path:     c.DB.Name,
		RawQuery: "sslmode=" + c.DB.SSLMode,
	}
	return u.String()
}
