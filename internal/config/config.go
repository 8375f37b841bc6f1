package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	Telegram struct {
		Token string
		// Исходящие сообщения в секунду на весь бот.
		RatePerSecond float64 `mapstructure:"rate_per_second"`
		Debug         bool
	} `mapstructure:"telegram"`

	HTTP struct {
		Addr            string
		RateLimit       int           `mapstructure:"rate_limit"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"http"`

	Storage struct {
		// memory | postgres | redis | sqlite
		Driver   string
		Postgres struct {
			DSN     string
			Migrate bool
		} `mapstructure:"postgres"`
		Redis struct {
			Addr     string
			Password string
			DB       int
			Prefix   string
		} `mapstructure:"redis"`
		SQLite struct {
			Path string
		} `mapstructure:"sqlite"`
	} `mapstructure:"storage"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	AI struct {
		APIKey string `mapstructure:"api_key"`
		Model  string
	} `mapstructure:"ai"`

	Mail struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	} `mapstructure:"mail"`

	PDF struct {
		FontPath     string `mapstructure:"font_path"`
		BoldFontPath string `mapstructure:"bold_font_path"`
	} `mapstructure:"pdf"`

	WebApp struct {
		URL        string
		InitMaxAge time.Duration `mapstructure:"init_max_age"`
	} `mapstructure:"webapp"`
}

var drivers = map[string]bool{"memory": true, "postgres": true, "redis": true, "sqlite": true}

func defaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "Europe/Moscow")
	v.SetDefault("telegram.rate_per_second", 25)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.rate_limit", 120)
	v.SetDefault("http.shutdown_timeout", "5s")
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.redis.prefix", "smeta")
	v.SetDefault("storage.sqlite.path", "smeta.db")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("mail.port", 587)
	v.SetDefault("webapp.init_max_age", "24h")
}

func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	defaults(v)
	// APP_TELEGRAM_TOKEN -> telegram.token
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if !drivers[c.Storage.Driver] {
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.Postgres.DSN == "" {
		return errors.New("config: storage.postgres.dsn is required")
	}
	if c.Storage.Driver == "redis" && c.Storage.Redis.Addr == "" {
		return errors.New("config: storage.redis.addr is required")
	}
	return nil
}

// Location returns the configured time zone, UTC when it is unknown.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
