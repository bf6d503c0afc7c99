package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr            string
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Auth struct {
		Secret   string
		TokenTTL time.Duration `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`

	Reconcile struct {
		SweepSpec    string `mapstructure:"sweep_spec"`
		DigestSpec   string `mapstructure:"digest_spec"`
		ExpiringDays int    `mapstructure:"expiring_days"`
	} `mapstructure:"reconcile"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "Asia/Kolkata")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 5*time.Second)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("reconcile.sweep_spec", "0 0 * * *")
	v.SetDefault("reconcile.digest_spec", "0 9 * * 1")
	v.SetDefault("reconcile.expiring_days", 7)
	// Registered so AutomaticEnv can override keys absent from the file.
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("auth.secret", "")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_chat_id", 0)
}

// Load reads the YAML file at path, then lets APP_* environment variables
// override it (APP_POSTGRES_DSN overrides postgres.dsn). A .env file in the
// working directory is loaded into the environment first when present.
func Load(path string) (Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Postgres.DSN == "" {
		errs = append(errs, errors.New("postgres.dsn is required"))
	}
	if len(c.Auth.Secret) < 16 {
		errs = append(errs, errors.New("auth.secret must be at least 16 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("app.timezone: %w", err))
	}
	if c.Telegram.Token != "" && c.Telegram.AdminChatID == 0 {
		errs = append(errs, errors.New("telegram.admin_chat_id is required when telegram.token is set"))
	}
	if c.Reconcile.ExpiringDays < 0 {
		errs = append(errs, errors.New("reconcile.expiring_days must not be negative"))
	}
	return errors.Join(errs...)
}
