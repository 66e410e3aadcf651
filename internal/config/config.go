package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port int
	}
	Database struct {
		Driver string
		Path   string
	}
	Auth struct {
		JWTSecret  string
		SessionTTL time.Duration
		AdminEmail string
	}
	Points struct {
		SignupGrant int
	}
	Moderation struct {
		AutoApprove bool
	}
	Seed struct {
		Demo bool
	}
	Log struct {
		Level string
	}
	CLI struct {
		// SessionPath is a separate bolt file for the signed-in user. Empty
		// keeps it in the main store.
		SessionPath string
	}
	// FileUsed is the config file that was read, empty when only defaults
	// and environment applied.
	FileUsed string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data.db")
	v.SetDefault("auth.jwt_secret", "rewear-dev-secret")
	v.SetDefault("auth.session_ttl", 24*time.Hour)
	v.SetDefault("auth.admin_email", "admin@rewear.com")
	v.SetDefault("points.signup_grant", 100)
	v.SetDefault("moderation.auto_approve", true)
	v.SetDefault("seed.demo", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("cli.session_path", "")
}

// LoadConfig reads config.yaml from the given directories (the working
// directory when none are given), then applies REWEAR_ environment overrides
// such as REWEAR_SERVER_PORT. A missing file is not an error.
func LoadConfig(dirs ...string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
	setDefaults(v)
	v.SetEnvPrefix("REWEAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	cfg.FileUsed = v.ConfigFileUsed()
	cfg.Server.Port = v.GetInt("server.port")
	cfg.Database.Driver = v.GetString("database.driver")
	cfg.Database.Path = v.GetString("database.path")
	cfg.Auth.JWTSecret = v.GetString("auth.jwt_secret")
	cfg.Auth.SessionTTL = v.GetDuration("auth.session_ttl")
	cfg.Auth.AdminEmail = v.GetString("auth.admin_email")
	cfg.Points.SignupGrant = v.GetInt("points.signup_grant")
	cfg.Moderation.AutoApprove = v.GetBool("moderation.auto_approve")
	cfg.Seed.Demo = v.GetBool("seed.demo")
	cfg.Log.Level = v.GetString("log.level")
	cfg.CLI.SessionPath = v.GetString("cli.session_path")

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "bolt", "bbolt":
	default:
		return fmt.Errorf("database.driver: unknown driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}
	if c.Points.SignupGrant < 0 {
		return fmt.Errorf("points.signup_grant must not be negative")
	}
	return nil
}
