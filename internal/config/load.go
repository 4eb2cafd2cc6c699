package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. SHAREME_SERVER_PORT.
const EnvPrefix = "SHAREME"

var defaults = map[string]any{
	"server.port":                         8080,
	"server.log_level":                    "info",
	"server.upload_dir":                   "./uploads",
	"server.max_upload_mb":                200,
	"database.max_open_conns":             10,
	"database.max_idle_conns":             5,
	"auth.token_lifetime_minutes":         60,
	"auth.refresh_token_lifetime_minutes": 10080,
	"auth.bcrypt_cost":                    10,
	"auth.reset_token_ttl_minutes":        15,
	"auth.reset_url_base":                 "http://localhost:3000/reset",
	"redis.addr":                          "localhost:6379",
	"redis.db":                            0,
}

// Keys without defaults still need binding so that Unmarshal sees them.
var requiredKeys = []string{
	"database.url",
	"auth.jwt_secret",
	"redis.password",
}

// Load reads configuration from defaults, an optional config.yaml in the
// working directory, and SHAREME_* environment variables, in increasing
// order of precedence. The result is validated before it is returned.
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range requiredKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
