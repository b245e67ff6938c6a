package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the HTTP listener configuration.
type Config struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	DevMode bool   `mapstructure:"dev_mode"`
}

// Addr returns the listen address as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Options tunes the middleware chain built by New.
type Options struct {
	DevMode bool
	// RateLimitRPS and RateLimitBurst bound per-client request rates.
	// Zero RPS disables rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
	// APIKeyHash is a bcrypt hash of the shared API key. Empty disables auth.
	APIKeyHash string
}

// OptionsFromViper builds Options from the server, ratelimit and auth keys.
func OptionsFromViper(v *viper.Viper) Options {
	return Options{
		DevMode:        v.GetBool("server.dev_mode"),
		RateLimitRPS:   v.GetFloat64("ratelimit.rps"),
		RateLimitBurst: v.GetInt("ratelimit.burst"),
		APIKeyHash:     v.GetString("auth.api_key_hash"),
	}
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.dev_mode", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.path", "netwatch.db")

	v.SetDefault("display.timezone", "Asia/Manila")

	v.SetDefault("telemetry.latency_host", "8.8.8.8")
	v.SetDefault("liveness.stale_after", "15m")
	v.SetDefault("liveness.sweep_interval", "1m")
	v.SetDefault("poller.enabled", false)
	v.SetDefault("poller.interval", "5m")
	v.SetDefault("poller.ping_hosts", []string{"google.com", "8.8.8.8", "1.1.1.1"})

	v.SetDefault("auth.api_key_hash", "")
	v.SetDefault("ratelimit.rps", 100)
	v.SetDefault("ratelimit.burst", 200)

	// probe.* keys are optional; unset fields fall back to probe.DefaultConfig.

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("netwatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/netwatch")
	}

	// NW_SERVER_PORT=9090, NW_DISPLAY_TIMEZONE=UTC
	v.SetEnvPrefix("NW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return v, nil
}
