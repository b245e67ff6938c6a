package agent

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HerbHall/netwatch/internal/probe"
	"github.com/spf13/viper"
)

// Config holds the agent configuration.
type Config struct {
	Agent  LoopConfig   `mapstructure:"agent"`
	Server ServerConfig `mapstructure:"server"`
	Buffer BufferConfig `mapstructure:"buffer"`
	Probe  ProbeConfig  `mapstructure:"probe"`
}

// LoopConfig controls collection cadence and recovery.
type LoopConfig struct {
	Interval           time.Duration `mapstructure:"interval"`
	FaultCooldown      time.Duration `mapstructure:"fault_cooldown"`
	Location           string        `mapstructure:"location"`
	RegisterBackoffMin time.Duration `mapstructure:"register_backoff_min"`
	RegisterBackoffMax time.Duration `mapstructure:"register_backoff_max"`
}

// ServerConfig locates the ingest API.
type ServerConfig struct {
	// Endpoint is the devices collection URL, e.g. http://host:8080/api/v1/devices.
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// BufferConfig sizes the retry buffer. An empty Path keeps it in memory.
type BufferConfig struct {
	Capacity int    `mapstructure:"capacity"`
	Path     string `mapstructure:"path"`
}

// ProbeConfig extends the probe tuning with collection choices.
type ProbeConfig struct {
	probe.Config     `mapstructure:",squash"`
	PingHosts        []string      `mapstructure:"ping_hosts"`
	ThroughputWindow time.Duration `mapstructure:"throughput_window"`
}

// DefaultConfig returns the default agent configuration.
func DefaultConfig() *Config {
	return &Config{
		Agent: LoopConfig{
			Interval:           300 * time.Second,
			FaultCooldown:      60 * time.Second,
			RegisterBackoffMin: time.Second,
			RegisterBackoffMax: 5 * time.Minute,
		},
		Server: ServerConfig{
			Endpoint: "http://localhost:8080/api/v1/devices",
			Timeout:  10 * time.Second,
		},
		Buffer: BufferConfig{Capacity: 100},
		Probe: ProbeConfig{
			Config:           probe.DefaultConfig(),
			PingHosts:        probe.DefaultPingHosts,
			ThroughputWindow: 5 * time.Minute,
		},
	}
}

// Validate reports settings the agent cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Endpoint == "" {
		errs = append(errs, errors.New("server.endpoint is required"))
	}
	if c.Agent.Interval <= 0 {
		errs = append(errs, fmt.Errorf("agent.interval must be positive, got %s", c.Agent.Interval))
	}
	if c.Agent.FaultCooldown <= 0 {
		errs = append(errs, fmt.Errorf("agent.fault_cooldown must be positive, got %s", c.Agent.FaultCooldown))
	}
	if c.Agent.RegisterBackoffMin <= 0 {
		errs = append(errs, fmt.Errorf("agent.register_backoff_min must be positive, got %s", c.Agent.RegisterBackoffMin))
	}
	if c.Agent.RegisterBackoffMax <= 0 {
		errs = append(errs, fmt.Errorf("agent.register_backoff_max must be positive, got %s", c.Agent.RegisterBackoffMax))
	} else if c.Agent.RegisterBackoffMax < c.Agent.RegisterBackoffMin {
		errs = append(errs, fmt.Errorf("agent.register_backoff_max (%s) is below agent.register_backoff_min (%s)",
			c.Agent.RegisterBackoffMax, c.Agent.RegisterBackoffMin))
	}
	if c.Buffer.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("buffer.capacity must be positive, got %d", c.Buffer.Capacity))
	}
	if c.Server.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout))
	}
	return errors.Join(errs...)
}

// LoadConfig reads agent configuration from file and environment variables.
// CLOUD_ENDPOINT and API_KEY are honoured for existing installs.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()
	d := DefaultConfig()

	v.SetDefault("agent.interval", d.Agent.Interval)
	v.SetDefault("agent.fault_cooldown", d.Agent.FaultCooldown)
	v.SetDefault("agent.location", "")
	v.SetDefault("agent.register_backoff_min", d.Agent.RegisterBackoffMin)
	v.SetDefault("agent.register_backoff_max", d.Agent.RegisterBackoffMax)
	v.SetDefault("server.endpoint", d.Server.Endpoint)
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.timeout", d.Server.Timeout)
	v.SetDefault("buffer.capacity", d.Buffer.Capacity)
	v.SetDefault("buffer.path", "")
	v.SetDefault("probe.ping_hosts", d.Probe.PingHosts)
	v.SetDefault("probe.throughput_window", d.Probe.ThroughputWindow)
	v.SetDefault("probe.dns_host", d.Probe.DNSHost)
	v.SetDefault("probe.route_probe_addr", d.Probe.RouteProbeAddr)
	v.SetDefault("probe.ping_count", d.Probe.PingCount)
	v.SetDefault("probe.ping_timeout", d.Probe.PingTimeout)
	v.SetDefault("probe.stun_servers", d.Probe.STUNServers)
	v.SetDefault("probe.stun_timeout", d.Probe.STUNTimeout)
	v.SetDefault("probe.speedtest_server_ids", []int{})
	v.SetDefault("probe.throughput_timeout", d.Probe.ThroughputTimeout)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "netwatch-agent.log")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("netwatch-agent")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/netwatch")
	}

	// NW_AGENT_SERVER_ENDPOINT=https://... overrides server.endpoint.
	v.SetEnvPrefix("NW_AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.endpoint", "NW_AGENT_SERVER_ENDPOINT", "CLOUD_ENDPOINT")
	_ = v.BindEnv("server.api_key", "NW_AGENT_SERVER_API_KEY", "API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return v, nil
}

// ConfigFromViper decodes and validates the agent settings.
func ConfigFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Probe.Config = cfg.Probe.Config.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
