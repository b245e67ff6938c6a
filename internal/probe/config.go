package probe

import "time"

// Config tunes the system probes. Zero values are replaced by DefaultConfig
// values in WithDefaults.
type Config struct {
	DNSHost           string        `mapstructure:"dns_host"`
	RouteProbeAddr    string        `mapstructure:"route_probe_addr"`
	PingCount         int           `mapstructure:"ping_count"`
	PingTimeout       time.Duration `mapstructure:"ping_timeout"`
	STUNServers       []string      `mapstructure:"stun_servers"`
	STUNTimeout       time.Duration `mapstructure:"stun_timeout"`
	ThroughputTimeout time.Duration `mapstructure:"throughput_timeout"`

	// SpeedtestServerIDs pins speedtest.net servers. Empty picks the nearest.
	SpeedtestServerIDs []int `mapstructure:"speedtest_server_ids"`
}

// DefaultConfig returns the probe defaults.
func DefaultConfig() Config {
	return Config{
		DNSHost:           "google.com",
		RouteProbeAddr:    "8.8.8.8:80",
		PingCount:         1,
		PingTimeout:       5 * time.Second,
		STUNServers:       []string{"stun.l.google.com:19302", "stun.cloudflare.com:3478"},
		STUNTimeout:       3 * time.Second,
		ThroughputTimeout: 60 * time.Second,
	}
}

// WithDefaults fills unset fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.DNSHost == "" {
		c.DNSHost = d.DNSHost
	}
	if c.RouteProbeAddr == "" {
		c.RouteProbeAddr = d.RouteProbeAddr
	}
	if c.PingCount <= 0 {
		c.PingCount = d.PingCount
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = d.PingTimeout
	}
	if len(c.STUNServers) == 0 {
		c.STUNServers = d.STUNServers
	}
	if c.STUNTimeout <= 0 {
		c.STUNTimeout = d.STUNTimeout
	}
	if c.ThroughputTimeout <= 0 {
		c.ThroughputTimeout = d.ThroughputTimeout
	}
	return c
}
