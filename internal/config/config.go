package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Stream struct {
	URL              string   `yaml:"url"`
	ReconnectDelayMs int      `yaml:"reconnect_delay_ms"`
	PingIntervalMs   int      `yaml:"ping_interval_ms"`
	DialTimeoutMs    int      `yaml:"dial_timeout_ms"`
	WriteTimeoutMs   int      `yaml:"write_timeout_ms"`
	SubscribeSymbols []string `yaml:"subscribe_symbols"`
}

type API struct {
	BaseURL         string  `yaml:"base_url"`
	TimeoutMs       int     `yaml:"timeout_ms"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	Burst           int     `yaml:"burst"`
}

// Poll holds the per-page REST refresh intervals. The stream carries the
// portfolio; orders, quotes and history pages refresh independently.
type Poll struct {
	OrdersMs int `yaml:"orders_ms"`
	QuotesMs int `yaml:"quotes_ms"`
	PnLMs    int `yaml:"pnl_ms"`
}

// Stub configures the local backend stub (cmd/stubs).
type Stub struct {
	Addr        string `yaml:"addr"`
	BroadcastMs int    `yaml:"broadcast_ms"`
	HeartbeatMs int    `yaml:"heartbeat_ms"`
}

type Root struct {
	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`
	Stream    Stream `yaml:"stream"`
	API       API    `yaml:"api"`
	Poll      Poll   `yaml:"poll"`
	Stub      Stub   `yaml:"stub"`
}

// Load reads a yaml config file and fills defaults. An empty path returns the
// defaults only.
func Load(path string) (Root, error) {
	var c Root
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, err
		}
	}
	applyDefaults(&c)
	return c, nil
}

func applyDefaults(c *Root) {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Stream.URL == "" {
		c.Stream.URL = "ws://localhost:8000/ws"
	}
	if c.Stream.ReconnectDelayMs == 0 {
		c.Stream.ReconnectDelayMs = 5000
	}
	if c.Stream.PingIntervalMs == 0 {
		c.Stream.PingIntervalMs = 25000
	}
	if c.Stream.DialTimeoutMs == 0 {
		c.Stream.DialTimeoutMs = 10000
	}
	if c.Stream.WriteTimeoutMs == 0 {
		c.Stream.WriteTimeoutMs = 5000
	}

	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8000/api"
	}
	if c.API.TimeoutMs == 0 {
		c.API.TimeoutMs = 30000
	}
	if c.API.RateLimitPerSec == 0 {
		c.API.RateLimitPerSec = 10
	}
	if c.API.Burst == 0 {
		c.API.Burst = 5
	}

	if c.Poll.OrdersMs == 0 {
		c.Poll.OrdersMs = 30000
	}
	if c.Poll.QuotesMs == 0 {
		c.Poll.QuotesMs = 10000
	}
	if c.Poll.PnLMs == 0 {
		c.Poll.PnLMs = 30000
	}

	if c.Stub.Addr == "" {
		c.Stub.Addr = ":8000"
	}
	if c.Stub.BroadcastMs == 0 {
		c.Stub.BroadcastMs = 5000
	}
	if c.Stub.HeartbeatMs == 0 {
		c.Stub.HeartbeatMs = 30000
	}
}
