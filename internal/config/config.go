package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`

	// WebSocket limits.
	MaxMessageBytes  int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	ClientBuffer     int           `mapstructure:"client_buffer" yaml:"client_buffer"`
	MessageRateLimit int           `mapstructure:"message_rate_limit" yaml:"message_rate_limit"` // per connection per minute, 0 disables
	PingInterval     time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	PingTimeout      time.Duration `mapstructure:"ping_timeout" yaml:"ping_timeout"`

	// Discovery API limits, per client IP.
	HTTPRateLimit  int           `mapstructure:"http_rate_limit" yaml:"http_rate_limit"`
	HTTPRateWindow time.Duration `mapstructure:"http_rate_window" yaml:"http_rate_window"`

	// Activity sinks. Empty values disable them.
	JournalPath  string `mapstructure:"journal_path" yaml:"journal_path"`
	RedisAddr    string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisDB      int    `mapstructure:"redis_db" yaml:"redis_db"`
	RedisChannel string `mapstructure:"redis_channel" yaml:"redis_channel"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":5000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		CORSOrigins:       []string{"http://localhost:3000", "http://localhost:3001"},
		MaxMessageBytes:   10 << 20,
		ClientBuffer:      64,
		PingInterval:      25 * time.Second,
		PingTimeout:       60 * time.Second,
		HTTPRateLimit:     100,
		HTTPRateWindow:    15 * time.Minute,
		RedisChannel:      "collabhub:activity",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if len(other.CORSOrigins) > 0 {
		c.CORSOrigins = other.CORSOrigins
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.ClientBuffer != 0 {
		c.ClientBuffer = other.ClientBuffer
	}
	if other.MessageRateLimit != 0 {
		c.MessageRateLimit = other.MessageRateLimit
	}
	if other.PingInterval != 0 {
		c.PingInterval = other.PingInterval
	}
	if other.PingTimeout != 0 {
		c.PingTimeout = other.PingTimeout
	}
	if other.HTTPRateLimit != 0 {
		c.HTTPRateLimit = other.HTTPRateLimit
	}
	if other.HTTPRateWindow != 0 {
		c.HTTPRateWindow = other.HTTPRateWindow
	}
	if other.JournalPath != "" {
		c.JournalPath = other.JournalPath
	}
	if other.RedisAddr != "" {
		c.RedisAddr = other.RedisAddr
	}
	if other.RedisDB != 0 {
		c.RedisDB = other.RedisDB
	}
	if other.RedisChannel != "" {
		c.RedisChannel = other.RedisChannel
	}
}
