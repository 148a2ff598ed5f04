// File: config/config.go
// Package config loads AJP connector settings from file and environment.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/viper"

	"github.com/momentics/hioload-ajp/protocol"
)

// Config is the connector configuration surface. Address and Port describe
// the listening endpoint and are consumed by whoever constructs it;
// everything else maps onto the protocol handler via Apply, with the
// endpoint-facing entries (backlog, poller tuning) carried as passthrough.
type Config struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Backlog int    `mapstructure:"backlog"`

	PollTime   time.Duration `mapstructure:"poll_time"`
	PollerSize int           `mapstructure:"poller_size"`

	SoTimeout        time.Duration `mapstructure:"so_timeout"`
	SoLinger         int           `mapstructure:"so_linger"`
	TCPNoDelay       bool          `mapstructure:"tcp_no_delay"`
	KeepAliveTimeout time.Duration `mapstructure:"keep_alive_timeout"`

	PacketSize               int    `mapstructure:"packet_size"`
	RequiredSecret           string `mapstructure:"required_secret"`
	AllowedRequestAttributes string `mapstructure:"allowed_request_attributes"`
	ContainerAuth            bool   `mapstructure:"container_auth"`

	ProcessorCache  int `mapstructure:"processor_cache"`
	MaxPauseRetries int `mapstructure:"max_pause_retries"`
}

// Default returns the classic AJP connector defaults.
func Default() *Config {
	return &Config{
		Address:         "0.0.0.0",
		Port:            protocol.DefaultPort,
		Backlog:         protocol.DefaultBacklog,
		PollTime:        protocol.DefaultPollTime,
		PollerSize:      protocol.DefaultPollerSize,
		SoLinger:        protocol.DefaultSoLinger,
		TCPNoDelay:      protocol.DefaultTCPNoDelay,
		PacketSize:      protocol.DefaultPacketSize,
		ContainerAuth:   true,
		ProcessorCache:  protocol.DefaultProcessorCache,
		MaxPauseRetries: protocol.DefaultMaxPauseRetries,
	}
}

// Load reads configuration from the given file (optional; empty path skips
// the file) with AJP_-prefixed environment overrides on top of defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("address", def.Address)
	v.SetDefault("port", def.Port)
	v.SetDefault("backlog", def.Backlog)
	v.SetDefault("poll_time", def.PollTime)
	v.SetDefault("poller_size", def.PollerSize)
	v.SetDefault("so_timeout", def.SoTimeout)
	v.SetDefault("so_linger", def.SoLinger)
	v.SetDefault("tcp_no_delay", def.TCPNoDelay)
	v.SetDefault("keep_alive_timeout", def.KeepAliveTimeout)
	v.SetDefault("packet_size", def.PacketSize)
	v.SetDefault("required_secret", def.RequiredSecret)
	v.SetDefault("allowed_request_attributes", def.AllowedRequestAttributes)
	v.SetDefault("container_auth", def.ContainerAuth)
	v.SetDefault("processor_cache", def.ProcessorCache)
	v.SetDefault("max_pause_retries", def.MaxPauseRetries)

	v.SetEnvPrefix("AJP")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Apply maps the settings onto a protocol handler. Must be called before
// Init/Start.
func (c *Config) Apply(p *protocol.AjpProtocol) error {
	p.SetBacklog(c.Backlog)
	p.SetPollTime(c.PollTime)
	p.SetPollerSize(c.PollerSize)
	p.SetSoTimeout(c.SoTimeout)
	p.SetSoLinger(c.SoLinger)
	p.SetTCPNoDelay(c.TCPNoDelay)
	p.SetKeepAliveTimeout(c.KeepAliveTimeout)
	p.SetPacketSize(c.PacketSize)
	p.SetRequiredSecret(c.RequiredSecret)
	p.SetContainerAuth(c.ContainerAuth)
	p.SetProcessorCache(c.ProcessorCache)
	p.SetMaxPauseRetries(c.MaxPauseRetries)
	if c.AllowedRequestAttributes != "" {
		re, err := regexp.Compile(c.AllowedRequestAttributes)
		if err != nil {
			return fmt.Errorf("allowed_request_attributes: %w", err)
		}
		p.SetAllowedRequestAttributesPattern(re)
	}
	return nil
}
