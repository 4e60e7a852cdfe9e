package stream

import (
	"fmt"
	"time"
)

// Config holds streaming configuration.
type Config struct {
	// QueueSize is the bounded capacity of each per-connection queue.
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size" validate:"gte=0"`
	// HeartbeatInterval is the seconds of inactivity after which a
	// keep-alive frame is sent. Keep it below intermediary idle timeouts
	// (typically 60s).
	HeartbeatInterval int `yaml:"heartbeat_interval" mapstructure:"heartbeat_interval" validate:"gte=0"`
	// MonitorPeriod is the seconds between heartbeat monitor sweeps.
	MonitorPeriod int `yaml:"monitor_period" mapstructure:"monitor_period" validate:"gte=0"`
	// WriteTimeout bounds a single frame write in seconds so a stalled
	// client cannot wedge its session.
	WriteTimeout int `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gte=0"`
}

// ApplyDefaults applies default values to streaming configuration.
func (c *Config) ApplyDefaults() {
	if c.QueueSize == 0 {
		c.QueueSize = 256
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = 25
	}
	if c.MonitorPeriod == 0 {
		c.MonitorPeriod = 5
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10
	}
}

// Validate validates streaming configuration.
func (c *Config) Validate() error {
	if c.HeartbeatInterval < c.MonitorPeriod {
		return fmt.Errorf("stream.heartbeat_interval (%d) must be >= stream.monitor_period (%d)",
			c.HeartbeatInterval, c.MonitorPeriod)
	}
	return nil
}

func (c *Config) heartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatInterval) * time.Second
}

func (c *Config) monitorPeriod() time.Duration {
	return time.Duration(c.MonitorPeriod) * time.Second
}

func (c *Config) writeTimeout() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Second
}
