package relay

import "fmt"

// Config holds relay configuration.
type Config struct {
	// Enabled turns on cross-instance fan-out. Single-instance
	// deployments leave it off.
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db" validate:"gte=0"`
	// Channel is the Redis pub/sub channel shared by all instances.
	Channel string `yaml:"channel" mapstructure:"channel"`
}

// ApplyDefaults applies default values to relay configuration.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.Channel == "" {
		c.Channel = "streamhub:events"
	}
}

// Validate validates relay configuration.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("relay.addr is required")
	}
	if c.Channel == "" {
		return fmt.Errorf("relay.channel is required")
	}
	return nil
}
