package main

import (
	"fmt"

	"github.com/skillsenselab/streamhub/auth"
	"github.com/skillsenselab/streamhub/config"
	"github.com/skillsenselab/streamhub/observability"
	"github.com/skillsenselab/streamhub/relay"
	"github.com/skillsenselab/streamhub/server"
	"github.com/skillsenselab/streamhub/stream"
)

// AppConfig is the full streamhub service configuration.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Stream        stream.Config        `yaml:"stream" mapstructure:"stream"`
	Relay         relay.Config         `yaml:"relay" mapstructure:"relay"`
	Auth          auth.Config          `yaml:"auth" mapstructure:"auth"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults applies default values to all configuration sections.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "streamhub"
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Stream.ApplyDefaults()
	c.Relay.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate validates all configuration sections.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Stream.Validate(); err != nil {
		return err
	}
	if c.Relay.Enabled {
		if err := c.Relay.Validate(); err != nil {
			return err
		}
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}
