package config

import (
	"fmt"

	"github.com/kbukum/monometrics/logger"
	"github.com/kbukum/monometrics/metrics"
	"github.com/kbukum/monometrics/validation"
)

// ServiceConfig is the configuration of a process using instrumented monos.
// Projects embed it in their own config structs.
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Upstream string `yaml:"upstream" mapstructure:"upstream"`
//	}
type ServiceConfig struct {
	Name        string         `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string         `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version     string         `yaml:"version" mapstructure:"version"`
	Logging     logger.Config  `yaml:"logging" mapstructure:"logging"`
	Metrics     metrics.Config `yaml:"metrics" mapstructure:"metrics"`
}

// GetServiceConfig returns c. Embedding structs get it promoted.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults fills unset fields. Embedding structs that override it
// should call c.ServiceConfig.ApplyDefaults() first.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
	if c.Environment == "development" && c.Logging.Level == "info" {
		c.Logging.Level = "debug"
	}
	c.Metrics.ApplyDefaults()
}

// Validate checks the configuration and its sections.
func (c *ServiceConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
