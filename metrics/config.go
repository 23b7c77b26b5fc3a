package metrics

import (
	"time"

	"github.com/kbukum/monometrics/validation"
)

// Backend names accepted in Config.Backend.
const (
	BackendOTel       = "otel"
	BackendPrometheus = "prometheus"
	BackendNone       = "none"
)

// Config selects and configures the process-wide metrics backend.
type Config struct {
	// Enabled turns instrumentation on. When false no registry is installed
	// and Instrument returns stages unchanged.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Backend is one of otel, prometheus or none.
	Backend string `yaml:"backend" mapstructure:"backend" validate:"oneof=otel prometheus none"`
	// Namespace is the Prometheus namespace or the OpenTelemetry meter name.
	Namespace string `yaml:"namespace" mapstructure:"namespace" validate:"required,max=128"`
	// Endpoint is the OTLP HTTP endpoint host:port; empty keeps the global meter provider.
	Endpoint string `yaml:"otlp_endpoint" mapstructure:"otlp_endpoint" validate:"omitempty,hostname_port"`
	// Insecure disables TLS towards Endpoint.
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// Interval is the OTLP export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
	// Traces also records every flow as a span.
	Traces bool `yaml:"traces" mapstructure:"traces"`
	// Buckets are histogram bucket boundaries in seconds, strictly increasing.
	Buckets []float64 `yaml:"buckets" mapstructure:"buckets" validate:"increasing,dive,gt=0"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendOTel
	}
	if c.Namespace == "" {
		c.Namespace = DefaultName
	}
	if c.Interval == 0 {
		c.Interval = 15 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// Active reports whether the configuration installs a recording backend.
func (c *Config) Active() bool {
	return c.Enabled && c.Backend != BackendNone
}
