package metrics

import (
	"testing"
	"time"

	goerrors "github.com/kbukum/monometrics/errors"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Backend != BackendOTel {
		t.Errorf("backend: got %q", cfg.Backend)
	}
	if cfg.Namespace != DefaultName {
		t.Errorf("namespace: got %q", cfg.Namespace)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("interval: got %v", cfg.Interval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown backend", func(c *Config) { c.Backend = "statsd" }, "backend"},
		{"bad endpoint", func(c *Config) { c.Endpoint = "not an endpoint" }, "otlp_endpoint"},
		{"negative interval", func(c *Config) { c.Interval = -time.Second }, "interval"},
		{"non-positive bucket", func(c *Config) { c.Buckets = []float64{0.1, 0} }, "buckets[1]"},
		{"unsorted buckets", func(c *Config) { c.Buckets = []float64{1, 0.5} }, "buckets"},
		{"repeated bucket", func(c *Config) { c.Buckets = []float64{0.1, 0.1} }, "buckets"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{Enabled: true}
			cfg.ApplyDefaults()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if !goerrors.HasCode(err, goerrors.ErrCodeInvalidConfig) {
				t.Fatalf("expected INVALID_CONFIG, got %v", err)
			}
			appErr, _ := goerrors.AsAppError(err)
			if appErr.Details["field"] != tc.field {
				t.Errorf("field: got %v, want %s", appErr.Details["field"], tc.field)
			}
		})
	}
}

func TestConfig_Active(t *testing.T) {
	tests := []struct {
		cfg  Config
		want bool
	}{
		{Config{Enabled: true, Backend: BackendOTel}, true},
		{Config{Enabled: true, Backend: BackendPrometheus}, true},
		{Config{Enabled: true, Backend: BackendNone}, false},
		{Config{Enabled: false, Backend: BackendOTel}, false},
	}
	for _, tc := range tests {
		if got := tc.cfg.Active(); got != tc.want {
			t.Errorf("%+v: got %v, want %v", tc.cfg, got, tc.want)
		}
	}
}
