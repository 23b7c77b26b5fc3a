// Package config loads service configuration from a YAML file, an optional
// .env file and the environment, in that order of increasing precedence.
//
//	var cfg config.ServiceConfig
//	if err := config.LoadConfig("users-api", &cfg); err != nil {
//	    return err
//	}
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// Every key of the target struct can be overridden by an environment
// variable named after its path, upper-cased with dots replaced by
// underscores, e.g. METRICS_BACKEND or METRICS_OTLP_ENDPOINT. WithEnvPrefix
// adds a prefix such as USERS_API_METRICS_BACKEND.
package config
