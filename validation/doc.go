// Package validation validates configuration structs using struct tags.
//
// Field names in errors are the mapstructure keys used in config files, so
// a failure points at the line the operator has to fix:
//
//	type Config struct {
//	    Backend string `mapstructure:"backend" validate:"oneof=otel prometheus none"`
//	}
//	err := validation.Validate(cfg) // INVALID_CONFIG: backend: must be one of [otel prometheus none]
package validation
