package logger

import (
	"time"
)

// Standard field key constants for structured logging.
const (
	FieldService     = "service"
	FieldComponent   = "component"
	FieldTraceID     = "trace_id"
	FieldSpanID      = "span_id"
	FieldStage       = "stage"
	FieldKind        = "kind"
	FieldOutcome     = "outcome"
	FieldFusion      = "fusion"
	FieldDecoratorID = "decorator_id"
	FieldBackend     = "backend"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Debug("recorded", logger.Fields("stage", "db.query", "outcome", "success"))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for a stage whose side channel failed.
func ErrorFields(stage string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldStage: stage,
		FieldError: err.Error(),
	}
}

// DurationFields creates fields for a timed stage.
func DurationFields(stage string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldStage:    stage,
		FieldDuration: d.Milliseconds(),
	}
}
