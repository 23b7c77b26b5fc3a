// Package logger provides structured logging backed by zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers. Loggers are resolved by name through a small
// registry so packages can log without threading a logger everywhere.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("metrics")
//	log.Debug("measurement dropped", logger.ErrorFields("db.query", err))
package logger
