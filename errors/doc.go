// Package errors provides the structured error type shared by the mono
// engine, the metrics decorator and its backends. Errors carry a
// machine-readable code, a retryable flag and optional details.
package errors
