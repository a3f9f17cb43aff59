// Package errors provides the structured error type returned across the
// service boundary. An AppError carries a machine-readable code, the HTTP
// status it maps to and whether the caller may retry.
package errors
