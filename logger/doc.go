// Package logger provides structured logging backed by zerolog.
//
// Loggers are created from a Config (level, format, output) and carry a
// service tag. Component-scoped loggers are derived with WithComponent, and
// request-scoped loggers with WithContext, which picks up the request id
// stored by the request-id middleware.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("pingproxy")
//	log.Info("instance selected", logger.Fields("service", name, "url", base))
package logger
