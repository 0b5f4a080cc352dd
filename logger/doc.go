// Package logger provides structured logging for drivekit using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields.
//
// # Usage
//
//	log := logger.NewDefault("uploads")
//	log.WithComponent("drive").Info("disk ready", logger.Fields("service", "s3"))
package logger
