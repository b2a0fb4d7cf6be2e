// Package logger provides structured logging on top of zerolog.
//
// Loggers are created once from configuration and passed down through
// constructors; packages tag their output with WithComponent.
//
//	logging:
//	  level: "info"
//	  format: "json"
//
//	log := logger.New(&cfg.Logging, cfg.Name).WithComponent("repository")
//	log.Warn("create skipped", logger.Fields("resource", "user"))
package logger
