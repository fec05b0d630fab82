// Package logger builds the application's log/slog logger from
// configuration and carries request-scoped loggers through a context.
package logger
