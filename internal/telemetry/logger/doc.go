// Package logger configures structured logging for respkv.
//
// It builds log/slog loggers with a JSON (default) or text handler. The
// minimum level is shared by every logger created here and can be changed
// at runtime with SetLevel, which is how a config reload adjusts verbosity
// without a restart.
package logger
