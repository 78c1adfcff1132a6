package services

import (
	"fmt"

	"go.uber.org/zap"
)

// ZapLogger implements domain.Logger on top of zap
type ZapLogger struct {
	log *zap.Logger
}

// NewZapLogger wraps an existing zap logger
func NewZapLogger(log *zap.Logger) *ZapLogger {
	return &ZapLogger{log: log}
}

// NewProductionLogger builds a zap logger for the given environment
func NewProductionLogger(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Error logs an error message
func (l *ZapLogger) Error(msg string, err error) {
	l.log.Error(msg, zap.Error(err))
}

// Info logs an info message; args are key/value pairs
func (l *ZapLogger) Info(msg string, args ...interface{}) {
	l.log.Info(msg, fields(args)...)
}

// Debug logs a debug message; args are key/value pairs
func (l *ZapLogger) Debug(msg string, args ...interface{}) {
	l.log.Debug(msg, fields(args)...)
}

func fields(args []interface{}) []zap.Field {
	out := make([]zap.Field, 0, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 >= len(args) {
			out = append(out, zap.Any("extra", args[i]))
			break
		}
		out = append(out, zap.Any(key, args[i+1]))
	}
	return out
}
