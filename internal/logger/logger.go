package logger

import (
	"io"

	"bloom-portal/internal/config"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with portal-specific context helpers
type Logger struct {
	*logrus.Logger
}

// NewLogger creates a new structured logger instance
func NewLogger(cfg *config.Config) *Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logging.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return &Logger{Logger: log}
}

// NewNopLogger returns a logger that discards output. Used by tests and tools.
func NewNopLogger() *Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Logger{Logger: log}
}

// WithTenant adds tenant context to log entries
func (l *Logger) WithTenant(tenantID string) *logrus.Entry {
	return l.WithField("tenant_id", tenantID)
}

// WithService adds service context to log entries
func (l *Logger) WithService(serviceID string) *logrus.Entry {
	return l.WithField("service_id", serviceID)
}

// WithDomain adds domain context to log entries
func (l *Logger) WithDomain(domainID string) *logrus.Entry {
	return l.WithField("domain_id", domainID)
}

// WithRequest adds request context to log entries
func (l *Logger) WithRequest(requestID string) *logrus.Entry {
	return l.WithField("request_id", requestID)
}
