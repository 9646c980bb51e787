// Package logger provides the security audit log: authentication
// failures, throttled clients, and rejected origins, emitted as
// structured JSON so they can be alerted on separately from the
// application log.
package logger

import (
	"log/slog"
	"os"
	"time"
)

// SecurityLogger records security-relevant events. Credentials and
// signing secrets never reach the log: callers pass reasons, not
// tokens, and SecurityEvent filters sensitive keys.
type SecurityLogger struct {
	logger *slog.Logger
}

// NewSecurityLogger creates a SecurityLogger with JSON output on stdout.
func NewSecurityLogger() *SecurityLogger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &SecurityLogger{logger: slog.New(handler)}
}

// NewSecurityLoggerWithHandler creates a SecurityLogger on an existing
// handler, so security events land in the same sink as the application
// log.
func NewSecurityLoggerWithHandler(handler slog.Handler) *SecurityLogger {
	return &SecurityLogger{logger: slog.New(handler)}
}

// AuthFailure logs a failed API key authentication. The key itself is
// never logged.
func (s *SecurityLogger) AuthFailure(ip, path, reason string) {
	s.logger.Warn("authentication_failure",
		slog.String("event_type", "auth_failure"),
		slog.String("ip", ip),
		slog.String("path", path),
		slog.String("reason", reason),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// RateLimitExceeded logs a throttled client.
func (s *SecurityLogger) RateLimitExceeded(ip, path string) {
	s.logger.Warn("rate_limit_exceeded",
		slog.String("event_type", "rate_limit"),
		slog.String("ip", ip),
		slog.String("path", path),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// InvalidOrigin logs a websocket connection rejected by the origin
// whitelist.
func (s *SecurityLogger) InvalidOrigin(ip, origin string) {
	s.logger.Warn("invalid_origin",
		slog.String("event_type", "invalid_origin"),
		slog.String("ip", ip),
		slog.String("origin", origin),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// CallbackAnomaly logs a malformed or unexpected payload on the
// provider callback endpoint. The endpoint acknowledges everything, so
// this log line is the only trace.
func (s *SecurityLogger) CallbackAnomaly(ip, detail string) {
	s.logger.Warn("callback_anomaly",
		slog.String("event_type", "callback_anomaly"),
		slog.String("ip", ip),
		slog.String("detail", detail),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// SecurityEvent logs a generic security event. Keys that may carry
// credentials are dropped.
func (s *SecurityLogger) SecurityEvent(eventType, ip string, details map[string]string) {
	attrs := []any{
		slog.String("event_type", eventType),
		slog.String("ip", ip),
		slog.Time("timestamp", time.Now().UTC()),
	}
	for k, v := range details {
		if isSensitiveKey(k) {
			continue
		}
		attrs = append(attrs, slog.String(k, v))
	}

	s.logger.Warn("security_event", attrs...)
}

// isSensitiveKey reports whether a detail key might carry a credential.
func isSensitiveKey(key string) bool {
	sensitiveKeys := map[string]bool{
		"password":       true,
		"api_key":        true,
		"apikey":         true,
		"token":          true,
		"secret":         true,
		"webhook_secret": true,
		"signature":      true,
		"authorization":  true,
		"auth":           true,
		"credential":     true,
		"credentials":    true,
		"session":        true,
		"cookie":         true,
	}
	return sensitiveKeys[key]
}
