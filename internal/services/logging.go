package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ServiceLogger tags every line with the service and component it came from
type ServiceLogger struct {
	logger *slog.Logger
}

type LogConfig struct {
	Service   string
	Component string
}

func NewServiceLogger(logger *slog.Logger, config LogConfig) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", config.Service, "component", config.Component),
	}
}

// Logger exposes the component-scoped slog.Logger
func (l *ServiceLogger) Logger() *slog.Logger {
	return l.logger
}

// ===== OPERATION LOGGING =====

// outcome classifies err into a log level and status label. Caller mistakes log at warn,
// missing resources at info.
func outcome(err error) (slog.Level, string) {
	switch {
	case err == nil:
		return slog.LevelInfo, "success"
	case IsValidation(err):
		return slog.LevelWarn, "invalid"
	case IsBusinessRule(err):
		return slog.LevelWarn, "rejected"
	case IsUnauthorized(err):
		return slog.LevelWarn, "unauthorized"
	case IsNotFound(err):
		return slog.LevelInfo, "not_found"
	default:
		return slog.LevelError, "error"
	}
}

func (l *ServiceLogger) logOperation(ctx context.Context, operation, learnerID string, resourceID uint, resourceType string, duration time.Duration, err error) {
	level, status := outcome(err)

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}
	if learnerID != "" {
		attrs = append(attrs, slog.String("learner_id", learnerID))
	}
	if resourceID != 0 {
		attrs = append(attrs, slog.Uint64(resourceType+"_id", uint64(resourceID)))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	l.logger.LogAttrs(ctx, level, fmt.Sprintf("%s %s", operation, status), attrs...)
}

func (l *ServiceLogger) LogValidationError(ctx context.Context, operation string, learnerID string, validationErrors ValidationErrors) {
	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("learner_id", learnerID),
		slog.Int("error_count", len(validationErrors)),
	}

	// first five fields only
	for i, err := range validationErrors {
		if i == 5 {
			break
		}
		attrs = append(attrs, slog.Group(err.Field,
			slog.String("message", err.Message),
			slog.Any("value", err.Value),
		))
	}

	l.logger.LogAttrs(ctx, slog.LevelWarn, "Validation failed", attrs...)
}

func (l *ServiceLogger) LogBusinessRuleViolation(ctx context.Context, operation string, learnerID string, rule *BusinessRuleError) {
	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("learner_id", learnerID),
		slog.String("rule", rule.Rule),
		slog.String("message", rule.Message),
	}
	for key, value := range rule.Context {
		attrs = append(attrs, slog.Any(key, value))
	}

	l.logger.LogAttrs(ctx, slog.LevelWarn, "Business rule violation", attrs...)
}

// ===== AUDIT LOGGING =====

type AuditEventType string

const (
	AuditEventCreate AuditEventType = "create"
	AuditEventImport AuditEventType = "import"
	AuditEventExport AuditEventType = "export"
)

// ===== OPERATION SCOPE =====

// OperationLogger times one service call and logs its result once
type OperationLogger struct {
	logger    *ServiceLogger
	ctx       context.Context
	operation string
	learnerID string
	startTime time.Time
}

func (l *ServiceLogger) WithOperation(ctx context.Context, operation string, learnerID string) *OperationLogger {
	return &OperationLogger{
		logger:    l,
		ctx:       ctx,
		operation: operation,
		learnerID: learnerID,
		startTime: time.Now(),
	}
}

// LogResult logs the outcome and, for rejected input, the offending fields or rule
func (op *OperationLogger) LogResult(resourceID uint, resourceType string, err error) {
	op.logger.logOperation(op.ctx, op.operation, op.learnerID, resourceID, resourceType, time.Since(op.startTime), err)

	var validationErrors ValidationErrors
	var businessErr *BusinessRuleError
	switch {
	case err == nil:
	case errors.As(err, &validationErrors):
		op.logger.LogValidationError(op.ctx, op.operation, op.learnerID, validationErrors)
	case errors.As(err, &businessErr):
		op.logger.LogBusinessRuleViolation(op.ctx, op.operation, op.learnerID, businessErr)
	}
}

// LogAudit records a state change attributed to the operation's learner
func (op *OperationLogger) LogAudit(eventType AuditEventType, resourceID uint, resourceType string, values map[string]interface{}) {
	attrs := []slog.Attr{
		slog.String("audit", string(eventType)),
		slog.String("operation", op.operation),
		slog.String("resource_type", resourceType),
		slog.Uint64("resource_id", uint64(resourceID)),
	}
	if op.learnerID != "" {
		attrs = append(attrs, slog.String("learner_id", op.learnerID))
	}
	for key, value := range SanitizeForLogging(values) {
		attrs = append(attrs, slog.Any(key, value))
	}

	op.logger.logger.LogAttrs(op.ctx, slog.LevelInfo, fmt.Sprintf("Audit: %s %s", eventType, resourceType), attrs...)
}

// ===== SANITIZING =====

var sensitiveKeys = []string{"password", "token", "secret", "answer"}

// SanitizeForLogging redacts values whose key looks sensitive. Learner answers count as
// sensitive; audit lines carry correctness, not content.
func SanitizeForLogging(values map[string]interface{}) map[string]interface{} {
	if values == nil {
		return nil
	}
	result := make(map[string]interface{}, len(values))
	for k, v := range values {
		result[k] = v
		lower := strings.ToLower(k)
		for _, sensitive := range sensitiveKeys {
			if strings.Contains(lower, sensitive) {
				result[k] = "[REDACTED]"
				break
			}
		}
	}
	return result
}
