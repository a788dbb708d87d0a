package crowd

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// Subsystem is the tflog subsystem name used by the client.
const Subsystem = "crowd"

// Logger interface for Crowd operations.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]any)
	Info(ctx context.Context, msg string, fields map[string]any)
	Warn(ctx context.Context, msg string, fields map[string]any)
	Error(ctx context.Context, msg string, fields map[string]any)
}

// TFLogger writes to a tflog subsystem. Calls are no-ops when ctx carries no
// Terraform logger.
type TFLogger struct {
	subsystem string
}

// NewTFLogger creates a new logger for the given tflog subsystem.
func NewTFLogger(subsystem string) *TFLogger {
	return &TFLogger{subsystem: subsystem}
}

func (l *TFLogger) Debug(ctx context.Context, msg string, fields map[string]any) {
	tflog.SubsystemDebug(ctx, l.subsystem, msg, fields)
}

func (l *TFLogger) Info(ctx context.Context, msg string, fields map[string]any) {
	tflog.SubsystemInfo(ctx, l.subsystem, msg, fields)
}

func (l *TFLogger) Warn(ctx context.Context, msg string, fields map[string]any) {
	tflog.SubsystemWarn(ctx, l.subsystem, msg, fields)
}

func (l *TFLogger) Error(ctx context.Context, msg string, fields map[string]any) {
	tflog.SubsystemError(ctx, l.subsystem, msg, fields)
}

// HCLogger adapts an hclog.Logger, for use outside of Terraform.
type HCLogger struct {
	logger hclog.Logger
}

// NewHCLogger wraps logger. A nil logger discards output.
func NewHCLogger(logger hclog.Logger) *HCLogger {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &HCLogger{logger: logger}
}

func (l *HCLogger) Debug(_ context.Context, msg string, fields map[string]any) {
	l.logger.Debug(msg, flattenFields(fields)...)
}

func (l *HCLogger) Info(_ context.Context, msg string, fields map[string]any) {
	l.logger.Info(msg, flattenFields(fields)...)
}

func (l *HCLogger) Warn(_ context.Context, msg string, fields map[string]any) {
	l.logger.Warn(msg, flattenFields(fields)...)
}

func (l *HCLogger) Error(_ context.Context, msg string, fields map[string]any) {
	l.logger.Error(msg, flattenFields(fields)...)
}

// flattenFields converts a field map into hclog's alternating key/value form,
// sorted by key so output is stable.
func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	args := make([]any, 0, len(fields)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return args
}

// logOperation logs an operation with timing around fn.
func logOperation(ctx context.Context, logger Logger, operation string, fields map[string]any, fn func() error) error {
	start := time.Now()

	entry := make(map[string]any, len(fields)+1)
	maps.Copy(entry, fields)
	entry["operation"] = operation

	logger.Debug(ctx, "Starting operation", SanitizeFields(entry))

	err := fn()

	entry["duration_ms"] = time.Since(start).Milliseconds()

	if err != nil {
		entry["error"] = err.Error()
		if code := StatusCode(err); code != 0 {
			entry["status_code"] = code
		}
		logger.Error(ctx, "Operation failed", SanitizeFields(entry))
	} else {
		logger.Debug(ctx, "Operation completed successfully", SanitizeFields(entry))
	}

	return err
}

// SanitizeFields removes sensitive information from log fields.
func SanitizeFields(fields map[string]any) map[string]any {
	sanitized := make(map[string]any, len(fields))

	sensitiveKeys := map[string]bool{
		"password":     true,
		"passwd":       true,
		"secret":       true,
		"token":        true,
		"app_password": true,
		"credential":   true,
		"credentials":  true,
	}

	for k, v := range fields {
		if sensitiveKeys[strings.ToLower(k)] {
			sanitized[k] = "[REDACTED]"
			continue
		}
		if str, ok := v.(string); ok && containsSensitivePattern(str) {
			sanitized[k] = "[REDACTED]"
			continue
		}
		sanitized[k] = v
	}

	return sanitized
}

// containsSensitivePattern checks if a string contains patterns that might be sensitive.
func containsSensitivePattern(s string) bool {
	patterns := []string{
		"password=",
		"passwd=",
		"secret=",
		"token=",
	}

	lower := strings.ToLower(s)
	for _, pattern := range patterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}

	return false
}
