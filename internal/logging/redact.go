package logging

import (
	"regexp"
	"strings"
)

// Field names whose values are never logged.
var sensitiveFields = []string{
	"password",
	"pass",
	"secret",
	"token",
	"authorization",
	"credential",
	"cookie",
	"session",
}

var secretPatterns = []*regexp.Regexp{
	// Slack bot, user and app tokens
	regexp.MustCompile(`xox[abposr]-[a-zA-Z0-9-]{10,}`),
	regexp.MustCompile(`xapp-[a-zA-Z0-9-]{10,}`),
	// Google OAuth access and refresh tokens
	regexp.MustCompile(`ya29\.[a-zA-Z0-9._-]{20,}`),
	regexp.MustCompile(`1//[a-zA-Z0-9._-]{20,}`),
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`),
	regexp.MustCompile(`(?i)(password|passwd|token|secret)=[^\s&]+`),
}

// RedactedValue is the replacement for sensitive values.
const RedactedValue = "[REDACTED]"

// Redact replaces secrets embedded in s. Transport and notifier errors pass
// through here before they are logged or sent to chat.
func Redact(s string) string {
	result := s
	for _, pattern := range secretPatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}
	return result
}

// RedactMap returns a copy of m with sensitive keys masked. Used when dumping
// the effective configuration.
func RedactMap(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		switch {
		case IsSensitiveField(k):
			if str, ok := v.(string); ok && str == "" {
				result[k] = ""
			} else {
				result[k] = RedactedValue
			}
		default:
			if nested, ok := v.(map[string]any); ok {
				result[k] = RedactMap(nested)
			} else if str, ok := v.(string); ok {
				result[k] = Redact(str)
			} else {
				result[k] = v
			}
		}
	}
	return result
}

// IsSensitiveField checks if a field name is considered sensitive.
// Path-like keys (session_storage_path, token_path) are not secrets.
func IsSensitiveField(name string) bool {
	lowerName := strings.ToLower(name)
	if strings.HasSuffix(lowerName, "_path") || strings.HasSuffix(lowerName, "_field") {
		return false
	}
	for _, field := range sensitiveFields {
		if strings.Contains(lowerName, field) {
			return true
		}
	}
	return false
}
