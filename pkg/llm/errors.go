package llm

import (
	"context"
	"errors"
	"strings"
)

// IsTransient reports whether a provider error is worth retrying on a
// different model or by the caller: overload, rate limiting, timeouts,
// upstream 5xx. Hard failures (bad request, auth, safety blocks) are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"status 429",
		"status 500",
		"status 502",
		"status 503",
		"status 504",
		"overload",
		"rate limit",
		"timeout",
		"deadline exceeded",
		"connection refused",
		"connection reset",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
