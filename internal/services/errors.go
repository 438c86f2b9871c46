package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	ErrParse          = errors.New("parse error")
	ErrPathNotFound   = errors.New("path not found")
	ErrPermission     = errors.New("permission denied")
	ErrAuth           = errors.New("authentication error")
	ErrRateLimited    = errors.New("rate limited")
	ErrTransient      = errors.New("transient failure")
	ErrTimeout        = errors.New("timeout")
	ErrNoMatch        = errors.New("no acceptable match")
	ErrQueueCancelled = errors.New("queue cancelled")
	ErrConfiguration  = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// IsAuth reports whether err represents an authentication failure. Providers
// self-disable on these; they are never retried.
func IsAuth(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuth) {
		return true
	}
	message := strings.ToLower(err.Error())
	for _, token := range []string{"401", "403", "unauthorized", "forbidden", "invalid api key", "invalid key", "invalid client"} {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}

// IsRateLimited reports whether err represents an upstream rate limit.
// These propagate immediately so the caller can fail over to the next
// provider rather than stall.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "429") || strings.Contains(message, "rate limit") || strings.Contains(message, "too many requests")
}

// IsRetriable reports whether err represents a transient condition that
// warrants an automatic retry. Authentication and rate-limit failures are
// explicitly excluded.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if IsAuth(err) || IsRateLimited(err) {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, ErrTimeout) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	message := strings.ToLower(err.Error())
	// Server errors are typically transient (outages, deploys, overload).
	for _, code := range []string{"502", "503", "504"} {
		if strings.Contains(message, code) {
			return true
		}
	}
	transientTokens := []string{
		"timeout",
		"deadline exceeded",
		"client.timeout exceeded",
		"connection reset",
		"connection refused",
		"temporary failure",
		"awaiting headers",
	}
	for _, token := range transientTokens {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}
