// Package errors provides the shared error taxonomy for export and
// generation failures.
//
// Every error carries a short human-readable message. Callers classify
// failures with the Is* helpers instead of matching on message text.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidationError reports malformed input to a builder or a 400-class
// rejection from a remote platform. Validation failures are never retried;
// remote rejections keep the upstream message verbatim in Detail.
type ValidationError struct {
	Message string
	Detail  string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("validation failed: %s: %s", e.Message, e.Detail)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// PermissionError reports a 403-class rejection. The integration is missing
// a capability on the target (for example insert-content on a Notion page),
// so retrying cannot help.
type PermissionError struct {
	Message string
}

// Error implements the error interface.
func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Message)
}

// RateLimitError reports a 429 that survived the retry budget. RetryAfter
// holds the platform's wait hint when one was provided, zero otherwise.
type RateLimitError struct {
	RetryAfter time.Duration
	Detail     string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	msg := "rate limited by upstream"
	if e.RetryAfter > 0 {
		msg = fmt.Sprintf("%s: retry after %s", msg, e.RetryAfter)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

// UpstreamError reports a 5xx or transport failure that survived the retry
// budget. Status is the last observed HTTP status, zero when the failure
// never produced a response.
type UpstreamError struct {
	Status int
	Cause  error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	switch {
	case e.Status > 0 && e.Cause != nil:
		return fmt.Sprintf("upstream unavailable: status %d: %v", e.Status, e.Cause)
	case e.Status > 0:
		return fmt.Sprintf("upstream unavailable: status %d", e.Status)
	case e.Cause != nil:
		return fmt.Sprintf("upstream unavailable: %v", e.Cause)
	default:
		return "upstream unavailable"
	}
}

// Unwrap exposes the underlying transport error.
func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// VersionConflictError reports a 409 on an optimistic-concurrency update.
// The caller must re-fetch the current version and resubmit; blind retries
// risk discarding a concurrent edit, so this is always terminal.
type VersionConflictError struct {
	PageID    string
	Submitted int
}

// Error implements the error interface.
func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict on page %s: submitted version %d is stale, re-fetch and resubmit", e.PageID, e.Submitted)
}

// ProviderFailure records one generation backend's failure inside an
// aggregate error.
type ProviderFailure struct {
	Provider string
	Message  string
}

// ProviderUnavailableError reports that no generation backend is configured,
// or that every configured backend failed. Failures preserves the order in
// which backends were attempted.
type ProviderUnavailableError struct {
	Failures []ProviderFailure
}

// Error implements the error interface.
func (e *ProviderUnavailableError) Error() string {
	if len(e.Failures) == 0 {
		return "no generation backend configured"
	}
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %s", f.Provider, f.Message)
	}
	return "all generation backends failed: " + strings.Join(parts, "; ")
}

// IsValidation checks if an error is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsPermission checks if an error is a PermissionError.
func IsPermission(err error) bool {
	var target *PermissionError
	return errors.As(err, &target)
}

// IsRateLimit checks if an error is a RateLimitError.
func IsRateLimit(err error) bool {
	var target *RateLimitError
	return errors.As(err, &target)
}

// IsUpstream checks if an error is an UpstreamError.
func IsUpstream(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}

// IsVersionConflict checks if an error is a VersionConflictError.
func IsVersionConflict(err error) bool {
	var target *VersionConflictError
	return errors.As(err, &target)
}

// IsProviderUnavailable checks if an error is a ProviderUnavailableError.
func IsProviderUnavailable(err error) bool {
	var target *ProviderUnavailableError
	return errors.As(err, &target)
}

// RetryAfterHint extracts the wait hint from a rate-limit error anywhere in
// err's chain. Returns zero and false when no hint is available.
func RetryAfterHint(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter, true
	}
	return 0, false
}
