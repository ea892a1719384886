package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrWebhookNotFound = errors.New("webhook_not_found")
)

// ValidationError reports a raw execution (or request field) that violates
// the caller contract. The whole batch fails — no partial result is
// produced — so the error carries enough context to point the user at the
// offending record.
type ValidationError struct {
	ExecutionID string // external execution id, "" when not applicable
	Index       int    // position in the submitted batch
	Message     string
}

func (e *ValidationError) Error() string {
	if e.ExecutionID != "" {
		return fmt.Sprintf("execution %s (index %d): %s", e.ExecutionID, e.Index, e.Message)
	}
	return e.Message
}
