// Package errors defines the error types returned by the Threads publishing
// pipeline. Callers discriminate with errors.As; every type that wraps an
// underlying error implements Unwrap.
package errors

import (
	"fmt"
	"time"
)

// ValidationError indicates the request contained nothing publishable.
// It is returned before any network call is made.
type ValidationError struct {
	// Message contains the detailed error message
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Message
}

// MediaValidationError indicates a single media reference could not be
// classified as a publishable image or video. It is fatal to the whole run.
type MediaValidationError struct {
	// Index is the position of the offending reference in the request's media list
	Index int
	// Reason describes why classification failed
	Reason string
	// Err contains the underlying error if available
	Err error
}

func (e *MediaValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("media validation error at index %d: %s: %v", e.Index, e.Reason, e.Err)
	}
	return fmt.Sprintf("media validation error at index %d: %s", e.Index, e.Reason)
}

func (e *MediaValidationError) Unwrap() error {
	return e.Err
}

// StagingError indicates the temporary storage provider rejected an upload
// or timed out. It is fatal to the whole run and triggers compensation.
type StagingError struct {
	// Provider names the staging store ("github", "s3", "gcs")
	Provider string
	// StatusCode is the HTTP status code, if the provider spoke HTTP
	StatusCode int
	// Body contains the provider's raw error body, if available
	Body string
	// Err contains the underlying error if available
	Err error
}

func (e *StagingError) Error() string {
	msg := "staging error from " + e.Provider
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *StagingError) Unwrap() error {
	return e.Err
}

// ContainerError indicates the platform rejected a container creation or
// publish request, or reported a container as failed while it was polled.
type ContainerError struct {
	// Phase is "create", "status" or "publish"
	Phase string
	// ContainerID is the platform container id, if one was assigned
	ContainerID string
	// Detail is the platform's error detail
	Detail string
	// Err contains the underlying error if available
	Err error
}

func (e *ContainerError) Error() string {
	msg := "container " + e.Phase + " error"
	if e.ContainerID != "" {
		msg += " for " + e.ContainerID
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *ContainerError) Unwrap() error {
	return e.Err
}

// PollTimeoutError indicates a container did not reach a terminal state
// within the configured wait budget.
type PollTimeoutError struct {
	// ContainerID is the container that was being polled
	ContainerID string
	// Waited is how long the poller waited before giving up
	Waited time.Duration
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("poll timeout: container %s not ready after %s", e.ContainerID, e.Waited)
}

// QuotaError indicates the publishing quota was exhausted and wait-on-limit
// was disabled, or the single post-wait re-check still found no allowance.
// Already-published links of the chain are left standing when this is returned.
type QuotaError struct {
	// ForReply is true when the reply quota was exhausted, false for the post quota
	ForReply bool
	// Used and Total describe the quota snapshot at denial time
	Used  int
	Total int
	// ResetIn is the reported duration until the quota window resets
	ResetIn time.Duration
}

func (e *QuotaError) Error() string {
	scope := "post"
	if e.ForReply {
		scope = "reply"
	}
	return fmt.Sprintf("quota exceeded: %s quota %d/%d used, resets in %s", scope, e.Used, e.Total, e.ResetIn)
}

// APIError represents an error response from the Threads graph API.
type APIError struct {
	// StatusCode is the HTTP status code
	StatusCode int
	// Code is the platform error code, if available
	Code int
	// Message is the error message from the platform
	Message string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("threads API error (status %d, code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("threads API error (status %d): %s", e.StatusCode, e.Message)
}
