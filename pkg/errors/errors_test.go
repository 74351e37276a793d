package errors

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMediaValidationError_Message(t *testing.T) {
	err := &MediaValidationError{Index: 3, Reason: "invalid reference"}
	if got := err.Error(); got != "media validation error at index 3: invalid reference" {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestMediaValidationError_Unwrap(t *testing.T) {
	inner := errors.New("no such file")
	err := &MediaValidationError{Index: 0, Reason: "unreadable local file", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("expected wrapped error to be reachable via errors.Is")
	}
	if !strings.Contains(err.Error(), "no such file") {
		t.Errorf("wrapped error missing from message: %q", err.Error())
	}
}

func TestStagingError_Message(t *testing.T) {
	err := &StagingError{Provider: "github", StatusCode: 422, Body: `{"message":"Invalid request"}`}
	got := err.Error()
	for _, want := range []string{"github", "422", "Invalid request"} {
		if !strings.Contains(got, want) {
			t.Errorf("message %q missing %q", got, want)
		}
	}
}

func TestContainerError_Message(t *testing.T) {
	err := &ContainerError{Phase: "publish", ContainerID: "c42", Detail: "media expired"}
	got := err.Error()
	for _, want := range []string{"publish", "c42", "media expired"} {
		if !strings.Contains(got, want) {
			t.Errorf("message %q missing %q", got, want)
		}
	}
}

func TestPollTimeoutError_Message(t *testing.T) {
	err := &PollTimeoutError{ContainerID: "c1", Waited: 5 * time.Minute}
	if !strings.Contains(err.Error(), "c1") || !strings.Contains(err.Error(), "5m") {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestQuotaError_Message(t *testing.T) {
	err := &QuotaError{ForReply: true, Used: 1000, Total: 1000, ResetIn: time.Hour}
	got := err.Error()
	if !strings.Contains(got, "reply") {
		t.Errorf("reply scope missing from %q", got)
	}
	if !strings.Contains(got, "1000/1000") {
		t.Errorf("quota snapshot missing from %q", got)
	}

	err = &QuotaError{ForReply: false, Used: 250, Total: 250}
	if !strings.Contains(err.Error(), "post") {
		t.Errorf("post scope missing from %q", err.Error())
	}
}

func TestAPIError_Message(t *testing.T) {
	err := &APIError{StatusCode: 400, Code: 100, Message: "Invalid parameter"}
	if got := err.Error(); got != "threads API error (status 400, code 100): Invalid parameter" {
		t.Errorf("unexpected message: %q", got)
	}

	err = &APIError{StatusCode: 502, Message: "bad gateway"}
	if got := err.Error(); got != "threads API error (status 502): bad gateway" {
		t.Errorf("unexpected message: %q", got)
	}
}
