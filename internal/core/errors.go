package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors.
const (
	ErrCodeEmptyInput    = "empty_input"
	ErrCodeSendInFlight  = "send_in_flight"
	ErrCodeRemoteFailure = "remote_failure"
	ErrCodeBadRequest    = "bad_request"
	ErrCodeRateLimited   = "rate_limited"
)

// ErrSkipped is matched by every guard rejection of Submit. A skip is not a failure:
// nothing was appended and the in-flight flag was left alone.
var ErrSkipped = errors.New("submit skipped")

var (
	ErrEmptyInput   = &CoreError{Code: ErrCodeEmptyInput, Message: "input is empty"}
	ErrSendInFlight = &CoreError{Code: ErrCodeSendInFlight, Message: "a message is already being sent"}
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// Is makes guard rejections match ErrSkipped.
func (e *CoreError) Is(target error) bool {
	if target != ErrSkipped {
		return false
	}
	return e.Code == ErrCodeEmptyInput || e.Code == ErrCodeSendInFlight
}

// RemoteError describes a failed exchange with the assistant. It is logged and
// replaced by a fixed message in the conversation.
type RemoteError struct {
	Code string
	Err  error
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func remoteError(err error) *RemoteError {
	return &RemoteError{Code: ErrCodeRemoteFailure, Err: err}
}
