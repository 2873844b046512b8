package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSpec            = errors.New("invalid dimension spec")
	ErrUnknownTarget          = errors.New("unknown target")
	ErrIncompatibleDimensions = errors.New("incompatible dimensions")
	ErrInvalidParameters      = errors.New("invalid analysis parameters")
	ErrRemoteAPI              = errors.New("remote api error")
)

// InvalidSpecError reports a raw dimension spec that cannot be built.
type InvalidSpecError struct {
	Index  int
	Reason string
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("%s at index %d: %s", ErrInvalidSpec, e.Index, e.Reason)
}

func (e *InvalidSpecError) Unwrap() error {
	return ErrInvalidSpec
}

// UnknownTargetError reports a target the schema could not resolve.
type UnknownTargetError struct {
	Target string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownTarget, e.Target)
}

func (e *UnknownTargetError) Unwrap() error {
	return ErrUnknownTarget
}

// RemoteAPIError aggregates the failures of a dispatch round.
// Error reports the first message only; Messages keeps all of them in
// request order.
type RemoteAPIError struct {
	Messages []string
}

// NewRemoteAPIError creates an aggregate error from the collected messages.
func NewRemoteAPIError(messages ...string) *RemoteAPIError {
	return &RemoteAPIError{Messages: messages}
}

// Message returns the first collected message.
func (e *RemoteAPIError) Message() string {
	if len(e.Messages) == 0 {
		return ""
	}
	return e.Messages[0]
}

func (e *RemoteAPIError) Error() string {
	return e.Message()
}

func (e *RemoteAPIError) Unwrap() error {
	return ErrRemoteAPI
}
