package flow

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a stage failure for the validation gate's retry policy.
type Kind string

// Failure kinds. Transient and Timeout failures are retried up to the
// configured bound; Permanent failures escalate immediately. InvalidData
// marks a postcondition failure on an otherwise successful call and follows
// the retry policy, since flaky upstream data often clears on a re-fetch.
const (
	KindTransient   Kind = "transient"
	KindPermanent   Kind = "permanent"
	KindInvalidData Kind = "invalid_data"
	KindTimeout     Kind = "timeout"
	// KindCancelled marks a run terminated by caller cancellation rather
	// than a stage failure.
	KindCancelled Kind = "cancelled"
)

// Retryable reports whether the gate may retry a failure of this kind.
func (k Kind) Retryable() bool {
	return k == KindTransient || k == KindTimeout || k == KindInvalidData
}

// Sentinel errors for engine construction and execution.
var (
	ErrNotCompiled = errors.New("graph not compiled")
	ErrStalled     = errors.New("no eligible stage and run incomplete")
	ErrCancelled   = errors.New("run cancelled")
)

// StageError is a classified failure tagged with the stage (and fan-out key)
// that produced it.
type StageError struct {
	Stage string `json:"stage"`
	Key   string `json:"key,omitempty"`
	Kind  Kind   `json:"kind"`
	Err   error  `json:"-"`
}

func (e *StageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s[%s] %s: %v", e.Stage, e.Key, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Message returns the underlying error text for persistence.
func (e *StageError) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// Fail wraps err with a failure classification. Stages and tool adapters use
// it to tell the gate how to treat the failure.
func Fail(kind Kind, err error) error {
	return &StageError{Kind: kind, Err: err}
}

// Failf wraps a formatted error with a failure classification.
func Failf(kind Kind, format string, args ...any) error {
	return &StageError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Classify resolves the failure kind of err. A wrapped StageError keeps its
// kind, context deadline errors map to Timeout, and anything unclassified is
// treated as Permanent so unknown failures never loop.
func Classify(err error) Kind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindPermanent
}
