package flow

import "time"

// Policy configures the validation gate and task scheduling for an engine.
type Policy struct {
	// Retries bounds re-attempts per task beyond the first, for retryable
	// failure kinds. A task makes at most 1+Retries attempts.
	Retries int
	// Backoff is the delay before each retry attempt.
	Backoff time.Duration
	// Parallelism caps concurrently executing tasks across the whole run,
	// bounding external-call concurrency during fan-out.
	Parallelism int
}

// DefaultPolicy returns the stock gate policy: 2 retries with 500ms backoff
// and at most 5 concurrent tasks.
func DefaultPolicy() Policy {
	return Policy{
		Retries:     2,
		Backoff:     500 * time.Millisecond,
		Parallelism: 5,
	}
}

func (p *Policy) normalize() {
	if p.Retries < 0 {
		p.Retries = 0
	}
	if p.Backoff < 0 {
		p.Backoff = 0
	}
	if p.Parallelism <= 0 {
		p.Parallelism = DefaultPolicy().Parallelism
	}
}

// retryable reports whether the gate may re-dispatch a task that failed with
// the given kind on the given attempt.
func (p Policy) retryable(kind Kind, attempt int) bool {
	return kind.Retryable() && attempt <= p.Retries
}
