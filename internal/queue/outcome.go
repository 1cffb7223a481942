package queue

import "time"

// OutcomeStatus classifies how a job invocation ended.
type OutcomeStatus int

const (
	// StatusDone means the job succeeded; the message is acknowledged.
	StatusDone OutcomeStatus = iota

	// StatusRetry means the job failed transiently; it is re-published to
	// the wait queue with the suggested delay and the original message is
	// acknowledged.
	StatusRetry

	// StatusFail means the job failed permanently; the failure is logged
	// and the message is acknowledged. There is no human-facing
	// escalation; the next scheduled cycle covers the work.
	StatusFail
)

// Outcome is the explicit result of a job invocation. Handlers return it
// instead of driving retries through panics or sentinel errors.
type Outcome struct {
	Status OutcomeStatus
	Delay  time.Duration // suggested retry delay, StatusRetry only
	Err    error         // cause, StatusRetry and StatusFail
	Result interface{}   // job report, StatusDone only
}

// Done returns a success outcome carrying the job's report.
func Done(result interface{}) Outcome {
	return Outcome{Status: StatusDone, Result: result}
}

// RetryIn returns a retryable-failure outcome with a suggested delay.
func RetryIn(delay time.Duration, err error) Outcome {
	return Outcome{Status: StatusRetry, Delay: delay, Err: err}
}

// Fail returns a permanent-failure outcome.
func Fail(err error) Outcome {
	return Outcome{Status: StatusFail, Err: err}
}

// Backoff computes an exponential retry delay: base doubled per completed
// attempt (attempt is 1-based, so attempt 1 yields base, attempt 2 yields
// 2*base, and so on).
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<(attempt-1))
}
