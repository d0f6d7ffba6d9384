package directory

import "fmt"

// UpstreamError indicates the Hospital Directory API answered with a non-2xx
// status. Message carries the upstream detail when one was provided.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "remote API call failed"
	}
	return fmt.Sprintf("[%d] %s", e.StatusCode, msg)
}

// TimeoutError indicates an outbound call exceeded the configured timeout.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("upstream call timed out: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// TransportError indicates the upstream API could not be reached at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream connection failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
