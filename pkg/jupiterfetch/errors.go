package jupiterfetch

import "fmt"

// HTTPError is returned for responses outside the 2xx range.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("jupiterfetch: unexpected status %d for %s", e.StatusCode, e.URL)
}

// NetworkError wraps transport and I/O failures.
type NetworkError struct {
	URL   string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("jupiterfetch: network error for %s: %v", e.URL, e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// UnknownError wraps every other failure, including recovered panics.
type UnknownError struct {
	URL   string
	Cause error
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("jupiterfetch: unexpected error for %s: %v", e.URL, e.Cause)
}

func (e *UnknownError) Unwrap() error { return e.Cause }
