package source

import "fmt"

// AuthError indicates a missing or invalid credential. The client instance
// is unusable, but independent clients keep running.
type AuthError struct {
	Client string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: missing or invalid credential", e.Client)
}

// TransientError wraps a network, timeout or quota failure. It is never
// retried in a tight loop; the next scheduled cycle is the retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }
