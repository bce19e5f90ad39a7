package marketdata

import "fmt"

// FetchError indicates that the upstream call failed after exhausting all
// retries and no cached value, fresh or stale, exists for the key.
type FetchError struct {
	Key      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed for %q after %d attempts: %v", e.Key, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
