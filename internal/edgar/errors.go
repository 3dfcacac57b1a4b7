package edgar

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is matched by fetch errors for documents the archive reports missing
var ErrNotFound = errors.New("edgar document not found")

// FetchError describes a failed request after the retry policy has run
type FetchError struct {
	URL        string
	StatusCode int // 0 when the request never produced a response
	Attempts   int
	Transient  bool
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d after %d attempt(s)", e.URL, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("fetch %s: %v after %d attempt(s)", e.URL, e.Err, e.Attempts)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) match a 404 response
func (e *FetchError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// isRetryableStatus reports whether a response status is worth another attempt
func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
