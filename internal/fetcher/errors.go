package fetcher

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fairwaylabs/clubtrack/internal/resilience"
)

// FetchError describes a failed page fetch. StatusCode is zero when the
// failure happened below the HTTP layer (dial, TLS, timeout, read).
type FetchError struct {
	URL        string
	StatusCode int
	Permanent  bool
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: http %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure is worth retrying. Network-level
// failures retry; HTTP failures retry only for 429 and server errors.
func (e *FetchError) Transient() bool {
	if e.Permanent {
		return false
	}
	if e.StatusCode == 0 {
		return true
	}
	return resilience.IsTransientHTTPStatus(e.StatusCode)
}

// IsNotFound reports whether err is a fetch failure for a page that no
// longer exists (404 or 410).
func IsNotFound(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode == http.StatusNotFound || fe.StatusCode == http.StatusGone
	}
	return false
}
