// File: internal/ostrich/errors.go
package ostrich

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned by data calls made before Authenticate succeeded.
var ErrUnauthenticated = errors.New("ostrich: client is not authenticated")

// APIError is returned for any response whose status is not 200 OK.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ostrich: %s %s returned status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("ostrich: %s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}
