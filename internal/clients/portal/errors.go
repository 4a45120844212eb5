package portal

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrBadCredentials means the portal rejected the login pair. Terminal: the
// same credentials are never retried.
var ErrBadCredentials = errors.New("portal rejected credentials")

// ErrAntiBotBlocked means the portal's anti-automation defense triggered
// (HTTP 403 or a challenge page). Retried with a long backoff up to the
// attempt cap, then terminal.
var ErrAntiBotBlocked = errors.New("blocked by portal anti-bot defense")

// ErrNotAuthenticated is returned when harvesting is attempted without a
// session.
var ErrNotAuthenticated = errors.New("not authenticated")

// RequestError wraps a transport-level failure (connect error, unexpected
// status) so callers can tell infrastructure trouble apart from credential
// trouble.
type RequestError struct {
	URL    string
	Status int
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("request to %s failed with status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }
