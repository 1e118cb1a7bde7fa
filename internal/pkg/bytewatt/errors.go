package bytewatt

import "errors"

var (
	// ErrAuthentication means login failed outright: transport error,
	// non-2xx status, malformed body or a missing token field.
	ErrAuthentication = errors.New("bytewatt: authentication failed")

	// ErrTransient is the vendor-signalled transient upstream fault
	// (application code 9007).
	ErrTransient = errors.New("bytewatt: transient upstream error")

	// ErrUnexpectedFormat means the response body did not carry a
	// non-empty data object. Treated as retryable, a single malformed
	// response may be server noise.
	ErrUnexpectedFormat = errors.New("bytewatt: unexpected response format")

	// ErrUpdateFailed wraps the last cause once the retry budget for one
	// refresh is exhausted.
	ErrUpdateFailed = errors.New("bytewatt: update failed")
)

// errTokenExpired is the explicit retry signal for a 401: the token was
// already refreshed in-band, the caller's loop just needs to re-issue the
// request. Never surfaced outside GetBatteryData.
var errTokenExpired = errors.New("bytewatt: access token expired")
