package adapter

import "errors"

var (
	// ErrUnauthorized maps 401 responses; the current sync cycle aborts
	// and the realtime subscription is torn down until re-auth.
	ErrUnauthorized = errors.New("client unauthorized")

	// ErrVersionConflict maps 409 responses from the version-check
	// precondition. It is an expected value resolved on the next pull,
	// not a failure.
	ErrVersionConflict = errors.New("version conflict")

	// ErrNetwork marks transport-level failures: the request never
	// produced a server response. Retryable with backoff; local state is
	// untouched.
	ErrNetwork = errors.New("network unreachable")
)
