package catalog

import "errors"

var (
	// ErrStoreUnavailable is returned when the catalog file cannot be opened.
	ErrStoreUnavailable = errors.New("catalog store unavailable")

	// ErrUnknownOperation is returned for an operation name missing from the registry.
	ErrUnknownOperation = errors.New("unknown catalog operation")

	// ErrQueryFailed wraps any error raised while executing an operation.
	ErrQueryFailed = errors.New("catalog query failed")
)
