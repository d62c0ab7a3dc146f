package discovery

import "errors"

// Common errors returned by source probes.
var (
	// ErrNetwork indicates a connectivity failure reaching a source.
	ErrNetwork = errors.New("network error reaching discovery source")

	// ErrBadStatus indicates a non-success HTTP status from a source.
	ErrBadStatus = errors.New("discovery source returned an error status")

	// ErrInvalidResponse indicates an unparseable source response.
	ErrInvalidResponse = errors.New("invalid response from discovery source")
)
