package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, pools and drivers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These describe the state of a resource, not a validation failure:
// - ErrNotFound: no row for the key in the store
// - ErrUnavailable: the store could not be reached or the query failed
// - ErrPoolExhausted: no connection freed up within the acquire timeout
// - ErrClosed: the pool or tracker has been closed
// - ErrMissingTable: the store file exists but holds no table for the query
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnavailable   = errors.New("unavailable")
	ErrPoolExhausted = errors.New("connection pool exhausted")
	ErrClosed        = errors.New("closed")
	ErrMissingTable  = errors.New("missing table")
)
