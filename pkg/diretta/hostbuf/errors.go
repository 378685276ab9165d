package hostbuf

import "errors"

var (
	// ErrInvalidSize reports a non-positive block size.
	ErrInvalidSize = errors.New("hostbuf: invalid size")
	// ErrCapacityExceeded reports a block size beyond a fixed capacity.
	ErrCapacityExceeded = errors.New("hostbuf: capacity exceeded")
	// ErrAllocationFailed reports a size beyond the allocation ceiling.
	ErrAllocationFailed = errors.New("hostbuf: allocation failed")
	// ErrUnconfigured reports use of a Manager that was not built by New.
	ErrUnconfigured = errors.New("hostbuf: manager unconfigured")
)
