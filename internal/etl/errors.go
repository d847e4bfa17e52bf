package etl

import "errors"

var (
	// ErrMissingInput means one or both raw sources are absent or empty.
	// The run aborts before any write.
	ErrMissingInput = errors.New("raw input data not found")

	// ErrMalformedRecord means a raw row failed type coercion (bad date
	// or number). The run aborts before any write; rows are never
	// silently dropped.
	ErrMalformedRecord = errors.New("malformed raw record")
)
