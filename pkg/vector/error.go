package vector

import "errors"

var (
	// ErrDimensionMismatch is returned when two vectors have different lengths.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrZeroMagnitude is returned when a cosine is requested for a zero vector.
	ErrZeroMagnitude = errors.New("zero-magnitude vector")

	// ErrInvalidBlob is returned when a stored embedding blob cannot be decoded.
	ErrInvalidBlob = errors.New("invalid embedding blob")
)
