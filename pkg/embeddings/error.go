package embeddings

import "errors"

var (
	// ErrUnavailable is returned when the embedding service could not be
	// reached or answered with a non-success status.
	ErrUnavailable = errors.New("embedding service unavailable")

	// ErrMalformed is returned when the embedding service answered but the
	// response could not be used: undecodable body, missing vector, or a
	// vector whose length differs from the configured dimension.
	ErrMalformed = errors.New("malformed embedding response")
)
