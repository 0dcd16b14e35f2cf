package storage

import "fmt"

// OwnerNotFoundError is returned when a user does not exist, including when
// a link references an unknown owner.
type OwnerNotFoundError struct {
	UserID string
}

func (e OwnerNotFoundError) Error() string {
	if e.UserID == "" {
		return "owner not found"
	}

	return "owner not found: " + e.UserID
}

// LinkNotFoundError is returned when a link doesn't exist in the store.
type LinkNotFoundError struct {
	LinkID string
}

func (e LinkNotFoundError) Error() string {
	if e.LinkID == "" {
		return "link not found"
	}

	return "link not found: " + e.LinkID
}

// DimensionMismatchError is returned when an embedding's length differs from
// the store's configured dimension.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: want %d, got %d", e.Want, e.Got)
}
