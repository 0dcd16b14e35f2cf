package storage

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Rahi-padwal/linkRecall/pkg/link"
	"github.com/Rahi-padwal/linkRecall/pkg/vector"
)

// CheckDimensions returns DimensionMismatchError when vec is not of length dims.
func CheckDimensions(dims int, vec []float32) error {
	if len(vec) != dims {
		return DimensionMismatchError{Want: dims, Got: len(vec)}
	}
	return nil
}

// PrepareLink validates l and returns a copy with ID and CreatedAt filled in.
// Drivers call it before writing.
func PrepareLink(l *link.Link, dims int) (*link.Link, error) {
	if l == nil {
		return nil, errors.New("cannot store nil link")
	}
	if strings.TrimSpace(l.UserID) == "" {
		return nil, OwnerNotFoundError{}
	}
	if l.Embedding != nil {
		if err := CheckDimensions(dims, l.Embedding); err != nil {
			return nil, err
		}
	}

	c := l.Clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = Now()
	}
	return c, nil
}

// PrepareUser returns a copy of u with CreatedAt filled in.
func PrepareUser(u *link.User) (*link.User, error) {
	if u == nil || strings.TrimSpace(u.ID) == "" {
		return nil, errors.New("cannot store user without id")
	}

	c := *u
	if c.CreatedAt.IsZero() {
		c.CreatedAt = Now()
	}
	return &c, nil
}

// ValidateNearest checks a NearestQuery against the store's dimension.
func ValidateNearest(q NearestQuery, dims int) error {
	return CheckDimensions(dims, q.Embedding)
}

// SelectNearest applies NearestByOwner semantics to an already owner-scoped
// candidate set. Links without an embedding and zero-magnitude vectors never
// match.
func SelectNearest(candidates []*link.Link, q NearestQuery) []Match {
	if q.Limit <= 0 {
		return []Match{}
	}

	matches := make([]Match, 0, len(candidates))
	for _, l := range candidates {
		if l.UserID != q.UserID || !l.HasEmbedding() {
			continue
		}
		d, err := vector.CosineDistance(q.Embedding, l.Embedding)
		if err != nil {
			continue
		}
		if d < q.MaxDistance {
			matches = append(matches, Match{Link: l, Distance: d})
		}
	}

	SortMatches(matches)
	if len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}
	return matches
}

// SortMatches orders matches by ascending distance, breaking ties by newest
// first and then by ID so results are stable.
func SortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if !a.Link.CreatedAt.Equal(b.Link.CreatedAt) {
			return a.Link.CreatedAt.After(b.Link.CreatedAt)
		}
		return a.Link.ID < b.Link.ID
	})
}

// SortNewestFirst orders links by descending CreatedAt, then ID.
func SortNewestFirst(links []*link.Link) {
	sort.SliceStable(links, func(i, j int) bool {
		if !links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].CreatedAt.After(links[j].CreatedAt)
		}
		return links[i].ID > links[j].ID
	})
}

// Now returns the current UTC time at microsecond precision, the finest
// resolution every driver can round-trip.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
