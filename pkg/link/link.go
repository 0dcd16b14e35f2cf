// Package link defines the saved link and its owning user.
package link

import (
	"encoding/json"
	"strings"
	"time"
)

// User is the account a link is scoped to.
type User struct {
	// ID is the stable, globally unique user identifier.
	ID string `json:"id"`

	// Email is unique per user. It is synthesized when a user is created
	// implicitly during link submission.
	Email string `json:"email"`

	// CreatedAt is set once on insert.
	CreatedAt time.Time `json:"createdAt"`
}

// Link is a saved web link. Embedding is absent until the background
// embedding step stores it, and stays absent if that step fails.
type Link struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	OriginalURL      string    `json:"originalUrl"`
	Title            *string   `json:"title"`
	Summary          *string   `json:"summary"`
	Keywords         []string  `json:"keywords"`
	RawExtractedText *string   `json:"rawExtractedText"`
	Embedding        []float32 `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
}

// HasEmbedding reports whether the link is searchable by semantic query.
func (l *Link) HasEmbedding() bool {
	return len(l.Embedding) > 0
}

// DisplayTitle returns the title, or the original URL when no title is set.
func (l *Link) DisplayTitle() string {
	if l.Title != nil && strings.TrimSpace(*l.Title) != "" {
		return *l.Title
	}
	return l.OriginalURL
}

// Clone returns a deep copy of the link so stores can hand out values
// without sharing mutable slices.
func (l *Link) Clone() *Link {
	if l == nil {
		return nil
	}

	c := *l
	if l.Keywords != nil {
		c.Keywords = append([]string(nil), l.Keywords...)
	}
	if l.Embedding != nil {
		c.Embedding = append([]float32(nil), l.Embedding...)
	}
	c.Title = cloneString(l.Title)
	c.Summary = cloneString(l.Summary)
	c.RawExtractedText = cloneString(l.RawExtractedText)
	return &c
}

// MarshalJSON adds the computed hasEmbedding field. The vector itself is
// never serialized.
func (l Link) MarshalJSON() ([]byte, error) {
	type alias Link
	keywords := l.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	a := alias(l)
	a.Keywords = keywords
	return json.Marshal(struct {
		alias
		HasEmbedding bool `json:"hasEmbedding"`
	}{
		alias:        a,
		HasEmbedding: len(l.Embedding) > 0,
	})
}

// EmbeddingInput builds the text embedded for a link: the trimmed title and
// trimmed description joined with " - ", skipping empty parts. When both are
// empty the original URL is used.
func EmbeddingInput(title, description, originalURL string) string {
	parts := make([]string, 0, 2)
	if t := strings.TrimSpace(title); t != "" {
		parts = append(parts, t)
	}
	if d := strings.TrimSpace(description); d != "" {
		parts = append(parts, d)
	}

	if len(parts) == 0 {
		return originalURL
	}
	return strings.Join(parts, " - ")
}

// StringPtr returns a pointer to s, or nil when s is blank.
func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
