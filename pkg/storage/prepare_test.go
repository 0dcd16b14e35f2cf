package storage_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Rahi-padwal/linkRecall/pkg/link"
	"github.com/Rahi-padwal/linkRecall/pkg/storage"
)

var _ = Describe("PrepareLink", func() {
	It("fills in ID and creation time without touching the input", func() {
		in := &link.Link{UserID: "u1", OriginalURL: "https://example.com"}
		out, err := storage.PrepareLink(in, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.ID).NotTo(BeEmpty())
		Expect(out.CreatedAt.IsZero()).To(BeFalse())
		Expect(in.ID).To(BeEmpty())
	})

	It("keeps a caller-supplied ID and time", func() {
		at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		out, err := storage.PrepareLink(&link.Link{ID: "fixed", UserID: "u1", CreatedAt: at}, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.ID).To(Equal("fixed"))
		Expect(out.CreatedAt).To(Equal(at))
	})

	It("requires an owner", func() {
		_, err := storage.PrepareLink(&link.Link{OriginalURL: "https://example.com"}, 3)
		Expect(err).To(Equal(storage.OwnerNotFoundError{}))
	})

	It("checks a supplied embedding's length", func() {
		_, err := storage.PrepareLink(&link.Link{UserID: "u1", Embedding: []float32{1}}, 3)
		Expect(err).To(Equal(storage.DimensionMismatchError{Want: 3, Got: 1}))
	})
})

var _ = Describe("SelectNearest", func() {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id, owner string, createdAt time.Time, emb []float32) *link.Link {
		return &link.Link{ID: id, UserID: owner, CreatedAt: createdAt, Embedding: emb}
	}

	It("breaks distance ties by newest first", func() {
		candidates := []*link.Link{
			mk("old", "u1", at, []float32{1, 0}),
			mk("new", "u1", at.Add(time.Hour), []float32{2, 0}),
		}
		matches := storage.SelectNearest(candidates, storage.NearestQuery{
			UserID:      "u1",
			Embedding:   []float32{1, 0},
			MaxDistance: 0.5,
			Limit:       5,
		})
		Expect(matches).To(HaveLen(2))
		Expect(matches[0].Link.ID).To(Equal("new"))
		Expect(matches[1].Link.ID).To(Equal("old"))
	})

	It("drops other owners, zero vectors and a non-positive limit", func() {
		candidates := []*link.Link{
			mk("mine", "u1", at, []float32{1, 0}),
			mk("zero", "u1", at, []float32{0, 0}),
			mk("theirs", "u2", at, []float32{1, 0}),
		}
		q := storage.NearestQuery{UserID: "u1", Embedding: []float32{1, 0}, MaxDistance: 0.5, Limit: 5}
		matches := storage.SelectNearest(candidates, q)
		Expect(matches).To(HaveLen(1))
		Expect(matches[0].Link.ID).To(Equal("mine"))

		q.Limit = 0
		Expect(storage.SelectNearest(candidates, q)).To(BeEmpty())
	})
})

var _ = Describe("errors", func() {
	It("describes each failure", func() {
		Expect(storage.OwnerNotFoundError{UserID: "u1"}.Error()).To(Equal("owner not found: u1"))
		Expect(storage.OwnerNotFoundError{}.Error()).To(Equal("owner not found"))
		Expect(storage.LinkNotFoundError{LinkID: "l1"}.Error()).To(Equal("link not found: l1"))
		Expect(storage.DimensionMismatchError{Want: 768, Got: 3}.Error()).To(ContainSubstring("want 768, got 3"))
	})
})
