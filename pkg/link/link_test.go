package link_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Rahi-padwal/linkRecall/pkg/link"
)

var _ = Describe("EmbeddingInput", func() {
	It("joins trimmed title and description", func() {
		Expect(link.EmbeddingInput("  Pets ", " Cats and dogs ", "https://example.com")).
			To(Equal("Pets - Cats and dogs"))
	})

	It("uses the description alone when no title is set", func() {
		Expect(link.EmbeddingInput("", "Cats and dogs", "https://example.com/a")).
			To(Equal("Cats and dogs"))
	})

	It("uses the title alone when no description is set", func() {
		Expect(link.EmbeddingInput("Pets", "   ", "https://example.com/a")).To(Equal("Pets"))
	})

	It("falls back to the URL when both parts are empty", func() {
		Expect(link.EmbeddingInput(" ", "", "https://example.com/a")).To(Equal("https://example.com/a"))
	})
})

var _ = Describe("Link", func() {
	It("falls back to the URL for the display title", func() {
		l := &link.Link{OriginalURL: "https://example.com"}
		Expect(l.DisplayTitle()).To(Equal("https://example.com"))

		l.Title = link.StringPtr("Example")
		Expect(l.DisplayTitle()).To(Equal("Example"))
	})

	It("reports embedding presence", func() {
		l := &link.Link{}
		Expect(l.HasEmbedding()).To(BeFalse())
		l.Embedding = []float32{1, 0}
		Expect(l.HasEmbedding()).To(BeTrue())
	})

	It("clones without sharing slices", func() {
		l := &link.Link{Keywords: []string{"a"}, Embedding: []float32{1}, Title: link.StringPtr("t")}
		c := l.Clone()
		c.Keywords[0] = "b"
		c.Embedding[0] = 2
		*c.Title = "u"

		Expect(l.Keywords[0]).To(Equal("a"))
		Expect(l.Embedding[0]).To(Equal(float32(1)))
		Expect(*l.Title).To(Equal("t"))
	})

	It("serializes hasEmbedding but never the vector", func() {
		l := link.Link{ID: "id-1", OriginalURL: "https://example.com", Embedding: []float32{0.5}}
		payload, err := json.Marshal(l)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())
		Expect(got).To(HaveKeyWithValue("hasEmbedding", true))
		Expect(got).To(HaveKeyWithValue("originalUrl", "https://example.com"))
		Expect(got).To(HaveKeyWithValue("keywords", BeEmpty()))
		Expect(got).NotTo(HaveKey("embedding"))
	})

	It("treats blank strings as absent", func() {
		Expect(link.StringPtr("  ")).To(BeNil())
		Expect(link.Deref(nil)).To(Equal(""))
	})
})
