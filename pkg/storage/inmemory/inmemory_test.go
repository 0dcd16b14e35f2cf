package inmemory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Rahi-padwal/linkRecall/pkg/link"
	"github.com/Rahi-padwal/linkRecall/pkg/storage"
	"github.com/Rahi-padwal/linkRecall/pkg/storage/inmemory"
	"github.com/Rahi-padwal/linkRecall/pkg/storage/storagetest"
)

var _ = storagetest.DescribeDriver("inmemory", func() storage.Driver {
	return inmemory.NewDriver(storagetest.Dimensions)
})

var _ = Describe("Driver", func() {
	It("defaults to the standard dimension", func() {
		d := inmemory.NewDriver(0)
		err := d.UpdateEmbedding(context.Background(), "x", make([]float32, storage.DefaultDimensions))
		Expect(err).To(Equal(storage.LinkNotFoundError{LinkID: "x"}))
	})

	It("hands out copies that do not alias stored state", func() {
		ctx := context.Background()
		d := inmemory.NewDriver(storagetest.Dimensions)
		_, err := d.EnsureUser(ctx, &link.User{ID: "u1", Email: "u1@example.com"})
		Expect(err).NotTo(HaveOccurred())

		l, err := d.InsertLink(ctx, &link.Link{UserID: "u1", OriginalURL: "https://example.com", Keywords: []string{"a"}})
		Expect(err).NotTo(HaveOccurred())
		l.Keywords[0] = "mutated"

		got, err := d.GetLink(ctx, l.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Keywords).To(Equal([]string{"a"}))
	})
})
