package sqlite_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Rahi-padwal/linkRecall/pkg/link"
	"github.com/Rahi-padwal/linkRecall/pkg/logger"
	"github.com/Rahi-padwal/linkRecall/pkg/storage"
	"github.com/Rahi-padwal/linkRecall/pkg/storage/sqlite"
	"github.com/Rahi-padwal/linkRecall/pkg/storage/storagetest"
)

var _ = storagetest.DescribeDriver("sqlite", func() storage.Driver {
	d, err := sqlite.NewDriver(sqlite.Config{DBPath: ":memory:", Dimensions: storagetest.Dimensions}, logger.Nop())
	Expect(err).NotTo(HaveOccurred())
	return d
})

var _ = Describe("NewDriver", func() {
	It("requires a database path", func() {
		_, err := sqlite.NewDriver(sqlite.Config{}, logger.Nop())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("database path is required"))
	})

	It("creates a driver with file database that survives a reopen", func() {
		ctx := context.Background()
		dbPath := filepath.Join(GinkgoT().TempDir(), "test.db")

		d, err := sqlite.NewDriver(sqlite.Config{DBPath: dbPath, Dimensions: storagetest.Dimensions}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		_, err = os.Stat(dbPath)
		Expect(err).NotTo(HaveOccurred())

		_, err = d.EnsureUser(ctx, &link.User{ID: "u1", Email: "u1@example.com"})
		Expect(err).NotTo(HaveOccurred())
		l, err := d.InsertLink(ctx, &link.Link{UserID: "u1", OriginalURL: "https://example.com"})
		Expect(err).NotTo(HaveOccurred())
		Expect(d.UpdateEmbedding(ctx, l.ID, []float32{0.25, -1.5, 3})).To(Succeed())
		Expect(d.Close()).To(Succeed())

		d, err = sqlite.NewDriver(sqlite.Config{DBPath: dbPath, Dimensions: storagetest.Dimensions}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer d.Close()

		got, err := d.GetLink(ctx, l.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Embedding).To(Equal([]float32{0.25, -1.5, 3}))
	})
})
