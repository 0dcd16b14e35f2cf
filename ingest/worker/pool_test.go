package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Rahi-padwal/linkRecall/pkg/embeddings"
	"github.com/Rahi-padwal/linkRecall/pkg/eventstream"
	"github.com/Rahi-padwal/linkRecall/pkg/link"
	"github.com/Rahi-padwal/linkRecall/pkg/logger"
	"github.com/Rahi-padwal/linkRecall/pkg/storage/inmemory"
	testutils "github.com/Rahi-padwal/linkRecall/pkg/utils/test"
)

const dims = 4

var _ = Describe("Worker Pool", func() {
	var (
		driver    *inmemory.Driver
		embedder  *testutils.MockEmbedder
		publisher *testutils.MockPublisher
		ctx       context.Context
	)

	newPool := func(mutate func(c *Config)) *Pool {
		c := &Config{
			Driver:     driver,
			Embedder:   embedder,
			Publisher:  publisher,
			Dimensions: dims,
			Logger:     logger.Nop(),
		}
		if mutate != nil {
			mutate(c)
		}
		wp, err := NewPool(c)
		Expect(err).NotTo(HaveOccurred())
		return wp
	}

	saveLink := func(url string) *link.Link {
		l, err := driver.InsertLink(ctx, &link.Link{UserID: "u1", OriginalURL: url})
		Expect(err).NotTo(HaveOccurred())
		return l
	}

	jobFor := func(l *link.Link, text string) Job {
		return Job{LinkID: l.ID, UserID: l.UserID, OriginalURL: l.OriginalURL, Text: text}
	}

	BeforeEach(func() {
		ctx = context.Background()
		driver = inmemory.NewDriver(dims)
		embedder = testutils.NewMockEmbedder(dims)
		publisher = testutils.NewMockPublisher()
		_, err := driver.EnsureUser(ctx, &link.User{ID: "u1", Email: "u1@example.com"})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewPool", func() {
		It("applies defaults", func() {
			wp := newPool(nil)
			defer wp.Close()

			stats := wp.Stats()
			Expect(stats.Workers).To(Equal(uint(3)))
			Expect(stats.QueueSize).To(Equal(uint(256)))
			Expect(stats.QueueMode).To(Equal(QueuePolicyDrop))
		})

		It("rejects an unknown queue policy", func() {
			_, err := NewPool(&Config{Driver: driver, Embedder: embedder, QueuePolicy: "spill"})
			Expect(err).To(MatchError(ContainSubstring("unsupported queue policy")))
		})

		It("requires a driver and an embedder", func() {
			_, err := NewPool(&Config{Embedder: embedder})
			Expect(err).To(HaveOccurred())
			_, err = NewPool(&Config{Driver: driver})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("processing", func() {
		It("stores the embedding once the pool drains", func() {
			l := saveLink("https://example.com/dogs")
			vec := []float32{1, 2, 3, 4}
			embedder.Set("Dogs", vec)

			wp := newPool(nil)
			Expect(wp.Enqueue(ctx, jobFor(l, "Dogs"))).To(BeTrue())
			wp.Close()

			got, err := driver.GetLink(ctx, l.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Embedding).To(Equal(vec))
			Expect(embedder.Calls()).To(Equal([]string{"Dogs"}))
			Expect(wp.Stats().Stored).To(Equal(uint64(1)))
			Expect(publisher.Types()).To(Equal([]string{eventstream.EventTypeEmbeddingStored}))
			Expect(publisher.Events()[0].Dimensions).To(Equal(dims))
		})

		It("leaves the link without an embedding when the embedder is unavailable", func() {
			l := saveLink("https://example.com")
			embedder.Err = fmt.Errorf("%w: connection refused", embeddings.ErrUnavailable)

			wp := newPool(nil)
			wp.Enqueue(ctx, jobFor(l, "x"))
			wp.Close()

			got, err := driver.GetLink(ctx, l.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.HasEmbedding()).To(BeFalse())
			Expect(wp.Stats().Failed).To(Equal(uint64(1)))
			Expect(publisher.Types()).To(Equal([]string{eventstream.EventTypeEmbeddingFailed}))
			Expect(publisher.Events()[0].Error).To(ContainSubstring("connection refused"))
		})

		It("refuses a vector of the wrong length without writing it", func() {
			l := saveLink("https://example.com")
			embedder.Set("short", []float32{1, 2})

			wp := newPool(nil)
			wp.Enqueue(ctx, jobFor(l, "short"))
			wp.Close()

			got, err := driver.GetLink(ctx, l.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.HasEmbedding()).To(BeFalse())
			Expect(publisher.Events()[0].Error).To(ContainSubstring(embeddings.ErrMalformed.Error()))
		})

		It("counts a store failure for a vanished link", func() {
			wp := newPool(nil)
			wp.Enqueue(ctx, Job{LinkID: "missing", UserID: "u1", Text: "x"})
			wp.Close()

			Expect(wp.Stats().Failed).To(Equal(uint64(1)))
			Expect(wp.Stats().Stored).To(BeZero())
		})

		It("bounds each job by the job timeout", func() {
			l := saveLink("https://example.com")
			embedder.Gate = make(chan struct{})

			wp := newPool(func(c *Config) { c.JobTimeout = 20 * time.Millisecond })
			wp.Enqueue(ctx, jobFor(l, "x"))
			wp.Close()

			Expect(wp.Stats().Failed).To(Equal(uint64(1)))
		})

		It("keeps going when publishing fails", func() {
			l := saveLink("https://example.com")
			publisher.Err = errors.New("broker down")

			wp := newPool(nil)
			wp.Enqueue(ctx, jobFor(l, "x"))
			wp.Close()

			got, err := driver.GetLink(ctx, l.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.HasEmbedding()).To(BeTrue())
		})
	})

	Describe("Enqueue", func() {
		It("drops jobs when the queue is full", func() {
			embedder.Gate = make(chan struct{})
			wp := newPool(func(c *Config) {
				c.NumWorkers = 1
				c.QueueSize = 1
			})

			first := saveLink("https://example.com/1")
			Expect(wp.Enqueue(ctx, jobFor(first, "1"))).To(BeTrue())
			// wait until the single worker holds the first job
			Eventually(embedder.Calls).Should(HaveLen(1))

			Expect(wp.Enqueue(ctx, jobFor(saveLink("https://example.com/2"), "2"))).To(BeTrue())
			Expect(wp.EnqueueContext(ctx, jobFor(saveLink("https://example.com/3"), "3"))).To(MatchError(ErrQueueFull))

			close(embedder.Gate)
			wp.Close()

			stats := wp.Stats()
			Expect(stats.Queued).To(Equal(uint64(2)))
			Expect(stats.Dropped).To(Equal(uint64(1)))
			Expect(stats.Stored).To(Equal(uint64(2)))
		})

		It("waits for capacity under the block policy until the context ends", func() {
			embedder.Gate = make(chan struct{})
			wp := newPool(func(c *Config) {
				c.NumWorkers = 1
				c.QueueSize = 1
				c.QueuePolicy = QueuePolicyBlock
			})

			Expect(wp.Enqueue(ctx, jobFor(saveLink("https://example.com/1"), "1"))).To(BeTrue())
			Eventually(embedder.Calls).Should(HaveLen(1))
			Expect(wp.Enqueue(ctx, jobFor(saveLink("https://example.com/2"), "2"))).To(BeTrue())

			short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			err := wp.EnqueueContext(short, jobFor(saveLink("https://example.com/3"), "3"))
			Expect(err).To(MatchError(ErrQueueFull))

			close(embedder.Gate)
			wp.Close()
			Expect(wp.Stats().Stored).To(Equal(uint64(2)))
		})

		It("refuses jobs after Close", func() {
			wp := newPool(nil)
			wp.Close()
			wp.Close()

			err := wp.EnqueueContext(ctx, jobFor(saveLink("https://example.com"), "x"))
			Expect(err).To(MatchError(ErrClosed))
			Expect(wp.Stats().Dropped).To(Equal(uint64(1)))
		})
	})
})
