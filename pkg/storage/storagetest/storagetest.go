// Package storagetest holds the behaviour every storage.Driver must share,
// written as a Ginkgo container each driver package runs against itself.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Rahi-padwal/linkRecall/pkg/link"
	"github.com/Rahi-padwal/linkRecall/pkg/storage"
)

// Dimensions is the embedding length drivers under test must be built with.
const Dimensions = 3

var (
	query   = []float32{1, 1, 0}
	nearby  = []float32{1, 1, 0.1}
	halfway = []float32{1, 0, 1} // cosine distance to query is exactly 0.5
	across  = []float32{0, 0, 1}
	reverse = []float32{-1, -1, 0}
)

// DescribeDriver registers the shared driver specs. newDriver is called
// before each spec and must return an empty store built with Dimensions.
func DescribeDriver(name string, newDriver func() storage.Driver) bool {
	return Describe(name+" conformance", func() {
		var (
			driver storage.Driver
			ctx    context.Context
			base   time.Time
		)

		BeforeEach(func() {
			ctx = context.Background()
			driver = nil
			driver = newDriver()
			base = storage.Now().Add(-time.Hour)
		})

		AfterEach(func() {
			if driver != nil {
				Expect(driver.Close()).To(Succeed())
			}
		})

		ensure := func(id string, createdAt time.Time) {
			_, err := driver.EnsureUser(ctx, &link.User{
				ID:        id,
				Email:     "user+" + id + "@example.com",
				CreatedAt: createdAt,
			})
			Expect(err).NotTo(HaveOccurred())
		}

		insert := func(userID, url string, createdAt time.Time, emb []float32) *link.Link {
			l, err := driver.InsertLink(ctx, &link.Link{
				UserID:      userID,
				OriginalURL: url,
				CreatedAt:   createdAt,
			})
			Expect(err).NotTo(HaveOccurred())
			if emb != nil {
				Expect(driver.UpdateEmbedding(ctx, l.ID, emb)).To(Succeed())
			}
			return l
		}

		Describe("users", func() {
			It("creates a user once", func() {
				created, err := driver.EnsureUser(ctx, &link.User{ID: "u1", Email: "a@example.com"})
				Expect(err).NotTo(HaveOccurred())
				Expect(created).To(BeTrue())

				created, err = driver.EnsureUser(ctx, &link.User{ID: "u1", Email: "a@example.com"})
				Expect(err).NotTo(HaveOccurred())
				Expect(created).To(BeFalse())

				u, err := driver.GetUser(ctx, "u1")
				Expect(err).NotTo(HaveOccurred())
				Expect(u.Email).To(Equal("a@example.com"))
				Expect(u.CreatedAt.IsZero()).To(BeFalse())
			})

			It("tolerates concurrent creation of the same user", func() {
				var (
					wg      sync.WaitGroup
					mu      sync.Mutex
					created int
					errs    []error
				)
				for range 8 {
					wg.Add(1)
					go func() {
						defer wg.Done()
						ok, err := driver.EnsureUser(ctx, &link.User{ID: "same", Email: "same@example.com"})
						mu.Lock()
						defer mu.Unlock()
						if err != nil {
							errs = append(errs, err)
						}
						if ok {
							created++
						}
					}()
				}
				wg.Wait()

				Expect(errs).To(BeEmpty())
				Expect(created).To(Equal(1))
			})

			It("reports an unknown user", func() {
				_, err := driver.GetUser(ctx, "nobody")
				var notFound storage.OwnerNotFoundError
				Expect(err).To(BeAssignableToTypeOf(notFound))
				Expect(err.(storage.OwnerNotFoundError).UserID).To(Equal("nobody"))
			})

			It("returns the oldest user first", func() {
				_, err := driver.FirstUser(ctx)
				Expect(err).To(BeAssignableToTypeOf(storage.OwnerNotFoundError{}))

				ensure("newer", base.Add(time.Minute))
				ensure("older", base)

				u, err := driver.FirstUser(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(u.ID).To(Equal("older"))
			})
		})

		Describe("InsertLink and GetLink", func() {
			BeforeEach(func() {
				ensure("u1", base)
			})

			It("assigns an ID and creation time and keeps every field", func() {
				title := "Dogs"
				summary := "All about dogs"
				raw := "dog text"
				l, err := driver.InsertLink(ctx, &link.Link{
					UserID:           "u1",
					OriginalURL:      "https://example.com/dogs",
					Title:            &title,
					Summary:          &summary,
					Keywords:         []string{"dogs", "pets"},
					RawExtractedText: &raw,
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(l.ID).NotTo(BeEmpty())
				Expect(l.CreatedAt.IsZero()).To(BeFalse())
				Expect(l.HasEmbedding()).To(BeFalse())

				got, err := driver.GetLink(ctx, l.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.UserID).To(Equal("u1"))
				Expect(got.OriginalURL).To(Equal("https://example.com/dogs"))
				Expect(*got.Title).To(Equal("Dogs"))
				Expect(*got.Summary).To(Equal("All about dogs"))
				Expect(*got.RawExtractedText).To(Equal("dog text"))
				Expect(got.Keywords).To(Equal([]string{"dogs", "pets"}))
				Expect(got.CreatedAt).To(BeTemporally("==", l.CreatedAt))
				Expect(got.HasEmbedding()).To(BeFalse())
			})

			It("keeps absent optional fields absent", func() {
				l := insert("u1", "https://example.com", base, nil)

				got, err := driver.GetLink(ctx, l.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.Title).To(BeNil())
				Expect(got.Summary).To(BeNil())
				Expect(got.RawExtractedText).To(BeNil())
				Expect(got.DisplayTitle()).To(Equal("https://example.com"))
			})

			It("rejects a link whose owner does not exist", func() {
				_, err := driver.InsertLink(ctx, &link.Link{UserID: "ghost", OriginalURL: "https://example.com"})
				Expect(err).To(Equal(storage.OwnerNotFoundError{UserID: "ghost"}))

				links, err := driver.ListByOwner(ctx, "ghost")
				Expect(err).NotTo(HaveOccurred())
				Expect(links).To(BeEmpty())
			})

			It("rejects an embedding of the wrong length", func() {
				_, err := driver.InsertLink(ctx, &link.Link{
					UserID:      "u1",
					OriginalURL: "https://example.com",
					Embedding:   []float32{1, 2},
				})
				Expect(err).To(Equal(storage.DimensionMismatchError{Want: Dimensions, Got: 2}))
			})

			It("reports an unknown link", func() {
				_, err := driver.GetLink(ctx, "missing")
				Expect(err).To(Equal(storage.LinkNotFoundError{LinkID: "missing"}))
			})
		})

		Describe("UpdateEmbedding", func() {
			var l *link.Link

			BeforeEach(func() {
				ensure("u1", base)
				l = insert("u1", "https://example.com", base, nil)
			})

			It("stores the vector with the last write winning", func() {
				Expect(driver.UpdateEmbedding(ctx, l.ID, across)).To(Succeed())
				Expect(driver.UpdateEmbedding(ctx, l.ID, nearby)).To(Succeed())

				got, err := driver.GetLink(ctx, l.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.Embedding).To(Equal(nearby))
				Expect(got.OriginalURL).To(Equal(l.OriginalURL))
				Expect(got.CreatedAt).To(BeTemporally("==", l.CreatedAt))
			})

			It("rejects a wrong length and leaves the link untouched", func() {
				err := driver.UpdateEmbedding(ctx, l.ID, []float32{1, 2, 3, 4})
				Expect(err).To(Equal(storage.DimensionMismatchError{Want: Dimensions, Got: 4}))

				got, err := driver.GetLink(ctx, l.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.HasEmbedding()).To(BeFalse())
			})

			It("reports an unknown link", func() {
				err := driver.UpdateEmbedding(ctx, "missing", query)
				Expect(err).To(Equal(storage.LinkNotFoundError{LinkID: "missing"}))
			})

			It("handles concurrent updates of different links", func() {
				ids := make([]string, 6)
				for i := range ids {
					ids[i] = insert("u1", fmt.Sprintf("https://example.com/%d", i), base.Add(time.Duration(i)*time.Second), nil).ID
				}

				var wg sync.WaitGroup
				for _, id := range ids {
					wg.Add(1)
					go func(id string) {
						defer GinkgoRecover()
						defer wg.Done()
						Expect(driver.UpdateEmbedding(ctx, id, nearby)).To(Succeed())
					}(id)
				}
				wg.Wait()

				for _, id := range ids {
					got, err := driver.GetLink(ctx, id)
					Expect(err).NotTo(HaveOccurred())
					Expect(got.HasEmbedding()).To(BeTrue())
				}
			})
		})

		Describe("ListByOwner", func() {
			It("lists only the owner's links, newest first", func() {
				ensure("u1", base)
				ensure("u2", base)
				first := insert("u1", "https://example.com/1", base, nil)
				third := insert("u1", "https://example.com/3", base.Add(2*time.Minute), nil)
				second := insert("u1", "https://example.com/2", base.Add(time.Minute), nil)
				insert("u2", "https://example.com/other", base.Add(3*time.Minute), nil)

				links, err := driver.ListByOwner(ctx, "u1")
				Expect(err).NotTo(HaveOccurred())
				Expect(ids(links)).To(Equal([]string{third.ID, second.ID, first.ID}))
			})

			It("keeps owners whose IDs share a prefix apart", func() {
				ensure("alice", base)
				ensure("alice/mallory", base.Add(time.Second))
				ensure("alice-2", base.Add(2*time.Second))
				insert("alice/mallory", "https://evil.example", base, query)
				insert("alice-2", "https://other.example", base, query)

				links, err := driver.ListByOwner(ctx, "alice")
				Expect(err).NotTo(HaveOccurred())
				Expect(links).To(BeEmpty())

				matches, err := driver.NearestByOwner(ctx, storage.NearestQuery{
					UserID:      "alice",
					Embedding:   query,
					MaxDistance: 2,
					Limit:       10,
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(matches).To(BeEmpty())

				links, err = driver.ListByOwner(ctx, "alice/mallory")
				Expect(err).NotTo(HaveOccurred())
				Expect(links).To(HaveLen(1))
				Expect(links[0].UserID).To(Equal("alice/mallory"))

				u, err := driver.FirstUser(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(u.ID).To(Equal("alice"))
			})

			It("returns an empty list for a user with no links", func() {
				links, err := driver.ListByOwner(ctx, "nobody")
				Expect(err).NotTo(HaveOccurred())
				Expect(links).NotTo(BeNil())
				Expect(links).To(BeEmpty())
			})
		})

		Describe("NearestByOwner", func() {
			var near, half, far, pending *link.Link

			BeforeEach(func() {
				ensure("u1", base)
				ensure("u2", base)
				near = insert("u1", "https://example.com/near", base, nearby)
				half = insert("u1", "https://example.com/half", base.Add(time.Second), halfway)
				far = insert("u1", "https://example.com/far", base.Add(2*time.Second), reverse)
				pending = insert("u1", "https://example.com/pending", base.Add(3*time.Second), nil)
				insert("u2", "https://example.com/u2", base, query)
			})

			nearest := func(userID string, maxDistance float64, limit int) []storage.Match {
				matches, err := driver.NearestByOwner(ctx, storage.NearestQuery{
					UserID:      userID,
					Embedding:   query,
					MaxDistance: maxDistance,
					Limit:       limit,
				})
				Expect(err).NotTo(HaveOccurred())
				return matches
			}

			It("excludes a distance equal to the threshold", func() {
				matches := nearest("u1", 0.5, 5)
				Expect(matchIDs(matches)).To(Equal([]string{near.ID}))
				Expect(matches[0].Distance).To(BeNumerically("<", 0.01))
			})

			It("orders by ascending distance and skips links without an embedding", func() {
				matches := nearest("u1", 2.5, 10)
				Expect(matchIDs(matches)).To(Equal([]string{near.ID, half.ID, far.ID}))
				Expect(matchIDs(matches)).NotTo(ContainElement(pending.ID))
				Expect(matches[1].Distance).To(BeNumerically("~", 0.5, 1e-6))
				Expect(matches[2].Distance).To(BeNumerically("~", 2, 1e-6))
			})

			It("caps the result at the limit", func() {
				matches := nearest("u1", 2.5, 2)
				Expect(matchIDs(matches)).To(Equal([]string{near.ID, half.ID}))
			})

			It("never returns another user's links", func() {
				for _, m := range nearest("u1", 2.5, 10) {
					Expect(m.Link.UserID).To(Equal("u1"))
				}
				Expect(nearest("u2", 2.5, 10)).To(HaveLen(1))
				Expect(nearest("nobody", 2.5, 10)).To(BeEmpty())
			})

			It("finds nothing for a zero-magnitude query", func() {
				matches, err := driver.NearestByOwner(ctx, storage.NearestQuery{
					UserID:      "u1",
					Embedding:   []float32{0, 0, 0},
					MaxDistance: 2.5,
					Limit:       5,
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(matches).To(BeEmpty())
			})

			It("rejects a query of the wrong length", func() {
				_, err := driver.NearestByOwner(ctx, storage.NearestQuery{
					UserID:      "u1",
					Embedding:   []float32{1},
					MaxDistance: 0.5,
					Limit:       5,
				})
				Expect(err).To(Equal(storage.DimensionMismatchError{Want: Dimensions, Got: 1}))
			})
		})
	})
}

func ids(links []*link.Link) []string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = l.ID
	}
	return out
}

func matchIDs(matches []storage.Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Link.ID
	}
	return out
}
