package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Rahi-padwal/linkRecall/api/search"
	"github.com/Rahi-padwal/linkRecall/ingest"
	"github.com/Rahi-padwal/linkRecall/ingest/worker"
	"github.com/Rahi-padwal/linkRecall/pkg/embeddings"
	"github.com/Rahi-padwal/linkRecall/pkg/fetcher"
	"github.com/Rahi-padwal/linkRecall/pkg/logger"
	"github.com/Rahi-padwal/linkRecall/pkg/storage/inmemory"
	testutils "github.com/Rahi-padwal/linkRecall/pkg/utils/test"
)

const (
	testDims = 4
	ownerID  = "0b5e1f7c-9a2d-4c3b-8e6f-1d2a3b4c5d6e"
	otherID  = "9f8e7d6c-5b4a-4392-8170-6f5e4d3c2b1a"
)

func decode[T any](resp *http.Response) T {
	var v T
	body, err := io.ReadAll(resp.Body)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	ExpectWithOffset(1, json.Unmarshal(body, &v)).To(Succeed(), string(body))
	return v
}

var _ = Describe("Server", func() {
	var (
		ctx      context.Context
		driver   *inmemory.Driver
		embedder *testutils.MockEmbedder
		pages    *testutils.MockFetcher
		pool     *worker.Pool
		policy   ingest.OwnerPolicy
		mcpMount http.Handler
		server   *Server
	)

	build := func() {
		var err error
		pool, err = worker.NewPool(&worker.Config{
			Driver:     driver,
			Embedder:   embedder,
			Dimensions: testDims,
			NumWorkers: 1,
			Logger:     logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())

		coordinator, err := ingest.NewCoordinator(ingest.Config{
			Driver:  driver,
			Fetcher: pages,
			Queue:   pool,
			Owners:  policy,
			Logger:  logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())

		searcher, err := search.NewSearcher(embedder, driver, search.DefaultPolicy(), logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		server, err = NewServer(Config{
			ListenAddr: ":0",
			Saver:      coordinator,
			Searcher:   searcher,
			Stats:      pool,
			MCPHandler: mcpMount,
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	}

	do := func(method, target string, body any) *http.Response {
		var reader io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			ExpectWithOffset(1, err).NotTo(HaveOccurred())
			reader = bytes.NewReader(raw)
		}
		req, err := http.NewRequest(method, target, reader)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")

		resp, err := server.app.Test(req, 5000)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return resp
	}

	save := func(url, userID string) map[string]any {
		resp := do(http.MethodPost, "/links", map[string]any{"originalUrl": url, "userId": userID})
		ExpectWithOffset(1, resp.StatusCode).To(Equal(fiber.StatusCreated))
		return decode[map[string]any](resp)
	}

	BeforeEach(func() {
		ctx = context.Background()
		driver = inmemory.NewDriver(testDims)
		embedder = testutils.NewMockEmbedder(testDims)
		pages = testutils.NewMockFetcher()
		policy = ingest.OwnerPolicy{CreateMissingOwner: true}
		mcpMount = nil
	})

	JustBeforeEach(func() {
		build()
	})

	AfterEach(func() {
		pool.Close()
	})

	Describe("NewServer", func() {
		It("requires a saver and a searcher", func() {
			_, err := NewServer(Config{}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("link saver is required")))
		})
	})

	Describe("GET /ping", func() {
		It("answers pong", func() {
			resp := do(http.MethodGet, "/ping", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(decode[string](resp)).To(Equal("pong"))
		})
	})

	Describe("POST /links", func() {
		It("creates the link without an embedding", func() {
			pages.Set("https://example.com/cats", fetcher.Metadata{Title: "Cats", Description: "All about cats"})

			created := save("https://example.com/cats", ownerID)
			Expect(created["id"]).NotTo(BeEmpty())
			Expect(created["userId"]).To(Equal(ownerID))
			Expect(created["title"]).To(Equal("Cats"))
			Expect(created["summary"]).To(Equal("All about cats"))
			Expect(created["hasEmbedding"]).To(BeFalse())
			Expect(created).NotTo(HaveKey("embedding"))
		})

		It("keeps a supplied title over the fetched one", func() {
			pages.Set("https://example.com/cats", fetcher.Metadata{Title: "Fetched"})

			resp := do(http.MethodPost, "/links", map[string]any{
				"originalUrl": "https://example.com/cats",
				"userId":      ownerID,
				"title":       "Mine",
				"keywords":    []string{"pets"},
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))
			created := decode[map[string]any](resp)
			Expect(created["title"]).To(Equal("Mine"))
			Expect(created["keywords"]).To(Equal([]any{"pets"}))
		})

		DescribeTable("rejects invalid submissions",
			func(body map[string]any, message string) {
				resp := do(http.MethodPost, "/links", body)
				Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
				Expect(decode[ErrorResponse](resp).Error).To(ContainSubstring(message))
			},
			Entry("missing url", map[string]any{"userId": ownerID}, "originalUrl is required"),
			Entry("relative url", map[string]any{"originalUrl": "/cats", "userId": ownerID}, "absolute URL"),
			Entry("non-http scheme", map[string]any{"originalUrl": "ftp://example.com/x", "userId": ownerID}, "http or https"),
			Entry("long title", map[string]any{
				"originalUrl": "https://example.com",
				"userId":      ownerID,
				"title":       strings.Repeat("t", MaxTitleLength+1),
			}, "at most 200 characters"),
			Entry("non-uuid owner", map[string]any{"originalUrl": "https://example.com", "userId": "bob"}, "UUID"),
		)

		It("rejects a body that is not JSON", func() {
			req, err := http.NewRequest(http.MethodPost, "/links", strings.NewReader("{"))
			Expect(err).NotTo(HaveOccurred())
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("requires an owner when the anonymous default owner is disabled", func() {
			resp := do(http.MethodPost, "/links", map[string]any{"originalUrl": "https://example.com"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(decode[ErrorResponse](resp).Error).To(ContainSubstring("owner id is required"))
		})

		Context("when missing owners are not created", func() {
			BeforeEach(func() {
				policy = ingest.OwnerPolicy{}
			})

			It("answers 404 for an unknown owner", func() {
				resp := do(http.MethodPost, "/links", map[string]any{
					"originalUrl": "https://example.com",
					"userId":      ownerID,
				})
				Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
			})
		})
	})

	Describe("GET /links", func() {
		It("lists only the user's links", func() {
			save("https://example.com/a", ownerID)
			save("https://example.com/b", ownerID)
			save("https://example.com/c", otherID)

			resp := do(http.MethodGet, "/links?userId="+ownerID, nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			out := decode[struct {
				Links []map[string]any `json:"links"`
				Count int              `json:"count"`
			}](resp)
			Expect(out.Count).To(Equal(2))
			for _, l := range out.Links {
				Expect(l["userId"]).To(Equal(ownerID))
			}
		})

		It("returns an empty list for a user without links", func() {
			resp := do(http.MethodGet, "/links?userId="+otherID, nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			out := decode[map[string]any](resp)
			Expect(out["links"]).To(BeEmpty())
			Expect(out["links"]).NotTo(BeNil())
		})

		It("requires a UUID user id", func() {
			Expect(do(http.MethodGet, "/links", nil).StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(do(http.MethodGet, "/links?userId=bob", nil).StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("GET /links/search", func() {
		It("requires q", func() {
			resp := do(http.MethodGet, "/links/search?userId="+ownerID, nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(decode[ErrorResponse](resp).Error).To(ContainSubstring("q parameter is required"))
		})

		It("requires a UUID user id", func() {
			resp := do(http.MethodGet, "/links/search?q=cats&userId=bob", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("finds a saved link once it is embedded", func() {
			pages.Set("https://example.com/cats", fetcher.Metadata{Title: "Pet care", Description: "Cats and dogs"})
			embedder.Set("Cats and dogs", []float32{1, 0, 0, 0})
			embedder.Set("pets", []float32{0.9, 0.1, 0, 0})

			created := save("https://example.com/cats", ownerID)
			Eventually(func() bool {
				l, err := driver.GetLink(ctx, created["id"].(string))
				return err == nil && l.HasEmbedding()
			}).WithTimeout(2 * time.Second).Should(BeTrue())

			resp := do(http.MethodGet, "/links/search?q=pets&userId="+ownerID, nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			out := decode[search.SearchOutput](resp)
			Expect(out.Count).To(Equal(1))
			Expect(out.Results[0].ID).To(Equal(created["id"]))
			Expect(out.Results[0].Title).To(Equal("Pet care"))
			Expect(out.Results[0].Score).To(BeNumerically("<", 0.5))
		})

		It("does not leak another user's links", func() {
			embedder.Set("https://example.com/cats", []float32{1, 0, 0, 0})
			embedder.Set("cats", []float32{1, 0, 0, 0})
			created := save("https://example.com/cats", otherID)
			Eventually(func() bool {
				l, err := driver.GetLink(ctx, created["id"].(string))
				return err == nil && l.HasEmbedding()
			}).WithTimeout(2 * time.Second).Should(BeTrue())

			resp := do(http.MethodGet, "/links/search?q=cats&userId="+ownerID, nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(decode[search.SearchOutput](resp).Results).To(BeEmpty())
		})

		DescribeTable("maps embedding failures",
			func(err error, status int) {
				embedder.Err = fmt.Errorf("%w: boom", err)
				resp := do(http.MethodGet, "/links/search?q=cats&userId="+ownerID, nil)
				Expect(resp.StatusCode).To(Equal(status))
			},
			Entry("unavailable", embeddings.ErrUnavailable, fiber.StatusServiceUnavailable),
			Entry("malformed", embeddings.ErrMalformed, fiber.StatusBadGateway),
		)
	})

	Describe("GET /stats", func() {
		It("reports the embedding pool counters", func() {
			save("https://example.com/a", ownerID)
			Eventually(func() uint64 { return pool.Stats().Stored }).WithTimeout(2 * time.Second).Should(Equal(uint64(1)))

			resp := do(http.MethodGet, "/stats", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			stats := decode[worker.Stats](resp)
			Expect(stats.Queued).To(Equal(uint64(1)))
			Expect(stats.Stored).To(Equal(uint64(1)))
			Expect(stats.Workers).To(Equal(uint(1)))
			Expect(stats.QueueMode).To(Equal(worker.QueuePolicyDrop))
		})
	})

	Describe("/mcp", func() {
		It("is not mounted without a handler", func() {
			Expect(do(http.MethodPost, "/mcp", nil).StatusCode).To(Equal(fiber.StatusNotFound))
		})

		Context("with a handler", func() {
			BeforeEach(func() {
				mcpMount = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(http.StatusAccepted)
				})
			})

			It("forwards requests to it", func() {
				Expect(do(http.MethodPost, "/mcp", nil).StatusCode).To(Equal(fiber.StatusAccepted))
			})
		})
	})
})

var _ = Describe("statusFor", func() {
	It("defaults to 500", func() {
		Expect(statusFor(io.EOF)).To(Equal(fiber.StatusInternalServerError))
	})
})
