package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/liner/pkg/logger"
	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/recall"
	"github.com/papercomputeco/liner/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/liner/pkg/utils/test"
	"github.com/papercomputeco/liner/pkg/vector"
)

var _ = Describe("handleRecall", func() {
	var (
		server       *Server
		vectorDriver *testutils.MockVectorDriver
		embedder     *testutils.MockEmbedder
	)

	BeforeEach(func() {
		vectorDriver = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()

		retriever, err := recall.NewRetriever(embedder, vectorDriver, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		server, err = NewServer(Config{
			ListenAddr: ":0",
			Store:      inmemory.NewDriver(),
			Retriever:  retriever,
			Logger:     logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	get := func(s *Server, target string) *http.Response {
		req, err := http.NewRequest(http.MethodGet, target, nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := s.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	Context("when recall is not configured", func() {
		It("returns 503 when the retriever is nil", func() {
			noRecall, err := NewServer(Config{
				ListenAddr: ":0",
				Store:      inmemory.NewDriver(),
				Logger:     logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())

			resp := get(noRecall, "/v1/recall?query=test")
			Expect(resp.StatusCode).To(Equal(fiber.StatusServiceUnavailable))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("recall is not configured"))
		})
	})

	Context("when query parameter is missing", func() {
		It("returns 400", func() {
			resp := get(server, "/v1/recall")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("query parameter is required"))
		})
	})

	Context("when query parameter is empty", func() {
		It("returns 400", func() {
			resp := get(server, "/v1/recall?query=")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Context("when top_k is invalid", func() {
		It("returns 400 for non-integer top_k", func() {
			resp := get(server, "/v1/recall?query=test&top_k=abc")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("top_k must be a positive integer"))
		})

		It("returns 400 for zero top_k", func() {
			resp := get(server, "/v1/recall?query=test&top_k=0")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns 400 for negative top_k", func() {
			resp := get(server, "/v1/recall?query=test&top_k=-1")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Context("when recall succeeds with no results", func() {
		It("returns 200 with empty results", func() {
			resp := get(server, "/v1/recall?query=hello")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out RecallResponse
			decodeBody(resp, &out)
			Expect(out.Query).To(Equal("hello"))
			Expect(out.Count).To(Equal(0))
			Expect(out.Results).To(BeEmpty())
		})
	})

	Context("when recall succeeds with results", func() {
		It("returns 200 with scored memories", func() {
			m := memory.Memory{
				MemoryID:       "7",
				Content:        "Alice prefers green tea",
				ConversationID: "conv-alice",
				TurnID:         2,
				Confidence:     0.9,
				Timestamp:      time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
			}
			vectorDriver.Results = []vector.Match{{
				Document: vector.Document{
					ID:        m.MemoryID,
					Embedding: []float32{0.1, 0.2, 0.3},
					Metadata:  m.Meta(),
				},
				Distance: 0.25,
			}}

			resp := get(server, "/v1/recall?query=tea&top_k=3")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out RecallResponse
			decodeBody(resp, &out)
			Expect(out.Query).To(Equal("tea"))
			Expect(out.Count).To(Equal(1))
			Expect(out.Results).To(HaveLen(1))
			Expect(out.Results[0].Memory.MemoryID).To(Equal("7"))
			Expect(out.Results[0].Memory.Content).To(Equal("Alice prefers green tea"))
			Expect(out.Results[0].Score).To(BeNumerically("~", 0.75, 1e-6))
		})
	})

	Context("when the vector query fails", func() {
		It("returns 500", func() {
			vectorDriver.FailQuery = errors.New("index offline")

			resp := get(server, "/v1/recall?query=test")
			Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
		})
	})
})
