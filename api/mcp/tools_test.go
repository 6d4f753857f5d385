package mcp

import (
	"encoding/json"
	"errors"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/liner/pkg/logger"
	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/recall"
	"github.com/papercomputeco/liner/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/liner/pkg/utils/test"
	"github.com/papercomputeco/liner/pkg/vector"
)

func textOf(result *mcpsdk.CallToolResult) string {
	Expect(result.Content).To(HaveLen(1))
	text, ok := result.Content[0].(*mcpsdk.TextContent)
	Expect(ok).To(BeTrue())
	return text.Text
}

var _ = Describe("memory_chain tool", func() {
	var (
		server *Server
		store  *inmemory.Driver
	)

	BeforeEach(func() {
		store = inmemory.NewDriver()

		var err error
		server, err = NewServer(Config{
			Store:  store,
			Logger: logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	write := func(id, previous string) {
		m := memory.Memory{
			MemoryID:         id,
			Content:          "fact " + id,
			ConversationID:   "conv-1",
			TurnID:           1,
			Confidence:       0.8,
			Timestamp:        time.Now().UTC(),
			PreviousMemoryID: previous,
		}
		Expect(store.Write(GinkgoT().Context(), m)).To(Succeed())
	}

	It("rejects an empty memory id", func() {
		result, output, err := server.handleChain(GinkgoT().Context(), nil, ChainInput{})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IsError).To(BeTrue())
		Expect(textOf(result)).To(ContainSubstring("memory_id is required"))
		Expect(output.Chain).To(BeEmpty())
	})

	It("reports an unknown memory id in-band", func() {
		result, _, err := server.handleChain(GinkgoT().Context(), nil, ChainInput{MemoryID: "missing"})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IsError).To(BeTrue())
		Expect(textOf(result)).To(ContainSubstring("memory not found"))
	})

	It("returns the chain newest first", func() {
		write("1", "")
		write("2", "1")
		write("3", "2")

		result, output, err := server.handleChain(GinkgoT().Context(), nil, ChainInput{MemoryID: "3"})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IsError).To(BeFalse())

		Expect(output.MemoryID).To(Equal("3"))
		Expect(output.Depth).To(Equal(3))
		Expect(output.Chain).To(HaveLen(3))
		Expect(output.Chain[0].MemoryID).To(Equal("3"))
		Expect(output.Chain[2].MemoryID).To(Equal("1"))
	})

	It("serializes the output into the text content block", func() {
		write("1", "")

		result, _, err := server.handleChain(GinkgoT().Context(), nil, ChainInput{MemoryID: "1"})
		Expect(err).NotTo(HaveOccurred())

		var decoded ChainOutput
		Expect(json.Unmarshal([]byte(textOf(result)), &decoded)).To(Succeed())
		Expect(decoded.MemoryID).To(Equal("1"))
		Expect(decoded.Depth).To(Equal(1))
	})
})

var _ = Describe("memory_recall tool", func() {
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
			Store:     inmemory.NewDriver(),
			Retriever: retriever,
			Logger:    logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects an empty query", func() {
		result, output, err := server.handleRecall(GinkgoT().Context(), nil, RecallInput{})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IsError).To(BeTrue())
		Expect(textOf(result)).To(ContainSubstring("query is required"))
		Expect(output.Results).To(BeEmpty())
	})

	It("returns an empty result set when nothing matches", func() {
		result, output, err := server.handleRecall(GinkgoT().Context(), nil, RecallInput{Query: "anything"})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IsError).To(BeFalse())
		Expect(output.Query).To(Equal("anything"))
		Expect(output.Count).To(BeZero())
		Expect(output.Results).NotTo(BeNil())
	})

	It("returns scored memories for a matching query", func() {
		m := memory.Memory{
			MemoryID:       "7",
			Content:        "Alice prefers green tea",
			ConversationID: "conv-alice",
			TurnID:         2,
			Confidence:     0.9,
			Timestamp:      time.Now().UTC(),
		}
		vectorDriver.Results = []vector.Match{{
			Document: vector.Document{
				ID:        m.MemoryID,
				Embedding: []float32{0.1, 0.2, 0.3},
				Metadata:  m.Meta(),
			},
			Distance: 0.25,
		}}

		result, output, err := server.handleRecall(GinkgoT().Context(), nil, RecallInput{Query: "tea", TopK: 3})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IsError).To(BeFalse())

		Expect(output.Query).To(Equal("tea"))
		Expect(output.Count).To(Equal(1))
		Expect(output.Results[0].Memory.MemoryID).To(Equal("7"))
		Expect(output.Results[0].Memory.Content).To(Equal("Alice prefers green tea"))
		Expect(output.Results[0].Score).To(BeNumerically("~", 0.75, 1e-6))
	})

	It("reports an index failure in-band", func() {
		vectorDriver.FailQuery = errors.New("index offline")

		result, _, err := server.handleRecall(GinkgoT().Context(), nil, RecallInput{Query: "tea"})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IsError).To(BeTrue())
		Expect(textOf(result)).To(ContainSubstring("Recall failed"))
	})
})
