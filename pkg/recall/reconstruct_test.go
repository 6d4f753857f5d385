package recall_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/recall"
	"github.com/papercomputeco/liner/pkg/vector"
)

var _ = Describe("ReconstructMemory", func() {
	var doc vector.Document

	BeforeEach(func() {
		m := memory.Memory{
			MemoryID:         "7",
			Content:          "User works at Anthropic.",
			ConversationID:   "conv-1",
			TurnID:           3,
			Confidence:       0.98,
			Timestamp:        time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC),
			PreviousMemoryID: "4",
		}
		doc = vector.Document{
			ID:        m.MemoryID,
			Embedding: []float32{0.1, 0.2, 0.3},
			Metadata:  m.Meta(),
		}
	})

	It("merges metadata fields with the stored embedding", func() {
		m, err := recall.ReconstructMemory(doc)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.MemoryID).To(Equal("7"))
		Expect(m.Content).To(Equal("User works at Anthropic."))
		Expect(m.ConversationID).To(Equal("conv-1"))
		Expect(m.TurnID).To(Equal(3))
		Expect(m.Confidence).To(Equal(0.98))
		Expect(m.Timestamp).To(Equal(time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)))
		Expect(m.PreviousMemoryID).To(Equal("4"))
		Expect(m.Vector).To(Equal([]float32{0.1, 0.2, 0.3}))
	})

	It("treats previous_memory_id as optional", func() {
		delete(doc.Metadata, "previous_memory_id")

		m, err := recall.ReconstructMemory(doc)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.PreviousMemoryID).To(BeEmpty())
	})

	It("accepts turn_id as a JSON float", func() {
		doc.Metadata["turn_id"] = float64(3)

		m, err := recall.ReconstructMemory(doc)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.TurnID).To(Equal(3))
	})

	It("accepts turn_id as an int64 payload value", func() {
		doc.Metadata["turn_id"] = int64(3)

		m, err := recall.ReconstructMemory(doc)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.TurnID).To(Equal(3))
	})

	It("rejects a fractional turn_id", func() {
		doc.Metadata["turn_id"] = 3.5

		_, err := recall.ReconstructMemory(doc)
		var verr recall.ValidationError
		Expect(errors.As(err, &verr)).To(BeTrue())
		Expect(verr.Field).To(Equal("turn_id"))
	})

	It("rejects a document with a missing field", func() {
		delete(doc.Metadata, "content")

		_, err := recall.ReconstructMemory(doc)
		var verr recall.ValidationError
		Expect(errors.As(err, &verr)).To(BeTrue())
		Expect(verr.ID).To(Equal("7"))
		Expect(verr.Field).To(Equal("content"))
	})

	It("rejects a mistyped field", func() {
		doc.Metadata["conversation_id"] = 42

		_, err := recall.ReconstructMemory(doc)
		var verr recall.ValidationError
		Expect(errors.As(err, &verr)).To(BeTrue())
		Expect(verr.Field).To(Equal("conversation_id"))
	})

	It("rejects an empty memory_id", func() {
		doc.Metadata["memory_id"] = ""

		_, err := recall.ReconstructMemory(doc)
		var verr recall.ValidationError
		Expect(errors.As(err, &verr)).To(BeTrue())
		Expect(verr.Field).To(Equal("memory_id"))
	})

	It("rejects an unparseable timestamp", func() {
		doc.Metadata["timestamp"] = "yesterday"

		_, err := recall.ReconstructMemory(doc)
		var verr recall.ValidationError
		Expect(errors.As(err, &verr)).To(BeTrue())
		Expect(verr.Field).To(Equal("timestamp"))
	})

	It("rejects a mistyped previous_memory_id", func() {
		doc.Metadata["previous_memory_id"] = 4

		_, err := recall.ReconstructMemory(doc)
		var verr recall.ValidationError
		Expect(errors.As(err, &verr)).To(BeTrue())
		Expect(verr.Field).To(Equal("previous_memory_id"))
	})
})
