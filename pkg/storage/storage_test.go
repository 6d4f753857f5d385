package storage_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/storage"
	"github.com/papercomputeco/liner/pkg/storage/inmemory"
)

var _ = Describe("Patch", func() {
	It("leaves nil fields untouched", func() {
		m := memory.Memory{MemoryID: "0", Confidence: 0.5, Vector: []float32{1}}

		Expect(storage.Patch{}.Apply(&m)).To(Succeed())
		Expect(m.Confidence).To(Equal(0.5))
		Expect(m.Vector).To(Equal([]float32{1}))
	})

	It("replaces confidence", func() {
		m := memory.Memory{MemoryID: "0", Confidence: 0.5}
		conf := 0.9

		Expect(storage.Patch{Confidence: &conf}.Apply(&m)).To(Succeed())
		Expect(m.Confidence).To(Equal(0.9))
	})

	It("attaches a vector exactly once", func() {
		m := memory.Memory{MemoryID: "0"}

		Expect(storage.Patch{Vector: []float32{1, 2}}.Apply(&m)).To(Succeed())
		Expect(m.Vector).To(Equal([]float32{1, 2}))

		err := storage.Patch{Vector: []float32{3}}.Apply(&m)
		var attached storage.VectorAttachedError
		Expect(err).To(BeAssignableToTypeOf(attached))
		Expect(m.Vector).To(Equal([]float32{1, 2}))
	})
})

var _ = Describe("NextSequenceStart", func() {
	var (
		ctx   context.Context
		store *inmemory.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = inmemory.NewDriver()
	})

	write := func(id string) {
		m := memory.Memory{
			MemoryID:       id,
			Content:        "fact " + id,
			ConversationID: "conv-1",
			Timestamp:      time.Now().UTC(),
		}
		Expect(store.Write(ctx, m)).To(Succeed())
	}

	It("returns 0 for an empty store", func() {
		start, err := storage.NextSequenceStart(ctx, store)
		Expect(err).NotTo(HaveOccurred())
		Expect(start).To(Equal(int64(0)))
	})

	It("returns one past the highest numeric id", func() {
		write("0")
		write("7")
		write("3")

		start, err := storage.NextSequenceStart(ctx, store)
		Expect(err).NotTo(HaveOccurred())
		Expect(start).To(Equal(int64(8)))
	})

	It("ignores non-numeric ids", func() {
		write("2")
		write("d2c5e9f0-memory")

		start, err := storage.NextSequenceStart(ctx, store)
		Expect(err).NotTo(HaveOccurred())
		Expect(start).To(Equal(int64(3)))
	})
})
