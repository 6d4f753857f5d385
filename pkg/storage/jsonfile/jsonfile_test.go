package jsonfile_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/liner/pkg/logger"
	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/storage"
	"github.com/papercomputeco/liner/pkg/storage/jsonfile"
)

func storeMemory(id, conversationID, content string) memory.Memory {
	return memory.Memory{
		MemoryID:       id,
		Content:        content,
		ConversationID: conversationID,
		TurnID:         0,
		Confidence:     0.9,
		Timestamp:      time.Now().UTC(),
	}
}

var _ = Describe("Driver", func() {
	var (
		ctx    context.Context
		path   string
		driver *jsonfile.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		path = filepath.Join(GinkgoT().TempDir(), "memories.json")

		var err error
		driver, err = jsonfile.NewDriver(jsonfile.Config{Path: path}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewDriver", func() {
		It("requires a path", func() {
			_, err := jsonfile.NewDriver(jsonfile.Config{}, logger.Nop())
			Expect(err).To(HaveOccurred())
		})

		It("starts empty when the file does not exist", func() {
			all, err := driver.ListAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(BeEmpty())
		})

		It("starts empty when the file is corrupt", func() {
			Expect(os.WriteFile(path, []byte("{not json"), 0o644)).To(Succeed())

			d, err := jsonfile.NewDriver(jsonfile.Config{Path: path}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())

			all, err := d.ListAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(BeEmpty())
		})
	})

	Describe("Write and Read", func() {
		It("stores and retrieves a memory", func() {
			m := storeMemory("0", "conv-1", "User works at OpenAI")
			Expect(driver.Write(ctx, m)).To(Succeed())

			got, err := driver.Read(ctx, "0")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Content).To(Equal("User works at OpenAI"))
			Expect(got.ConversationID).To(Equal("conv-1"))
		})

		It("rejects duplicate ids", func() {
			m := storeMemory("0", "conv-1", "first")
			Expect(driver.Write(ctx, m)).To(Succeed())

			err := driver.Write(ctx, storeMemory("0", "conv-1", "second"))
			Expect(err).To(HaveOccurred())

			var dup storage.DuplicateKeyError
			Expect(err).To(BeAssignableToTypeOf(dup))

			got, err := driver.Read(ctx, "0")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Content).To(Equal("first"))
		})

		It("returns NotFoundError for an unknown id", func() {
			_, err := driver.Read(ctx, "missing")
			Expect(err).To(HaveOccurred())

			var notFound storage.NotFoundError
			Expect(err).To(BeAssignableToTypeOf(notFound))
		})
	})

	Describe("Update", func() {
		It("attaches a vector once", func() {
			Expect(driver.Write(ctx, storeMemory("0", "conv-1", "fact"))).To(Succeed())

			updated, err := driver.Update(ctx, "0", storage.Patch{Vector: []float32{0.1, 0.2}})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Vector).To(Equal([]float32{0.1, 0.2}))

			_, err = driver.Update(ctx, "0", storage.Patch{Vector: []float32{0.9}})
			Expect(err).To(HaveOccurred())

			var attached storage.VectorAttachedError
			Expect(err).To(BeAssignableToTypeOf(attached))

			got, _ := driver.Read(ctx, "0")
			Expect(got.Vector).To(Equal([]float32{0.1, 0.2}))
		})

		It("updates confidence", func() {
			Expect(driver.Write(ctx, storeMemory("0", "conv-1", "fact"))).To(Succeed())

			conf := 0.42
			updated, err := driver.Update(ctx, "0", storage.Patch{Confidence: &conf})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Confidence).To(Equal(0.42))
		})

		It("returns NotFoundError for an unknown id", func() {
			_, err := driver.Update(ctx, "missing", storage.Patch{})
			Expect(err).To(HaveOccurred())

			var notFound storage.NotFoundError
			Expect(err).To(BeAssignableToTypeOf(notFound))
		})
	})

	Describe("persistence", func() {
		It("survives reopening the store", func() {
			Expect(driver.Write(ctx, storeMemory("0", "conv-1", "first"))).To(Succeed())
			Expect(driver.Write(ctx, storeMemory("1", "conv-1", "second"))).To(Succeed())
			Expect(driver.Close()).To(Succeed())

			reopened, err := jsonfile.NewDriver(jsonfile.Config{Path: path}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())

			all, err := reopened.ListAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
			Expect(all[0].MemoryID).To(Equal("0"))
			Expect(all[1].MemoryID).To(Equal("1"))
		})

		It("leaves no temp files behind", func() {
			Expect(driver.Write(ctx, storeMemory("0", "conv-1", "fact"))).To(Succeed())

			entries, err := os.ReadDir(filepath.Dir(path))
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Name()).To(Equal("memories.json"))
		})

		It("round-trips every field", func() {
			m := memory.Memory{
				MemoryID:         "7",
				Content:          "User works at Anthropic",
				ConversationID:   "conv-1",
				TurnID:           2,
				Confidence:       0.85,
				Timestamp:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
				PreviousMemoryID: "3",
				Vector:           []float32{0.5, 0.25},
			}
			Expect(driver.Write(ctx, m)).To(Succeed())

			reopened, err := jsonfile.NewDriver(jsonfile.Config{Path: path}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())

			got, err := reopened.Read(ctx, "7")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(m))
		})
	})

	Describe("ListAll", func() {
		It("returns memories in insertion order", func() {
			Expect(driver.Write(ctx, storeMemory("b", "conv-1", "one"))).To(Succeed())
			Expect(driver.Write(ctx, storeMemory("a", "conv-2", "two"))).To(Succeed())
			Expect(driver.Write(ctx, storeMemory("c", "conv-1", "three"))).To(Succeed())

			all, err := driver.ListAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(3))
			Expect(all[0].MemoryID).To(Equal("b"))
			Expect(all[1].MemoryID).To(Equal("a"))
			Expect(all[2].MemoryID).To(Equal("c"))
		})
	})

	Describe("ListIDsFor", func() {
		It("returns only the conversation's ids", func() {
			Expect(driver.Write(ctx, storeMemory("0", "conv-1", "one"))).To(Succeed())
			Expect(driver.Write(ctx, storeMemory("1", "conv-2", "two"))).To(Succeed())
			Expect(driver.Write(ctx, storeMemory("2", "conv-1", "three"))).To(Succeed())

			ids, err := driver.ListIDsFor(ctx, "conv-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{"0", "2"}))
		})

		It("returns nothing for an unknown conversation", func() {
			ids, err := driver.ListIDsFor(ctx, "conv-404")
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(BeEmpty())
		})
	})
})
