package postgres_test

import (
	"context"
	"fmt"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/storage"
	"github.com/papercomputeco/liner/pkg/storage/postgres"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("LINER_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("LINER_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

func pgMemory(id, conversationID, content string) memory.Memory {
	return memory.Memory{
		MemoryID:       id,
		Content:        content,
		ConversationID: conversationID,
		TurnID:         1,
		Confidence:     0.8,
		Timestamp:      time.Now().UTC().Truncate(time.Microsecond),
	}
}

var _ = Describe("Driver", func() {
	var (
		ctx    context.Context
		driver *postgres.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		dsn := connStr()

		var err error
		driver, err = postgres.NewDriver(ctx, dsn)
		Expect(err).NotTo(HaveOccurred())

		// Clean all memories before each test for isolation.
		_, err = driver.Pool().Exec(ctx, "DELETE FROM memories")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if driver != nil {
			driver.Close()
		}
	})

	Describe("NewDriver", func() {
		It("creates a driver with a valid connection string", func() {
			d, err := postgres.NewDriver(context.Background(), connStr())
			Expect(err).NotTo(HaveOccurred())
			defer d.Close()
		})

		It("returns an error for an invalid connection string", func() {
			_, err := postgres.NewDriver(context.Background(),
				"host=invalid port=9999 user=bad dbname=bad sslmode=disable connect_timeout=1")
			Expect(err).To(HaveOccurred())
			fmt.Fprintf(GinkgoWriter, "expected error: %v\n", err)
		})
	})

	Describe("Write and Read", func() {
		It("stores and retrieves a memory", func() {
			m := pgMemory("0", "conv-1", "User works at OpenAI")
			m.Vector = []float32{0.1, 0.2, 0.3}

			Expect(driver.Write(ctx, m)).To(Succeed())

			got, err := driver.Read(ctx, "0")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Content).To(Equal(m.Content))
			Expect(got.ConversationID).To(Equal(m.ConversationID))
			Expect(got.Vector).To(Equal(m.Vector))
			Expect(got.Timestamp).To(BeTemporally("~", m.Timestamp, time.Millisecond))
		})

		It("rejects duplicate ids", func() {
			Expect(driver.Write(ctx, pgMemory("0", "conv-1", "first"))).To(Succeed())

			err := driver.Write(ctx, pgMemory("0", "conv-1", "second"))
			Expect(err).To(HaveOccurred())

			var dup storage.DuplicateKeyError
			Expect(err).To(BeAssignableToTypeOf(dup))
		})

		It("returns NotFoundError for an unknown id", func() {
			_, err := driver.Read(ctx, "missing")
			Expect(err).To(HaveOccurred())

			var notFound storage.NotFoundError
			Expect(err).To(BeAssignableToTypeOf(notFound))
		})

		It("round-trips the previous memory link", func() {
			m := pgMemory("1", "conv-1", "User works at Anthropic")
			m.PreviousMemoryID = "0"

			Expect(driver.Write(ctx, m)).To(Succeed())

			got, err := driver.Read(ctx, "1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.PreviousMemoryID).To(Equal("0"))
		})
	})

	Describe("Update", func() {
		It("attaches a vector once", func() {
			Expect(driver.Write(ctx, pgMemory("0", "conv-1", "fact"))).To(Succeed())

			updated, err := driver.Update(ctx, "0", storage.Patch{Vector: []float32{0.5}})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Vector).To(Equal([]float32{0.5}))

			_, err = driver.Update(ctx, "0", storage.Patch{Vector: []float32{0.9}})
			Expect(err).To(HaveOccurred())

			var attached storage.VectorAttachedError
			Expect(err).To(BeAssignableToTypeOf(attached))
		})
	})

	Describe("ListAll", func() {
		It("returns memories in insertion order", func() {
			Expect(driver.Write(ctx, pgMemory("b", "conv-1", "one"))).To(Succeed())
			Expect(driver.Write(ctx, pgMemory("a", "conv-1", "two"))).To(Succeed())

			all, err := driver.ListAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
			Expect(all[0].MemoryID).To(Equal("b"))
			Expect(all[1].MemoryID).To(Equal("a"))
		})
	})

	Describe("ListIDsFor", func() {
		It("filters by conversation in insertion order", func() {
			Expect(driver.Write(ctx, pgMemory("0", "conv-1", "one"))).To(Succeed())
			Expect(driver.Write(ctx, pgMemory("1", "conv-2", "two"))).To(Succeed())
			Expect(driver.Write(ctx, pgMemory("2", "conv-1", "three"))).To(Succeed())

			ids, err := driver.ListIDsFor(ctx, "conv-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{"0", "2"}))
		})
	})
})
