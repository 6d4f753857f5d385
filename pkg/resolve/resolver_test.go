package resolve_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/liner/pkg/logger"
	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/resolve"
	"github.com/papercomputeco/liner/pkg/storage"
	"github.com/papercomputeco/liner/pkg/storage/inmemory"
)

var _ = Describe("Resolver", func() {
	var store *inmemory.Driver

	BeforeEach(func() {
		store = inmemory.NewDriver()
	})

	newResolver := func(policy resolve.Policy) *resolve.Resolver {
		resolver, err := resolve.NewResolver(resolve.Config{
			Policy: policy,
			IDs:    memory.NewSequence(0),
			Store:  store,
			Log:    logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		return resolver
	}

	Describe("NewResolver", func() {
		It("requires an id allocator", func() {
			_, err := resolve.NewResolver(resolve.Config{Store: store})
			Expect(err).To(MatchError(ContainSubstring("id allocator")))
		})

		It("requires a store", func() {
			_, err := resolve.NewResolver(resolve.Config{IDs: memory.NewSequence(0)})
			Expect(err).To(MatchError(ContainSubstring("store")))
		})

		It("rejects unknown policies", func() {
			_, err := resolve.NewResolver(resolve.Config{
				Policy: "semantic",
				IDs:    memory.NewSequence(0),
				Store:  store,
			})
			Expect(err).To(MatchError(ContainSubstring("unknown versioning policy")))
		})
	})

	Describe("Session", func() {
		It("seeds the working set with only the conversation's memories", func() {
			ctx := GinkgoT().Context()
			Expect(store.Write(ctx, memory.Memory{
				MemoryID: "0", Content: "User is named Alice.", ConversationID: "conv-a",
				Timestamp: time.Now().UTC(),
			})).To(Succeed())
			Expect(store.Write(ctx, memory.Memory{
				MemoryID: "1", Content: "User is named Bob.", ConversationID: "conv-b",
				Timestamp: time.Now().UTC(),
			})).To(Succeed())

			session, err := newResolver(resolve.PolicyRecent).Session(ctx, "conv-a")
			Expect(err).NotTo(HaveOccurred())

			working := session.Memories()
			Expect(working).To(HaveLen(1))
			Expect(working[0].MemoryID).To(Equal("0"))
		})
	})

	Describe("Resolve", func() {
		It("stores an accepted fact with full provenance", func() {
			ctx := GinkgoT().Context()
			session, err := newResolver(resolve.PolicyRecent).Session(ctx, "conv-a")
			Expect(err).NotTo(HaveOccurred())

			accepted, err := session.Resolve(ctx, 3, []memory.Fact{
				{Content: "User works at Anthropic.", Confidence: 0.98},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(accepted).To(HaveLen(1))

			m := accepted[0]
			Expect(m.MemoryID).To(Equal("0"))
			Expect(m.Content).To(Equal("User works at Anthropic."))
			Expect(m.ConversationID).To(Equal("conv-a"))
			Expect(m.TurnID).To(Equal(3))
			Expect(m.Confidence).To(Equal(0.98))
			Expect(m.Timestamp).NotTo(BeZero())
			Expect(m.PreviousMemoryID).To(BeEmpty())

			stored, err := store.Read(ctx, "0")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Content).To(Equal("User works at Anthropic."))
		})

		It("discards facts that normalize to an existing memory", func() {
			ctx := GinkgoT().Context()
			session, err := newResolver(resolve.PolicyRecent).Session(ctx, "conv-a")
			Expect(err).NotTo(HaveOccurred())

			first, err := session.Resolve(ctx, 1, []memory.Fact{
				{Content: "User likes sushi.", Confidence: 0.9},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(HaveLen(1))

			second, err := session.Resolve(ctx, 2, []memory.Fact{
				{Content: "user likes   SUSHI!!", Confidence: 0.8},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(BeEmpty())
			Expect(store.Count()).To(Equal(1))
		})

		It("discards duplicates within a single batch", func() {
			ctx := GinkgoT().Context()
			session, err := newResolver(resolve.PolicyRecent).Session(ctx, "conv-a")
			Expect(err).NotTo(HaveOccurred())

			accepted, err := session.Resolve(ctx, 1, []memory.Fact{
				{Content: "User likes sushi.", Confidence: 0.9},
				{Content: "User likes sushi!", Confidence: 0.7},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(accepted).To(HaveLen(1))
		})

		It("deduplicates against memories persisted before the session", func() {
			ctx := GinkgoT().Context()
			Expect(store.Write(ctx, memory.Memory{
				MemoryID: "9", Content: "User likes sushi.", ConversationID: "conv-a",
				Timestamp: time.Now().UTC(),
			})).To(Succeed())

			session, err := newResolver(resolve.PolicyRecent).Session(ctx, "conv-a")
			Expect(err).NotTo(HaveOccurred())

			accepted, err := session.Resolve(ctx, 1, []memory.Fact{
				{Content: "User likes sushi.", Confidence: 0.9},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(accepted).To(BeEmpty())
		})

		It("does not deduplicate across conversations", func() {
			ctx := GinkgoT().Context()
			Expect(store.Write(ctx, memory.Memory{
				MemoryID: "9", Content: "User likes sushi.", ConversationID: "conv-b",
				Timestamp: time.Now().UTC(),
			})).To(Succeed())

			session, err := newResolver(resolve.PolicyRecent).Session(ctx, "conv-a")
			Expect(err).NotTo(HaveOccurred())

			accepted, err := session.Resolve(ctx, 1, []memory.Fact{
				{Content: "User likes sushi.", Confidence: 0.9},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(accepted).To(HaveLen(1))
		})

		It("links consecutive memories under the recent policy", func() {
			ctx := GinkgoT().Context()
			session, err := newResolver(resolve.PolicyRecent).Session(ctx, "conv-a")
			Expect(err).NotTo(HaveOccurred())

			accepted, err := session.Resolve(ctx, 1, []memory.Fact{
				{Content: "User is named Alice.", Confidence: 0.95},
				{Content: "User works at OpenAI.", Confidence: 0.95},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(accepted).To(HaveLen(2))
			Expect(accepted[0].PreviousMemoryID).To(BeEmpty())
			Expect(accepted[1].PreviousMemoryID).To(Equal(accepted[0].MemoryID))
		})

		It("links by exact previous_value under the previous-value policy", func() {
			ctx := GinkgoT().Context()
			session, err := newResolver(resolve.PolicyPreviousValue).Session(ctx, "conv-a")
			Expect(err).NotTo(HaveOccurred())

			first, err := session.Resolve(ctx, 1, []memory.Fact{
				{Content: "User is named Alice.", Confidence: 0.95},
				{Content: "User works at OpenAI.", Confidence: 0.95},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(HaveLen(2))
			Expect(first[0].PreviousMemoryID).To(BeEmpty())
			Expect(first[1].PreviousMemoryID).To(BeEmpty())

			second, err := session.Resolve(ctx, 3, []memory.Fact{
				{
					Content:       "User works at Anthropic.",
					Confidence:    0.98,
					PreviousValue: "User works at OpenAI.",
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(HaveLen(1))
			Expect(second[0].PreviousMemoryID).To(Equal(first[1].MemoryID))
		})

		It("propagates store write failures with partial progress", func() {
			ctx := GinkgoT().Context()
			// Occupy the id the allocator will hand to the second fact.
			Expect(store.Write(ctx, memory.Memory{
				MemoryID: "1", Content: "occupied", ConversationID: "conv-z",
				Timestamp: time.Now().UTC(),
			})).To(Succeed())

			session, err := newResolver(resolve.PolicyRecent).Session(ctx, "conv-a")
			Expect(err).NotTo(HaveOccurred())

			accepted, err := session.Resolve(ctx, 1, []memory.Fact{
				{Content: "User is named Alice.", Confidence: 0.9},
				{Content: "User works at OpenAI.", Confidence: 0.9},
			})
			var dup storage.DuplicateKeyError
			Expect(errors.As(err, &dup)).To(BeTrue())
			Expect(dup.ID).To(Equal("1"))
			Expect(accepted).To(HaveLen(1))
			Expect(accepted[0].Content).To(Equal("User is named Alice."))
		})

		It("never creates a cycle of previous_memory_id links", func() {
			ctx := GinkgoT().Context()
			session, err := newResolver(resolve.PolicyRecent).Session(ctx, "conv-a")
			Expect(err).NotTo(HaveOccurred())

			for turn, content := range []string{
				"User is named Alice.",
				"User works at OpenAI.",
				"User works at Anthropic.",
				"User likes sushi.",
			} {
				_, err := session.Resolve(ctx, turn+1, []memory.Fact{
					{Content: content, Confidence: 0.9},
				})
				Expect(err).NotTo(HaveOccurred())
			}

			byID := make(map[string]memory.Memory)
			for _, m := range session.Memories() {
				byID[m.MemoryID] = m
			}
			for _, m := range session.Memories() {
				seen := map[string]bool{}
				cur := m
				for cur.PreviousMemoryID != "" {
					Expect(seen[cur.MemoryID]).To(BeFalse(), "cycle at %s", cur.MemoryID)
					seen[cur.MemoryID] = true
					next, ok := byID[cur.PreviousMemoryID]
					Expect(ok).To(BeTrue(), "dangling link %s", cur.PreviousMemoryID)
					cur = next
				}
			}
		})
	})
})
