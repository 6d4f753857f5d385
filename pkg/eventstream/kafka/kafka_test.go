package kafka_test

import (
	"os"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/liner/pkg/eventstream"
	"github.com/papercomputeco/liner/pkg/eventstream/kafka"
	"github.com/papercomputeco/liner/pkg/logger"
	"github.com/papercomputeco/liner/pkg/memory"
)

// brokers returns the Kafka bootstrap addresses from environment or skips
// the test.
func brokers() []string {
	addrs := os.Getenv("LINER_TEST_KAFKA_BROKERS")
	if addrs == "" {
		Skip("LINER_TEST_KAFKA_BROKERS not set, skipping Kafka tests")
	}
	return strings.Split(addrs, ",")
}

var _ = Describe("Publisher", func() {
	Describe("NewPublisher", func() {
		It("requires at least one broker", func() {
			_, err := kafka.NewPublisher(kafka.Config{}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("at least one broker")))
		})

		It("defaults the topic", func() {
			publisher, err := kafka.NewPublisher(kafka.Config{
				Brokers: []string{"localhost:9092"},
			}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			defer publisher.Close()

			Expect(publisher.Topic()).To(Equal(kafka.DefaultTopic))
		})

		It("honors a configured topic", func() {
			publisher, err := kafka.NewPublisher(kafka.Config{
				Brokers: []string{"localhost:9092"},
				Topic:   "liner.test",
			}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			defer publisher.Close()

			Expect(publisher.Topic()).To(Equal("liner.test"))
		})
	})

	Describe("Publish", func() {
		It("writes a memory.persisted event", func() {
			publisher, err := kafka.NewPublisher(kafka.Config{
				Brokers: brokers(),
				Topic:   "liner.test",
			}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			defer publisher.Close()

			event := eventstream.NewMemoryPersisted(memory.Memory{
				MemoryID:       "0",
				Content:        "User works at Anthropic.",
				ConversationID: "conv-1",
				TurnID:         3,
				Confidence:     0.98,
				Timestamp:      time.Now().UTC(),
			})
			Expect(publisher.Publish(GinkgoT().Context(), event)).To(Succeed())
		})
	})
})
