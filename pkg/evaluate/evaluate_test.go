package evaluate_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/liner/pkg/conversation"
	"github.com/papercomputeco/liner/pkg/evaluate"
	"github.com/papercomputeco/liner/pkg/extract"
	"github.com/papercomputeco/liner/pkg/logger"
	"github.com/papercomputeco/liner/pkg/memory"
)

const goodVerdict = `{
  "evaluation": {
    "is_correct": true,
    "is_relevant": true,
    "is_atomic": true,
    "score": 5,
    "justification": "The memory accurately captures a stated fact."
  }
}`

// judgeStub fakes the LLM judge, replying from a queue and recording the
// prompts it saw.
type judgeStub struct {
	calls     int
	systems   []string
	users     []string
	responses []string
	err       error
}

func (s *judgeStub) fn() extract.CallFunc {
	return func(_ context.Context, system, user string) (string, error) {
		s.calls++
		s.systems = append(s.systems, system)
		s.users = append(s.users, user)
		if s.err != nil {
			return "", s.err
		}
		if len(s.responses) == 0 {
			return goodVerdict, nil
		}
		response := s.responses[0]
		if len(s.responses) > 1 {
			s.responses = s.responses[1:]
		}
		return response, nil
	}
}

var _ = Describe("Evaluator", func() {
	var (
		stub          *judgeStub
		subject       *evaluate.Evaluator
		conversations []conversation.Conversation
		memories      []memory.Memory
	)

	BeforeEach(func() {
		stub = &judgeStub{}

		var err error
		subject, err = evaluate.NewEvaluator(stub.fn(), logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		conversations = []conversation.Conversation{
			{
				ConversationID: "conv-alice",
				Turns: []conversation.Turn{
					{TurnID: 1, Role: conversation.RoleUser, Content: "My name is Alice and I work at OpenAI"},
					{TurnID: 2, Role: conversation.RoleAssistant, Content: "Nice to meet you, Alice!"},
				},
			},
		}
		memories = []memory.Memory{
			{MemoryID: "1", Content: "User is named Alice.", ConversationID: "conv-alice", TurnID: 1},
			{MemoryID: "2", Content: "User works at OpenAI.", ConversationID: "conv-alice", TurnID: 1},
		}
	})

	Describe("NewEvaluator", func() {
		It("requires a call function", func() {
			_, err := evaluate.NewEvaluator(nil, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("call function")))
		})
	})

	Describe("Run", func() {
		It("judges each memory once against its conversation", func() {
			report, err := subject.Run(GinkgoT().Context(), conversations, memories)
			Expect(err).NotTo(HaveOccurred())

			Expect(stub.calls).To(Equal(2))
			Expect(report.Judged()).To(Equal(2))
			Expect(report.Skipped).To(BeZero())

			Expect(report.Results[0].MemoryID).To(Equal("1"))
			Expect(report.Results[0].MemoryContent).To(Equal("User is named Alice."))
			Expect(report.Results[0].Evaluation.Score).To(Equal(5))
		})

		It("puts the conversation history and the memory into the prompt", func() {
			_, err := subject.Run(GinkgoT().Context(), conversations, memories[:1])
			Expect(err).NotTo(HaveOccurred())

			Expect(stub.systems[0]).To(ContainSubstring("quality assurance expert"))
			Expect(stub.users[0]).To(ContainSubstring(`"My name is Alice and I work at OpenAI"`))
			Expect(stub.users[0]).To(ContainSubstring(`"User is named Alice."`))
			Expect(stub.users[0]).To(ContainSubstring("from Turn 1"))
			Expect(stub.users[0]).To(HaveSuffix("YOUR RESPONSE:"))
		})

		It("skips memories with no matching conversation without calling out", func() {
			orphan := memory.Memory{MemoryID: "9", Content: "Stray.", ConversationID: "conv-gone", TurnID: 1}

			report, err := subject.Run(GinkgoT().Context(), conversations, []memory.Memory{orphan})
			Expect(err).NotTo(HaveOccurred())

			Expect(stub.calls).To(BeZero())
			Expect(report.Judged()).To(BeZero())
			Expect(report.Skipped).To(Equal(1))
		})

		It("skips a memory whose judge call fails and keeps going", func() {
			stub.err = errors.New("provider down")

			report, err := subject.Run(GinkgoT().Context(), conversations, memories)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.Judged()).To(BeZero())
			Expect(report.Skipped).To(Equal(2))
		})

		It("skips a malformed verdict and judges the rest", func() {
			stub.responses = []string{"not json at all", goodVerdict}

			report, err := subject.Run(GinkgoT().Context(), conversations, memories)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.Judged()).To(Equal(1))
			Expect(report.Skipped).To(Equal(1))
			Expect(report.Results[0].MemoryID).To(Equal("2"))
		})

		It("recovers a verdict wrapped in markdown fences", func() {
			stub.responses = []string{"```json\n" + goodVerdict + "\n```"}

			report, err := subject.Run(GinkgoT().Context(), conversations, memories[:1])
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Judged()).To(Equal(1))
		})

		It("rejects a verdict missing the evaluation key", func() {
			stub.responses = []string{`{"score": 5}`}

			report, err := subject.Run(GinkgoT().Context(), conversations, memories[:1])
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Skipped).To(Equal(1))
		})

		It("rejects a verdict with an out-of-range score", func() {
			stub.responses = []string{`{"evaluation": {"is_correct": true, "is_relevant": true, "is_atomic": true, "score": 7, "justification": "x"}}`}

			report, err := subject.Run(GinkgoT().Context(), conversations, memories[:1])
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Skipped).To(Equal(1))
		})

		It("rejects a verdict missing a criteria field", func() {
			stub.responses = []string{`{"evaluation": {"is_correct": true, "score": 4, "justification": "x"}}`}

			report, err := subject.Run(GinkgoT().Context(), conversations, memories[:1])
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Skipped).To(Equal(1))
		})

		It("makes no calls when there are no memories", func() {
			report, err := subject.Run(GinkgoT().Context(), conversations, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(stub.calls).To(BeZero())
			Expect(report.Judged()).To(BeZero())
		})

		It("aborts between memories when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(GinkgoT().Context())
			cancel()

			report, err := subject.Run(ctx, conversations, memories)
			Expect(err).To(MatchError(context.Canceled))
			Expect(stub.calls).To(BeZero())
			Expect(report.Judged()).To(BeZero())
		})
	})
})

var _ = Describe("Report", func() {
	var report *evaluate.Report

	BeforeEach(func() {
		report = &evaluate.Report{
			Results: []evaluate.Result{
				{
					MemoryID:       "1",
					ConversationID: "conv-alice",
					TurnID:         1,
					MemoryContent:  "User is named Alice.",
					Evaluation: evaluate.Evaluation{
						IsCorrect: true, IsRelevant: true, IsAtomic: true,
						Score:         5,
						Justification: "Accurate and atomic.",
					},
				},
				{
					MemoryID:       "2",
					ConversationID: "conv-alice",
					TurnID:         2,
					MemoryContent:  "User is polite and tall.",
					Evaluation: evaluate.Evaluation{
						IsCorrect: true, IsRelevant: false, IsAtomic: false,
						Score:         2,
						Justification: "Bundles two observations.",
					},
				},
			},
			Skipped: 1,
		}
	})

	It("averages the judged scores", func() {
		Expect(report.MeanScore()).To(BeNumerically("~", 3.5, 1e-9))
	})

	It("summarizes counts and mean score", func() {
		summary := report.Summary()
		Expect(summary).To(ContainSubstring("2 judged, 1 skipped"))
		Expect(summary).To(ContainSubstring("Mean score: 3.5/5"))
		Expect(summary).To(ContainSubstring("Correct: 2/2, relevant: 1/2, atomic: 1/2"))
	})

	It("renders one markdown table row per judged memory", func() {
		md := report.Markdown()
		Expect(md).To(HavePrefix("# Memory Evaluation"))
		Expect(md).To(ContainSubstring("| Memory | Conversation | Turn |"))
		Expect(md).To(ContainSubstring("| 1 | conv-alice | 1 | 5 | yes | yes | yes |"))
		Expect(md).To(ContainSubstring("| 2 | conv-alice | 2 | 2 | yes | no | no |"))
	})

	It("renders an empty report without a table", func() {
		empty := &evaluate.Report{}
		Expect(empty.MeanScore()).To(BeZero())
		Expect(empty.Markdown()).To(ContainSubstring("No memories were judged."))
	})
})
