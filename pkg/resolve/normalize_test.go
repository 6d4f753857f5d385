package resolve_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/liner/pkg/resolve"
)

var _ = Describe("Normalize", func() {
	It("lower-cases text", func() {
		Expect(resolve.Normalize("User Works At OpenAI")).To(Equal("user works at openai"))
	})

	It("strips characters outside a-z, 0-9 and whitespace", func() {
		Expect(resolve.Normalize("User's favourite color: blue!")).To(Equal("users favourite color blue"))
	})

	It("collapses whitespace runs to single spaces", func() {
		Expect(resolve.Normalize("too\t many\n\n spaces")).To(Equal("too many spaces"))
	})

	It("trims leading and trailing whitespace", func() {
		Expect(resolve.Normalize("  padded  ")).To(Equal("padded"))
	})

	It("keeps digits", func() {
		Expect(resolve.Normalize("Route 66 is historic.")).To(Equal("route 66 is historic"))
	})

	It("drops accented and non-latin characters", func() {
		Expect(resolve.Normalize("café 東京")).To(Equal("caf"))
	})

	It("reduces punctuation-only text to the empty string", func() {
		Expect(resolve.Normalize("?!...")).To(Equal(""))
	})

	It("is idempotent", func() {
		samples := []string{
			"User works at Anthropic.",
			"  MIXED   Case\twith\nnewlines  ",
			"digits 123, symbols #$%",
			"",
			"?!...",
			"café au lait",
		}
		for _, s := range samples {
			once := resolve.Normalize(s)
			Expect(resolve.Normalize(once)).To(Equal(once), "sample %q", s)
		}
	})
})
