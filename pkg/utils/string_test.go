package utils

import (
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("truncate", func() {
	It("returns the string unchanged when within the limit", func() {
		Expect(Truncate("short", 10)).To(Equal("short"))
	})

	It("returns the string unchanged when exactly at the limit", func() {
		Expect(Truncate("12345", 5)).To(Equal("12345"))
	})

	It("truncates with ellipsis when over the limit", func() {
		result := Truncate("this is a long string", 10)
		Expect(result).To(Equal("this is a ..."))
	})

	It("cuts on character boundaries", func() {
		result := Truncate("héllo wörld", 7)
		Expect(result).To(Equal("héllo w..."))
		Expect(utf8.ValidString(result)).To(BeTrue())
	})

	It("counts multi-byte characters once toward the limit", func() {
		Expect(Truncate("日本語", 3)).To(Equal("日本語"))
	})
})
