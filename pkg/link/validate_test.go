package link_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Rahi-padwal/linkRecall/pkg/link"
)

var _ = Describe("ValidateURL", func() {
	It("accepts absolute http and https URLs", func() {
		Expect(link.ValidateURL("url", "https://example.com/a")).To(Succeed())
		Expect(link.ValidateURL("url", " http://example.com ")).To(Succeed())
	})

	DescribeTable("rejects",
		func(raw, message string) {
			Expect(link.ValidateURL("url", raw)).To(MatchError("url " + message))
		},
		Entry("an empty value", "  ", "is required"),
		Entry("a relative URL", "/cats", "must be an absolute URL"),
		Entry("a URL without a host", "https:///cats", "must be an absolute URL"),
		Entry("a non-http scheme", "ftp://example.com/x", "must use http or https"),
	)
})

var _ = Describe("ValidateUserID", func() {
	It("allows an absent id", func() {
		Expect(link.ValidateUserID("user_id", "")).To(Succeed())
	})

	It("accepts a UUID", func() {
		Expect(link.ValidateUserID("user_id", "7f1d9a52-0c55-4b8e-9a43-2f4f6f0f8a11")).To(Succeed())
	})

	It("rejects anything else", func() {
		Expect(link.ValidateUserID("user_id", "alice/mallory")).To(MatchError("user_id must be a UUID"))
	})
})
