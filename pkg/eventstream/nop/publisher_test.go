package nop_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Rahi-padwal/linkRecall/pkg/eventstream"
	"github.com/Rahi-padwal/linkRecall/pkg/eventstream/nop"
)

var _ = Describe("Publisher", func() {
	It("returns ErrNilLinkEvent for nil events", func() {
		p := nop.NewPublisher()
		err := p.PublishLink(context.Background(), nil)
		Expect(err).To(MatchError(eventstream.ErrNilLinkEvent))
	})

	It("succeeds for non-nil events and closes", func() {
		p := nop.NewPublisher()
		event := eventstream.NewLinkEvent(eventstream.EventTypeLinkCreated, "l1", "u1", "https://example.com")
		Expect(p.PublishLink(context.Background(), event)).To(Succeed())
		Expect(p.Close()).To(Succeed())
	})
})
