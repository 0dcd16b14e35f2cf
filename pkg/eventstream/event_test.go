package eventstream_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Rahi-padwal/linkRecall/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals LinkEvent with expected top-level keys", func() {
		event := eventstream.NewLinkEvent(eventstream.EventTypeEmbeddingStored, "l1", "u1", "https://example.com")
		event.Dimensions = 768

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKeyWithValue("schema_version", BeNumerically("==", eventstream.SchemaVersionV1)))
		Expect(got).To(HaveKeyWithValue("event_type", "linkrecall.link.embedding_stored"))
		Expect(got).To(HaveKeyWithValue("link_id", "l1"))
		Expect(got).To(HaveKeyWithValue("user_id", "u1"))
		Expect(got).To(HaveKeyWithValue("dimensions", BeNumerically("==", 768)))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).NotTo(HaveKey("error"))
	})

	It("gives every event a distinct ID", func() {
		a := eventstream.NewLinkEvent(eventstream.EventTypeLinkCreated, "l1", "u1", "")
		b := eventstream.NewLinkEvent(eventstream.EventTypeLinkCreated, "l1", "u1", "")
		Expect(a.EventID).NotTo(Equal(b.EventID))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.EventTypeLinkCreated).To(Equal("linkrecall.link.created"))
		Expect(eventstream.EventTypeEmbeddingFailed).To(Equal("linkrecall.link.embedding_failed"))
	})
})
