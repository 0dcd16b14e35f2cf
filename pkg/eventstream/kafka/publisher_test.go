package kafka

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/Rahi-padwal/linkRecall/pkg/eventstream"
)

type recordingWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		w *recordingWriter
		p *Publisher
	)

	BeforeEach(func() {
		w = &recordingWriter{}
		p = NewPublisherWithWriter(w)
	})

	It("requires brokers", func() {
		_, err := NewPublisher(Config{})
		Expect(err).To(MatchError("kafka brokers are required"))
	})

	It("builds a writer for the configured topic", func() {
		pub, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}})
		Expect(err).NotTo(HaveOccurred())
		writer, ok := pub.writer.(*kafkago.Writer)
		Expect(ok).To(BeTrue())
		Expect(writer.Topic).To(Equal(DefaultTopic))
	})

	It("writes a JSON value keyed by user", func() {
		event := eventstream.NewLinkEvent(eventstream.EventTypeLinkCreated, "l1", "u1", "https://example.com")
		Expect(p.PublishLink(context.Background(), event)).To(Succeed())

		Expect(w.msgs).To(HaveLen(1))
		Expect(string(w.msgs[0].Key)).To(Equal("u1"))

		var decoded eventstream.LinkEvent
		Expect(json.Unmarshal(w.msgs[0].Value, &decoded)).To(Succeed())
		Expect(decoded.LinkID).To(Equal("l1"))
		Expect(decoded.EventType).To(Equal(eventstream.EventTypeLinkCreated))
	})

	It("rejects nil events", func() {
		Expect(p.PublishLink(context.Background(), nil)).To(MatchError(eventstream.ErrNilLinkEvent))
	})

	It("wraps writer failures", func() {
		w.err = errors.New("broker down")
		event := eventstream.NewLinkEvent(eventstream.EventTypeLinkCreated, "l1", "u1", "")
		err := p.PublishLink(context.Background(), event)
		Expect(err).To(MatchError(ContainSubstring("broker down")))
	})

	It("closes the writer", func() {
		Expect(p.Close()).To(Succeed())
		Expect(w.closed).To(BeTrue())
	})
})
