package events

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// EventSink receives session events. Publishing is best-effort: callers log
// or drop errors, they never abort a turn because of them.
type EventSink interface {
	PublishEvent(event Event) error
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(event Event) error

func (f SinkFunc) PublishEvent(event Event) error {
	return f(event)
}

// NullSink discards all events.
type NullSink struct{}

func NewNullSink() *NullSink {
	return &NullSink{}
}

func (n *NullSink) PublishEvent(Event) error {
	return nil
}

var (
	_ EventSink = (*NullSink)(nil)
	_ EventSink = SinkFunc(nil)
)

// WatermillSink serializes events as JSON messages on a watermill topic.
// Session, turn and event type are copied into the message metadata so
// handlers can filter without decoding the payload.
type WatermillSink struct {
	publisher message.Publisher
	topic     string
}

func NewWatermillSink(publisher message.Publisher, topic string) *WatermillSink {
	return &WatermillSink{
		publisher: publisher,
		topic:     topic,
	}
}

func (w *WatermillSink) PublishEvent(event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrapf(err, "could not marshal %s event", event.Type())
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	meta := event.Metadata()
	msg.Metadata.Set(metaKeyEventType, string(event.Type()))
	if meta.SessionID != "" {
		msg.Metadata.Set(metaKeySessionID, meta.SessionID)
	}
	if meta.TurnID != "" {
		msg.Metadata.Set(metaKeyTurnID, meta.TurnID)
	}

	if err := w.publisher.Publish(w.topic, msg); err != nil {
		log.Error().Err(err).Str("topic", w.topic).Msg("Failed to publish event")
		return errors.Wrapf(err, "could not publish to %s", w.topic)
	}

	log.Trace().Str("topic", w.topic).Str("event_type", string(event.Type())).Msg("Published event")
	return nil
}

var _ EventSink = (*WatermillSink)(nil)
