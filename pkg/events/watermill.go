package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/lithammer/shortuuid/v3"
	"github.com/rs/zerolog"
)

const (
	metaKeySessionID     = "session_id"
	metaKeyTurnID        = "turn_id"
	metaKeyEventType     = "event_type"
	metaKeyCorrelationID = "correlation_id"
)

// zerologAdapter routes watermill's internal logging into zerolog.
type zerologAdapter struct {
	logger zerolog.Logger
}

var _ watermill.LoggerAdapter = (*zerologAdapter)(nil)

// NewZerologAdapter wraps logger for use by watermill routers and pubsubs.
func NewZerologAdapter(logger zerolog.Logger) watermill.LoggerAdapter {
	return &zerologAdapter{logger: logger}
}

func (z *zerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	z.logger.Error().Fields(map[string]interface{}(fields)).Err(err).Msg(msg)
}

// Info is logged at debug level; the router reports every handler start at info.
func (z *zerologAdapter) Info(msg string, fields watermill.LogFields) {
	z.logger.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (z *zerologAdapter) Debug(msg string, fields watermill.LogFields) {
	z.logger.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (z *zerologAdapter) Trace(msg string, fields watermill.LogFields) {
	z.logger.Trace().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (z *zerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &zerologAdapter{logger: z.logger.With().Fields(map[string]interface{}(fields)).Logger()}
}

// correlatingPublisher makes sure every message carries a correlation id.
// Session messages use their session id; anything else gets a generated one.
type correlatingPublisher struct {
	message.Publisher
}

func (c correlatingPublisher) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		if msg.Metadata.Get(metaKeyCorrelationID) != "" {
			continue
		}
		id := msg.Metadata.Get(metaKeySessionID)
		if id == "" {
			id = "gen_" + shortuuid.New()
		}
		msg.Metadata.Set(metaKeyCorrelationID, id)
	}
	return c.Publisher.Publish(topic, messages...)
}
