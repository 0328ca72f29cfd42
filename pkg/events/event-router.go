package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// TopicSession is the default topic session events are published on.
const TopicSession = "buddy.session"

// EventRouter fans session events out to handlers over an in-process
// watermill pubsub. Publishing blocks until every subscriber has acked, so
// handler output is ordered with the turn that produced it.
type EventRouter struct {
	logger     watermill.LoggerAdapter
	Publisher  message.Publisher
	Subscriber message.Subscriber
	router     *message.Router
	verbose    bool
	out        io.Writer
}

type EventRouterOption func(*EventRouter)

func WithLogger(logger watermill.LoggerAdapter) EventRouterOption {
	return func(r *EventRouter) {
		r.logger = logger
	}
}

// WithVerbose keeps event metadata in raw dumps and logs watermill activity.
func WithVerbose(verbose bool) EventRouterOption {
	return func(r *EventRouter) {
		r.verbose = verbose
		if verbose {
			r.logger = NewZerologAdapter(log.Logger)
		}
	}
}

// WithOutput sets where DumpRawEvents writes.
func WithOutput(w io.Writer) EventRouterOption {
	return func(r *EventRouter) {
		r.out = w
	}
}

func NewEventRouter(options ...EventRouterOption) (*EventRouter, error) {
	r := &EventRouter{
		logger: watermill.NopLogger{},
		out:    os.Stdout,
	}
	for _, o := range options {
		o(r)
	}

	pubSub := gochannel.NewGoChannel(gochannel.Config{
		BlockPublishUntilSubscriberAck: true,
	}, r.logger)
	r.Publisher = correlatingPublisher{Publisher: pubSub}
	r.Subscriber = pubSub

	router, err := message.NewRouter(message.RouterConfig{}, r.logger)
	if err != nil {
		return nil, errors.Wrap(err, "could not create event router")
	}
	r.router = router
	return r, nil
}

// Sink returns an EventSink publishing onto TopicSession.
func (r *EventRouter) Sink() EventSink {
	return NewWatermillSink(r.Publisher, TopicSession)
}

// AddHandler registers a consumer for topic. Handlers must be added before Run.
func (r *EventRouter) AddHandler(name string, topic string, f func(msg *message.Message) error) {
	r.router.AddNoPublisherHandler(name, topic, r.Subscriber, f)
}

// DumpRawEvents prints each event as indented JSON. Outside verbose mode the
// metadata block is collapsed to the event id.
func (r *EventRouter) DumpRawEvents(msg *message.Message) error {
	defer msg.Ack()

	var doc map[string]interface{}
	if err := json.Unmarshal(msg.Payload, &doc); err != nil {
		return errors.Wrap(err, "could not decode event")
	}
	if !r.verbose {
		if meta, ok := doc["meta"].(map[string]interface{}); ok {
			doc["id"] = meta["message_id"]
		}
		delete(doc, "meta")
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.out, string(b))
	return err
}

func (r *EventRouter) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running is closed once all handlers are subscribed.
func (r *EventRouter) Running() chan struct{} {
	return r.router.Running()
}

// Close shuts down the pubsub and the router. Failures are logged, not returned.
func (r *EventRouter) Close() error {
	if err := r.Publisher.Close(); err != nil {
		log.Warn().Err(err).Msg("Could not close event pubsub")
	}
	if err := r.router.Close(); err != nil {
		log.Warn().Err(err).Msg("Could not close event router")
	}
	return nil
}
