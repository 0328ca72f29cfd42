package toolloop

import (
	"context"

	"github.com/go-go-golems/buddy/pkg/events"
	"github.com/go-go-golems/buddy/pkg/inference/engine"
	"github.com/go-go-golems/buddy/pkg/inference/protocol"
	"github.com/go-go-golems/buddy/pkg/inference/tools"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Outcome is what a completed turn hands back to its caller.
type Outcome struct {
	// Response is the only text meant for the user.
	Response string
	End      bool
	Thought  string

	ModelCalls  int
	ToolResults []tools.ToolExecutionResult
}

// Loop drives one turn at a time: call the model, decode, run tools and feed
// their results back until the model answers the user.
// A Loop holds no per-turn state and may be shared by sessions.
type Loop struct {
	eng        engine.Engine
	registry   tools.ToolRegistry
	dispatcher tools.ToolDispatcher
	codec      *protocol.Codec
	loopCfg    LoopConfig

	snapshotHook SnapshotHook
}

type Option func(*Loop)

func New(opts ...Option) *Loop {
	l := &Loop{
		loopCfg: DefaultLoopConfig(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.codec == nil {
		// the built-in template always parses
		l.codec, _ = protocol.NewCodec()
	}
	if l.dispatcher == nil {
		l.dispatcher = tools.NewDefaultToolDispatcher(tools.DefaultDispatchConfig())
	}
	return l
}

func WithEngine(eng engine.Engine) Option {
	return func(l *Loop) { l.eng = eng }
}

func WithRegistry(reg tools.ToolRegistry) Option {
	return func(l *Loop) { l.registry = reg }
}

func WithDispatcher(d tools.ToolDispatcher) Option {
	return func(l *Loop) { l.dispatcher = d }
}

func WithCodec(c *protocol.Codec) Option {
	return func(l *Loop) { l.codec = c }
}

func WithLoopConfig(cfg LoopConfig) Option {
	return func(l *Loop) { l.loopCfg = cfg }
}

func WithSnapshotHook(h SnapshotHook) Option {
	return func(l *Loop) { l.snapshotHook = h }
}

func (l *Loop) Registry() tools.ToolRegistry {
	return l.registry
}

func (l *Loop) snapshot(ctx context.Context, snap Snapshot) {
	if l.snapshotHook != nil {
		l.snapshotHook(ctx, snap)
		return
	}
	if h, ok := SnapshotHookFromContext(ctx); ok {
		h(ctx, snap)
	}
}

func (l *Loop) validate() error {
	if l == nil {
		return errors.New("tool loop is nil")
	}
	if l.eng == nil {
		return errors.New("tool loop engine is nil")
	}
	if l.registry == nil {
		return errors.New("tool loop registry is nil")
	}
	if l.codec == nil {
		return errors.New("tool loop codec is nil")
	}
	return nil
}

// turnState is the mutable state of a single RunTurn call.
type turnState struct {
	state   State
	logger  zerolog.Logger
	retries int
	rounds  int
	out     *Outcome
	// history holds every reply after which the turn went on, with our answer to it.
	history []protocol.Exchange
}

func (l *Loop) transition(ctx context.Context, ts *turnState, to State) {
	if ts.state == to {
		return
	}
	ts.logger.Debug().Str("from", ts.state.String()).Str("to", to.String()).Msg("toolloop: state change")
	events.PublishEventToContext(ctx, events.NewStateChangeEvent(events.MetadataFromContext(ctx), ts.state.String(), to.String()))
	ts.state = to
}

func (l *Loop) fail(ctx context.Context, ts *turnState, err error) (*Outcome, error) {
	ts.logger.Error().Err(err).Int("model_calls", ts.out.ModelCalls).Msg("toolloop: turn failed")
	events.PublishEventToContext(ctx, events.NewErrorEvent(events.MetadataFromContext(ctx), err))
	l.transition(ctx, ts, StateTurnComplete)
	return ts.out, err
}

// RunTurn runs one turn for input, which already carries any session notes.
// Only transport failures, exhausted corrective retries and the tool round
// cap end a turn with an error; everything else is fed back to the model.
func (l *Loop) RunTurn(ctx context.Context, input string) (*Outcome, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	meta := events.MetadataFromContext(ctx)
	if meta.TurnID == "" {
		meta.TurnID = uuid.NewString()
		ctx = events.WithMetadata(ctx, meta)
	}

	ts := &turnState{
		state:  StateAwaitingModel,
		logger: log.With().Str("session_id", meta.SessionID).Str("turn_id", meta.TurnID).Logger(),
		out:    &Outcome{},
	}

	systemPrompt, err := l.codec.RenderPrompt(l.registry.DescribeAll())
	if err != nil {
		return l.fail(ctx, ts, err)
	}

	events.PublishEventToContext(ctx, events.NewTurnStartEvent(events.MetadataFromContext(ctx), input))
	next := input

	for {
		l.transition(ctx, ts, StateAwaitingModel)
		ts.out.ModelCalls++
		call := ts.out.ModelCalls
		l.snapshot(ctx, Snapshot{Phase: "pre_call", Call: call, State: ts.state, Input: next})

		ts.logger.Debug().Int("call", call).Int("input_len", len(next)).Msg("toolloop: calling model")
		raw, err := l.eng.Call(ctx, systemPrompt, next)
		if err != nil {
			var terr *engine.TransportError
			if !errors.As(err, &terr) {
				err = engine.NewTransportError("engine", err)
			}
			return l.fail(ctx, ts, err)
		}
		events.PublishEventToContext(ctx, events.NewModelReplyEvent(events.MetadataFromContext(ctx), raw, call))
		l.snapshot(ctx, Snapshot{Phase: "post_call", Call: call, State: ts.state, Input: next, Raw: raw})

		l.transition(ctx, ts, StateHandlingResponse)
		resp, perr := l.decode(raw)
		if perr != nil {
			ts.retries++
			ts.logger.Warn().
				Str("kind", string(perr.Kind)).
				Str("reason", perr.Reason).
				Int("attempt", ts.retries).
				Msg("toolloop: unreadable model reply")
			events.PublishEventToContext(ctx, events.NewProtocolErrorEvent(
				events.MetadataFromContext(ctx), string(perr.Kind), perr.Reason, ts.retries))

			if ts.retries > l.loopCfg.MaxCorrectiveRetries {
				return l.fail(ctx, ts, &RetriesExhaustedError{Attempts: ts.retries, Last: perr})
			}
			next = l.followUp(ts, input, raw, l.codec.RenderCorrection(perr))
			continue
		}
		ts.retries = 0

		if resp.Thought != "" {
			ts.out.Thought = resp.Thought
			ts.logger.Debug().Str("thought", resp.Thought).Msg("toolloop: model thought")
		}

		if resp.HasToolCalls() {
			ts.rounds++
			if l.loopCfg.MaxToolRounds > 0 && ts.rounds > l.loopCfg.MaxToolRounds {
				return l.fail(ctx, ts, errors.Wrapf(ErrMaxToolRounds, "after %d rounds", l.loopCfg.MaxToolRounds))
			}
			if resp.Response != "" {
				ts.logger.Debug().Str("response", resp.Response).Msg("toolloop: holding back response while tools are pending")
			}

			l.transition(ctx, ts, StateExecutingTools)
			results := l.dispatcher.Dispatch(ctx, resp.ToolCalls, l.registry)
			ts.out.ToolResults = append(ts.out.ToolResults, results...)
			l.snapshot(ctx, Snapshot{Phase: "post_tools", Call: call, State: ts.state, Raw: raw, Results: results})

			report, err := l.codec.RenderToolReport(results)
			if err != nil {
				return l.fail(ctx, ts, err)
			}
			next = l.followUp(ts, input, raw, report)
			continue
		}

		ts.out.Response = resp.Response
		ts.out.End = resp.End
		l.transition(ctx, ts, StateTurnComplete)
		events.PublishEventToContext(ctx, events.NewFinalEvent(events.MetadataFromContext(ctx), resp.Response, resp.End))
		ts.logger.Info().
			Int("model_calls", ts.out.ModelCalls).
			Int("tool_results", len(ts.out.ToolResults)).
			Bool("end", resp.End).
			Msg("toolloop: turn complete")
		return ts.out, nil
	}
}

// followUp records the exchange and builds the next model input. Stateless
// transports get the whole turn replayed; stateful ones only the new message.
func (l *Loop) followUp(ts *turnState, request string, raw string, message string) string {
	ts.history = append(ts.history, protocol.Exchange{Reply: raw, Message: message})
	if l.loopCfg.StatefulTransport {
		return message
	}
	return l.codec.RenderFollowUp(request, ts.history)
}

// decode turns a raw reply into a response, treating a reply with neither
// response nor tool calls like an unreadable one.
func (l *Loop) decode(raw string) (*protocol.TurnResponse, *protocol.ProtocolError) {
	resp, err := l.codec.Decode(raw)
	if err != nil {
		var perr *protocol.ProtocolError
		if errors.As(err, &perr) {
			return nil, perr
		}
		return nil, &protocol.ProtocolError{Kind: protocol.KindMalformedJSON, Reason: err.Error(), Raw: raw}
	}
	if resp.IsEmpty() {
		return nil, protocol.NewEmptyResponseError(raw)
	}
	return resp, nil
}
