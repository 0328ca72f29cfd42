// Package alerts turns due calendar events into session notes.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/go-go-golems/buddy/pkg/tools/calendar"
	"github.com/rs/zerolog/log"
)

const DefaultInterval = 5 * time.Second

// TimeLayout is how event times are written into alert notes.
const TimeLayout = "2006-01-02 15:04"

// NoteSink receives alert notes. *session.Session implements it.
type NoteSink interface {
	AddNote(text string)
}

// Poller periodically marks due events as notified and queues a note for
// each of them.
type Poller struct {
	store    *calendar.Store
	notes    NoteSink
	interval time.Duration
	clock    func() time.Time
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(p *Poller) {
		if clock != nil {
			p.clock = clock
		}
	}
}

func NewPoller(store *calendar.Store, notes NoteSink, opts ...Option) *Poller {
	p := &Poller{
		store:    store,
		notes:    notes,
		interval: DefaultInterval,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AlertText renders the note queued for ev.
func AlertText(ev calendar.Event, loc *time.Location) string {
	return fmt.Sprintf("ALERT: Event '%s' at time %s is happening now or has passed!",
		ev.Description, ev.Time.In(loc).Format(TimeLayout))
}

// Check runs a single scan and returns the number of alerts raised.
func (p *Poller) Check(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	now := p.clock()
	due, err := p.store.MarkDue(ctx, now)
	if err != nil {
		return 0, err
	}
	for _, ev := range due {
		log.Info().Str("event_id", ev.ID).Str("description", ev.Description).Msg("Event is due")
		p.notes.AddNote(AlertText(ev, now.Location()))
	}
	return len(due), nil
}

// Run scans immediately and then on every tick until ctx is canceled.
// Scan failures are logged and retried on the next tick.
func (p *Poller) Run(ctx context.Context) error {
	log.Debug().Str("path", p.store.Path()).Dur("interval", p.interval).Msg("Starting alert poller")
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.Check(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Str("path", p.store.Path()).Msg("Alert scan failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
