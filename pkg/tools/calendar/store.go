package calendar

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-go-golems/buddy/pkg/tools/filestore"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Event is one stored calendar entry.
type Event struct {
	ID           string    `json:"id" yaml:"id"`
	Time         time.Time `json:"time" yaml:"time"`
	Notification bool      `json:"notification" yaml:"notification"`
	Importance   int       `json:"importance" yaml:"importance"`
	Description  string    `json:"description" yaml:"description"`
	Notified     bool      `json:"notified" yaml:"notified"`
}

// naiveLayout reads the zone-less ISO timestamps of older events files,
// with or without fractional seconds.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// UnmarshalJSON also reads events files written before ids and zones were
// stored: a zone-less time is taken in local time and has_passed is read as
// notified.
func (e *Event) UnmarshalJSON(b []byte) error {
	type alias Event
	aux := struct {
		*alias
		Time      string `json:"time"`
		HasPassed *bool  `json:"has_passed,omitempty"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	t, err := parseStoredTime(aux.Time)
	if err != nil {
		return err
	}
	e.Time = t
	if aux.HasPassed != nil && *aux.HasPassed {
		e.Notified = true
	}
	return nil
}

func parseStoredTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("event has no time")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(naiveLayout, s, time.Local)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid event time %q", s)
	}
	return t, nil
}

// Due reports whether the event should raise an alert at now.
func (e Event) Due(now time.Time) bool {
	return e.Notification && !e.Notified && !e.Time.After(now)
}

var ErrNoMatchingEvent = errors.New("no matching event found")

// Store keeps events as a JSON array in a single file.
type Store struct {
	file *filestore.JSONFile[[]Event]
}

func NewStore(path string) *Store {
	return &Store{file: filestore.NewJSONFile[[]Event](path)}
}

func (s *Store) Path() string {
	return s.file.Path()
}

// Add stores ev, assigning an id when it has none.
func (s *Store) Add(ctx context.Context, ev Event) (Event, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	err := s.file.Update(ctx, func(doc *[]Event) error {
		*doc = append(*doc, ev)
		return nil
	})
	return ev, err
}

// RemoveByDescription removes every event whose description equals
// description and returns how many were removed.
func (s *Store) RemoveByDescription(ctx context.Context, description string) (int, error) {
	removed := 0
	err := s.file.Update(ctx, func(doc *[]Event) error {
		kept := make([]Event, 0, len(*doc))
		for _, ev := range *doc {
			if ev.Description == description {
				removed++
				continue
			}
			kept = append(kept, ev)
		}
		if removed == 0 {
			return ErrNoMatchingEvent
		}
		*doc = kept
		return nil
	})
	return removed, err
}

// Filter selects events. Zero values match everything; dates are inclusive
// and compared by calendar day in the location of From/To.
type Filter struct {
	Description string
	From        *time.Time
	To          *time.Time
}

func (f Filter) matches(ev Event) bool {
	if f.Description != "" && !strings.Contains(strings.ToLower(ev.Description), strings.ToLower(f.Description)) {
		return false
	}
	if f.From != nil && dayOf(ev.Time, f.From.Location()).Before(*f.From) {
		return false
	}
	if f.To != nil && dayOf(ev.Time, f.To.Location()).After(*f.To) {
		return false
	}
	return true
}

func dayOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// List returns the events matching f in stored order.
func (s *Store) List(ctx context.Context, f Filter) ([]Event, error) {
	doc, err := s.file.Load(ctx)
	if err != nil {
		return nil, err
	}
	ret := []Event{}
	for _, ev := range doc {
		if f.matches(ev) {
			ret = append(ret, ev)
		}
	}
	return ret, nil
}

// MarkDue flags every event that is due at now as notified and returns them.
// Nothing is written when no event is due.
func (s *Store) MarkDue(ctx context.Context, now time.Time) ([]Event, error) {
	var due []Event
	err := s.file.Update(ctx, func(doc *[]Event) error {
		for i := range *doc {
			if (*doc)[i].Due(now) {
				(*doc)[i].Notified = true
				due = append(due, (*doc)[i])
			}
		}
		if len(due) == 0 {
			return filestore.ErrUnchanged
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return due, nil
}
