// Package calendar provides the event tools (add_event, remove_event,
// get_events) and the store the alert poller scans.
package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-go-golems/buddy/pkg/inference/tools"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	AddEventName    = "add_event"
	RemoveEventName = "remove_event"
	GetEventsName   = "get_events"
)

var (
	AddEventDescriptor = tools.ToolDescriptor{
		Name: AddEventName,
		Description: "Creates an event with time, notification, importance, and description fields. " +
			"The time field can be a specific datetime or a duration from now. " +
			"Datetime is in the format dd/mm/yyyy hh:mm. Duration is in the format HH:MM:SS. " +
			"Importance is a number from 1 to 5.",
		InputFormat: `{"time": "str", "notification": "bool", "importance": "int", "description": "str"}`,
		Parameters:  tools.SchemaFor[AddArgs](),
	}
	RemoveEventDescriptor = tools.ToolDescriptor{
		Name:        RemoveEventName,
		Description: "Removes every event with the given description.",
		InputFormat: `{"description": "str"}`,
		Parameters:  tools.SchemaFor[RemoveArgs](),
	}
	GetEventsDescriptor = tools.ToolDescriptor{
		Name:        GetEventsName,
		Description: "Retrieves events by description or date range.",
		InputFormat: `{"description": "str (optional)", "start_date": "str (optional, format: YYYY-MM-DD)", "end_date": "str (optional, format: YYYY-MM-DD)"}`,
		Parameters:  tools.SchemaFor[GetArgs](),
	}
)

// Config is shared by the event tools.
type Config struct {
	EventsFilePath string `mapstructure:"events_file_path" yaml:"events_file_path"`
}

func (c *Config) Validate() error {
	if c.EventsFilePath == "" {
		return tools.NewConfigurationError("", "events_file_path", "is required")
	}
	return nil
}

type AddArgs struct {
	Time         string `json:"time"`
	Notification bool   `json:"notification,omitempty"`
	Importance   int    `json:"importance,omitempty" jsonschema:"minimum=1,maximum=5"`
	Description  string `json:"description"`
}

type RemoveArgs struct {
	Description string `json:"description"`
}

type GetArgs struct {
	Description string `json:"description,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

func orNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

func NewAddTool(cfg Config, clock Clock) (tools.Tool, error) {
	store := NewStore(cfg.EventsFilePath)
	clock = orNow(clock)
	return tools.NewTypedTool(func(ctx context.Context, in AddArgs) (interface{}, error) {
		if strings.TrimSpace(in.Description) == "" {
			return nil, errors.New("'description' is required")
		}
		when, err := ParseEventTime(in.Time, clock())
		if err != nil {
			return nil, err
		}
		importance := in.Importance
		if importance == 0 {
			importance = 1
		}
		ev, err := store.Add(ctx, Event{
			Time:         when,
			Notification: in.Notification,
			Importance:   importance,
			Description:  in.Description,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("event_id", ev.ID).Str("description", ev.Description).Time("time", ev.Time).Msg("Stored event")
		return ev, nil
	})
}

func NewRemoveTool(cfg Config) (tools.Tool, error) {
	store := NewStore(cfg.EventsFilePath)
	return tools.NewTypedTool(func(ctx context.Context, in RemoveArgs) (interface{}, error) {
		if strings.TrimSpace(in.Description) == "" {
			return nil, errors.New("'description' is required")
		}
		n, err := store.RemoveByDescription(ctx, in.Description)
		if err != nil {
			return nil, err
		}
		log.Info().Str("description", in.Description).Int("removed", n).Msg("Removed events")
		if n == 1 {
			return "Event removed successfully.", nil
		}
		return fmt.Sprintf("Removed %d events.", n), nil
	})
}

func NewGetTool(cfg Config, clock Clock) (tools.Tool, error) {
	store := NewStore(cfg.EventsFilePath)
	clock = orNow(clock)
	return tools.NewTypedTool(func(ctx context.Context, in GetArgs) (interface{}, error) {
		loc := clock().Location()
		from, err := parseDate("start_date", in.StartDate, loc)
		if err != nil {
			return nil, err
		}
		to, err := parseDate("end_date", in.EndDate, loc)
		if err != nil {
			return nil, err
		}
		events, err := store.List(ctx, Filter{Description: in.Description, From: from, To: to})
		if err != nil {
			return nil, err
		}
		log.Debug().Int("events", len(events)).Msg("Retrieved events")
		return events, nil
	})
}

func RegisterAdd(r tools.ToolRegistry, raw map[string]interface{}, clock Clock) error {
	_, err := tools.Register[Config](r, AddEventDescriptor, raw, func(cfg Config) (tools.Tool, error) {
		return NewAddTool(cfg, clock)
	})
	return err
}

func RegisterRemove(r tools.ToolRegistry, raw map[string]interface{}) error {
	_, err := tools.Register[Config](r, RemoveEventDescriptor, raw, NewRemoveTool)
	return err
}

func RegisterGet(r tools.ToolRegistry, raw map[string]interface{}, clock Clock) error {
	_, err := tools.Register[Config](r, GetEventsDescriptor, raw, func(cfg Config) (tools.Tool, error) {
		return NewGetTool(cfg, clock)
	})
	return err
}
