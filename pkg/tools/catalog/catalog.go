// Package catalog turns a tool configuration map into a populated registry.
package catalog

import (
	"path/filepath"
	"sort"

	"github.com/go-go-golems/buddy/pkg/inference/tools"
	"github.com/go-go-golems/buddy/pkg/tools/calendar"
	"github.com/go-go-golems/buddy/pkg/tools/lists"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Catalog maps a tool name to its raw configuration record, as read from
// the `tools:` section of the config file.
type Catalog map[string]map[string]interface{}

type registrar func(r tools.ToolRegistry, raw map[string]interface{}, o *options) error

// ToolNames is the registration order, which is also the order tools appear
// in the system prompt.
var ToolNames = []string{
	lists.AddToListName,
	lists.RemoveFromListName,
	calendar.AddEventName,
	calendar.RemoveEventName,
	calendar.GetEventsName,
	lists.GetListsHeadersName,
	lists.GetListByNameName,
}

var registrars = map[string]registrar{
	lists.AddToListName: func(r tools.ToolRegistry, raw map[string]interface{}, _ *options) error {
		return lists.RegisterAdd(r, raw)
	},
	lists.RemoveFromListName: func(r tools.ToolRegistry, raw map[string]interface{}, _ *options) error {
		return lists.RegisterRemove(r, raw)
	},
	lists.GetListByNameName: func(r tools.ToolRegistry, raw map[string]interface{}, _ *options) error {
		return lists.RegisterGet(r, raw)
	},
	lists.GetListsHeadersName: func(r tools.ToolRegistry, raw map[string]interface{}, _ *options) error {
		return lists.RegisterHeaders(r, raw)
	},
	calendar.AddEventName: func(r tools.ToolRegistry, raw map[string]interface{}, o *options) error {
		return calendar.RegisterAdd(r, raw, o.clock)
	},
	calendar.RemoveEventName: func(r tools.ToolRegistry, raw map[string]interface{}, _ *options) error {
		return calendar.RegisterRemove(r, raw)
	},
	calendar.GetEventsName: func(r tools.ToolRegistry, raw map[string]interface{}, o *options) error {
		return calendar.RegisterGet(r, raw, o.clock)
	},
}

type options struct {
	clock calendar.Clock
}

type Option func(*options)

// WithClock pins the time source of the calendar tools.
func WithClock(c calendar.Clock) Option {
	return func(o *options) { o.clock = c }
}

// Default mirrors the stock configuration: every tool enabled, data files
// under dataDir, an "inbox" default list capped at five items.
func Default(dataDir string) Catalog {
	listFile := filepath.Join(dataDir, "lists.json")
	eventsFile := filepath.Join(dataDir, "events.json")
	return Catalog{
		lists.AddToListName: {
			"list_file_path":    listFile,
			"default_list_name": "inbox",
			"max_list_size":     5,
		},
		lists.RemoveFromListName: {
			"list_file_path":      listFile,
			"allow_audit_logging": true,
		},
		lists.GetListByNameName:   {"list_file_path": listFile},
		lists.GetListsHeadersName: {"list_file_path": listFile},
		calendar.AddEventName:     {"events_file_path": eventsFile},
		calendar.RemoveEventName:  {"events_file_path": eventsFile},
		calendar.GetEventsName:    {"events_file_path": eventsFile},
	}
}

// Build registers every tool present in cat. Unknown names and invalid
// records are reported as a *tools.ConfigurationError before anything runs.
func Build(cat Catalog, opts ...Option) (*tools.InMemoryToolRegistry, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var unknown []string
	for name := range cat {
		if _, ok := registrars[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, tools.NewConfigurationError(unknown[0], "", "unknown tool")
	}

	reg := tools.NewInMemoryToolRegistry()
	for _, name := range ToolNames {
		raw, ok := cat[name]
		if !ok {
			continue
		}
		if raw == nil {
			raw = map[string]interface{}{}
		}
		if err := registrars[name](reg, raw, o); err != nil {
			return nil, errors.Wrapf(err, "could not register %s", name)
		}
		log.Debug().Str("tool", name).Msg("Registered tool")
	}
	return reg, nil
}

// EventsFilePath returns the events file configured for the calendar tools,
// which is what the alert poller watches.
func (c Catalog) EventsFilePath() (string, bool) {
	for _, name := range []string{calendar.AddEventName, calendar.GetEventsName, calendar.RemoveEventName} {
		if raw, ok := c[name]; ok {
			if p, ok := raw["events_file_path"].(string); ok && p != "" {
				return p, true
			}
		}
	}
	return "", false
}
