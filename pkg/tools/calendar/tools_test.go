package calendar

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-go-golems/buddy/pkg/inference/tools"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func exec(t *testing.T, tool tools.Tool, args string) (interface{}, error) {
	t.Helper()
	return tool.Execute(context.Background(), json.RawMessage(args))
}

func newEventTools(t *testing.T) (cfg Config, add, remove, get tools.Tool) {
	t.Helper()
	cfg = Config{EventsFilePath: filepath.Join(t.TempDir(), "events.json")}
	var err error
	add, err = NewAddTool(cfg, fixedClock)
	require.NoError(t, err)
	remove, err = NewRemoveTool(cfg)
	require.NoError(t, err)
	get, err = NewGetTool(cfg, fixedClock)
	require.NoError(t, err)
	return
}

func TestParseEventTime(t *testing.T) {
	got, err := ParseEventTime("25/12/2024 09:15", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 25, 9, 15, 0, 0, time.UTC), got)

	got, err = ParseEventTime("01:30:15", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(time.Hour+30*time.Minute+15*time.Second), got)

	got, err = ParseEventTime("48:00:00", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(48*time.Hour), got)

	for _, bad := range []string{"", "tomorrow", "2024-12-25", "1:2", "aa:bb:cc", "-1:00:00"} {
		_, err := ParseEventTime(bad, fixedNow)
		assert.Error(t, err, bad)
	}
}

func TestAddEvent_StoresRecord(t *testing.T) {
	ctx := context.Background()
	cfg, add, _, _ := newEventTools(t)

	out, err := exec(t, add, `{"time": "00:10:00", "notification": true, "importance": 4, "description": "call mom"}`)
	require.NoError(t, err)
	ev, ok := out.(Event)
	require.True(t, ok)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, fixedNow.Add(10*time.Minute), ev.Time)
	assert.True(t, ev.Notification)
	assert.Equal(t, 4, ev.Importance)
	assert.False(t, ev.Notified)

	stored, err := NewStore(cfg.EventsFilePath).List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, ev.ID, stored[0].ID)
	assert.True(t, ev.Time.Equal(stored[0].Time))
}

func TestAddEvent_DefaultsAndValidation(t *testing.T) {
	_, add, _, _ := newEventTools(t)

	out, err := exec(t, add, `{"time": "10/03/2024 08:00", "description": "dentist"}`)
	require.NoError(t, err)
	assert.Equal(t, 1, out.(Event).Importance)
	assert.False(t, out.(Event).Notification)

	_, err = exec(t, add, `{"time": "10/03/2024 08:00", "description": "x", "importance": 9}`)
	var argErr *tools.ArgumentError
	assert.True(t, errors.As(err, &argErr), "got %v", err)

	_, err = exec(t, add, `{"time": "10/03/2024 08:00", "description": "x", "importance": "high"}`)
	assert.True(t, errors.As(err, &argErr), "got %v", err)

	_, err = exec(t, add, `{"time": "soon", "description": "x"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid time")

	_, err = exec(t, add, `{"time": "00:01:00", "description": ""}`)
	assert.EqualError(t, err, "'description' is required")
}

func TestRemoveEvent(t *testing.T) {
	_, add, remove, get := newEventTools(t)
	for _, d := range []string{"gym", "gym", "dinner"} {
		_, err := exec(t, add, `{"time": "01:00:00", "description": "`+d+`"}`)
		require.NoError(t, err)
	}

	out, err := exec(t, remove, `{"description": "gym"}`)
	require.NoError(t, err)
	assert.Equal(t, "Removed 2 events.", out)

	out, err = exec(t, remove, `{"description": "dinner"}`)
	require.NoError(t, err)
	assert.Equal(t, "Event removed successfully.", out)

	_, err = exec(t, remove, `{"description": "dinner"}`)
	assert.ErrorIs(t, err, ErrNoMatchingEvent)

	remaining, err := exec(t, get, `{}`)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestGetEvents_Filters(t *testing.T) {
	_, add, _, get := newEventTools(t)
	for _, a := range []string{
		`{"time": "08/03/2024 10:00", "description": "Team standup"}`,
		`{"time": "09/03/2024 18:00", "description": "Dinner with Ana"}`,
		`{"time": "12/03/2024 09:00", "description": "standup retro"}`,
	} {
		_, err := exec(t, add, a)
		require.NoError(t, err)
	}

	descriptions := func(out interface{}) []string {
		var ret []string
		for _, ev := range out.([]Event) {
			ret = append(ret, ev.Description)
		}
		return ret
	}

	out, err := exec(t, get, `{"description": "STANDUP"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Team standup", "standup retro"}, descriptions(out))

	out, err = exec(t, get, `{"start_date": "2024-03-09"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dinner with Ana", "standup retro"}, descriptions(out))

	out, err = exec(t, get, `{"start_date": "2024-03-08", "end_date": "2024-03-09"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Team standup", "Dinner with Ana"}, descriptions(out))

	out, err = exec(t, get, `{"description": "nothing"}`)
	require.NoError(t, err)
	assert.Equal(t, []Event{}, out)

	_, err = exec(t, get, `{"end_date": "March 9"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end_date")
}

func TestStore_MarkDue(t *testing.T) {
	ctx := context.Background()
	store := NewStore(filepath.Join(t.TempDir(), "events.json"))
	_, err := store.Add(ctx, Event{Time: fixedNow.Add(-time.Minute), Notification: true, Description: "past"})
	require.NoError(t, err)
	_, err = store.Add(ctx, Event{Time: fixedNow.Add(time.Hour), Notification: true, Description: "future"})
	require.NoError(t, err)
	_, err = store.Add(ctx, Event{Time: fixedNow.Add(-time.Hour), Notification: false, Description: "silent"})
	require.NoError(t, err)

	due, err := store.MarkDue(ctx, fixedNow)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "past", due[0].Description)
	assert.True(t, due[0].Notified)

	due, err = store.MarkDue(ctx, fixedNow)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = store.MarkDue(ctx, fixedNow.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "future", due[0].Description)
}

func TestRegister_EventsFilePathRequired(t *testing.T) {
	reg := tools.NewInMemoryToolRegistry()
	err := RegisterAdd(reg, map[string]interface{}{"event_files_path": "events.json"}, fixedClock)
	var cerr *tools.ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, AddEventName, cerr.Tool)

	err = RegisterRemove(reg, map[string]interface{}{})
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "events_file_path", cerr.Field)

	require.NoError(t, RegisterGet(reg, map[string]interface{}{"events_file_path": "events.json"}, nil))
	assert.True(t, reg.HasTool(GetEventsName))
}

func TestStore_ReadsLegacyEventsFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.json")
	legacy := `[
  {"time": "2024-03-09T14:30:00", "notification": true, "importance": 3, "description": "standup", "has_passed": false},
  {"time": "2024-03-10T08:00:00.123456", "notification": true, "importance": 1, "description": "dentist", "has_passed": false},
  {"time": "2024-03-08T09:00:00", "notification": true, "importance": 2, "description": "old", "has_passed": true}
]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))
	store := NewStore(path)

	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, time.Date(2024, 3, 9, 14, 30, 0, 0, time.Local).Equal(all[0].Time))
	assert.Equal(t, 123456000, all[1].Time.Nanosecond())
	assert.Equal(t, 3, all[0].Importance)
	assert.True(t, all[2].Notified)

	due, err := store.MarkDue(ctx, time.Date(2024, 3, 9, 15, 0, 0, 0, time.Local))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "standup", due[0].Description)

	n, err := store.RemoveByDescription(ctx, "dentist")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// rewritten in the current format and still readable
	all, err = store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Notified)
}

func TestStore_RejectsBadEventTime(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"time": "tomorrow", "description": "x"}]`), 0o644))
	_, err := NewStore(path).List(ctx, Filter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tomorrow")
}
