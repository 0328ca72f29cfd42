package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-go-golems/buddy/pkg/inference/tools"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(descs []tools.ToolDescriptor) []string {
	ret := make([]string, 0, len(descs))
	for _, d := range descs {
		ret = append(ret, d.Name)
	}
	return ret
}

func TestBuild_DefaultCatalogRegistersAllInOrder(t *testing.T) {
	reg, err := Build(Default(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, ToolNames, names(reg.DescribeAll()))
}

func TestBuild_OnlyConfiguredTools(t *testing.T) {
	dir := t.TempDir()
	cat := Catalog{
		"get_list_by_name": {"list_file_path": filepath.Join(dir, "lists.json")},
		"add_to_list": {
			"list_file_path":    filepath.Join(dir, "lists.json"),
			"default_list_name": "inbox",
			"max_list_size":     3,
		},
	}
	reg, err := Build(cat)
	require.NoError(t, err)
	assert.Equal(t, []string{"add_to_list", "get_list_by_name"}, names(reg.DescribeAll()))
}

func TestBuild_UnknownToolIsConfigurationError(t *testing.T) {
	_, err := Build(Catalog{"launch_rockets": {}})
	var cerr *tools.ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "launch_rockets", cerr.Tool)
}

func TestBuild_InvalidRecordFailsEagerly(t *testing.T) {
	cat := Default(t.TempDir())
	cat["add_to_list"]["max_list_size"] = 0

	_, err := Build(cat)
	var cerr *tools.ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "add_to_list", cerr.Tool)
	assert.Equal(t, "max_list_size", cerr.Field)
}

func TestBuild_ToolsShareFiles(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
	reg, err := Build(Default(t.TempDir()), WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	d := tools.NewDefaultToolDispatcher(tools.DefaultDispatchConfig())
	results := d.Dispatch(context.Background(), []tools.ToolInvocationRequest{
		{ToolName: "add_to_list", Arguments: map[string]interface{}{"item": "milk"}},
		{ToolName: "get_lists_headers", Arguments: map[string]interface{}{}},
		{ToolName: "add_event", Arguments: map[string]interface{}{"time": "00:05:00", "description": "tea"}},
		{ToolName: "get_events", Arguments: map[string]interface{}{"description": "tea"}},
	}, reg)
	require.Len(t, results, 4)
	for _, r := range results {
		require.False(t, r.Failed(), "%s: %v", r.ToolName, r.Output)
	}
	assert.Equal(t, "Success: Added 'milk' to 'inbox'.", results[0].Output)
	assert.Equal(t, []string{"inbox"}, results[1].Output)
}

func TestCatalog_EventsFilePath(t *testing.T) {
	p, ok := Default("/data").EventsFilePath()
	require.True(t, ok)
	assert.Equal(t, filepath.Join("/data", "events.json"), p)

	_, ok = Catalog{"add_to_list": {}}.EventsFilePath()
	assert.False(t, ok)
}
