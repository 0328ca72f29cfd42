package tools

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool() Tool {
	return ToolFunc(func(ctx context.Context, args json.RawMessage) (interface{}, error) {
		return string(args), nil
	})
}

func TestRegistry_DescribeAllKeepsInsertionOrder(t *testing.T) {
	reg := NewInMemoryToolRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := reg.RegisterTool(ToolDescriptor{Name: name, Description: name + " tool"}, echoTool())
		require.NoError(t, err)
	}

	first := reg.DescribeAll()
	second := reg.DescribeAll()
	require.Len(t, first, 3)
	assert.Equal(t, "zeta", first[0].Name)
	assert.Equal(t, "alpha", first[1].Name)
	assert.Equal(t, "mid", first[2].Name)
	assert.Equal(t, first, second)
	assert.Equal(t, 3, reg.Count())
}

func TestRegistry_RejectsDuplicateAndEmptyNames(t *testing.T) {
	reg := NewInMemoryToolRegistry()
	_, err := reg.RegisterTool(ToolDescriptor{Name: "echo"}, echoTool())
	require.NoError(t, err)

	_, err = reg.RegisterTool(ToolDescriptor{Name: "echo"}, echoTool())
	require.Error(t, err)

	_, err = reg.RegisterTool(ToolDescriptor{}, echoTool())
	require.Error(t, err)

	_, err = reg.RegisterTool(ToolDescriptor{Name: "nil"}, nil)
	require.Error(t, err)
}

func TestRegistry_ResolveIsTotal(t *testing.T) {
	reg := NewInMemoryToolRegistry()
	_, err := reg.RegisterTool(ToolDescriptor{Name: "echo"}, echoTool())
	require.NoError(t, err)

	h, ok := reg.Resolve("echo")
	require.True(t, ok)
	assert.Equal(t, "echo", h.Name())

	h, ok = reg.Resolve("missing")
	assert.False(t, ok)
	assert.Nil(t, h)
	assert.False(t, reg.HasTool("missing"))
}

func TestRegistry_DescriptorsAreCopies(t *testing.T) {
	reg := NewInMemoryToolRegistry()
	_, err := reg.RegisterTool(ToolDescriptor{Name: "echo", Description: "original"}, echoTool())
	require.NoError(t, err)

	descs := reg.DescribeAll()
	descs[0].Description = "mutated"

	assert.Equal(t, "original", reg.DescribeAll()[0].Description)
}

func TestRegistry_ConcurrentResolveAndExecute(t *testing.T) {
	reg := NewInMemoryToolRegistry()
	_, err := reg.RegisterTool(ToolDescriptor{Name: "echo"}, echoTool())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, ok := reg.Resolve("echo")
			if !ok {
				t.Error("echo should resolve")
				return
			}
			if _, err := h.Execute(context.Background(), json.RawMessage(`{}`)); err != nil {
				t.Error(err)
			}
			_ = reg.DescribeAll()
		}()
	}
	wg.Wait()
}

type greeterConfig struct {
	Greeting string `mapstructure:"greeting"`
	Repeat   int    `mapstructure:"repeat"`
}

func (c *greeterConfig) Validate() error {
	if c.Greeting == "" {
		return NewConfigurationError("", "greeting", "is required")
	}
	if c.Repeat <= 0 {
		return NewConfigurationError("", "repeat", "must be positive")
	}
	return nil
}

func buildGreeter(built *bool) func(cfg greeterConfig) (Tool, error) {
	return func(cfg greeterConfig) (Tool, error) {
		*built = true
		return ToolFunc(func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			return cfg.Greeting, nil
		}), nil
	}
}

func TestRegister_ValidatesConfigurationEagerly(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]interface{}
		field string
	}{
		{name: "missing field", raw: map[string]interface{}{"repeat": 1}, field: "greeting"},
		{name: "bad value", raw: map[string]interface{}{"greeting": "hi", "repeat": 0}, field: "repeat"},
		{name: "wrong type", raw: map[string]interface{}{"greeting": "hi", "repeat": "two"}},
		{name: "unknown key", raw: map[string]interface{}{"greeting": "hi", "repeat": 1, "colour": "red"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewInMemoryToolRegistry()
			built := false
			_, err := Register[greeterConfig](reg, ToolDescriptor{Name: "greeter"}, tt.raw, buildGreeter(&built))
			require.Error(t, err)

			var cerr *ConfigurationError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, "greeter", cerr.Tool)
			if tt.field != "" {
				assert.Equal(t, tt.field, cerr.Field)
			}
			assert.False(t, built)
			assert.Equal(t, 0, reg.Count())
		})
	}
}

func TestRegister_BuildsAndRegistersValidTool(t *testing.T) {
	reg := NewInMemoryToolRegistry()
	built := false
	h, err := Register[greeterConfig](reg, ToolDescriptor{Name: "greeter"},
		map[string]interface{}{"greeting": "hello", "repeat": 2}, buildGreeter(&built))
	require.NoError(t, err)
	assert.True(t, built)

	out, err := h.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}
