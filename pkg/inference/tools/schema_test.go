package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scoreArgs struct {
	Name  string `json:"name" jsonschema:"description=Who to score"`
	Score int    `json:"score" jsonschema:"minimum=1,maximum=5"`
	Note  string `json:"note,omitempty"`
}

func TestTypedTool_ValidatesArguments(t *testing.T) {
	tool, err := NewTypedTool(func(ctx context.Context, in scoreArgs) (interface{}, error) {
		return map[string]interface{}{"name": in.Name, "score": in.Score}, nil
	})
	require.NoError(t, err)

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"name":"ana","score":3,"extra":true}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"name": "ana", "score": 3}, out)

	for _, args := range []string{
		`{"name":"ana"}`,
		`{"name":"ana","score":9}`,
		`{"name":"ana","score":"3"}`,
		`{}`,
	} {
		_, err := tool.Execute(context.Background(), json.RawMessage(args))
		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr, args)
		assert.NotEmpty(t, argErr.Problems)
	}
}

func TestTypedTool_SkipsCanceledContext(t *testing.T) {
	calls := 0
	tool, err := NewTypedTool(func(ctx context.Context, in scoreArgs) (interface{}, error) {
		calls++
		return in.Name, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tool.Execute(ctx, json.RawMessage(`{"name":"ana","score":3}`))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestSchemaFor_DescribesProperties(t *testing.T) {
	schema := SchemaFor[scoreArgs]()
	assert.Equal(t, "object", schema.Type)
	require.NotNil(t, schema.Properties)

	_, ok := schema.Properties.Get("score")
	assert.True(t, ok)
	assert.Contains(t, schema.Required, "name")
	assert.NotContains(t, schema.Required, "note")
}
