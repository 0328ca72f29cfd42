package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec()
	require.NoError(t, err)
	return c
}

func requireMalformed(t *testing.T, err error) *ProtocolError {
	t.Helper()
	require.Error(t, err)
	var perr *ProtocolError
	require.True(t, errors.As(err, &perr), "expected ProtocolError, got %T", err)
	assert.Equal(t, KindMalformedJSON, perr.Kind)
	return perr
}

func TestDecode_PlainObject(t *testing.T) {
	c := newTestCodec(t)
	resp, err := c.Decode(`{"response": "Hi!", "tool_calls": []}`)
	require.NoError(t, err)
	assert.Equal(t, "Hi!", resp.Response)
	assert.False(t, resp.End)
	assert.Empty(t, resp.ToolCalls)
	assert.False(t, resp.IsEmpty())
}

func TestDecode_ObjectEmbeddedInProse(t *testing.T) {
	c := newTestCodec(t)

	cases := map[string]string{
		"leading prose":   `Sure thing! {"response": "Done"}`,
		"trailing prose":  "{\"response\": \"Done\"}\nLet me know if you need more.",
		"code fence":      "Here you go:\n```json\n{\"response\": \"Done\"}\n```",
		"braces in prose": `I {think} this works: {"response": "Done"} and {that} is all`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			resp, err := c.Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, "Done", resp.Response)
		})
	}
}

func TestDecode_BracesInsideStrings(t *testing.T) {
	c := newTestCodec(t)
	resp, err := c.Decode(`ok: {"response": "use { and } freely", "thought": "a \"quoted\" }"}`)
	require.NoError(t, err)
	assert.Equal(t, "use { and } freely", resp.Response)
	assert.Equal(t, `a "quoted" }`, resp.Thought)
}

func TestDecode_FailsWithoutObject(t *testing.T) {
	c := newTestCodec(t)
	for _, raw := range []string{"no json here", "", "   ", `"just a string"`, `[1, 2, 3]`, `[{"response": "x"}]`, "{not: json}", "42"} {
		_, err := c.Decode(raw)
		perr := requireMalformed(t, err)
		assert.Equal(t, raw, perr.Raw)
	}
}

func TestDecode_DefaultsAndUnknownKeys(t *testing.T) {
	c := newTestCodec(t)
	resp, err := c.Decode(`{"thought": "hm", "mood": "happy"}`)
	require.NoError(t, err)
	assert.Equal(t, "hm", resp.Thought)
	assert.Equal(t, "", resp.Response)
	assert.NotNil(t, resp.ToolCalls)
	assert.Empty(t, resp.ToolCalls)
	assert.True(t, resp.IsEmpty())
}

func TestDecode_EndFlag(t *testing.T) {
	c := newTestCodec(t)

	resp, err := c.Decode(`{"response": "Bye", "end": true}`)
	require.NoError(t, err)
	assert.True(t, resp.End)

	resp, err = c.Decode(`{"response": "Bye", "end": "True"}`)
	require.NoError(t, err)
	assert.True(t, resp.End)

	resp, err = c.Decode(`{"response": "Bye", "end": "no"}`)
	require.NoError(t, err)
	assert.False(t, resp.End)
}

func TestDecode_ToolCalls(t *testing.T) {
	c := newTestCodec(t)
	resp, err := c.Decode(`{"tool_calls": [{"tool_name": "add_to_list", "arguments": {"item": "milk", "count": 2}}]}`)
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)

	call := resp.ToolCalls[0]
	assert.Equal(t, "add_to_list", call.ToolName)
	assert.Empty(t, call.Malformed)
	assert.Equal(t, "milk", call.Arguments["item"])
	assert.Equal(t, json.Number("2"), call.Arguments["count"])
}

func TestDecode_BadToolCallEntriesDoNotAbortDecode(t *testing.T) {
	c := newTestCodec(t)
	resp, err := c.Decode(`{"response": "x", "tool_calls": [
		{"arguments": {}},
		{"tool_name": "get_lists_headers"},
		{"tool_name": "add_to_list", "arguments": "milk"},
		"oops",
		{"tool_name": "get_lists_headers", "arguments": {}}
	]}`)
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 5)

	assert.Contains(t, resp.ToolCalls[0].Malformed, "missing tool_name")
	assert.Contains(t, resp.ToolCalls[1].Malformed, "missing arguments")
	assert.Equal(t, "add_to_list", resp.ToolCalls[2].ToolName)
	assert.Contains(t, resp.ToolCalls[2].Malformed, "must be an object")
	assert.Contains(t, resp.ToolCalls[3].Malformed, "not an object")
	assert.Empty(t, resp.ToolCalls[4].Malformed)
}

func TestDecode_NonArrayToolCalls(t *testing.T) {
	c := newTestCodec(t)
	resp, err := c.Decode(`{"tool_calls": {"tool_name": "x", "arguments": {}}}`)
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Contains(t, resp.ToolCalls[0].Malformed, "must be an array")
}
