package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-go-golems/buddy/pkg/inference/tools"
	"github.com/rs/zerolog/log"
)

// Decode extracts the TurnResponse from a raw reply. Prose around the JSON
// object is ignored. Tool argument shapes are not checked here.
func (c *Codec) Decode(raw string) (*TurnResponse, error) {
	obj, perr := locateObject(raw)
	if perr != nil {
		return nil, perr
	}
	return coerce(obj), nil
}

func parseJSON(s string) (interface{}, error) {
	d := json.NewDecoder(strings.NewReader(s))
	d.UseNumber()
	var v interface{}
	if err := d.Decode(&v); err != nil {
		return nil, err
	}
	if d.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

func locateObject(raw string) (map[string]interface{}, *ProtocolError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, malformed(raw, "reply is empty", nil)
	}

	// A reply that is valid JSON as a whole must be an object.
	if v, err := parseJSON(trimmed); err == nil {
		obj, ok := v.(map[string]interface{})
		if !ok {
			return nil, malformed(raw, fmt.Sprintf("reply is a JSON %s, expected an object", jsonKind(v)), nil)
		}
		return obj, nil
	}

	for start := strings.IndexByte(raw, '{'); start >= 0; {
		if end := matchingBrace(raw, start); end > 0 {
			if v, err := parseJSON(raw[start : end+1]); err == nil {
				if obj, ok := v.(map[string]interface{}); ok {
					return obj, nil
				}
			}
		}
		next := strings.IndexByte(raw[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	first := strings.IndexByte(raw, '{')
	last := strings.LastIndexByte(raw, '}')
	if first < 0 || last < first {
		return nil, malformed(raw, "no JSON object found in reply", nil)
	}
	v, err := parseJSON(raw[first : last+1])
	if err != nil {
		log.Debug().Err(err).Str("raw", raw).Msg("Could not parse JSON object in reply")
		return nil, malformed(raw, err.Error(), err)
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, malformed(raw, "no JSON object found in reply", nil)
	}
	return obj, nil
}

// matchingBrace returns the index of the brace closing the one at start,
// skipping braces inside JSON strings, or -1.
func matchingBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case []interface{}:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func coerce(obj map[string]interface{}) *TurnResponse {
	ret := &TurnResponse{
		Thought:   textField(obj["thought"]),
		Response:  textField(obj["response"]),
		End:       flagField(obj["end"]),
		ToolCalls: []tools.ToolInvocationRequest{},
	}

	switch calls := obj["tool_calls"].(type) {
	case nil:
	case []interface{}:
		for i, call := range calls {
			ret.ToolCalls = append(ret.ToolCalls, coerceCall(i, call))
		}
	default:
		ret.ToolCalls = append(ret.ToolCalls, tools.ToolInvocationRequest{
			Malformed: fmt.Sprintf("tool_calls must be an array, got a JSON %s", jsonKind(calls)),
		})
	}

	return ret
}

func coerceCall(index int, call interface{}) tools.ToolInvocationRequest {
	entry, ok := call.(map[string]interface{})
	if !ok {
		return tools.ToolInvocationRequest{
			Malformed: fmt.Sprintf("tool call #%d is not an object", index+1),
		}
	}

	name, _ := entry["tool_name"].(string)
	req := tools.ToolInvocationRequest{ToolName: name}
	if name == "" {
		req.Malformed = fmt.Sprintf("tool call #%d is missing tool_name", index+1)
		return req
	}

	switch args := entry["arguments"].(type) {
	case nil:
		req.Malformed = fmt.Sprintf("tool call %s is missing arguments", name)
	case map[string]interface{}:
		req.Arguments = args
	default:
		req.Malformed = fmt.Sprintf("arguments of tool call %s must be an object, got a JSON %s", name, jsonKind(args))
	}
	return req
}

func textField(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(bytes.TrimSpace(b))
	}
}

func flagField(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	default:
		return false
	}
}
