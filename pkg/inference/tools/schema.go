package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// SchemaFor derives the argument schema of In. Definitions are inlined and
// extra properties are tolerated, since models often add harmless keys.
func SchemaFor[In any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	var in In
	schema := reflector.Reflect(in)
	if schema.Type == "" {
		schema.Type = "object"
	}
	return schema
}

// ArgumentError reports arguments that do not match a tool's schema.
type ArgumentError struct {
	Problems []string
}

func (e *ArgumentError) Error() string {
	return "invalid arguments: " + strings.Join(e.Problems, "; ")
}

type typedTool[In any] struct {
	validator *gojsonschema.Schema
	fn        func(ctx context.Context, in In) (interface{}, error)
}

// NewTypedTool wraps fn so that arguments are validated against the schema of
// In before being decoded and handed over.
func NewTypedTool[In any](fn func(ctx context.Context, in In) (interface{}, error)) (Tool, error) {
	schema := SchemaFor[In]()
	// gojsonschema does not know the 2020-12 meta schema invopop stamps on
	schema.Version = ""
	schema.ID = ""

	b, err := json.Marshal(schema)
	if err != nil {
		return nil, errors.Wrap(err, "could not marshal argument schema")
	}
	validator, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
	if err != nil {
		return nil, errors.Wrap(err, "could not compile argument schema")
	}
	return &typedTool[In]{validator: validator, fn: fn}, nil
}

func (t *typedTool[In]) Execute(ctx context.Context, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	result, err := t.validator.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return nil, errors.Wrap(err, "could not validate arguments")
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, &ArgumentError{Problems: problems}
	}

	var in In
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, errors.Wrap(err, "could not decode arguments")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "tool not started")
	}
	return t.fn(ctx, in)
}
