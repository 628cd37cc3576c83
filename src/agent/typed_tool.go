package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	jsonschema "github.com/swaggest/jsonschema-go"

	"github.com/drover-cli/drover/src/aisdk"
)

// TypedHandler is a type-safe handler function. It builds the ToolResponse
// itself so tools can report structured failure (ok=false) together with
// partial output and metadata.
type TypedHandler[TInput any] func(ctx context.Context, input TInput) (*aisdk.ToolResponse, error)

// TypedTool is a tool whose input struct doubles as its JSON schema source.
// The schema is reflected from TInput; required and blank-field checks run
// before the handler is invoked, so handlers see validated input only.
type TypedTool[TInput any] struct {
	name        string
	description string
	schema      *jsonschema.Schema
	validate    *validator.Validate
	handler     TypedHandler[TInput]
}

// NewTypedTool creates a tool with automatic schema generation from TInput.
func NewTypedTool[TInput any](name, description string, handler TypedHandler[TInput]) (Tool, error) {
	var input TInput
	inputType := reflect.TypeOf(input)
	if inputType.Kind() == reflect.Ptr {
		inputType = inputType.Elem()
	}
	if inputType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("tool input type must be a struct, got %s", inputType.Kind())
	}

	reflector := jsonschema.Reflector{}
	schema, err := reflector.Reflect(input)
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema: %w", err)
	}

	return &TypedTool[TInput]{
		name:        name,
		description: description,
		schema:      &schema,
		validate:    validator.New(),
		handler:     handler,
	}, nil
}

// MustNewTypedTool creates a tool and panics on error. Tool definitions are
// static, so a failure here is a programming error caught at startup.
func MustNewTypedTool[TInput any](name, description string, handler TypedHandler[TInput]) Tool {
	tool, err := NewTypedTool(name, description, handler)
	if err != nil {
		panic(fmt.Sprintf("failed to create tool %s: %v", name, err))
	}
	return tool
}

// GetName returns the tool's name.
func (t *TypedTool[TInput]) GetName() string { return t.name }

// GetDescription returns the tool's description.
func (t *TypedTool[TInput]) GetDescription() string { return t.description }

// GetParameters returns the JSON schema for the tool's parameters.
func (t *TypedTool[TInput]) GetParameters() *jsonschema.Schema { return t.schema }

// Execute parses and validates the call arguments, then runs the handler.
// Validation failures become structured error responses, never returned
// errors, so one bad call cannot abort a batch.
func (t *TypedTool[TInput]) Execute(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
	var input TInput
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &input); err != nil {
			return &aisdk.ToolResponse{
				Error:   fmt.Sprintf("failed to parse arguments: %v", err),
				IsError: true,
			}, nil
		}
	}

	if err := t.validateRequired(input); err != nil {
		return &aisdk.ToolResponse{Error: err.Error(), IsError: true}, nil
	}
	if err := t.validate.StructCtx(ctx, input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return &aisdk.ToolResponse{
				Error:   fmt.Sprintf("invalid field '%s': failed '%s' constraint", fieldJSONName(input, e.StructField()), e.Tag()),
				IsError: true,
			}, nil
		}
		return &aisdk.ToolResponse{Error: err.Error(), IsError: true}, nil
	}

	return t.handler(ctx, input)
}

// validateRequired rejects missing or blank required fields with a
// named-field error, per the shared argument-validation policy.
func (t *TypedTool[TInput]) validateRequired(input TInput) error {
	if t.schema == nil || len(t.schema.Required) == 0 {
		return nil
	}
	val := reflect.ValueOf(input)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	typ := val.Type()

	for _, required := range t.schema.Required {
		for i := 0; i < typ.NumField(); i++ {
			jsonName := strings.Split(typ.Field(i).Tag.Get("json"), ",")[0]
			if jsonName != required {
				continue
			}
			field := val.Field(i)
			if field.IsZero() || (field.Kind() == reflect.String && strings.TrimSpace(field.String()) == "") {
				return fmt.Errorf("missing required field '%s'", required)
			}
			break
		}
	}
	return nil
}

// fieldJSONName maps a struct field name back to its JSON tag name.
func fieldJSONName(input any, structField string) string {
	typ := reflect.TypeOf(input)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if f, ok := typ.FieldByName(structField); ok {
		if name := strings.Split(f.Tag.Get("json"), ",")[0]; name != "" {
			return name
		}
	}
	return structField
}

var _ Tool = (*TypedTool[struct{}])(nil)
