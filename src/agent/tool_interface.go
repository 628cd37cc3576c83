package agent

import (
	"context"

	jsonschema "github.com/swaggest/jsonschema-go"

	"github.com/drover-cli/drover/src/aisdk"
)

// Tool is a local capability the model may invoke. Implementations report
// failures through the ToolResponse; a returned error means the tool could
// not run at all (launch-level failure) and is converted to a structured
// result by the executor.
type Tool interface {
	GetName() string
	GetDescription() string
	GetParameters() *jsonschema.Schema
	Execute(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error)
}
