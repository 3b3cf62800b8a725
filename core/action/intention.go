package action

import (
	"github.com/pchaganti/px-zuckerman-sub001/core/types"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// CallToolPayload picks a tool and its arguments.
type CallToolPayload struct {
	Tool      string             `json:"tool"`
	Arguments types.ActionParams `json:"arguments"`
	Reasoning string             `json:"reasoning"`
}

// CallToolDefinition restricts the tool name to the given tools when any
// are known.
func CallToolDefinition(tools ...string) types.ActionDefinition {
	return types.ActionDefinition{
		Name:        types.ActionDefinitionName(types.ActionCallTool),
		Description: "Call one of the available tools",
		Properties: map[string]jsonschema.Definition{
			"tool": {
				Type:        jsonschema.String,
				Description: "The tool you want to use",
				Enum:        tools,
			},
			"arguments": {
				Type:        jsonschema.Object,
				Description: "The arguments of the tool, following its parameter schema",
			},
			"reasoning": {
				Type:        jsonschema.String,
				Description: "Why this tool is needed now",
			},
		},
		Required: []string{"tool"},
	}
}
