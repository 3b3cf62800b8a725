package types

import (
	"context"
	"encoding/json"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// ActionParams is an opaque JSON object: decision payloads, proposal
// payloads and tool arguments all travel in this form.
type ActionParams map[string]interface{}

func (ap ActionParams) Read(s string) error {
	err := json.Unmarshal([]byte(s), &ap)
	return err
}

func (ap ActionParams) String() string {
	b, _ := json.Marshal(ap)
	return string(b)
}

func (ap ActionParams) Unmarshal(v interface{}) error {
	b, err := json.Marshal(ap)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return err
	}
	return nil
}

// NewActionParams converts any JSON-marshallable value into params.
func NewActionParams(v interface{}) (ActionParams, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	ap := ActionParams{}
	if err := json.Unmarshal(b, &ap); err != nil {
		return nil, err
	}
	return ap, nil
}

type ActionDefinition struct {
	Properties  map[string]jsonschema.Definition
	Required    []string
	Name        ActionDefinitionName
	Description string
}

type ActionDefinitionName string

func (a ActionDefinitionName) Is(name string) bool {
	return string(a) == name
}

func (a ActionDefinitionName) String() string {
	return string(a)
}

func (a ActionDefinition) Schema() jsonschema.Definition {
	return jsonschema.Definition{
		Type:       jsonschema.Object,
		Properties: a.Properties,
		Required:   a.Required,
	}
}

func (a ActionDefinition) ToFunctionDefinition() *openai.FunctionDefinition {
	return &openai.FunctionDefinition{
		Name:        a.Name.String(),
		Description: a.Description,
		Parameters:  a.Schema(),
	}
}

// Tool is something the tool collaborator can execute on behalf of the
// agent.
type Tool interface {
	Run(ctx context.Context, params ActionParams) (string, error)
	Definition() ActionDefinition
}

type Tools []Tool

func (t Tools) ToTools() []openai.Tool {
	tools := []openai.Tool{}
	for _, tool := range t {
		tools = append(tools, openai.Tool{
			Type:     openai.ToolTypeFunction,
			Function: tool.Definition().ToFunctionDefinition(),
		})
	}
	return tools
}

func (t Tools) Find(name string) Tool {
	for _, tool := range t {
		if tool.Definition().Name.Is(name) {
			return tool
		}
	}
	return nil
}

// ToolContext carries the run coordinates into a tool execution.
type ToolContext struct {
	AgentID        string
	ConversationID string
	RunID          string
}

type ToolResult struct {
	ToolCallID string `json:"toolCallId"`
	Content    string `json:"content"`
	// Error is set when the tool failed; Content then holds a readable
	// rendering of it.
	Error string `json:"error,omitempty"`
}

type ToolExecutor interface {
	ExecuteTools(ctx context.Context, tc ToolContext, calls []openai.ToolCall) []ToolResult
	Tools() Tools
}
