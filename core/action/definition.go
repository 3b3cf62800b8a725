// Package action describes the payload of every decision action and hosts
// the tool registry the agent executes tool calls with.
package action

import (
	"context"

	"github.com/pchaganti/px-zuckerman-sub001/core/types"
)

// Definitions returns the payload schema of every action kind, in the order
// they are presented to the arbitrator.
func Definitions(tools types.Tools) []types.ActionDefinition {
	return []types.ActionDefinition{
		RespondDefinition(),
		DecomposeDefinition(),
		CallToolDefinition(toolNames(tools)...),
		TerminationDefinition(),
	}
}

func toolNames(tools types.Tools) []string {
	names := []string{}
	for _, t := range tools {
		names = append(names, t.Definition().Name.String())
	}
	return names
}

// FuncTool adapts a function into a Tool.
type FuncTool struct {
	definition types.ActionDefinition
	run        func(ctx context.Context, params types.ActionParams) (string, error)
}

func NewFuncTool(def types.ActionDefinition, run func(ctx context.Context, params types.ActionParams) (string, error)) *FuncTool {
	return &FuncTool{definition: def, run: run}
}

func (f *FuncTool) Run(ctx context.Context, params types.ActionParams) (string, error) {
	return f.run(ctx, params)
}

func (f *FuncTool) Definition() types.ActionDefinition {
	return f.definition
}
