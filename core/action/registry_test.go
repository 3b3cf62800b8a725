package action_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/pchaganti/px-zuckerman-sub001/core/action"
	"github.com/pchaganti/px-zuckerman-sub001/core/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

func weatherTool() types.Tool {
	return NewFuncTool(types.ActionDefinition{
		Name:        "get_weather",
		Description: "get current weather",
		Properties: map[string]jsonschema.Definition{
			"location": {Type: jsonschema.String},
		},
		Required: []string{"location"},
	}, func(ctx context.Context, params types.ActionParams) (string, error) {
		tc, _ := ToolContextFrom(ctx)
		return fmt.Sprintf("sunny in %v (run %s)", params["location"], tc.RunID), nil
	})
}

func failingTool() types.Tool {
	return NewFuncTool(types.ActionDefinition{Name: "explode"}, func(ctx context.Context, params types.ActionParams) (string, error) {
		return "", errors.New("boom")
	})
}

func call(id, name, args string) openai.ToolCall {
	return openai.ToolCall{
		ID:       id,
		Type:     openai.ToolTypeFunction,
		Function: openai.FunctionCall{Name: name, Arguments: args},
	}
}

var _ = Describe("Registry", func() {
	var r *Registry

	BeforeEach(func() {
		var err error
		r, err = NewRegistry(weatherTool(), failingTool())
		Expect(err).ToNot(HaveOccurred())
	})

	It("refuses duplicate tool names", func() {
		Expect(r.Register(weatherTool())).To(MatchError(ErrToolExists))
	})

	It("runs tools with the run coordinates in context", func() {
		results := r.ExecuteTools(context.Background(), types.ToolContext{RunID: "run-1"}, []openai.ToolCall{
			call("c1", "get_weather", `{"location":"Boston"}`),
		})
		Expect(results).To(Equal([]types.ToolResult{{ToolCallID: "c1", Content: "sunny in Boston (run run-1)"}}))
	})

	It("reports failures per call without aborting the rest", func() {
		results := r.ExecuteTools(context.Background(), types.ToolContext{}, []openai.ToolCall{
			call("c1", "explode", ""),
			call("c2", "missing", "{}"),
			call("c3", "get_weather", `not json`),
			call("c4", "get_weather", `{"location":"Milan"}`),
		})
		Expect(results).To(HaveLen(4))
		Expect(results[0].Error).To(Equal("boom"))
		Expect(results[0].Content).To(ContainSubstring("explode"))
		Expect(results[1].Error).To(ContainSubstring("tool not found"))
		Expect(results[2].Error).To(ContainSubstring("invalid arguments"))
		Expect(results[3].Error).To(BeEmpty())
		Expect(results[3].Content).To(HavePrefix("sunny in Milan"))
	})

	It("exposes tools as openai function tools", func() {
		tools := r.Tools().ToTools()
		Expect(tools).To(HaveLen(2))
		Expect(tools[0].Function.Name).To(Equal("get_weather"))
	})
})

var _ = Describe("Definitions", func() {
	It("describes every action kind", func() {
		defs := Definitions(types.Tools{weatherTool()})
		names := []string{}
		for _, d := range defs {
			names = append(names, d.Name.String())
			Expect(types.ActionKind(d.Name).Valid()).To(BeTrue())
		}
		Expect(names).To(Equal([]string{"respond", "decompose", "call_tool", "termination"}))
		Expect(defs[2].Properties["tool"].Enum).To(Equal([]string{"get_weather"}))
	})

	It("decodes a decompose payload", func() {
		params := types.ActionParams{
			"goal": "ship release",
			"tasks": []interface{}{
				map[string]interface{}{"title": "tag", "urgency": "high", "priority": 3},
			},
		}
		var p DecomposePayload
		Expect(params.Unmarshal(&p)).To(Succeed())
		Expect(p.Goal).To(Equal("ship release"))
		Expect(p.Tasks).To(Equal([]PlanTask{{Title: "tag", Urgency: types.UrgencyHigh, Priority: 3}}))
	})
})
