package action

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mudler/xlog"
	"github.com/pchaganti/px-zuckerman-sub001/core/types"
	"github.com/sashabaranov/go-openai"
)

var (
	ErrToolExists   = errors.New("tool already registered")
	ErrToolNotFound = errors.New("tool not found")
)

type toolContextKey struct{}

// WithToolContext attaches the run coordinates to ctx for tools that need
// them.
func WithToolContext(ctx context.Context, tc types.ToolContext) context.Context {
	return context.WithValue(ctx, toolContextKey{}, tc)
}

func ToolContextFrom(ctx context.Context) (types.ToolContext, bool) {
	tc, ok := ctx.Value(toolContextKey{}).(types.ToolContext)
	return tc, ok
}

// Registry is the in-process tool collaborator.
type Registry struct {
	mu    sync.RWMutex
	tools types.Tools
}

func NewRegistry(tools ...types.Tool) (*Registry, error) {
	r := &Registry{}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(t types.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Definition().Name.String()
	if r.tools.Find(name) != nil {
		return fmt.Errorf("%w: %s", ErrToolExists, name)
	}
	r.tools = append(r.tools, t)
	return nil
}

func (r *Registry) Tools() types.Tools {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append(types.Tools{}, r.tools...)
}

// ExecuteTools runs the calls in order. Failures are reported per call in
// the result, they never abort the remaining calls.
func (r *Registry) ExecuteTools(ctx context.Context, tc types.ToolContext, calls []openai.ToolCall) []types.ToolResult {
	ctx = WithToolContext(ctx, tc)
	tools := r.Tools()

	results := make([]types.ToolResult, 0, len(calls))
	for _, call := range calls {
		content, err := runCall(ctx, tools, call)
		res := types.ToolResult{ToolCallID: call.ID, Content: content}
		if err != nil {
			xlog.Warn("tool call failed", "tool", call.Function.Name, "run", tc.RunID, "error", err)
			res.Error = err.Error()
			res.Content = fmt.Sprintf("Error running tool %s: %s", call.Function.Name, err.Error())
		}
		results = append(results, res)
	}
	return results
}

func runCall(ctx context.Context, tools types.Tools, call openai.ToolCall) (string, error) {
	tool := tools.Find(call.Function.Name)
	if tool == nil {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, call.Function.Name)
	}

	params := types.ActionParams{}
	if args := strings.TrimSpace(call.Function.Arguments); args != "" {
		if err := params.Read(args); err != nil {
			return "", fmt.Errorf("invalid arguments for %s: %w", call.Function.Name, err)
		}
	}

	xlog.Debug("running tool", "tool", call.Function.Name, "params", params.String())
	return tool.Run(ctx, params)
}
