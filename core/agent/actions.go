package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/mudler/xlog"
	"github.com/pchaganti/px-zuckerman-sub001/core/action"
	"github.com/pchaganti/px-zuckerman-sub001/core/planning"
	"github.com/pchaganti/px-zuckerman-sub001/core/tactical"
	"github.com/pchaganti/px-zuckerman-sub001/core/types"
	"github.com/pchaganti/px-zuckerman-sub001/pkg/llm"
	"github.com/sashabaranov/go-openai"
)

// execute runs one decided action. The boolean is true when the loop must
// stop, with the reason why.
func (a *Agent) execute(ctx context.Context, r *run, kind types.ActionKind, payload types.ActionParams) (types.StopReason, bool) {
	xlog.Debug("executing action", "run", r.id, "action", kind, "payload", payload.String())

	switch kind {
	case types.ActionRespond:
		return a.handleRespond(ctx, r, payload)
	case types.ActionCallTool:
		a.handleCallTool(ctx, r, payload)
		return "", false
	case types.ActionDecompose:
		a.handleDecompose(ctx, r, payload)
		return "", false
	case types.ActionTermination:
		var p action.TerminationPayload
		_ = payload.Unmarshal(&p)
		xlog.Debug("termination requested", "run", r.id, "reason", p.Reason)
		return types.StopTerminated, true
	}

	xlog.Warn("unknown action skipped", "action", kind)
	return "", false
}

// handleRespond writes the reply. A reply generated by the reasoner may
// instead ask for tools; those run and the loop goes on.
func (a *Agent) handleRespond(ctx context.Context, r *run, payload types.ActionParams) (types.StopReason, bool) {
	var p action.RespondPayload
	if err := payload.Unmarshal(&p); err != nil {
		xlog.Warn("malformed respond payload, generating reply", "error", err)
	}

	if msg := strings.TrimSpace(p.Message); msg != "" {
		a.say(r, msg)
		return types.StopResponded, true
	}

	resp, err := a.reasoner.Call(ctx, a.responseRequest(r))
	if err != nil {
		xlog.Warn("reply generation failed", "run", r.id, "error", err)
		return types.StopResponded, true
	}

	if len(resp.ToolCalls) > 0 && a.tools != nil {
		a.runToolCalls(ctx, r, resp.Content, resp.ToolCalls)
		return "", false
	}

	if strings.TrimSpace(resp.Content) != "" {
		a.say(r, resp.Content)
	}
	return types.StopResponded, true
}

func (a *Agent) say(r *run, content string) {
	a.conversations.AddMessage(r.conversationID, types.RoleAssistant, content, types.MessageMeta{RunID: r.id})
}

func (a *Agent) responseRequest(r *run) llm.Request {
	conv := types.Window(a.conversations.GetConversation(r.conversationID), a.options.historyWindow)

	messages := []openai.ChatCompletionMessage{}
	if system := a.responseSystemPrompt(r); system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: types.RoleSystem, Content: system})
	}
	messages = append(messages, types.ToOpenAI(conv)...)

	req := llm.Request{
		Messages:    messages,
		Temperature: a.options.responseTemperature,
		MaxTokens:   a.options.responseMaxTokens,
	}
	if a.tools != nil {
		req.Tools = a.tools.Tools().ToTools()
	}
	return req
}

// handleCallTool runs the tool named by the payload and advances the
// in-flight task with its outcome.
func (a *Agent) handleCallTool(ctx context.Context, r *run, payload types.ActionParams) {
	var p action.CallToolPayload
	if err := payload.Unmarshal(&p); err != nil || p.Tool == "" {
		xlog.Warn("call_tool without a usable tool name", "payload", payload.String(), "error", err)
		return
	}
	if a.tools == nil {
		xlog.Warn("call_tool decided but no tool executor configured", "tool", p.Tool)
		a.advanceTask(ctx, r, types.ToolResult{Error: "no tool executor configured"})
		return
	}

	args := "{}"
	if len(p.Arguments) > 0 {
		args = p.Arguments.String()
	}
	call := openai.ToolCall{
		ID:   "call_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      p.Tool,
			Arguments: args,
		},
	}
	results := a.runToolCalls(ctx, r, "", []openai.ToolCall{call})
	if len(results) > 0 {
		a.advanceTask(ctx, r, results[0])
	}
}

// runToolCalls records the assistant tool-call message, executes the calls
// and records one tool message per result.
func (a *Agent) runToolCalls(ctx context.Context, r *run, content string, calls []openai.ToolCall) []types.ToolResult {
	a.conversations.AddMessage(r.conversationID, types.RoleAssistant, content, types.MessageMeta{ToolCalls: calls, RunID: r.id})

	results := a.tools.ExecuteTools(ctx, types.ToolContext{
		AgentID:        r.agentID,
		ConversationID: r.conversationID,
		RunID:          r.id,
	}, calls)

	for _, res := range results {
		a.conversations.AddMessage(r.conversationID, types.RoleTool, res.Content, types.MessageMeta{ToolCallID: res.ToolCallID, RunID: r.id})
	}

	obs := a.observer.NewObservable()
	obs.ParentID = r.obs.ID
	obs.Agent = r.agentID
	obs.RunID = r.id
	obs.Name = "tools"
	obs.Icon = "wrench"
	for _, res := range results {
		obs.AddProgress(types.Progress{Result: res.Content, Error: res.Error})
	}
	a.observer.Update(*obs)

	return results
}

// advanceTask completes the current step of the in-flight task on success.
// On failure the task fails and the contingency may add a fallback task.
func (a *Agent) advanceTask(ctx context.Context, r *run, res types.ToolResult) {
	task := r.executor.Current()
	if task == nil {
		return
	}

	if res.Error == "" {
		if _, err := r.executor.CompleteCurrentStep(res.Content); err != nil && !errors.Is(err, tactical.ErrNoPendingStep) {
			xlog.Warn("could not complete step", "task", task.ID, "error", err)
		}
		if !r.executor.Remaining() {
			if err := r.executor.CompleteExecution(task.ID, res.Content); err != nil {
				xlog.Warn("could not complete task", "task", task.ID, "error", err)
			}
			a.startNextTask(ctx, r)
		}
		a.saveTree(r)
		return
	}

	if _, err := r.executor.FailCurrentStep(res.Error); err != nil {
		xlog.Warn("could not record step failure", "task", task.ID, "error", err)
	}
	if err := r.executor.FailExecution(task.ID, res.Error); err != nil {
		xlog.Warn("could not fail task", "task", task.ID, "error", err)
	}

	if failed, ok := r.tree.Node(task.ID); ok {
		if fallback := a.contingency.HandleFailure(ctx, failed, res.Error); fallback != nil {
			if _, err := r.tree.AddNode(fallback, fallback.ParentID); err != nil {
				xlog.Warn("could not add fallback task", "task", task.ID, "error", err)
			}
		}
	}
	a.startNextTask(ctx, r)
	a.saveTree(r)
}

// startNextTask moves the executor to the next pending task, if any.
func (a *Agent) startNextTask(ctx context.Context, r *run) {
	if r.executor.Current() != nil {
		return
	}
	next := r.tree.NextReadyTask()
	if next == nil {
		return
	}
	if err := r.executor.StartExecution(next); err != nil {
		xlog.Warn("could not start task", "task", next.ID, "error", err)
		return
	}
	if err := r.executor.Decompose(ctx); err != nil {
		xlog.Warn("could not decompose task", "task", next.ID, "error", err)
	}
}

// handleDecompose adds a goal and its tasks to the plan and starts the
// first ready task. Decomposing an open goal again replans it: its pending
// work is dropped, completed and in-flight tasks stay.
func (a *Agent) handleDecompose(ctx context.Context, r *run, payload types.ActionParams) {
	var p action.DecomposePayload
	if err := payload.Unmarshal(&p); err != nil {
		xlog.Warn("malformed decompose payload", "error", err)
		return
	}
	title := strings.TrimSpace(p.Goal)
	if title == "" {
		title = r.message
	}

	goalID := openGoal(r.tree, title)
	if goalID != "" {
		if err := r.tree.ClearChildren(goalID, true); err != nil {
			xlog.Warn("could not clear goal for replanning", "goal", goalID, "error", err)
			return
		}
		if err := r.tree.SetMetadata(goalID, "replannedBy", r.id); err != nil {
			xlog.Warn("could not mark goal as replanned", "goal", goalID, "error", err)
		}
		xlog.Debug("replanning goal", "run", r.id, "goal", goalID)
	} else {
		parentID := ""
		if root := r.tree.Root(); root != nil {
			parentID = root.ID
		}

		goal := planning.NewGoal("", title)
		goal.Description = p.Description
		goal.Order = a.nextOrder(r, parentID)
		goal.Metadata = map[string]interface{}{tactical.MetaSource: string(types.ActionDecompose), "runId": r.id}
		var err error
		if goalID, err = r.tree.AddNode(goal, parentID); err != nil {
			xlog.Warn("could not add goal", "goal", title, "error", err)
			return
		}
	}

	tasks := p.Tasks
	if len(tasks) == 0 {
		tasks = []action.PlanTask{{Title: title, Description: p.Description}}
	}
	// Orders keep growing across decompositions so the execution path
	// follows creation order.
	base := maxOrder(r.tree) + 1
	for i, pt := range tasks {
		if strings.TrimSpace(pt.Title) == "" {
			continue
		}
		t := planning.NewTask("", pt.Title)
		t.Description = pt.Description
		t.Order = base + i
		t.Task.Urgency = a.taskUrgency(r, pt.Urgency)
		t.Task.Priority = min(max(pt.Priority, 0), 10)
		t.Metadata = map[string]interface{}{tactical.MetaSource: string(types.ActionDecompose)}
		if _, err := r.tree.AddNode(t, goalID); err != nil {
			xlog.Warn("could not add task", "task", pt.Title, "error", err)
		}
	}
	if err := r.tree.UpdateNodeStatus(goalID, planning.StatusActive); err != nil {
		xlog.Warn("could not activate goal", "goal", goalID, "error", err)
	}
	if err := r.tree.UpdateParentProgress(goalID); err != nil {
		xlog.Warn("could not recompute goal progress", "goal", goalID, "error", err)
	}

	xlog.Info("plan decomposed", "run", r.id, "goal", title, "tasks", len(tasks))

	a.startNextTask(ctx, r)
	a.saveTree(r)
}

// openGoal returns the id of a pending or active goal with the given
// title, compared case-insensitively.
func openGoal(tree *planning.Tree, title string) string {
	id := ""
	walkPlan(tree, func(n *planning.Node, depth int) {
		if id != "" || !n.IsGoal() || !strings.EqualFold(strings.TrimSpace(n.Title), title) {
			return
		}
		if s := n.Status(); s == planning.StatusPending || s == planning.StatusActive {
			id = n.ID
		}
	})
	return id
}

func maxOrder(tree *planning.Tree) int {
	highest := 0
	walkPlan(tree, func(n *planning.Node, depth int) {
		highest = max(highest, n.Order)
	})
	return highest
}

func (a *Agent) nextOrder(r *run, parentID string) int {
	if parentID == "" {
		return 0
	}
	parent, ok := r.tree.Node(parentID)
	if !ok {
		return 0
	}
	return len(parent.Children)
}

func (a *Agent) taskUrgency(r *run, u types.Urgency) types.Urgency {
	if u.Valid() {
		return u
	}
	if r.attention != nil && r.attention.Alerting.Urgency.Valid() {
		return r.attention.Alerting.Urgency
	}
	return types.UrgencyMedium
}

func (a *Agent) responseSystemPrompt(r *run) string {
	prompt, err := renderResponsePrompt(a.options.systemPrompt, r)
	if err != nil {
		xlog.Warn("response prompt failed", "error", err)
		return a.options.systemPrompt
	}
	return prompt
}
