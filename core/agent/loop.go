package agent

import (
	"context"

	"github.com/mudler/xlog"
	"github.com/pchaganti/px-zuckerman-sub001/core/types"
	"golang.org/x/sync/errgroup"
)

// Run processes one incoming message until an action stops the loop, the
// arbitrator has nothing to decide or the iteration cap is reached. It
// always produces a response.
func (a *Agent) Run(ctx context.Context, req types.RunRequest) types.RunResult {
	r := a.newRun(ctx, req)

	r.obs = a.observer.NewObservable()
	r.obs.Name = "run"
	r.obs.Icon = "play"
	r.obs.Agent = r.agentID
	r.obs.RunID = r.id

	a.conversations.AddMessage(r.conversationID, types.RoleUser, r.message, types.MessageMeta{RunID: r.id})

	xlog.Info("run started", "agent", r.agentID, "run", r.id, "conversation", r.conversationID)

	reason := a.loop(ctx, r)
	a.saveTree(r)

	result := types.RunResult{
		RunID:      r.id,
		Iterations: r.iteration,
		StopReason: reason,
		Memory:     r.memory.State(),
	}
	if msg, ok := a.lastRunResponse(r); ok {
		result.Response = msg.Content
	} else {
		result.Response = a.options.fallbackResponse
		result.Fallback = true
	}

	r.obs.AddProgress(types.Progress{Result: result.Response, Memory: &result.Memory})
	r.obs.MakeLastProgressCompletion()
	a.observer.Update(*r.obs)

	xlog.Info("run finished", "run", r.id, "iterations", r.iteration, "reason", reason, "fallback", result.Fallback)
	return result
}

func (a *Agent) loop(ctx context.Context, r *run) types.StopReason {
	for r.iteration < a.options.maxIterations {
		if ctx.Err() != nil {
			xlog.Warn("run context closed, stopping", "run", r.id, "error", ctx.Err())
			return types.StopContextClosed
		}
		r.iteration++

		delta := a.transcriptDelta(r)
		snapshot, err := a.renderSnapshot(r, delta)
		if err != nil {
			xlog.Warn("state snapshot failed, stopping", "run", r.id, "error", err)
			return types.StopNoDecision
		}

		proposals := a.evaluate(ctx, r, snapshot)
		decision := a.arbitrator.Arbitrate(ctx, proposals, snapshot)
		a.report(r, proposals, decision)
		if decision == nil {
			xlog.Debug("no decision, stopping", "run", r.id, "iteration", r.iteration)
			return types.StopNoDecision
		}

		for i, kind := range decision.Actions {
			if reason, stop := a.execute(ctx, r, kind, decision.PayloadFor(i)); stop {
				return reason
			}
		}

		r.memory.Update(decision.StateUpdates)
	}

	xlog.Warn("iteration cap reached, stopping", "run", r.id, "max_iterations", a.options.maxIterations)
	return types.StopIterationCap
}

// transcriptDelta returns the entries added since the previous iteration.
// The first iteration sees at most the history window.
func (a *Agent) transcriptDelta(r *run) []types.Message {
	conv := a.conversations.GetConversation(r.conversationID)
	if r.cursor > len(conv) {
		// the log was trimmed underneath us
		r.cursor = 0
	}

	start := r.cursor
	if start == 0 && a.options.historyWindow > 0 && len(conv) > a.options.historyWindow {
		start = len(conv) - a.options.historyWindow
	}
	r.cursor = len(conv)
	return conv[start:]
}

// evaluate consults every evaluator concurrently and waits for all of
// them. Absent proposals are dropped; the order of the result follows the
// evaluator order.
func (a *Agent) evaluate(ctx context.Context, r *run, snapshot string) []types.Proposal {
	results := make([]*types.Proposal, len(a.evaluators))

	var g errgroup.Group
	for i, e := range a.evaluators {
		g.Go(func() error {
			results[i] = e.Evaluate(ctx, r.message, snapshot)
			return nil
		})
	}
	_ = g.Wait()

	proposals := []types.Proposal{}
	for _, p := range results {
		if p != nil && p.Contributes() {
			proposals = append(proposals, *p)
		}
	}
	xlog.Debug("proposals collected", "run", r.id, "iteration", r.iteration, "count", len(proposals))
	return proposals
}

func (a *Agent) report(r *run, proposals []types.Proposal, decision *types.Decision) {
	obs := a.observer.NewObservable()
	obs.ParentID = r.obs.ID
	obs.Agent = r.agentID
	obs.RunID = r.id
	obs.Name = "iteration"
	obs.Icon = "brain"
	mem := r.memory.State()
	obs.AddProgress(types.Progress{Proposals: proposals, Decision: decision, Memory: &mem})
	a.observer.Update(*obs)
}

// lastRunResponse is the most recent assistant text written during this
// run.
func (a *Agent) lastRunResponse(r *run) (types.Message, bool) {
	conv := a.conversations.GetConversation(r.conversationID)
	own := []types.Message{}
	for _, m := range conv {
		if m.RunID == r.id {
			own = append(own, m)
		}
	}
	return types.LastAssistantMessage(own)
}
