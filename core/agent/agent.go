// Package agent drives the per-turn decision loop: attention, advisory
// evaluation, arbitration and execution of the decided actions.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mudler/xlog"
	"github.com/pchaganti/px-zuckerman-sub001/core/arbitrator"
	"github.com/pchaganti/px-zuckerman-sub001/core/attention"
	"github.com/pchaganti/px-zuckerman-sub001/core/conversations"
	"github.com/pchaganti/px-zuckerman-sub001/core/evaluators"
	"github.com/pchaganti/px-zuckerman-sub001/core/memory"
	"github.com/pchaganti/px-zuckerman-sub001/core/planning"
	"github.com/pchaganti/px-zuckerman-sub001/core/tactical"
	"github.com/pchaganti/px-zuckerman-sub001/core/types"
	"github.com/pchaganti/px-zuckerman-sub001/pkg/llm"
)

var (
	ErrNoReasoner        = errors.New("a reasoner is required")
	ErrNoEvaluators      = errors.New("at least one evaluator is required")
	ErrInvalidIterations = errors.New("max iterations must be at least 1")
)

type Agent struct {
	options *options

	reasoner      llm.Reasoner
	attention     *attention.Controller
	evaluators    []evaluators.Evaluator
	arbitrator    *arbitrator.Arbitrator
	decomposer    tactical.StepDecomposer
	contingency   *tactical.Contingency
	conversations types.ConversationLog
	tools         types.ToolExecutor
	observer      Observer
}

func New(reasoner llm.Reasoner, opts ...Option) (*Agent, error) {
	if reasoner == nil {
		return nil, ErrNoReasoner
	}

	options, err := newOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to set options: %w", err)
	}

	a := &Agent{
		options:       options,
		reasoner:      reasoner,
		attention:     options.attention,
		evaluators:    options.evaluators,
		decomposer:    options.decomposer,
		contingency:   tactical.NewContingency(reasoner),
		conversations: options.conversations,
		tools:         options.tools,
		observer:      options.observer,
	}

	if len(a.evaluators) == 0 {
		if len(options.evaluatorNames) > 0 {
			if a.evaluators, err = evaluators.ByName(reasoner, options.evaluatorNames...); err != nil {
				return nil, err
			}
		} else {
			a.evaluators = evaluators.Defaults(reasoner)
		}
	}
	if len(a.evaluators) == 0 {
		return nil, ErrNoEvaluators
	}

	if a.attention == nil && !options.disableAttention {
		a.attention = attention.NewController(reasoner, options.attentionSettings...)
	}
	if options.disableAttention {
		a.attention = nil
	}

	if a.decomposer == nil {
		a.decomposer = tactical.NewDecomposer(reasoner)
	}
	if a.conversations == nil {
		a.conversations = conversations.NewTracker(0)
	}
	if a.observer == nil {
		a.observer = noopObserver{}
	}

	arbitratorOpts := []arbitrator.Option{}
	if a.tools != nil {
		arbitratorOpts = append(arbitratorOpts, arbitrator.WithTools(a.tools.Tools()))
	}
	a.arbitrator = arbitrator.New(reasoner, arbitratorOpts...)

	return a, nil
}

func (a *Agent) Name() string {
	return a.options.name
}

// Conversations exposes the transcript the agent writes to.
func (a *Agent) Conversations() types.ConversationLog {
	return a.conversations
}

// Attention returns the controller, nil when attention is disabled.
func (a *Agent) Attention() *attention.Controller {
	return a.attention
}

// run is the state of one Run call. It is owned by a single goroutine.
type run struct {
	id             string
	agentID        string
	conversationID string
	message        string

	memory   *memory.Manager
	tree     *planning.Tree
	executor *tactical.Executor

	attention  *types.AttentionState
	allocation types.Allocation

	// cursor is the transcript length already shown to the loop.
	cursor    int
	iteration int

	obs *types.Observable
}

func (a *Agent) newRun(ctx context.Context, req types.RunRequest) *run {
	r := &run{
		id:             req.RunID,
		agentID:        req.AgentID,
		conversationID: req.ConversationID,
		message:        req.Message,
		memory:         memory.NewManager(),
		tree:           planning.NewTree(),
	}
	if r.id == "" {
		r.id = uuid.New().String()
	}
	if r.agentID == "" {
		r.agentID = a.options.name
	}
	if r.conversationID == "" {
		r.conversationID = r.id
	}

	seed := req.SeedMemories
	if seed == "" {
		seed = a.options.seedMemories
	}
	r.memory.Initialize(seed)

	a.loadTree(r)
	r.executor = tactical.NewExecutor(r.tree, a.decomposer)
	a.resumeActiveTask(r)

	r.allocation = types.Allocation{Limit: 8}
	if a.attention != nil {
		r.attention = a.attention.ProcessMessage(ctx, r.message, r.agentID, r.conversationID)
		r.allocation = a.attention.Allocate(r.agentID)
	}

	return r
}

func (a *Agent) loadTree(r *run) {
	if a.options.treeStore == nil {
		return
	}
	snap, err := a.options.treeStore.Load(r.conversationID)
	if err != nil {
		xlog.Warn("could not load plan, starting empty", "conversation", r.conversationID, "error", err)
		return
	}
	if snap == nil {
		return
	}
	if err := r.tree.InitializeTree(*snap); err != nil {
		xlog.Warn("discarding invalid plan", "conversation", r.conversationID, "error", err)
		r.tree = planning.NewTree()
	}
}

// resumeActiveTask picks up a task left active by a previous run.
func (a *Agent) resumeActiveTask(r *run) {
	id := r.tree.ActiveNodeID()
	if id == "" {
		return
	}
	node, ok := r.tree.Node(id)
	if !ok || !node.IsTask() || node.Status() != planning.StatusActive {
		return
	}
	if err := r.executor.StartExecution(node); err != nil {
		xlog.Warn("could not resume active task", "task", id, "error", err)
	}
}

func (a *Agent) saveTree(r *run) {
	if a.options.treeStore == nil || r.tree.Len() == 0 {
		return
	}
	if err := a.options.treeStore.Save(r.conversationID, r.tree.Snapshot()); err != nil {
		xlog.Warn("could not persist plan", "conversation", r.conversationID, "error", err)
	}
}
