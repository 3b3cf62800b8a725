package tactical

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mudler/xlog"
	"github.com/pchaganti/px-zuckerman-sub001/core/planning"
	"github.com/pchaganti/px-zuckerman-sub001/pkg/xstrings"
)

var (
	ErrInvalidOperation = errors.New("invalid tactical operation")
	ErrNotTracked       = errors.New("task is not the one being executed")
	ErrNoPendingStep    = errors.New("no pending step")
)

// Executor tracks at most one in-flight task. Task state lives in the
// tree; the executor keeps the step list and mirrors it into the task
// metadata on every change. Not safe for concurrent use.
type Executor struct {
	tree       *planning.Tree
	decomposer StepDecomposer

	current string
	steps   []TaskStep
}

func NewExecutor(tree *planning.Tree, decomposer StepDecomposer) *Executor {
	return &Executor{tree: tree, decomposer: decomposer}
}

// StartExecution makes task the in-flight task: status active, progress 0
// and a step list loaded from metadata or synthesized locally.
func (e *Executor) StartExecution(task *planning.Node) error {
	if task == nil || !task.IsTask() {
		return fmt.Errorf("%w: only tasks can be executed", ErrInvalidOperation)
	}
	if e.current != "" && e.current != task.ID {
		return fmt.Errorf("%w: task %s is already in flight", ErrInvalidOperation, e.current)
	}

	node, ok := e.tree.Node(task.ID)
	if !ok {
		return fmt.Errorf("%w: %s", planning.ErrNodeNotFound, task.ID)
	}

	steps, err := stepsFromMetadata(node.Metadata)
	if err != nil {
		xlog.Warn("discarding unreadable task steps", "task", node.ID, "error", err)
		steps = nil
	}
	if len(steps) == 0 {
		steps = synthesizeSteps(node)
	}

	if err := e.tree.UpdateNodeStatus(node.ID, planning.StatusActive); err != nil {
		return err
	}
	if err := e.tree.UpdateNodeProgress(node.ID, 0); err != nil {
		return err
	}

	e.current = node.ID
	if err := e.replaceSteps(steps); err != nil {
		return err
	}
	if err := e.tree.SetActiveNode(node.ID); err != nil {
		return err
	}

	xlog.Debug("task execution started", "task", node.ID, "steps", len(e.steps))
	return nil
}

// synthesizeSteps splits the description on common separators, falling
// back to a single step named after the task.
func synthesizeSteps(node *planning.Node) []TaskStep {
	steps := []TaskStep{}
	for _, title := range xstrings.SplitSteps(node.Description) {
		steps = append(steps, TaskStep{Title: title})
	}
	if len(steps) == 0 {
		steps = append(steps, TaskStep{Title: node.Title})
	}
	return steps
}

// Decompose replaces the step list of the in-flight task with the one
// produced by the decomposer.
func (e *Executor) Decompose(ctx context.Context) error {
	if e.current == "" {
		return fmt.Errorf("%w: no task in flight", ErrInvalidOperation)
	}
	if e.decomposer == nil {
		return nil
	}

	node, ok := e.tree.Node(e.current)
	if !ok {
		return fmt.Errorf("%w: %s", planning.ErrNodeNotFound, e.current)
	}

	steps := e.decomposer.Decompose(ctx, taskText(node), node.Task.Urgency)
	if len(steps) == 0 {
		steps = []TaskStep{{Title: taskText(node)}}
	}
	if err := e.replaceSteps(steps); err != nil {
		return err
	}
	return e.syncProgress()
}

func taskText(node *planning.Node) string {
	if d := strings.TrimSpace(node.Description); d != "" {
		return node.Title + ": " + d
	}
	return node.Title
}

func (e *Executor) replaceSteps(steps []TaskStep) error {
	e.steps = numberSteps(e.current, steps)
	return e.tree.SetMetadata(e.current, StepsKey, append([]TaskStep{}, e.steps...))
}

func (e *Executor) syncProgress() error {
	return e.tree.UpdateNodeProgress(e.current, e.progress())
}

func (e *Executor) progress() int {
	if len(e.steps) == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completedCount(e.steps)) / float64(len(e.steps))))
}

// CompleteCurrentStep marks the first incomplete step as done and updates
// the task progress.
func (e *Executor) CompleteCurrentStep(result string) (*TaskStep, error) {
	i, err := e.currentStepIndex()
	if err != nil {
		return nil, err
	}

	e.steps[i].Completed = true
	e.steps[i].Result = result
	e.steps[i].Error = ""

	if err := e.replaceSteps(e.steps); err != nil {
		return nil, err
	}
	if err := e.syncProgress(); err != nil {
		return nil, err
	}
	step := e.steps[i]
	return &step, nil
}

// FailCurrentStep records an error on the first incomplete step without
// completing it.
func (e *Executor) FailCurrentStep(errText string) (*TaskStep, error) {
	i, err := e.currentStepIndex()
	if err != nil {
		return nil, err
	}

	e.steps[i].Error = errText
	if err := e.replaceSteps(e.steps); err != nil {
		return nil, err
	}
	step := e.steps[i]
	return &step, nil
}

func (e *Executor) currentStepIndex() (int, error) {
	if e.current == "" {
		return -1, fmt.Errorf("%w: no task in flight", ErrInvalidOperation)
	}
	for i, s := range e.steps {
		if !s.Completed {
			return i, nil
		}
	}
	return -1, ErrNoPendingStep
}

func (e *Executor) CompleteExecution(taskID, result string) error {
	return e.finish(taskID, planning.StatusCompleted, result, "")
}

func (e *Executor) FailExecution(taskID, errText string) error {
	return e.finish(taskID, planning.StatusFailed, "", errText)
}

func (e *Executor) finish(taskID string, status planning.Status, result, errText string) error {
	if e.current == "" || taskID != e.current {
		return fmt.Errorf("%w: %s", ErrNotTracked, taskID)
	}

	if err := e.tree.SetTaskOutcome(taskID, result, errText); err != nil {
		return err
	}
	if err := e.tree.UpdateNodeStatus(taskID, status); err != nil {
		return err
	}
	if e.tree.ActiveNodeID() == taskID {
		_ = e.tree.SetActiveNode("")
	}

	xlog.Debug("task execution finished", "task", taskID, "status", status)
	e.current = ""
	e.steps = nil
	return nil
}

// Current returns the in-flight task, or nil.
func (e *Executor) Current() *planning.Node {
	if e.current == "" {
		return nil
	}
	n, ok := e.tree.Node(e.current)
	if !ok {
		return nil
	}
	return n
}

func (e *Executor) Steps() []TaskStep {
	return append([]TaskStep{}, e.steps...)
}

// CurrentStep returns the first incomplete step, or nil.
func (e *Executor) CurrentStep() *TaskStep {
	i, err := e.currentStepIndex()
	if err != nil {
		return nil
	}
	step := e.steps[i]
	return &step
}

// Remaining reports whether the in-flight task still has steps to do.
func (e *Executor) Remaining() bool {
	return e.CurrentStep() != nil
}
