package tactical

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mudler/xlog"
	"github.com/pchaganti/px-zuckerman-sub001/core/planning"
	"github.com/pchaganti/px-zuckerman-sub001/pkg/llm"
)

// Metadata keys set on fallback tasks.
const (
	MetaIsFallback     = "isFallback"
	MetaOriginalTaskID = "originalTaskId"
	MetaOriginalError  = "originalError"
	MetaSource         = "source"
)

// Contingency decides whether a failed task gets a fallback sibling.
type Contingency struct {
	reasoner    llm.Reasoner
	temperature float32
	maxTokens   int
}

func NewContingency(r llm.Reasoner) *Contingency {
	return &Contingency{
		reasoner:    r,
		temperature: 0.3,
		maxTokens:   500,
	}
}

const contingencyPrompt = `A task of an assistant failed. Decide whether a different approach is worth trying.
Only propose a fallback when it genuinely differs from what failed and has a realistic chance to work.
Answer only with a JSON object:
{"shouldCreateFallback": true | false, "title": "<fallback task title>", "description": "<what to do differently>", "reasoning": "<why>"}`

type fallbackJudgment struct {
	ShouldCreateFallback bool   `json:"shouldCreateFallback"`
	Title                string `json:"title"`
	Description          string `json:"description"`
	Reasoning            string `json:"reasoning"`
}

// HandleFailure returns the fallback task to add next to the failed one,
// or nil when the failure is accepted. Goals never get a fallback.
func (c *Contingency) HandleFailure(ctx context.Context, task *planning.Node, errText string) *planning.Node {
	if task == nil || !task.IsTask() || c.reasoner == nil {
		return nil
	}

	input := fmt.Sprintf("Task: %s\nDescription: %s\nUrgency: %s\nError: %s",
		task.Title, task.Description, task.Task.Urgency, errText)

	var j fallbackJudgment
	if err := llm.GenerateJSONWithGuidance(ctx, c.reasoner, contingencyPrompt, input, c.temperature, c.maxTokens, &j); err != nil {
		xlog.Warn("contingency judgment failed, accepting failure", "task", task.ID, "error", err)
		return nil
	}
	if !j.ShouldCreateFallback {
		xlog.Debug("contingency declined fallback", "task", task.ID, "reasoning", j.Reasoning)
		return nil
	}

	title := strings.TrimSpace(j.Title)
	if title == "" {
		title = "Retry: " + task.Title
	}

	fallback := planning.NewTask(fallbackID(task.ID), title)
	fallback.Description = j.Description
	fallback.ParentID = task.ParentID
	fallback.Order = task.Order
	fallback.Task.Urgency = task.Task.Urgency
	fallback.Task.Priority = task.Task.Priority
	fallback.Metadata = map[string]interface{}{
		MetaIsFallback:     true,
		MetaOriginalTaskID: task.ID,
		MetaOriginalError:  errText,
	}
	if source, ok := task.Metadata[MetaSource]; ok {
		fallback.Metadata[MetaSource] = source
	}

	xlog.Info("fallback task created", "task", task.ID, "fallback", fallback.ID)
	return fallback
}

func fallbackID(original string) string {
	return fmt.Sprintf("%s-fallback-%s", original, strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
