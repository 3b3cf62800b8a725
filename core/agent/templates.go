package agent

import (
	"bytes"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/pchaganti/px-zuckerman-sub001/core/planning"
	"github.com/pchaganti/px-zuckerman-sub001/core/tactical"
	"github.com/pchaganti/px-zuckerman-sub001/core/types"
)

func templateBase(templateName, templatetext string) (*template.Template, error) {
	return template.New(templateName).Funcs(sprig.FuncMap()).Parse(templatetext)
}

func templateExecute(template *template.Template, data interface{}) (string, error) {
	prompt := bytes.NewBuffer([]byte{})
	err := template.Execute(prompt, data)
	if err != nil {
		return "", err
	}
	return prompt.String(), nil
}

var (
	snapshotTemplate = template.Must(templateBase("snapshot", snapshotText))
	responseTemplate = template.Must(templateBase("response", responseText))
)

type planLine struct {
	ID       string
	Title    string
	Kind     planning.Kind
	Status   planning.Status
	Progress int
	Depth    int
}

type snapshotData struct {
	Iteration     int
	MaxIterations int
	Message       string
	Attention     *types.AttentionState
	Goals         []types.Goal
	Memories      []types.MemoryItem
	Plan          []planLine
	ActiveTask    *planning.Node
	Steps         []tactical.TaskStep
	Transcript    []types.Message
	Tools         []string
	Time          string
}

// renderSnapshot is the state text every evaluator and the arbitrator
// reason over. Memories are capped by the attention allocation, keeping
// the most recent.
func (a *Agent) renderSnapshot(r *run, delta []types.Message) (string, error) {
	mem := r.memory.State()
	memories := mem.Memories
	if limit := r.allocation.Limit; limit > 0 && len(memories) > limit {
		memories = memories[len(memories)-limit:]
	}

	tools := []string{}
	if a.tools != nil {
		for _, t := range a.tools.Tools() {
			tools = append(tools, t.Definition().Name.String())
		}
	}

	return templateExecute(snapshotTemplate, snapshotData{
		Iteration:     r.iteration,
		MaxIterations: a.options.maxIterations,
		Message:       r.message,
		Attention:     r.attention,
		Goals:         mem.Goals,
		Memories:      memories,
		Plan:          planLines(r.tree),
		ActiveTask:    r.executor.Current(),
		Steps:         r.executor.Steps(),
		Transcript:    delta,
		Tools:         tools,
		Time:          time.Now().UTC().Format(time.RFC1123),
	})
}

// planLines flattens the tree depth-first for display.
func planLines(tree *planning.Tree) []planLine {
	lines := []planLine{}
	walkPlan(tree, func(n *planning.Node, depth int) {
		lines = append(lines, planLine{
			ID:       n.ID,
			Title:    n.Title,
			Kind:     n.Kind,
			Status:   n.Status(),
			Progress: n.Progress,
			Depth:    depth,
		})
	})
	return lines
}

// walkPlan visits the tree depth-first from the root, children in order.
func walkPlan(tree *planning.Tree, visit func(n *planning.Node, depth int)) {
	root := tree.Root()
	if root == nil {
		return
	}

	visited := map[string]bool{}
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		if visited[id] {
			return
		}
		visited[id] = true
		n, ok := tree.Node(id)
		if !ok {
			return
		}
		visit(n, depth)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(root.ID, 0)
}

func renderResponsePrompt(systemPrompt string, r *run) (string, error) {
	mem := r.memory.State()
	out, err := templateExecute(responseTemplate, struct {
		SystemPrompt string
		Attention    *types.AttentionState
		Memories     []types.MemoryItem
		ActiveTask   *planning.Node
	}{
		SystemPrompt: systemPrompt,
		Attention:    r.attention,
		Memories:     mem.Memories,
		ActiveTask:   r.executor.Current(),
	})
	return strings.TrimSpace(out), err
}

const snapshotText = `Iteration {{.Iteration}} of {{.MaxIterations}} - {{.Time}}
Incoming message: {{.Message}}
{{- with .Attention }}

Attention:
- topic: {{.Orienting.Topic}}{{ if .Orienting.Task }} (task: {{.Orienting.Task}}){{ end }}
- urgency: {{.Alerting.Urgency}}, focus: {{.Orienting.FocusLevel}}{{ if .Orienting.IsContinuation }}, continuing{{ end }}{{ with .Focus }}, turn {{.TurnCount}}{{ end }}
{{- end }}

Goals:{{ if not .Goals }} none{{ end }}
{{- range .Goals }}
- {{.Description}}{{ if .Status }} [{{.Status}}]{{ end }}
{{- end }}

Memories:{{ if not .Memories }} none{{ end }}
{{- range .Memories }}
- {{.Content | trim}}
{{- end }}
{{- if .Plan }}

Plan:
{{- range .Plan }}
{{ repeat .Depth "  " }}- [{{.Kind}}] {{.Title}} ({{.Status}}, {{.Progress}}%)
{{- end }}
{{- end }}
{{- with .ActiveTask }}

Active task: {{.Title}}
{{- end }}
{{- range $i, $s := .Steps }}
  {{ add1 $i }}. {{ if $s.Completed }}[x]{{ else }}[ ]{{ end }} {{$s.Title}}{{ if $s.RequiresConfirmation }} (needs confirmation: {{$s.ConfirmationReason}}){{ end }}{{ if $s.Error }} (error: {{$s.Error}}){{ end }}
{{- end }}
{{- if .Tools }}

Tools: {{ join ", " .Tools }}
{{- end }}

New transcript entries:{{ if not .Transcript }} none{{ end }}
{{- range .Transcript }}
{{- if .ToolCalls }}
{{.Role}} calls: {{ range .ToolCalls }}{{.Function.Name}}({{.Function.Arguments}}) {{ end }}
{{- else }}
{{.Role}}: {{.Content | trunc 2000}}
{{- end }}
{{- end }}`

const responseText = `{{ .SystemPrompt }}
{{- with .Attention }}
The conversation is about {{.Orienting.Topic}}{{ if .Orienting.Task }}, working on {{.Orienting.Task}}{{ end }}. Urgency is {{.Alerting.Urgency}}.
{{- end }}
{{- if .Memories }}
What you remember:
{{- range .Memories }}
- {{.Content}}
{{- end }}
{{- end }}
{{- with .ActiveTask }}
You are currently working on: {{.Title}}
{{- end }}`
