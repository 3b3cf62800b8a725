package action

import (
	"github.com/pchaganti/px-zuckerman-sub001/core/types"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// DecomposePayload turns a request into a goal with ordered tasks.
type DecomposePayload struct {
	Goal        string     `json:"goal"`
	Description string     `json:"description"`
	Tasks       []PlanTask `json:"tasks"`
}

type PlanTask struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Urgency     types.Urgency `json:"urgency"`
	Priority    int           `json:"priority"`
}

func DecomposeDefinition() types.ActionDefinition {
	return types.ActionDefinition{
		Name:        types.ActionDefinitionName(types.ActionDecompose),
		Description: "Break a request that needs several steps into a goal and ordered tasks.",
		Properties: map[string]jsonschema.Definition{
			"goal": {
				Type:        jsonschema.String,
				Description: "The goal of this plan",
			},
			"description": {
				Type:        jsonschema.String,
				Description: "Optional details about the goal",
			},
			"tasks": {
				Type:        jsonschema.Array,
				Description: "The tasks to execute, in order",
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"title": {
							Type:        jsonschema.String,
							Description: "Short name of the task",
						},
						"description": {
							Type:        jsonschema.String,
							Description: "What has to be done. Separate steps with ';' or new lines",
						},
						"urgency": {
							Type: jsonschema.String,
							Enum: []string{
								string(types.UrgencyLow),
								string(types.UrgencyMedium),
								string(types.UrgencyHigh),
								string(types.UrgencyCritical),
							},
						},
						"priority": {
							Type:        jsonschema.Integer,
							Description: "0 to 10",
						},
					},
					Required: []string{"title"},
				},
			},
		},
		Required: []string{"goal", "tasks"},
	}
}
