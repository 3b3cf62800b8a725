package action

import (
	"github.com/pchaganti/px-zuckerman-sub001/core/types"
	"github.com/sashabaranov/go-openai/jsonschema"
)

type TerminationPayload struct {
	Reason string `json:"reason"`
}

func TerminationDefinition() types.ActionDefinition {
	return types.ActionDefinition{
		Name:        types.ActionDefinitionName(types.ActionTermination),
		Description: "Stop any further action for this turn. Use it when the conversation reached a conclusion and nothing is left to do.",
		Properties: map[string]jsonschema.Definition{
			"reason": {
				Type:        jsonschema.String,
				Description: "Why the turn ends here",
			},
		},
	}
}
