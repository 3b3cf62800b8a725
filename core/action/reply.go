package action

import (
	"github.com/pchaganti/px-zuckerman-sub001/core/types"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// RespondPayload is the payload of a respond action. An empty message asks
// the agent to generate the reply itself.
type RespondPayload struct {
	Message string `json:"message"`
}

func RespondDefinition() types.ActionDefinition {
	return types.ActionDefinition{
		Name:        types.ActionDefinitionName(types.ActionRespond),
		Description: "Reply to the user. Leave message empty to let the assistant write the reply from the conversation.",
		Properties: map[string]jsonschema.Definition{
			"message": {
				Type:        jsonschema.String,
				Description: "The message to reply with",
			},
		},
	}
}
