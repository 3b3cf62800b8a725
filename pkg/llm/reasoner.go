package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

var ErrNoChoices = errors.New("no completion choices")

// Request is one round-trip to the reasoning collaborator.
type Request struct {
	Messages       []openai.ChatCompletionMessage
	Temperature    float32
	MaxTokens      int
	ResponseFormat *openai.ChatCompletionResponseFormat
	Tools          []openai.Tool
}

type Response struct {
	Content      string
	TokensUsed   int
	FinishReason string
	ToolCalls    []openai.ToolCall
}

// Reasoner turns prompts into (possibly structured) text. Implementations
// enforce their own timeouts; nothing at this layer preempts a call.
type Reasoner interface {
	Call(ctx context.Context, req Request) (*Response, error)
}

// JSONFormat asks the backend for a bare JSON object response.
func JSONFormat() *openai.ChatCompletionResponseFormat {
	return &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}
}

type OpenAIReasoner struct {
	client LLMClient
	model  string
}

func NewOpenAIReasoner(client LLMClient, model string) *OpenAIReasoner {
	return &OpenAIReasoner{client: client, model: model}
}

func (r *OpenAIReasoner) Call(ctx context.Context, req Request) (*Response, error) {
	request := openai.ChatCompletionRequest{
		Model:          r.model,
		Messages:       req.Messages,
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: req.ResponseFormat,
	}
	if len(req.Tools) > 0 {
		request.Tools = req.Tools
	}

	resp, err := r.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	msg := resp.Choices[0].Message
	return &Response{
		Content:      msg.Content,
		TokensUsed:   resp.Usage.TotalTokens,
		FinishReason: string(resp.Choices[0].FinishReason),
		ToolCalls:    msg.ToolCalls,
	}, nil
}
