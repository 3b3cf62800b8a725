package types

import (
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleTool      = openai.ChatMessageRoleTool
)

// Message is one transcript entry of a conversation.
type Message struct {
	Role       string            `json:"role"`
	Content    string            `json:"content"`
	ToolCalls  []openai.ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string            `json:"toolCallId,omitempty"`
	RunID      string            `json:"runId,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

type MessageMeta struct {
	ToolCalls  []openai.ToolCall
	ToolCallID string
	RunID      string
}

// ConversationLog is the durable transcript surface.
type ConversationLog interface {
	AddMessage(conversationID, role, content string, meta MessageMeta)
	GetConversation(conversationID string) []Message
}

// ToOpenAI converts transcript entries to chat completion messages.
func ToOpenAI(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCalls:  m.ToolCalls,
			ToolCallID: m.ToolCallID,
		})
	}
	return out
}

// Window returns the last n messages, never starting with a tool result
// cut off from its assistant tool-call message. The start moves back to the
// owning assistant message, so the window may exceed n by the size of one
// tool-call group. n <= 0 keeps everything.
func Window(messages []Message, n int) []Message {
	if n <= 0 || len(messages) <= n {
		return messages
	}

	cut := len(messages) - n
	start := cut
	for start > 0 && messages[start].Role == RoleTool {
		start--
	}
	if start < cut && (messages[start].Role != RoleAssistant || len(messages[start].ToolCalls) == 0) {
		// no owning tool-call message, drop the orphans instead
		start = cut
		for start < len(messages) && messages[start].Role == RoleTool {
			start++
		}
	}
	return messages[start:]
}

// LastAssistantMessage returns the most recent assistant-authored entry
// carrying text.
func LastAssistantMessage(messages []Message) (Message, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleAssistant && messages[i].Content != "" {
			return messages[i], true
		}
	}
	return Message{}, false
}
