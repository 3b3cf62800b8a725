package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"
)

var ErrNoJSON = errors.New("no JSON object found in response")

var fencedBlock = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")

// ExtractJSON returns the JSON document embedded in a model response. The
// content may be bare JSON, wrapped in a fenced code block, or surrounded
// by prose.
func ExtractJSON(content string) string {
	s := strings.TrimSpace(content)
	if s == "" {
		return ""
	}

	if m := fencedBlock.FindStringSubmatch(s); len(m) == 2 {
		inner := strings.TrimSpace(m[1])
		if json.Valid([]byte(inner)) {
			return inner
		}
		s = inner
	}

	if json.Valid([]byte(s)) {
		return s
	}

	for _, candidate := range findJSONCandidates(s) {
		if json.Valid([]byte(candidate)) {
			return candidate
		}
	}
	return ""
}

// DecodeJSON extracts and unmarshals the JSON document in content.
func DecodeJSON(content string, dst any) error {
	doc := ExtractJSON(content)
	if doc == "" {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(doc), dst); err != nil {
		return fmt.Errorf("decoding JSON response: %w", err)
	}
	return nil
}

// GenerateJSON runs one structured-judgment round-trip and decodes the
// answer into dst.
func GenerateJSON(ctx context.Context, r Reasoner, conv []openai.ChatCompletionMessage, temperature float32, maxTokens int, dst any) error {
	resp, err := r.Call(ctx, Request{
		Messages:       conv,
		Temperature:    temperature,
		MaxTokens:      maxTokens,
		ResponseFormat: JSONFormat(),
	})
	if err != nil {
		return err
	}
	if resp == nil {
		return ErrNoChoices
	}

	xlog.Debug("JSON generated", "content", resp.Content, "tokens", resp.TokensUsed)

	return DecodeJSON(resp.Content, dst)
}

// GenerateJSONWithGuidance is GenerateJSON for a single system prompt and
// user input.
func GenerateJSONWithGuidance(ctx context.Context, r Reasoner, guidance, input string, temperature float32, maxTokens int, dst any) error {
	return GenerateJSON(ctx, r, []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: guidance,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: input,
		},
	}, temperature, maxTokens, dst)
}

// findJSONCandidates scans s for top-level JSON objects, skipping braces
// inside strings.
func findJSONCandidates(s string) []string {
	var candidates []string
	depth := 0
	start := -1
	inString := false
	escape := false

	for i := 0; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}

		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					candidates = append(candidates, s[start:i+1])
					start = -1
				}
			}
		}
	}

	return candidates
}
