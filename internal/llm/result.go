package llm

import (
	"encoding/json"
	"fmt"
)

// defaultMaxTokens is used when a request leaves MaxTokens unset.
const defaultMaxTokens = 2048

func maxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}

// buildResponse turns raw provider output into a Response, rejecting empty
// or truncated output and validating structured output against req.Schema.
func buildResponse(req Request, raw string, model, stop string, usage Usage) (*Response, error) {
	content := json.RawMessage(raw)

	if stop == "max_tokens" {
		return nil, &ErrMaxTokensExceeded{Content: content}
	}
	if len(raw) == 0 {
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("empty response from %s", model)}
	}
	if err := Validate(req.Schema, content); err != nil {
		return nil, err
	}

	return &Response{
		Content:    content,
		Usage:      usage,
		Model:      model,
		StopReason: stop,
	}, nil
}

// resolveModel maps a friendly model name to a provider model ID.
// Unknown names are passed through so direct model IDs keep working.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
