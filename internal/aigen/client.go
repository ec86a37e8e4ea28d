// Package aigen calls an OpenAI-compatible chat completions endpoint to
// produce website element payloads.
package aigen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tablecraft/api/internal/aicontract"
)

const systemPrompt = `You generate self-contained HTML blocks for a restaurant website builder.

Respond with a single JSON object and nothing else. No markdown fences, no commentary. The object has exactly these keys:
- "aiTemplate": one container <div> holding the block's markup, plus at most one <style> tag scoped to classes you define inside the container.
- "properties": an object mapping every {{token}} used in aiTemplate to its default value, as strings.
- "editableProps": an array of {"key", "label", "type"} objects for the tokens a restaurant owner should be able to edit. "type" is one of "text", "number", "color".

Rules for tokens:
- Every piece of user-visible text and every themable CSS value must be a {{token}} placeholder, including values inside the <style> tag.
- Token names are flat and numbered per repeated item: item1Text, item1Price, item2Text. Never nest objects or arrays in "properties".
- Do not invent tokens that are absent from aiTemplate, and do not leave aiTemplate tokens out of "properties".

Keep markup semantic and self-contained: no external assets, no scripts, no ids.`

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type Client struct {
	config Config
	http   *http.Client
}

func New(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	return &Client{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate asks the model for an element payload matching the user's
// description and shape-checks the reply before returning it.
func (c *Client) Generate(ctx context.Context, description string) (aicontract.Payload, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: description},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return aicontract.Payload{}, fmt.Errorf("marshal chat request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return aicontract.Payload{}, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return aicontract.Payload{}, fmt.Errorf("call generator: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return aicontract.Payload{}, fmt.Errorf("read generator response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return aicontract.Payload{}, fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return aicontract.Payload{}, fmt.Errorf("decode generator response: %w", err)
	}
	if parsed.Error != nil {
		return aicontract.Payload{}, fmt.Errorf("generator error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return aicontract.Payload{}, fmt.Errorf("generator returned no choices")
	}

	content := stripFences(parsed.Choices[0].Message.Content)
	payload, err := aicontract.Decode([]byte(content))
	if err != nil {
		return aicontract.Payload{}, fmt.Errorf("generator produced malformed payload: %w", err)
	}
	return payload, nil
}

// stripFences removes a surrounding markdown code fence if the model
// added one despite instructions.
func stripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
