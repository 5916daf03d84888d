package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4-turbo"
)

// OpenAIProvider talks to an OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIProvider creates a provider for an OpenAI-compatible endpoint.
// Empty baseURL and model fall back to the OpenAI defaults.
func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Name identifies the provider in errors and logs.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Ask sends a single-turn chat completion request.
func (p *OpenAIProvider) Ask(ctx context.Context, prompt string, systemMsgs ...string) (string, error) {
	messages := make([]chatMessage, 0, len(systemMsgs)+1)
	for _, sys := range systemMsgs {
		messages = append(messages, chatMessage{Role: "system", Content: sys})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{Model: p.model, Messages: messages})
	if err != nil {
		return "", NewInvocationError(p.Name(), fmt.Errorf("failed to encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", NewInvocationError(p.Name(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	rsp, err := p.httpClient.Do(req)
	if err != nil {
		return "", NewInvocationError(p.Name(), err)
	}
	defer func() { _ = rsp.Body.Close() }()

	data, err := io.ReadAll(rsp.Body)
	if err != nil {
		return "", NewInvocationError(p.Name(), fmt.Errorf("failed to read response: %w", err))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", NewInvocationError(p.Name(), fmt.Errorf("failed to decode response (status %d): %w", rsp.StatusCode, err))
	}
	if rsp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", NewInvocationError(p.Name(), fmt.Errorf("API error (status %d): %s", rsp.StatusCode, parsed.Error.Message))
		}
		return "", NewInvocationError(p.Name(), fmt.Errorf("API error: status %d", rsp.StatusCode))
	}
	if len(parsed.Choices) == 0 {
		return "", NewInvocationError(p.Name(), fmt.Errorf("response contained no choices"))
	}
	return parsed.Choices[0].Message.Content, nil
}
