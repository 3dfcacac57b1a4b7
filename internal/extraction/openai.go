package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
)

// OpenAIModel generates through an OpenAI-compatible chat completions
// endpoint. Pointing the base URL at a local vLLM server serves open-weight
// models through the same path.
type OpenAIModel struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// OpenAIOption configures the OpenAI model
type OpenAIOption func(*OpenAIModel)

// WithOpenAIBaseURL sets a custom base URL (local vLLM server, Azure, proxies)
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(m *OpenAIModel) {
		if url != "" {
			m.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithOpenAIModel sets the model name
func WithOpenAIModel(model string) OpenAIOption {
	return func(m *OpenAIModel) {
		if model != "" {
			m.model = model
		}
	}
}

// NewOpenAIModel creates an OpenAI-compatible model. An API key is required
// unless a custom base URL is set.
func NewOpenAIModel(apiKey string, opts ...OpenAIOption) (*OpenAIModel, error) {
	m := &OpenAIModel{
		apiKey:  apiKey,
		baseURL: defaultOpenAIBaseURL,
		model:   defaultOpenAIModel,
		client:  &http.Client{Timeout: 180 * time.Second},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.apiKey == "" && m.baseURL == defaultOpenAIBaseURL {
		return nil, ErrNoAPIKey
	}
	return m, nil
}

// Name returns the model name
func (m *OpenAIModel) Name() string { return m.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends one chat completion request
func (m *OpenAIModel) Generate(ctx context.Context, system, user string) (string, error) {
	body := chatRequest{
		Model: m.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: "json_object"},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr chatErrorResponse
		_ = json.Unmarshal(respBody, &apiErr)
		if resp.StatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %s", ErrRateLimit, apiErr.Error.Message)
		}
		return "", fmt.Errorf("model API returned status %d: %s", resp.StatusCode, apiErr.Error.Message)
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no content generated")
	}
	return result.Choices[0].Message.Content, nil
}
