package extraction

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiModel generates through the Google Gemini API
type GeminiModel struct {
	client *genai.Client
	model  string
}

// NewGeminiModel creates a Gemini model
func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiModel{client: client, model: model}, nil
}

// Name returns the model name
func (m *GeminiModel) Name() string { return m.model }

// Generate requests a JSON response for the user text under the system instruction
func (m *GeminiModel) Generate(ctx context.Context, system, user string) (string, error) {
	var temperature float32
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       &temperature,
	}

	result, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(user), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return extractTextFromResponse(result)
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	return text, nil
}

// NewModel creates the model for a configured provider ("openai" or "gemini")
func NewModel(ctx context.Context, provider, baseURL, apiKey, model string) (Model, error) {
	switch provider {
	case "", "openai":
		return NewOpenAIModel(apiKey, WithOpenAIBaseURL(baseURL), WithOpenAIModel(model))
	case "gemini":
		return NewGeminiModel(ctx, apiKey, model)
	}
	return nil, fmt.Errorf("unknown extraction provider %q", provider)
}
