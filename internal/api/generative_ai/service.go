package generativeAI

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/hubb-app/bantadthong/internal/types"
)

const defaultModel = "gemini-2.0-flash"

// Client is the completion-service boundary used by the chat orchestrator
// and the itinerary generator. Implementations take an ordered list of
// role-tagged turns and return generated text.
type Client interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	GenerateFromHistory(ctx context.Context, history []types.Message, prompt string) (string, error)
}

type AIClient struct {
	client      *genai.Client
	model       string
	temperature float32
}

var _ Client = (*AIClient)(nil)

func NewAIClient(ctx context.Context, model string, temperature float32) (*AIClient, error) {
	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_GEMINI_API_KEY environment variable is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if model == "" {
		model = defaultModel
	}
	return &AIClient{client: client, model: model, temperature: temperature}, nil
}

// GenerateContent runs a single-turn completion.
func (ai *AIClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](ai.temperature)}
	result, err := ai.client.Models.GenerateContent(ctx, ai.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return result.Text(), nil
}

// GenerateFromHistory replays the conversation history into a chat and
// sends the new prompt as the final user turn.
func (ai *AIClient) GenerateFromHistory(ctx context.Context, history []types.Message, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](ai.temperature)}

	var contents []*genai.Content
	for _, m := range history {
		role := genai.RoleUser
		if m.Role == types.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(role)))
	}

	chat, err := ai.client.Chats.Create(ctx, ai.model, config, contents)
	if err != nil {
		return "", fmt.Errorf("failed to create chat: %w", err)
	}
	result, err := chat.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	return result.Text(), nil
}
