package llmgateway

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
)

// OpenAIModel adapts a github.com/sashabaranov/go-openai client to the
// llms.Model interface the Gateway expects, so the rest of the system
// depends only on langchaingo's narrow contract and never imports the
// concrete provider SDK directly.
type OpenAIModel struct {
	client *openai.Client
	model  string
}

var _ llms.Model = (*OpenAIModel)(nil)

// NewOpenAIModel builds an OpenAIModel. apiKey defaults to the
// OPENAI_API_KEY environment variable when empty; model defaults to
// "gpt-4o-mini".
func NewOpenAIModel(apiKey, model string) (*OpenAIModel, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("llmgateway: OPENAI_API_KEY not set")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIModel{client: openai.NewClient(apiKey), model: model}, nil
}

// GenerateContent implements llms.Model by translating langchaingo message
// content into an openai.ChatCompletionRequest.
func (m *OpenAIModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error) {
	callOpts := &llms.CallOptions{}
	for _, opt := range opts {
		opt(callOpts)
	}

	req := openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	if callOpts.Temperature > 0 {
		req.Temperature = float32(callOpts.Temperature)
	}
	if callOpts.MaxTokens > 0 {
		req.MaxTokens = callOpts.MaxTokens
	}

	for _, msg := range messages {
		role := openaiRole(msg.Role)
		var text string
		for _, part := range msg.Parts {
			if tp, ok := part.(llms.TextContent); ok {
				text += tp.Text
			}
		}
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: role, Content: text})
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("llmgateway: openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llmgateway: openai returned no choices")
	}

	choices := make([]*llms.ContentChoice, 0, len(resp.Choices))
	for _, c := range resp.Choices {
		choices = append(choices, &llms.ContentChoice{Content: c.Message.Content})
	}
	return &llms.ContentResponse{Choices: choices}, nil
}

// Call implements llms.Model's single-string convenience method.
func (m *OpenAIModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, opts...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func openaiRole(role llms.ChatMessageType) string {
	switch role {
	case llms.ChatMessageTypeSystem:
		return openai.ChatMessageRoleSystem
	case llms.ChatMessageTypeAI:
		return openai.ChatMessageRoleAssistant
	case llms.ChatMessageTypeFunction, llms.ChatMessageTypeTool:
		return openai.ChatMessageRoleFunction
	default:
		return openai.ChatMessageRoleUser
	}
}
