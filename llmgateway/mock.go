package llmgateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// MockModel is a deterministic llms.Model backend used when
// PROPFORGE_LLM_MOCK is set: it produces a
// canned response derived from a hash of the prompt text, so repeated runs
// with identical agent input produce byte-identical output (spec §4.1's
// determinism contract cannot be tested against a live model).
//
// Grounded on the teacher's rag/pipeline_test.go mockLLM, generalized from a
// single fixed string to a deterministic-per-prompt one.
type MockModel struct {
	// Canned, if set, maps a prompt's sha256 hex digest to a fixed response
	// text, for tests that need a specific answer for a specific prompt.
	Canned map[string]string
}

var _ llms.Model = (*MockModel)(nil)

// GenerateContent implements llms.Model.
func (m *MockModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	var human string
	for _, msg := range messages {
		if msg.Role == llms.ChatMessageTypeHuman {
			for _, part := range msg.Parts {
				if tp, ok := part.(llms.TextContent); ok {
					human += tp.Text
				}
			}
		}
	}

	digest := promptDigest(human)
	if text, ok := m.Canned[digest]; ok {
		return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}, nil
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{Content: fmt.Sprintf("[mock response %s] %s", digest[:8], human)},
		},
	}, nil
}

// Call implements llms.Model's single-string convenience method.
func (m *MockModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, opts...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func promptDigest(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
