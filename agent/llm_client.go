package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/agent-boot/llm"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// BootClient adapts an agent-boot LLM client to Client by collecting the
// streamed chunks into one reply.
type BootClient struct {
	llm llm.LLMClient
}

func NewBootClient(provider, model string) (*BootClient, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderAnthropic:
		return &BootClient{llm: llm.NewAnthropicClient(model)}, nil
	case ProviderOllama:
		return &BootClient{llm: llm.NewOllamaClient(model)}, nil
	default:
		return nil, fmt.Errorf("agent: unsupported llm provider %q", provider)
	}
}

func (c *BootClient) Chat(ctx context.Context, messages []Message) (string, error) {
	msgs := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}

	var sb strings.Builder
	err := c.llm.GenerateInference(ctx, msgs, func(chunk string) error {
		sb.WriteString(chunk)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generate inference: %w", err)
	}
	return sb.String(), nil
}
