package agent

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrNoClient = errors.New("agent: llm client must not be nil")

type Message struct {
	Role    string
	Content string
}

// Client is the generation backend. Implementations must honour ctx
// cancellation.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Agent is a named system prompt bound to a Client. It holds no conversation
// state; callers own the history of their exchange.
type Agent struct {
	name         string
	systemPrompt string
	client       Client
	timeout      time.Duration
}

func New(def Definition, client Client, timeout time.Duration) (*Agent, error) {
	if client == nil {
		return nil, ErrNoClient
	}
	return &Agent{
		name:         def.Name,
		systemPrompt: def.SystemPrompt,
		client:       client,
		timeout:      timeout,
	}, nil
}

func (a *Agent) Name() string { return a.name }

// Ask runs a single-turn exchange.
func (a *Agent) Ask(ctx context.Context, message string) (string, error) {
	return a.Reply(ctx, []Message{{Role: RoleUser, Content: message}})
}

// Reply produces the next assistant turn for history. Each call is bounded by
// the agent's timeout.
func (a *Agent) Reply(ctx context.Context, history []Message) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	messages := make([]Message, 0, len(history)+1)
	if a.systemPrompt != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: a.systemPrompt})
	}
	messages = append(messages, history...)

	out, err := a.client.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("agent %s: %w", a.name, err)
	}
	return out, nil
}
