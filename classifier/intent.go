package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/health-assistant-rag/reply"
	"go.uber.org/zap"
)

// Asker is a single-turn generation agent.
type Asker interface {
	Ask(ctx context.Context, message string) (string, error)
}

type intentReply struct {
	Classification string `json:"classification"`
}

type IntentClassifier struct {
	agent Asker
}

func NewIntentClassifier(agent Asker) *IntentClassifier {
	return &IntentClassifier{agent: agent}
}

// Classify labels query as medical, greeting or general. Unparseable replies
// yield IntentGeneral; agent failures are returned to the caller.
func (c *IntentClassifier) Classify(ctx context.Context, query string) (Intent, error) {
	raw, err := c.agent.Ask(ctx, intentPrompt(query))
	if err != nil {
		return IntentGeneral, fmt.Errorf("classify intent: %w", err)
	}

	res := reply.Parse(raw, intentReply{Classification: string(IntentGeneral)})
	intent := ParseIntent(res.Value.Classification)

	logger.Info("Classified intent",
		zap.String("intent", string(intent)),
		zap.Bool("fallback", res.IsFallback()))
	return intent, nil
}

func intentPrompt(query string) string {
	return strings.Join([]string{
		"Classify the following input as either 'medical', 'greeting', or 'general':",
		"",
		"Input: " + query,
		`Respond with JSON in the form {"classification": "medical"}.`,
	}, "\n")
}
