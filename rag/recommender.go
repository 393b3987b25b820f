package rag

import (
	"context"
	"errors"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/health-assistant-rag/agent"
	"github.com/SaiNageswarS/health-assistant-rag/classifier"
	"github.com/SaiNageswarS/health-assistant-rag/model"
	"github.com/SaiNageswarS/health-assistant-rag/reply"
	"github.com/SaiNageswarS/health-assistant-rag/retrieval"
	"go.uber.org/zap"
)

const (
	DefaultTopK         = 5
	DefaultMaxAutoReply = 10

	updateContextMarker = "UPDATE CONTEXT"

	apologyMessage    = "I'm sorry, I couldn't find a reliable recommendation for your symptoms right now."
	defaultDisclaimer = "This is not medical advice. Please consult a doctor or pharmacist before taking any medication."
)

// Retriever returns up to k passages for query, starting at rank offset.
type Retriever interface {
	Search(ctx context.Context, query string, k, offset int) ([]retrieval.Passage, error)
}

// Generator produces the next assistant turn of a conversation.
type Generator interface {
	Reply(ctx context.Context, history []agent.Message) (string, error)
}

type Recommender struct {
	retriever    Retriever
	generator    Generator
	topK         int
	maxAutoReply int
}

func NewRecommender(retriever Retriever, generator Generator, topK, maxAutoReply int) *Recommender {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if maxAutoReply <= 0 {
		maxAutoReply = DefaultMaxAutoReply
	}
	return &Recommender{
		retriever:    retriever,
		generator:    generator,
		topK:         topK,
		maxAutoReply: maxAutoReply,
	}
}

// FallbackReply is returned whenever a grounded answer cannot be produced.
func FallbackReply() model.StructuredReply {
	return model.StructuredReply{
		Message:    apologyMessage,
		Medicines:  []model.Medicine{},
		Disclaimer: defaultDisclaimer,
	}
}

// Recommend retrieves catalog passages for query and converses with the
// generation agent until it emits a valid StructuredReply or the turn budget
// runs out. Failures degrade to FallbackReply; they are never returned.
func (r *Recommender) Recommend(ctx context.Context, query string, department classifier.Department) model.StructuredReply {
	passages, err := r.retriever.Search(ctx, query, r.topK, 0)
	if err != nil {
		logger.Error("Failed to retrieve catalog passages", zap.Error(err))
		return FallbackReply()
	}
	logger.Info("Retrieved catalog passages", zap.Int("count", len(passages)))

	conv := &conversation{
		query:      query,
		department: department,
		offset:     len(passages),
		history: []agent.Message{
			{Role: agent.RoleUser, Content: groundedPrompt(query, department, passages)},
		},
	}

	for turn := 1; turn <= r.maxAutoReply; turn++ {
		raw, err := r.generator.Reply(ctx, conv.history)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info("Recommendation cancelled", zap.Int("turn", turn))
			} else {
				logger.Error("Generation agent failed", zap.Int("turn", turn), zap.Error(err))
			}
			return FallbackReply()
		}
		conv.add(agent.RoleAssistant, raw)

		if wantsMoreContext(raw) {
			r.widenContext(ctx, conv)
			continue
		}

		res := reply.ParseValidated(raw, structuredReplySchema, FallbackReply())
		if res.Parsed {
			logger.Info("Recommendation produced", zap.Int("turns", turn))
			return normalize(res.Value, department)
		}
		conv.add(agent.RoleUser, repairPrompt(res.Err))
	}

	logger.Error("Recommendation turn budget exhausted", zap.Int("maxAutoReply", r.maxAutoReply))
	return FallbackReply()
}

// conversation is the per-request exchange state; it is discarded when
// Recommend returns.
type conversation struct {
	query      string
	department classifier.Department
	offset     int
	exhausted  bool
	history    []agent.Message
}

func (c *conversation) add(role, content string) {
	c.history = append(c.history, agent.Message{Role: role, Content: content})
}

func (r *Recommender) widenContext(ctx context.Context, conv *conversation) {
	if conv.exhausted {
		conv.add(agent.RoleUser, noMoreContextPrompt())
		return
	}

	more, err := r.retriever.Search(ctx, conv.query, r.topK, conv.offset)
	if err != nil {
		logger.Error("Failed to widen retrieval context", zap.Error(err))
	}
	if err != nil || len(more) == 0 {
		conv.exhausted = true
		conv.add(agent.RoleUser, noMoreContextPrompt())
		return
	}

	conv.offset += len(more)
	conv.add(agent.RoleUser, groundedPrompt(conv.query, conv.department, more))
}

func wantsMoreContext(raw string) bool {
	s := strings.ToUpper(strings.TrimSpace(reply.StripFences(raw)))
	return strings.HasPrefix(s, updateContextMarker)
}

// normalize guarantees the caller-facing invariants of a StructuredReply.
func normalize(out model.StructuredReply, department classifier.Department) model.StructuredReply {
	out.Message = strings.TrimSpace(out.Message)
	out.Disclaimer = strings.TrimSpace(out.Disclaimer)
	if out.Disclaimer == "" {
		out.Disclaimer = defaultDisclaimer
	}

	medicines := make([]model.Medicine, 0, len(out.Medicines))
	for _, m := range out.Medicines {
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			continue
		}
		if m.Department == "" {
			m.Department = string(department)
		}
		medicines = append(medicines, m)
	}
	out.Medicines = medicines
	return out
}
