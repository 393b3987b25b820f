// Package mcp exposes the recommendation pipeline as a Model Context Protocol
// tool so assistants can call it directly.
package mcp

import (
	"context"
	"errors"
	"net/http"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/health-assistant-rag/model"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	ServerName        = "health-assistant-rag"
	ServerVersion     = "1.0.0"
	RecommendToolName = "recommend_medicine"
)

type Pipeline interface {
	Handle(ctx context.Context, message string) model.ResponseEnvelope
}

type RecommendInput struct {
	Message string `json:"message" jsonschema:"the user's free-text health question or greeting"`
}

// RecommendOutput flattens the response envelope. Kind is "reply" or
// "message".
type RecommendOutput struct {
	Kind       string           `json:"kind"`
	Message    string           `json:"message"`
	Medicines  []model.Medicine `json:"medicines"`
	Disclaimer string           `json:"disclaimer,omitempty"`
}

type RecommendTool struct {
	pipeline Pipeline
}

func NewRecommendTool(p Pipeline) *RecommendTool {
	return &RecommendTool{pipeline: p}
}

func (t *RecommendTool) Run(ctx context.Context, _ *sdk.CallToolRequest, in RecommendInput) (*sdk.CallToolResult, RecommendOutput, error) {
	env := t.pipeline.Handle(ctx, in.Message)

	if desc, ok := env.Error(); ok {
		logger.Error("Recommend tool failed", zap.String("code", desc.Code.String()))
		return nil, RecommendOutput{}, errors.New(desc.Message)
	}

	if reply, ok := env.Reply(); ok {
		return nil, RecommendOutput{
			Kind:       model.KindReply.String(),
			Message:    reply.Message,
			Medicines:  reply.Medicines,
			Disclaimer: reply.Disclaimer,
		}, nil
	}

	msg, _ := env.Message()
	return nil, RecommendOutput{
		Kind:      model.KindMessage.String(),
		Message:   msg,
		Medicines: []model.Medicine{},
	}, nil
}

func NewServer(p Pipeline) *sdk.Server {
	server := sdk.NewServer(&sdk.Implementation{Name: ServerName, Version: ServerVersion}, nil)

	tool := NewRecommendTool(p)
	sdk.AddTool(server, &sdk.Tool{
		Name: RecommendToolName,
		Description: "Classifies a health question and, for medical questions, recommends catalog medicines " +
			"with prices, images and a disclaimer. Greetings and unrelated questions get a short message.",
	}, tool.Run)

	return server
}

// NewHTTPHandler serves server over the streamable HTTP transport.
func NewHTTPHandler(server *sdk.Server) http.Handler {
	return sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server {
		return server
	}, nil)
}
