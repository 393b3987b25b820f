package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/server"
	"github.com/SaiNageswarS/health-assistant-rag/appconfig"
	"github.com/SaiNageswarS/health-assistant-rag/middleware"
	"github.com/SaiNageswarS/health-assistant-rag/model"
	"github.com/SaiNageswarS/health-assistant-rag/pipeline"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/codes"
)

type Pipeline interface {
	Handle(ctx context.Context, message string) model.ResponseEnvelope
}

// RecommendationController serves the routing pipeline over HTTP.
type RecommendationController struct {
	pipeline Pipeline
	limiter  *rate.Limiter
}

func ProvideRecommendationController(cfg *appconfig.AppConfig, orchestrator *pipeline.Orchestrator) *RecommendationController {
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst)
	return NewRecommendationController(orchestrator, limiter)
}

func NewRecommendationController(p Pipeline, limiter *rate.Limiter) *RecommendationController {
	return &RecommendationController{pipeline: p, limiter: limiter}
}

// HandleRecommendation handles POST /recommendation/ with body {"message": string}.
func (c *RecommendationController) HandleRecommendation(w http.ResponseWriter, r *http.Request) {
	var req model.RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("Failed to decode request", zap.Error(err))
		writeError(w, codes.InvalidArgument, "Invalid request payload")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, codes.InvalidArgument, pipeline.EmptyMessageError)
		return
	}

	env := c.pipeline.Handle(r.Context(), req.Message)
	if desc, ok := env.Error(); ok {
		writeError(w, desc.Code, desc.Message)
		return
	}

	writeJSON(w, http.StatusOK, model.RecommendationResponse{Response: env})
	logger.Info("Recommendation served", zap.String("kind", env.Kind().String()))
}

func (c *RecommendationController) Routes() []server.Route {
	return []server.Route{
		{
			Pattern: "/recommendation/",
			Method:  http.MethodPost,
			Handler: middleware.RateLimitMiddleware(c.limiter, c.HandleRecommendation),
		},
	}
}
