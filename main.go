package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/embed"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/go-api-boot/server"
	"github.com/SaiNageswarS/health-assistant-rag/agent"
	"github.com/SaiNageswarS/health-assistant-rag/appconfig"
	"github.com/SaiNageswarS/health-assistant-rag/classifier"
	"github.com/SaiNageswarS/health-assistant-rag/controller"
	"github.com/SaiNageswarS/health-assistant-rag/pipeline"
	"github.com/SaiNageswarS/health-assistant-rag/rag"
	"github.com/SaiNageswarS/health-assistant-rag/retrieval"
	"go.uber.org/zap"
)

func main() {
	dotenv.LoadEnv()

	cfg, err := appconfig.Load("config.ini")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	boot, err := server.New().
		GRPCPort(":50051").
		HTTPPort(":8081").
		ProvideFunc(func() *appconfig.AppConfig { return cfg }).
		ProvideFunc(odm.ProvideMongoClient).
		ProvideFunc(embed.ProvideJinaAIEmbeddingClient).
		ProvideFunc(retrieval.ProvideCatalogIndex).
		ProvideFunc(provideOrchestrator).
		AddRestController(controller.ProvideRecommendationController).
		AddRestController(controller.ProvideOrderController).
		AddRestController(controller.ProvideCatalogController).
		AddRestController(controller.ProvideMCPController).
		AddRestController(controller.ProvidePrivacyController).
		Build()

	if err != nil {
		logger.Fatal("Dependency Injection Failed", zap.Error(err))
	}

	ctx := getCancellableContext()
	boot.Serve(ctx)
}

// provideOrchestrator wires the classification and recommendation agents.
// All of them share one LLM client and the read-only agent definitions.
func provideOrchestrator(cfg *appconfig.AppConfig, index *retrieval.CatalogIndex) *pipeline.Orchestrator {
	defs, err := agent.DefaultDefinitions()
	if err != nil {
		logger.Fatal("Invalid agent definitions", zap.Error(err))
	}

	client, err := agent.NewBootClient(cfg.LLMProvider, cfg.LLMModel)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	newAgent := func(def agent.Definition) *agent.Agent {
		a, err := agent.New(def, client, cfg.LLMTimeout())
		if err != nil {
			logger.Fatal("Failed to create agent", zap.String("agent", def.Name), zap.Error(err))
		}
		return a
	}

	return pipeline.New(
		classifier.NewIntentClassifier(newAgent(defs.Classifier)),
		classifier.NewDepartmentClassifier(newAgent(defs.DepartmentClassifier)),
		rag.NewRecommender(index, newAgent(defs.HealthAssistant), cfg.RetrievalTopK, cfg.MaxAutoReply),
	)
}

func getCancellableContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		cancel()
	}()

	return ctx
}
