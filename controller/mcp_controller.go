package controller

import (
	"net/http"

	"github.com/SaiNageswarS/go-api-boot/server"
	"github.com/SaiNageswarS/health-assistant-rag/appconfig"
	"github.com/SaiNageswarS/health-assistant-rag/mcp"
	"github.com/SaiNageswarS/health-assistant-rag/pipeline"
)

// MCPController mounts the MCP streamable HTTP transport at /mcp.
type MCPController struct {
	enabled bool
	handler http.Handler
}

func ProvideMCPController(cfg *appconfig.AppConfig, orchestrator *pipeline.Orchestrator) *MCPController {
	return &MCPController{
		enabled: cfg.EnableMCP,
		handler: mcp.NewHTTPHandler(mcp.NewServer(orchestrator)),
	}
}

func (mc *MCPController) Routes() []server.Route {
	if !mc.enabled {
		return nil
	}

	routes := make([]server.Route, 0, 3)
	for _, method := range []string{http.MethodPost, http.MethodGet, http.MethodDelete} {
		routes = append(routes, server.Route{
			Pattern: "/mcp",
			Method:  method,
			Handler: mc.handler.ServeHTTP,
		})
	}
	return routes
}
