package controller

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/server"
	"github.com/SaiNageswarS/health-assistant-rag/middleware"
	"github.com/SaiNageswarS/health-assistant-rag/retrieval"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
)

const (
	maxCatalogBytes = 16 << 20
	defaultSource   = "ProductCatalog.xml"
)

type CatalogAdmin interface {
	Sources(ctx context.Context) ([]string, error)
	Ingest(ctx context.Context, source string, products []retrieval.Product) (int, error)
}

// CatalogController exposes the administrative side of the catalog index.
type CatalogController struct {
	catalog CatalogAdmin
}

func ProvideCatalogController(index *retrieval.CatalogIndex) *CatalogController {
	return NewCatalogController(index)
}

func NewCatalogController(catalog CatalogAdmin) *CatalogController {
	return &CatalogController{catalog: catalog}
}

func (cc *CatalogController) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := cc.catalog.Sources(r.Context())
	if err != nil {
		logger.Error("Failed to fetch sources", zap.Error(err))
		writeError(w, codes.Internal, "Failed to fetch sources")
		return
	}
	if sources == nil {
		sources = []string{}
	}

	writeJSON(w, http.StatusOK, map[string][]string{"sources": sources})
}

// IngestCatalog replaces the passages of ?source= with the products of the
// XML body.
func (cc *CatalogController) IngestCatalog(w http.ResponseWriter, r *http.Request) {
	source := strings.TrimSpace(r.URL.Query().Get("source"))
	if source == "" {
		source = defaultSource
	}

	products, err := retrieval.ParseCatalog(http.MaxBytesReader(w, r.Body, maxCatalogBytes))
	if err != nil {
		logger.Error("Failed to parse catalog", zap.String("source", source), zap.Error(err))
		if errors.Is(err, retrieval.ErrEmptyCatalog) {
			writeError(w, codes.InvalidArgument, "Catalog contains no products")
			return
		}
		writeError(w, codes.InvalidArgument, "Invalid catalog payload")
		return
	}

	n, err := cc.catalog.Ingest(r.Context(), source, products)
	if err != nil {
		logger.Error("Failed to ingest catalog",
			zap.String("source", source),
			zap.Int("ingested", n),
			zap.Error(err))
		writeError(w, codes.Internal, "Failed to ingest catalog")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"source": source, "ingested": n})
}

func (cc *CatalogController) Routes() []server.Route {
	return []server.Route{
		{
			Pattern: "/catalog/sources",
			Method:  http.MethodGet,
			Handler: middleware.APIKeyAuthMiddleware(cc.ListSources),
		},
		{
			Pattern: "/catalog/ingest",
			Method:  http.MethodPost,
			Handler: middleware.APIKeyAuthMiddleware(cc.IngestCatalog),
		},
	}
}
