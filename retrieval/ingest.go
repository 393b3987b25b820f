package retrieval

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/embed"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/SaiNageswarS/health-assistant-rag/db"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var ErrEmptyCatalog = errors.New("retrieval: catalog contains no products")

// chunkNamespace makes chunk ids stable across re-ingestion of the same
// source, so a refresh overwrites instead of duplicating.
var chunkNamespace = uuid.MustParse("6f1c1c2e-52a3-4c5e-9a55-0d6f3c8b2a41")

// Product is one <product> element of the catalog XML.
type Product struct {
	Name        string `xml:"name"`
	Price       string `xml:"price"`
	Image       string `xml:"image"`
	Description string `xml:"description"`
	Department  string `xml:"department"`
	Category    string `xml:"category"`
}

type catalogDocument struct {
	Products []Product `xml:"product"`
	Grouped  []Product `xml:"products>product"`
}

// ParseCatalog reads products from either <catalog><product/>...</catalog> or
// <catalog><products><product/>...</products></catalog>.
func ParseCatalog(r io.Reader) ([]Product, error) {
	var doc catalogDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("retrieval: decode catalog: %w", err)
	}

	products := append(doc.Products, doc.Grouped...)
	out := products[:0]
	for _, p := range products {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, ErrEmptyCatalog
	}
	return out, nil
}

// PassageText is the text embedded and shown to the generation agent.
func (p Product) PassageText() string {
	var sb strings.Builder
	sb.WriteString("Product: " + p.Name + "\n")
	if d := p.department(); d != "" {
		sb.WriteString("Department: " + d + "\n")
	}
	if p.Price != "" {
		sb.WriteString("Price: " + strings.TrimSpace(p.Price) + "\n")
	}
	if p.Image != "" {
		sb.WriteString("Image: " + strings.TrimSpace(p.Image) + "\n")
	}
	if p.Description != "" {
		sb.WriteString("Description: " + strings.Join(strings.Fields(p.Description), " ") + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (p Product) department() string {
	if d := strings.TrimSpace(p.Department); d != "" {
		return d
	}
	return strings.TrimSpace(p.Category)
}

func chunkID(source string, index int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(source+"#"+strconv.Itoa(index))).String()
}

// Ingest replaces the passages of source with products. Embeddings are
// computed before the exclusive lock is taken, so searches only wait for the
// writes. Products beyond the new catalog length are removed. The whole run is
// bounded by the index's ingest timeout.
func (s *CatalogIndex) Ingest(ctx context.Context, source string, products []Product) (int, error) {
	if len(products) == 0 {
		return 0, ErrEmptyCatalog
	}

	ctx, cancel := context.WithTimeout(ctx, s.ingestTimeout)
	defer cancel()

	chunks, anns, err := s.embedProducts(ctx, source, products)
	if err != nil {
		return 0, err
	}

	if err := s.acquire(ctx, exclusive); err != nil {
		return 0, err
	}
	defer s.lock.Release(exclusive)

	for i := range chunks {
		if _, err := async.Await(s.chunkRepository.Save(ctx, chunks[i])); err != nil {
			return i, status.Errorf(codes.Internal, "save chunk %s: %v", chunks[i].ChunkID, err)
		}
		if _, err := async.Await(s.vectorRepository.Save(ctx, anns[i])); err != nil {
			return i, status.Errorf(codes.Internal, "save embedding %s: %v", anns[i].ChunkID, err)
		}
	}

	stale := bson.M{"sourceUri": source, "catalogIndex": bson.M{"$gte": len(products)}}
	if _, err := pruneStale(ctx, s.vectorRepository, stale); err != nil {
		return len(products), status.Errorf(codes.Internal, "prune embeddings of %s: %v", source, err)
	}
	removed, err := pruneStale(ctx, s.chunkRepository, stale)
	if err != nil {
		return len(products), status.Errorf(codes.Internal, "prune chunks of %s: %v", source, err)
	}

	logger.Info("Ingested catalog",
		zap.String("source", source),
		zap.Int("products", len(products)),
		zap.Int("removed", removed))
	return len(products), nil
}

func (s *CatalogIndex) embedProducts(ctx context.Context, source string, products []Product) ([]db.CatalogChunkModel, []db.CatalogAnnModel, error) {
	chunks := make([]db.CatalogChunkModel, 0, len(products))
	anns := make([]db.CatalogAnnModel, 0, len(products))

	for i, p := range products {
		text := p.PassageText()
		id := chunkID(source, i)

		emb, err := async.Await(s.embedder.GetEmbedding(ctx, text, embed.WithTask(embed.TaskRetrievalPassage)))
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, status.FromContextError(ctx.Err()).Err()
			}
			return nil, nil, status.Errorf(codes.Internal, "embed product %q: %v", p.Name, err)
		}

		chunks = append(chunks, db.CatalogChunkModel{
			ChunkID:      id,
			CatalogIndex: i,
			SourceURI:    source,
			Title:        p.Name,
			Department:   p.department(),
			Price:        strings.TrimSpace(p.Price),
			Image:        strings.TrimSpace(p.Image),
			Text:         text,
		})
		anns = append(anns, db.CatalogAnnModel{
			ChunkID:      id,
			CatalogIndex: i,
			SourceURI:    source,
			Embedding:    emb,
		})
	}
	return chunks, anns, nil
}

// pruneStale deletes every document of repo matching filter.
func pruneStale[T odm.DbModel](ctx context.Context, repo odm.OdmCollectionInterface[T], filter bson.M) (int, error) {
	stale, err := async.Await(repo.Find(ctx, filter, nil, 0, 0))
	if err != nil {
		return 0, err
	}
	for _, m := range stale {
		if _, err := async.Await(repo.DeleteByID(ctx, m.Id())); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}
