package retrieval

import (
	"context"
	"slices"
	"time"

	"github.com/SaiNageswarS/go-api-boot/embed"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/SaiNageswarS/go-collection-boot/ds"
	"github.com/SaiNageswarS/health-assistant-rag/appconfig"
	"github.com/SaiNageswarS/health-assistant-rag/db"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// search parameters.
const (
	vecK          = 30 // # of hits kept from the vector engine; bounds offset+k
	numCandidates = 100
)

// exclusive is the lock weight taken by ingestion; readers take 1.
const exclusive = 1 << 30

const defaultIngestTimeout = 5 * time.Minute

// Passage is a catalog excerpt returned by Search, ordered by descending
// Score.
type Passage struct {
	ID           string
	CatalogIndex int
	Source       string
	Title        string
	Department   string
	Price        string
	Image        string
	Text         string
	Score        float64
}

// CatalogIndex is the shared, read-mostly handle on the product catalog.
// Searches take the shared side of the lock; ingestion writes under the
// exclusive side so it never races with reads. Both honour ctx while waiting.
type CatalogIndex struct {
	lock             *semaphore.Weighted
	ingestTimeout    time.Duration
	embedder         embed.Embedder
	chunkRepository  odm.OdmCollectionInterface[db.CatalogChunkModel]
	vectorRepository odm.OdmCollectionInterface[db.CatalogAnnModel]
}

func ProvideCatalogIndex(cfg *appconfig.AppConfig, mongo odm.MongoClient, embedder embed.Embedder) *CatalogIndex {
	chunkRepository := odm.CollectionOf[db.CatalogChunkModel](mongo, cfg.CatalogDatabase)
	vectorRepository := odm.CollectionOf[db.CatalogAnnModel](mongo, cfg.CatalogDatabase)
	index := NewCatalogIndex(chunkRepository, vectorRepository, embedder)
	index.ingestTimeout = cfg.IngestTimeout()
	return index
}

func NewCatalogIndex(chunkRepository odm.OdmCollectionInterface[db.CatalogChunkModel], vectorRepository odm.OdmCollectionInterface[db.CatalogAnnModel], embedder embed.Embedder) *CatalogIndex {
	return &CatalogIndex{
		lock:             semaphore.NewWeighted(exclusive),
		ingestTimeout:    defaultIngestTimeout,
		chunkRepository:  chunkRepository,
		vectorRepository: vectorRepository,
		embedder:         embedder,
	}
}

// acquire waits for n units of the index lock or until ctx is done.
func (s *CatalogIndex) acquire(ctx context.Context, n int64) error {
	if err := s.lock.Acquire(ctx, n); err != nil {
		return status.FromContextError(err).Err()
	}
	return nil
}

// Search embeds query and returns up to k passages starting at rank offset.
func (s *CatalogIndex) Search(ctx context.Context, query string, k, offset int) ([]Passage, error) {
	if k <= 0 || offset < 0 || offset >= vecK {
		return nil, nil
	}

	if err := s.acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.lock.Release(1)

	logger.Info("Getting embedding for query", zap.String("queryInput", query))
	emb, err := async.Await(s.embedder.GetEmbedding(ctx, query, embed.WithTask(embed.TaskRetrievalQuery)))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "embed: %v", err)
	}

	hits, err := async.Await(s.vectorRepository.
		VectorSearch(ctx, emb, odm.VectorSearchParams{
			IndexName:     db.VectorIndexName,
			Path:          db.VectorPath,
			K:             vecK,
			NumCandidates: numCandidates,
		}))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "vector search: %v", err)
	}

	scored := make([]scoredChunk, 0, len(hits))
	seen := ds.NewSet[string]()
	for _, h := range hits {
		id := h.Doc.Id()
		if seen.Contains(id) {
			continue
		}
		seen.Add(id)
		scored = append(scored, scoredChunk{ID: id, CatalogIndex: h.Doc.CatalogIndex, Score: h.Score})
	}

	window := rankWindow(scored, k, offset)
	if len(window) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(window))
	for _, sc := range window {
		ids = append(ids, sc.ID)
	}
	chunks := s.fetchChunksByIds(ctx, ids)

	passages := make([]Passage, 0, len(window))
	for _, sc := range window {
		ch, ok := chunks[sc.ID]
		if !ok {
			logger.Info("chunk id missing after lookup", zap.String("id", sc.ID))
			continue
		}
		passages = append(passages, Passage{
			ID:           ch.ChunkID,
			CatalogIndex: ch.CatalogIndex,
			Source:       ch.SourceURI,
			Title:        ch.Title,
			Department:   ch.Department,
			Price:        ch.Price,
			Image:        ch.Image,
			Text:         ch.Text,
			Score:        sc.Score,
		})
	}
	return passages, nil
}

// Sources lists the distinct catalog documents that have been ingested.
func (s *CatalogIndex) Sources(ctx context.Context) ([]string, error) {
	if err := s.acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.lock.Release(1)

	var distinctSources []string
	if err := s.chunkRepository.DistinctInto(ctx, "sourceUri", nil, &distinctSources); err != nil {
		return nil, status.Errorf(codes.Internal, "distinct sources: %v", err)
	}
	return distinctSources, nil
}

func (s *CatalogIndex) fetchChunksByIds(ctx context.Context, ids []string) map[string]db.CatalogChunkModel {
	chunkByID := make(map[string]db.CatalogChunkModel, len(ids))

	dbChunks, err := async.Await(
		s.chunkRepository.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil, 0, 0),
	)
	if err != nil {
		logger.Error("Failed to fetch chunks from database", zap.Error(err))
		return chunkByID
	}
	for _, ch := range dbChunks {
		chunkByID[ch.ChunkID] = ch
	}
	return chunkByID
}

type scoredChunk struct {
	ID           string
	CatalogIndex int
	Score        float64
}

// rankWindow orders hits by descending score, breaking ties by catalog order,
// and returns hits[offset : offset+k].
func rankWindow(hits []scoredChunk, k, offset int) []scoredChunk {
	ranked := slices.Clone(hits)
	slices.SortStableFunc(ranked, func(x, y scoredChunk) int {
		if x.Score != y.Score {
			if x.Score > y.Score {
				return -1
			}
			return 1
		}
		if x.CatalogIndex != y.CatalogIndex {
			if x.CatalogIndex < y.CatalogIndex {
				return -1
			}
			return 1
		}
		return 0
	})

	if offset >= len(ranked) {
		return nil
	}
	end := min(offset+k, len(ranked))
	return ranked[offset:end]
}
