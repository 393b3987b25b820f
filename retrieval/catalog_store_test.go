package retrieval

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/SaiNageswarS/go-api-boot/embed"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/SaiNageswarS/health-assistant-rag/db"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// memCollection keeps documents in memory and understands the filters the
// index issues: _id $in, sourceUri and catalogIndex $gte.
type memCollection[T odm.DbModel] struct {
	odm.OdmCollectionInterface[T]

	mu        sync.Mutex
	docs      map[string]T
	locate    func(T) (source string, index int)
	hits      []odm.SearchHit[T]
	searchErr error
}

func newMemCollection[T odm.DbModel](locate func(T) (string, int)) *memCollection[T] {
	return &memCollection[T]{docs: map[string]T{}, locate: locate}
}

func (c *memCollection[T]) Save(_ context.Context, model T) <-chan async.Result[struct{}] {
	return async.Go(func() (struct{}, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.docs[model.Id()] = model
		return struct{}{}, nil
	})
}

func (c *memCollection[T]) Find(_ context.Context, filters bson.M, _ bson.D, _, _ int64) <-chan async.Result[[]T] {
	return async.Go(func() ([]T, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		var out []T
		for _, doc := range c.docs {
			if c.matches(doc, filters) {
				out = append(out, doc)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Id() < out[j].Id() })
		return out, nil
	})
}

func (c *memCollection[T]) DeleteByID(_ context.Context, id string) <-chan async.Result[struct{}] {
	return async.Go(func() (struct{}, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.docs, id)
		return struct{}{}, nil
	})
}

func (c *memCollection[T]) VectorSearch(_ context.Context, _ []float32, _ odm.VectorSearchParams) <-chan async.Result[[]odm.SearchHit[T]] {
	return async.Go(func() ([]odm.SearchHit[T], error) {
		return c.hits, c.searchErr
	})
}

func (c *memCollection[T]) DistinctInto(_ context.Context, _ string, _ bson.D, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var sources []string
	for _, doc := range c.docs {
		source, _ := c.locate(doc)
		if !slices.Contains(sources, source) {
			sources = append(sources, source)
		}
	}
	sort.Strings(sources)
	*out.(*[]string) = sources
	return nil
}

func (c *memCollection[T]) matches(doc T, filters bson.M) bool {
	source, index := c.locate(doc)
	for key, want := range filters {
		switch key {
		case "_id":
			if !slices.Contains(want.(bson.M)["$in"].([]string), doc.Id()) {
				return false
			}
		case "sourceUri":
			if source != want.(string) {
				return false
			}
		case "catalogIndex":
			if index < want.(bson.M)["$gte"].(int) {
				return false
			}
		}
	}
	return true
}

func (c *memCollection[T]) bySource(source string) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []T
	for _, doc := range c.docs {
		if s, _ := c.locate(doc); s == source {
			out = append(out, doc)
		}
	}
	return out
}

type fakeEmbedder struct {
	mu    sync.Mutex
	texts []string
	err   error
	block bool
}

func (f *fakeEmbedder) GetEmbedding(ctx context.Context, text string, _ ...embed.EmbedOption) <-chan async.Result[[]float32] {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()

	return async.Go(func() ([]float32, error) {
		if f.block {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		if f.err != nil {
			return nil, f.err
		}
		return []float32{float32(len(text)), 1}, nil
	})
}

func (f *fakeEmbedder) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.texts)
}

type testIndex struct {
	*CatalogIndex
	chunks   *memCollection[db.CatalogChunkModel]
	anns     *memCollection[db.CatalogAnnModel]
	embedder *fakeEmbedder
}

func newTestIndex() testIndex {
	chunks := newMemCollection(func(m db.CatalogChunkModel) (string, int) { return m.SourceURI, m.CatalogIndex })
	anns := newMemCollection(func(m db.CatalogAnnModel) (string, int) { return m.SourceURI, m.CatalogIndex })
	embedder := &fakeEmbedder{}
	return testIndex{
		CatalogIndex: NewCatalogIndex(chunks, anns, embedder),
		chunks:       chunks,
		anns:         anns,
		embedder:     embedder,
	}
}

// seed stores one chunk per title under catalog.xml and returns their ids.
func (ti testIndex) seed(titles ...string) []string {
	ids := make([]string, 0, len(titles))
	for i, title := range titles {
		id := chunkID("catalog.xml", i)
		ti.chunks.docs[id] = db.CatalogChunkModel{ChunkID: id, CatalogIndex: i, SourceURI: "catalog.xml", Title: title}
		ids = append(ids, id)
	}
	return ids
}

func hit(id string, index int, score float64) odm.SearchHit[db.CatalogAnnModel] {
	return odm.SearchHit[db.CatalogAnnModel]{Score: score, Doc: db.CatalogAnnModel{ChunkID: id, CatalogIndex: index}}
}

func titles(passages []Passage) []string {
	out := make([]string, 0, len(passages))
	for _, p := range passages {
		out = append(out, p.Title)
	}
	return out
}

func TestSearch_TopFivePassages(t *testing.T) {
	ti := newTestIndex()
	ids := ti.seed("Aspirin", "Paracetamol", "Ibuprofen", "Naproxen", "Caffeine", "Antacid", "Lozenge")
	ti.anns.hits = []odm.SearchHit[db.CatalogAnnModel]{
		hit(ids[6], 6, 0.3),
		hit(ids[2], 2, 0.9),
		hit(ids[0], 0, 0.5),
		hit(ids[1], 1, 0.9),
		hit(ids[4], 4, 0.6),
		hit(ids[1], 1, 0.9),
		hit(ids[3], 3, 0.7),
		hit(ids[5], 5, 0.4),
	}

	passages, err := ti.Search(context.Background(), "I have a headache, what can I take?", 5, 0)

	require.NoError(t, err)
	require.Equal(t, []string{"Paracetamol", "Ibuprofen", "Naproxen", "Caffeine", "Aspirin"}, titles(passages))
	require.Equal(t, 0.9, passages[0].Score)
	require.Equal(t, "catalog.xml", passages[0].Source)
	require.Equal(t, []string{"I have a headache, what can I take?"}, ti.embedder.texts)

	next, err := ti.Search(context.Background(), "headache", 5, 5)
	require.NoError(t, err)
	require.Equal(t, []string{"Antacid", "Lozenge"}, titles(next))
}

func TestSearch_DropsChunksMissingAfterLookup(t *testing.T) {
	ti := newTestIndex()
	ids := ti.seed("Aspirin", "Paracetamol")
	ti.anns.hits = []odm.SearchHit[db.CatalogAnnModel]{
		hit(ids[0], 0, 0.8),
		hit("deleted-chunk", 9, 0.95),
		hit(ids[1], 1, 0.7),
	}

	passages, err := ti.Search(context.Background(), "pain", 5, 0)

	require.NoError(t, err)
	require.Equal(t, []string{"Aspirin", "Paracetamol"}, titles(passages))
}

func TestSearch_WindowOutsideEngineLimit(t *testing.T) {
	ti := newTestIndex()

	passages, err := ti.Search(context.Background(), "pain", 5, vecK)
	require.NoError(t, err)
	require.Nil(t, passages)

	passages, err = ti.Search(context.Background(), "pain", 0, 0)
	require.NoError(t, err)
	require.Nil(t, passages)

	require.Zero(t, ti.embedder.calls())
}

func TestSearch_Errors(t *testing.T) {
	ti := newTestIndex()
	ti.embedder.err = errors.New("jina unavailable")

	_, err := ti.Search(context.Background(), "pain", 5, 0)
	require.Equal(t, codes.Internal, status.Code(err))
	require.ErrorContains(t, err, "jina unavailable")

	ti = newTestIndex()
	ti.anns.searchErr = errors.New("index missing")

	_, err = ti.Search(context.Background(), "pain", 5, 0)
	require.Equal(t, codes.Internal, status.Code(err))
	require.ErrorContains(t, err, "index missing")
}

func TestSearch_GivesUpWhileIngestHoldsIndex(t *testing.T) {
	ti := newTestIndex()
	require.NoError(t, ti.lock.Acquire(context.Background(), exclusive))
	defer ti.lock.Release(exclusive)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := ti.Search(ctx, "pain", 5, 0)

	require.Equal(t, codes.DeadlineExceeded, status.Code(err))
	require.Less(t, time.Since(start), time.Second)
	require.Zero(t, ti.embedder.calls())

	_, err = ti.Sources(ctx)
	require.Equal(t, codes.DeadlineExceeded, status.Code(err))
}

func TestIngest_StoresPassagesAndEmbeddings(t *testing.T) {
	ti := newTestIndex()
	products := []Product{
		{Name: "Paracetamol 500mg", Price: " $4.99 ", Category: "General"},
		{Name: "Aspirin 81mg", Price: "3.50", Department: "Cardiology"},
	}

	n, err := ti.Ingest(context.Background(), "catalog.xml", products)

	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Len(t, ti.anns.bySource("catalog.xml"), 2)

	chunk := ti.chunks.docs[chunkID("catalog.xml", 1)]
	require.Equal(t, "Aspirin 81mg", chunk.Title)
	require.Equal(t, "Cardiology", chunk.Department)
	require.Equal(t, 1, chunk.CatalogIndex)

	first := ti.chunks.docs[chunkID("catalog.xml", 0)]
	require.Equal(t, "$4.99", first.Price)
	require.Equal(t, "General", first.Department)
	require.Equal(t, products[0].PassageText(), first.Text)
	require.NotEmpty(t, ti.anns.docs[chunkID("catalog.xml", 0)].Embedding)
}

func TestIngest_ReplacesSourceAndDropsDiscontinued(t *testing.T) {
	ti := newTestIndex()
	ctx := context.Background()

	_, err := ti.Ingest(ctx, "catalog.xml", []Product{{Name: "A"}, {Name: "Discontinued B"}, {Name: "Discontinued C"}})
	require.NoError(t, err)
	_, err = ti.Ingest(ctx, "other.xml", []Product{{Name: "Z"}})
	require.NoError(t, err)

	n, err := ti.Ingest(ctx, "catalog.xml", []Product{{Name: "A2"}})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	chunks := ti.chunks.bySource("catalog.xml")
	require.Len(t, chunks, 1)
	require.Equal(t, "A2", chunks[0].Title)
	require.Len(t, ti.anns.bySource("catalog.xml"), 1)

	require.Len(t, ti.chunks.bySource("other.xml"), 1)
	require.Len(t, ti.anns.bySource("other.xml"), 1)

	sources, err := ti.Sources(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"catalog.xml", "other.xml"}, sources)
}

func TestIngest_EmbeddingFailureWritesNothing(t *testing.T) {
	ti := newTestIndex()
	ti.embedder.err = errors.New("quota exceeded")

	n, err := ti.Ingest(context.Background(), "catalog.xml", []Product{{Name: "A"}, {Name: "B"}})

	require.Zero(t, n)
	require.Equal(t, codes.Internal, status.Code(err))
	require.Empty(t, ti.chunks.docs)
	require.Empty(t, ti.anns.docs)
}

func TestIngest_BoundedByTimeout(t *testing.T) {
	ti := newTestIndex()
	ti.embedder.block = true
	ti.ingestTimeout = 20 * time.Millisecond

	start := time.Now()
	_, err := ti.Ingest(context.Background(), "catalog.xml", []Product{{Name: "A"}})

	require.Equal(t, codes.DeadlineExceeded, status.Code(err))
	require.Less(t, time.Since(start), time.Second)
	require.Empty(t, ti.chunks.docs)

	// the index is usable again afterwards
	ti.embedder.block = false
	_, err = ti.Search(context.Background(), "pain", 5, 0)
	require.NoError(t, err)
}

func TestIngest_EmptyCatalog(t *testing.T) {
	ti := newTestIndex()
	_, err := ti.Ingest(context.Background(), "catalog.xml", nil)
	require.ErrorIs(t, err, ErrEmptyCatalog)
}
