package db

const (
	VectorIndexName = "catalogVectorIndex"
	VectorPath      = "embedding"

	CatalogCollection    = "catalog_chunks"
	CatalogAnnCollection = "catalog_chunks_ann"
)

// CatalogChunkModel is one product passage of the catalog. CatalogIndex keeps
// the product's position in the source document.
type CatalogChunkModel struct {
	ChunkID      string `bson:"_id" json:"chunkId"`
	CatalogIndex int    `bson:"catalogIndex" json:"catalogIndex"`
	SourceURI    string `bson:"sourceUri" json:"sourceUri"`
	Title        string `bson:"title" json:"title"`
	Department   string `bson:"department" json:"department"`
	Price        string `bson:"price" json:"price"`
	Image        string `bson:"image" json:"image"`
	Text         string `bson:"text" json:"text"`
}

func (m CatalogChunkModel) Id() string { return m.ChunkID }

func (m CatalogChunkModel) CollectionName() string { return CatalogCollection }

// CatalogAnnModel holds the embedding of a CatalogChunkModel with the same id.
type CatalogAnnModel struct {
	ChunkID      string    `bson:"_id"`
	CatalogIndex int       `bson:"catalogIndex"`
	SourceURI    string    `bson:"sourceUri"`
	Embedding    []float32 `bson:"embedding"`
}

func (m CatalogAnnModel) Id() string { return m.ChunkID }

func (m CatalogAnnModel) CollectionName() string { return CatalogAnnCollection }
