package ports

import (
	"context"
	"io"

	"github.com/kirillkom/clausemind/internal/core/domain"
)

// CatalogRepository persists document state and the document->chunk relation.
type CatalogRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	CountDocuments(ctx context.Context) (int, error)

	// RegisterChunks replaces the document's chunk set in one transaction.
	RegisterChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error
	ChunksOf(ctx context.Context, documentID string) ([]string, error)
	// RemoveDocument drops the chunk relation and marks the document deleted,
	// returning the removed chunk IDs.
	RemoveDocument(ctx context.Context, documentID string) ([]string, error)
}

// ObjectStorage stores source documents. Remove is idempotent.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits document text into offset-addressed chunks.
type Chunker interface {
	Split(documentID, text string) ([]domain.Chunk, error)
}

// VectorIndex stores chunk vectors and performs nearest-neighbor search.
//
// Upsert is idempotent per chunk ID. Search returns up to k entries by
// descending cosine similarity; an empty index yields an empty result.
// DeleteByDocument is atomic with respect to concurrent Search calls.
type VectorIndex interface {
	Upsert(ctx context.Context, entries []domain.IndexEntry) error
	Search(ctx context.Context, vector []float32, k int) (domain.RetrievalResult, error)
	Delete(ctx context.Context, chunkID string) error
	DeleteByDocument(ctx context.Context, documentID string) error
	Persist(ctx context.Context) error
	Load(ctx context.Context) error
	Size(ctx context.Context) (int, error)
}

// Reasoner is the reasoning collaborator producing decision payloads.
type Reasoner interface {
	Reason(ctx context.Context, queryText string, chunks []domain.RetrievedChunk, strict bool) (domain.DecisionPayload, error)
}

// EntityExtractor pulls structured entities out of a raw query. Advisory:
// callers must tolerate errors and empty results.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, query string) (map[string]string, error)
}
