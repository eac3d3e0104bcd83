package ports

import (
	"context"
	"io"

	"github.com/kirillkom/clausemind/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document ingestion.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
	IngestText(ctx context.Context, documentID, source, text string) (*domain.Document, error)
}

// DocumentIndexer is the inbound contract for asynchronous indexing.
type DocumentIndexer interface {
	IndexByID(ctx context.Context, documentID string) error
}

// DecisionService runs a query end to end and returns a structured decision.
type DecisionService interface {
	Decide(ctx context.Context, rawQuery string, topK int) (*domain.Decision, error)
}

// DocumentReader is the inbound read model for document state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	CountDocuments(ctx context.Context) (int, error)
}

// DocumentDeleter removes a document and its index entries.
type DocumentDeleter interface {
	Delete(ctx context.Context, documentID string) error
}
