package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/clausemind/internal/core/domain"
	"github.com/kirillkom/clausemind/internal/core/ports"
)

type IngestDocumentUseCase struct {
	repo    ports.CatalogRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestDocumentUseCase(
	repo ports.CatalogRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.Document, error) {
	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	return uc.register(ctx, &domain.Document{
		ID:          id,
		Source:      filename,
		MimeType:    mimeType,
		StoragePath: storageKey,
	})
}

// IngestText takes already-extracted text under a caller-chosen document ID.
// Re-ingesting the same ID overwrites the stored text and resets the document
// to pending, so the worker re-indexes it from scratch.
func (uc *IngestDocumentUseCase) IngestText(
	ctx context.Context,
	documentID, source, text string,
) (*domain.Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest text", errors.New("empty document text"))
	}
	if documentID == "" {
		documentID = uuid.NewString()
	}

	storageKey := sanitizeFilename(documentID) + ".txt"
	if err := uc.storage.Save(ctx, storageKey, strings.NewReader(text)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	return uc.register(ctx, &domain.Document{
		ID:          documentID,
		Source:      source,
		MimeType:    "text/plain",
		StoragePath: storageKey,
	})
}

func (uc *IngestDocumentUseCase) register(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	now := time.Now().UTC()
	doc.Status = domain.StatusPending
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create catalog entry: %w", err)
	}

	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return doc, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
