package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/clausemind/internal/core/ports"
)

// DeleteDocumentUseCase removes a document's chunks from the index and the
// catalog in one per-document critical section, so the two never disagree
// about a live document's chunk set.
type DeleteDocumentUseCase struct {
	repo    ports.CatalogRepository
	index   ports.VectorIndex
	storage ports.ObjectStorage
	locks   *DocumentLocks
}

func NewDeleteDocumentUseCase(
	repo ports.CatalogRepository,
	index ports.VectorIndex,
	storage ports.ObjectStorage,
	locks *DocumentLocks,
) *DeleteDocumentUseCase {
	return &DeleteDocumentUseCase{
		repo:    repo,
		index:   index,
		storage: storage,
		locks:   locks,
	}
}

func (uc *DeleteDocumentUseCase) Delete(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	release := uc.locks.Acquire(documentID)
	defer release()

	if err := uc.index.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete index entries: %w", err)
	}

	if _, err := uc.repo.RemoveDocument(ctx, documentID); err != nil {
		return fmt.Errorf("remove catalog entry: %w", err)
	}

	// The stored source is unreachable once the catalog entry is gone, so a
	// failure here only leaks disk space.
	if err := uc.storage.Remove(ctx, doc.StoragePath); err != nil {
		slog.Warn("stored_source_cleanup_failed", "document_id", documentID, "error", err)
	}
	return nil
}
