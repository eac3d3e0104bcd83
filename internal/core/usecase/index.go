package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/clausemind/internal/core/domain"
	"github.com/kirillkom/clausemind/internal/core/ports"
)

// IndexDocumentUseCase turns a pending document into index entries: extract,
// chunk, embed, then swap the document's chunk set in catalog and index.
//
// The slow collaborator work (extraction, embedding) happens before the
// per-document lock is taken; the exclusive section only covers the
// catalog+index swap. Failures roll back this document's entries and mark it
// failed without touching other documents.
type IndexDocumentUseCase struct {
	repo      ports.CatalogRepository
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	index     ports.VectorIndex
	locks     *DocumentLocks
}

func NewIndexDocumentUseCase(
	repo ports.CatalogRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.VectorIndex,
	locks *DocumentLocks,
) *IndexDocumentUseCase {
	return &IndexDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		locks:     locks,
	}
}

func (uc *IndexDocumentUseCase) IndexByID(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	chunks, err := uc.prepare(ctx, doc)
	if err != nil {
		return uc.fail(ctx, documentID, err)
	}

	if err := uc.install(ctx, doc, chunks); err != nil {
		return uc.fail(ctx, documentID, err)
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusIndexed, ""); err != nil {
		return fmt.Errorf("set status=indexed: %w", err)
	}
	return nil
}

// prepare runs everything that does not need the document lock.
func (uc *IndexDocumentUseCase) prepare(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}

	chunks, err := uc.chunker.Split(doc.ID, text)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}
	for i := range chunks {
		chunks[i].Vector = vectors[i]
	}
	return chunks, nil
}

// install swaps the document's previous chunk set for the new one under the
// per-document lock. Re-indexing the same document is idempotent: the old
// entries are dropped first, so the catalog and index end up with exactly the
// new chunk set.
func (uc *IndexDocumentUseCase) install(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	release := uc.locks.Acquire(doc.ID)
	defer release()

	if err := uc.index.DeleteByDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("drop previous index entries: %w", err)
	}

	entries := make([]domain.IndexEntry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = domain.IndexEntry{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Seq:        chunk.Seq,
			Start:      chunk.Start,
			End:        chunk.End,
			Text:       chunk.Text,
			Vector:     chunk.Vector,
		}
	}
	if err := uc.index.Upsert(ctx, entries); err != nil {
		uc.rollback(ctx, doc.ID)
		return fmt.Errorf("index chunks: %w", err)
	}

	if err := uc.repo.RegisterChunks(ctx, doc.ID, chunks); err != nil {
		uc.rollback(ctx, doc.ID)
		return fmt.Errorf("register chunks in catalog: %w", err)
	}
	return nil
}

// rollback is the compensating delete for a partially indexed document.
func (uc *IndexDocumentUseCase) rollback(ctx context.Context, documentID string) {
	_ = uc.index.DeleteByDocument(ctx, documentID)
}

func (uc *IndexDocumentUseCase) fail(ctx context.Context, documentID string, indexErr error) error {
	if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, indexErr.Error()); failErr != nil {
		return fmt.Errorf("%w; mark failed status: %v", indexErr, failErr)
	}
	return indexErr
}
