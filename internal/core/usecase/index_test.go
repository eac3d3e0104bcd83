package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/clausemind/internal/core/domain"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type indexCatalogFake struct {
	doc         *domain.Document
	getErr      error
	registerErr error
	statusCalls []statusCall
	registered  []domain.Chunk
}

func (f *indexCatalogFake) Create(context.Context, *domain.Document) error { return nil }

func (f *indexCatalogFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *indexCatalogFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	return nil
}

func (f *indexCatalogFake) CountDocuments(context.Context) (int, error) { return 0, nil }

func (f *indexCatalogFake) RegisterChunks(_ context.Context, _ string, chunks []domain.Chunk) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = chunks
	return nil
}

func (f *indexCatalogFake) ChunksOf(context.Context, string) ([]string, error) { return nil, nil }

func (f *indexCatalogFake) RemoveDocument(context.Context, string) ([]string, error) {
	return nil, nil
}

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Extract(context.Context, *domain.Document) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type chunkerFake struct {
	chunks []domain.Chunk
}

func (f *chunkerFake) Split(string, string) ([]domain.Chunk, error) { return f.chunks, nil }

type embedderFake struct {
	vectors [][]float32
	err     error
}

func (f *embedderFake) Embed(context.Context, []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors, nil
}

func (f *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) { return nil, nil }

type indexFake struct {
	upsertErr     error
	upserted      []domain.IndexEntry
	deletedDocs   []string
	deletedChunks []string
}

func (f *indexFake) Upsert(_ context.Context, entries []domain.IndexEntry) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, entries...)
	return nil
}

func (f *indexFake) Search(context.Context, []float32, int) (domain.RetrievalResult, error) {
	return domain.RetrievalResult{}, nil
}

func (f *indexFake) Delete(_ context.Context, chunkID string) error {
	f.deletedChunks = append(f.deletedChunks, chunkID)
	return nil
}

func (f *indexFake) DeleteByDocument(_ context.Context, documentID string) error {
	f.deletedDocs = append(f.deletedDocs, documentID)
	return nil
}

func (f *indexFake) Persist(context.Context) error   { return nil }
func (f *indexFake) Load(context.Context) error      { return nil }
func (f *indexFake) Size(context.Context) (int, error) { return len(f.upserted), nil }

func twoChunks() []domain.Chunk {
	return []domain.Chunk{
		{ID: "doc-1:0", DocumentID: "doc-1", Seq: 0, Text: "a", Start: 0, End: 1},
		{ID: "doc-1:1", DocumentID: "doc-1", Seq: 1, Text: "b", Start: 1, End: 2},
	}
}

func TestIndexByIDSuccess(t *testing.T) {
	repo := &indexCatalogFake{doc: &domain.Document{ID: "doc-1", Status: domain.StatusPending}}
	index := &indexFake{}
	uc := NewIndexDocumentUseCase(
		repo,
		&extractorFake{text: "ab"},
		&chunkerFake{chunks: twoChunks()},
		&embedderFake{vectors: [][]float32{{1}, {2}}},
		index,
		NewDocumentLocks(),
	)

	if err := uc.IndexByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("IndexByID() error = %v", err)
	}
	if len(repo.statusCalls) != 1 || repo.statusCalls[0].status != domain.StatusIndexed {
		t.Fatalf("unexpected status sequence: %+v", repo.statusCalls)
	}
	if len(index.upserted) != 2 {
		t.Fatalf("expected 2 index entries, got %d", len(index.upserted))
	}
	if index.upserted[0].ChunkID != "doc-1:0" {
		t.Fatalf("unexpected entry: %+v", index.upserted[0])
	}
	if len(repo.registered) != 2 {
		t.Fatalf("expected chunks registered in catalog, got %d", len(repo.registered))
	}
	// Re-index drops the previous entry set before installing the new one.
	if len(index.deletedDocs) != 1 || index.deletedDocs[0] != "doc-1" {
		t.Fatalf("expected previous entries dropped, got %v", index.deletedDocs)
	}
}

func TestIndexByIDMarksFailedOnExtractError(t *testing.T) {
	repo := &indexCatalogFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewIndexDocumentUseCase(
		repo,
		&extractorFake{err: errors.New("extract fail")},
		&chunkerFake{chunks: twoChunks()},
		&embedderFake{vectors: [][]float32{{1}, {2}}},
		&indexFake{},
		NewDocumentLocks(),
	)

	err := uc.IndexByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.statusCalls) != 1 || repo.statusCalls[0].status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %+v", repo.statusCalls)
	}
	if repo.statusCalls[0].errMsg == "" {
		t.Fatalf("expected error message recorded on the document")
	}
}

func TestIndexByIDMarksFailedOnVectorMismatch(t *testing.T) {
	repo := &indexCatalogFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewIndexDocumentUseCase(
		repo,
		&extractorFake{text: "ab"},
		&chunkerFake{chunks: twoChunks()},
		&embedderFake{vectors: [][]float32{{1}}},
		&indexFake{},
		NewDocumentLocks(),
	)

	err := uc.IndexByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(repo.statusCalls) != 1 || repo.statusCalls[0].status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %+v", repo.statusCalls)
	}
}

func TestIndexByIDRollsBackPartialInsertOnCatalogError(t *testing.T) {
	repo := &indexCatalogFake{
		doc:         &domain.Document{ID: "doc-1"},
		registerErr: errors.New("catalog down"),
	}
	index := &indexFake{}
	uc := NewIndexDocumentUseCase(
		repo,
		&extractorFake{text: "ab"},
		&chunkerFake{chunks: twoChunks()},
		&embedderFake{vectors: [][]float32{{1}, {2}}},
		index,
		NewDocumentLocks(),
	)

	err := uc.IndexByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	// One drop before install, one compensating drop after the failure.
	if len(index.deletedDocs) != 2 {
		t.Fatalf("expected compensating delete, got %v", index.deletedDocs)
	}
	if repo.statusCalls[len(repo.statusCalls)-1].status != domain.StatusFailed {
		t.Fatalf("expected final failed status, got %+v", repo.statusCalls)
	}
}
