package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/clausemind/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*CatalogRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &CatalogRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, source, mime_type, storage_path").
		WithArgs("missing", string(domain.StatusDeleted)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusIndexed), "", sqlmock.AnyArg(), string(domain.StatusDeleted)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusIndexed, "")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRegisterChunksReplacesInOneTransaction(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	chunks := []domain.Chunk{
		{ID: "doc-1:0", DocumentID: "doc-1", Seq: 0, Start: 0, End: 1000},
		{ID: "doc-1:1", DocumentID: "doc-1", Seq: 1, Start: 800, End: 1800},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM document_chunks").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO document_chunks").
		WithArgs("doc-1:0", "doc-1", 0, 0, 1000).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_chunks").
		WithArgs("doc-1:1", "doc-1", 1, 800, 1800).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE documents SET chunk_count").
		WithArgs("doc-1", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.RegisterChunks(context.Background(), "doc-1", chunks); err != nil {
		t.Fatalf("RegisterChunks() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRegisterChunksRollsBackOnInsertFailure(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM document_chunks").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO document_chunks").
		WithArgs("doc-1:0", "doc-1", 0, 0, 1000).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.RegisterChunks(context.Background(), "doc-1", []domain.Chunk{
		{ID: "doc-1:0", DocumentID: "doc-1", Seq: 0, Start: 0, End: 1000},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRemoveDocumentTombstonesAndReturnsChunkIDs(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", string(domain.StatusDeleted), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("DELETE FROM document_chunks").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"chunk_id"}).AddRow("doc-1:0").AddRow("doc-1:1"))
	mock.ExpectCommit()

	removed, err := repo.RemoveDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("RemoveDocument() error = %v", err)
	}
	if len(removed) != 2 || removed[0] != "doc-1:0" || removed[1] != "doc-1:1" {
		t.Fatalf("removed = %v", removed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRemoveDocumentUnknownID(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusDeleted), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.RemoveDocument(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestChunksOfReturnsChunkIDsInSequenceOrder(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("doc-1", string(domain.StatusDeleted)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT chunk_id FROM document_chunks").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"chunk_id"}).AddRow("doc-1:0").AddRow("doc-1:1"))

	ids, err := repo.ChunksOf(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ChunksOf() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "doc-1:0" || ids[1] != "doc-1:1" {
		t.Fatalf("ids = %v", ids)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestChunksOfUnknownOrDeletedDocument(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("ghost", string(domain.StatusDeleted)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.ChunksOf(context.Background(), "ghost")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCountDocumentsExcludesTombstones(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(string(domain.StatusDeleted)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountDocuments(context.Background())
	if err != nil {
		t.Fatalf("CountDocuments() error = %v", err)
	}
	if count != 7 {
		t.Fatalf("count = %d, want 7", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
