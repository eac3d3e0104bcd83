package exact

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kirillkom/clausemind/internal/core/domain"
)

func entry(chunkID, docID string, seq int, vector []float32) domain.IndexEntry {
	return domain.IndexEntry{
		ChunkID:    chunkID,
		DocumentID: docID,
		Seq:        seq,
		Text:       "text of " + chunkID,
		Vector:     vector,
	}
}

func TestSearchExactMatchRanksFirst(t *testing.T) {
	ctx := context.Background()
	idx := New("")

	err := idx.Upsert(ctx, []domain.IndexEntry{
		entry("d1:0", "d1", 0, []float32{1, 0, 0}),
		entry("d1:1", "d1", 1, []float32{0, 1, 0}),
		entry("d2:0", "d2", 0, []float32{0.9, 0.1, 0}),
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	result, err := idx.Search(ctx, []float32{0, 1, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(result.Chunks))
	}
	if result.Chunks[0].ChunkID != "d1:1" {
		t.Fatalf("expected d1:1 at rank 0, got %s", result.Chunks[0].ChunkID)
	}
	if math.Abs(result.Chunks[0].Score-1.0) > 1e-6 {
		t.Fatalf("expected similarity ~1.0 for exact match, got %f", result.Chunks[0].Score)
	}
}

func TestSearchEmptyIndexReturnsEmptyResult(t *testing.T) {
	idx := New("")
	result, err := idx.Search(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !result.Empty() {
		t.Fatalf("expected empty result, got %d chunks", len(result.Chunks))
	}
}

func TestSearchBreaksTiesByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	idx := New("")

	err := idx.Upsert(ctx, []domain.IndexEntry{
		entry("d2:0", "d2", 0, []float32{1, 0}),
		entry("d1:0", "d1", 0, []float32{1, 0}),
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	result, err := idx.Search(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Chunks[0].ChunkID != "d2:0" || result.Chunks[1].ChunkID != "d1:0" {
		t.Fatalf("expected insertion-order tie break, got %s then %s",
			result.Chunks[0].ChunkID, result.Chunks[1].ChunkID)
	}
}

func TestUpsertOverwritesExistingChunkID(t *testing.T) {
	ctx := context.Background()
	idx := New("")

	if err := idx.Upsert(ctx, []domain.IndexEntry{entry("d1:0", "d1", 0, []float32{1, 0})}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := idx.Upsert(ctx, []domain.IndexEntry{entry("d1:0", "d1", 0, []float32{0, 1})}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	size, err := idx.Size(ctx)
	if err != nil {
		t.Fatalf("Size() error = %v", err)
	}
	if size != 1 {
		t.Fatalf("expected size 1 after overwrite, got %d", size)
	}

	result, err := idx.Search(ctx, []float32{0, 1}, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if math.Abs(result.Chunks[0].Score-1.0) > 1e-6 {
		t.Fatalf("expected overwritten vector to match, score = %f", result.Chunks[0].Score)
	}
}

func TestDeleteAbsentChunkIsNoOp(t *testing.T) {
	idx := New("")
	if err := idx.Delete(context.Background(), "missing:0"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestDeleteByDocumentRemovesAllEntries(t *testing.T) {
	ctx := context.Background()
	idx := New("")

	err := idx.Upsert(ctx, []domain.IndexEntry{
		entry("d1:0", "d1", 0, []float32{1, 0}),
		entry("d1:1", "d1", 1, []float32{0.8, 0.2}),
		entry("d2:0", "d2", 0, []float32{0, 1}),
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if err := idx.DeleteByDocument(ctx, "d1"); err != nil {
		t.Fatalf("DeleteByDocument() error = %v", err)
	}

	result, err := idx.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, chunk := range result.Chunks {
		if chunk.DocumentID == "d1" {
			t.Fatalf("search returned deleted document chunk %s", chunk.ChunkID)
		}
	}
	size, _ := idx.Size(ctx)
	if size != 1 {
		t.Fatalf("expected 1 entry left, got %d", size)
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.json")

	idx := New(path)
	err := idx.Upsert(ctx, []domain.IndexEntry{
		entry("d1:0", "d1", 0, []float32{1, 0, 0}),
		entry("d1:1", "d1", 1, []float32{0, 1, 0}),
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := idx.Persist(ctx); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	restored := New(path)
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	size, _ := restored.Size(ctx)
	if size != 2 {
		t.Fatalf("expected 2 entries after load, got %d", size)
	}

	result, err := restored.Search(ctx, []float32{0, 1, 0}, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Chunks[0].ChunkID != "d1:1" {
		t.Fatalf("expected d1:1 after reload, got %s", result.Chunks[0].ChunkID)
	}
}

func TestLoadCorruptedSnapshotFailsWithoutMutation(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt snapshot: %v", err)
	}

	idx := New(path)
	if err := idx.Upsert(ctx, []domain.IndexEntry{entry("d1:0", "d1", 0, []float32{1})}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	err := idx.Load(ctx)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrIndexCorrupted) {
		t.Fatalf("expected ErrIndexCorrupted, got %v", err)
	}

	size, _ := idx.Size(ctx)
	if size != 1 {
		t.Fatalf("failed load must not mutate state, size = %d", size)
	}
}

func TestLoadUnknownVersionFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	if err := os.WriteFile(path, []byte(`{"version":99,"entries":[]}`), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	idx := New(path)
	err := idx.Load(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrUnsupportedIndexVersion) {
		t.Fatalf("expected ErrUnsupportedIndexVersion, got %v", err)
	}
}

func TestLoadMissingSnapshotIsEmptyIndex(t *testing.T) {
	idx := New(filepath.Join(t.TempDir(), "absent.json"))
	if err := idx.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	size, _ := idx.Size(context.Background())
	if size != 0 {
		t.Fatalf("expected empty index, got %d", size)
	}
}

func TestReloadedSnapshotReflectsDocumentDeletes(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.json")

	idx := New(path)
	err := idx.Upsert(ctx, []domain.IndexEntry{
		entry("d1:0", "d1", 0, []float32{1, 0}),
		entry("d1:1", "d1", 1, []float32{0.9, 0.1}),
		entry("d2:0", "d2", 0, []float32{0, 1}),
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := idx.Persist(ctx); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	if err := idx.DeleteByDocument(ctx, "d1"); err != nil {
		t.Fatalf("DeleteByDocument() error = %v", err)
	}
	if err := idx.Persist(ctx); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	restored := New(path)
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	result, err := restored.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, chunk := range result.Chunks {
		if chunk.DocumentID == "d1" {
			t.Fatalf("deleted document resurrected from snapshot: %s", chunk.ChunkID)
		}
	}
	size, _ := restored.Size(ctx)
	if size != 1 {
		t.Fatalf("restored size = %d, want 1", size)
	}
}

func TestSearchDuringBulkDeleteSeesAllOrNone(t *testing.T) {
	ctx := context.Background()
	idx := New("")

	err := idx.Upsert(ctx, []domain.IndexEntry{
		entry("d1:0", "d1", 0, []float32{1, 0}),
		entry("d1:1", "d1", 1, []float32{0.9, 0.1}),
		entry("d1:2", "d1", 2, []float32{0.8, 0.2}),
		entry("d2:0", "d2", 0, []float32{0, 1}),
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 200; j++ {
				result, err := idx.Search(ctx, []float32{1, 0}, 10)
				if err != nil {
					t.Errorf("Search() error = %v", err)
					return
				}
				var d1 int
				for _, chunk := range result.Chunks {
					if chunk.DocumentID == "d1" {
						d1++
					}
				}
				if d1 != 0 && d1 != 3 {
					t.Errorf("search observed partial delete: %d of 3 entries", d1)
					return
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		if err := idx.DeleteByDocument(ctx, "d1"); err != nil {
			t.Errorf("DeleteByDocument() error = %v", err)
		}
	}()

	close(start)
	wg.Wait()

	result, err := idx.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Chunks) != 1 || result.Chunks[0].DocumentID != "d2" {
		t.Fatalf("expected only d2 to remain, got %+v", result.Chunks)
	}
}
