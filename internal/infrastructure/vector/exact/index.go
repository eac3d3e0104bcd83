package exact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kirillkom/clausemind/internal/core/domain"
)

// snapshotVersion tags the on-disk layout. Loading any other version fails
// with ErrUnsupportedIndexVersion instead of best-effort parsing.
const snapshotVersion = 1

// Index is the baseline brute-force vector index: an exact cosine scan over
// all entries. Search takes the read lock only, so unrelated writers never
// block queries, and bulk deletes are applied under the write lock, so a
// search sees either all of a document's entries or none of them.
//
// Ranking ties are broken by insertion order; re-upserting a chunk ID keeps
// its original position.
type Index struct {
	snapshotPath string

	mu      sync.RWMutex
	entries []domain.IndexEntry
	byID    map[string]int
}

func New(snapshotPath string) *Index {
	return &Index{
		snapshotPath: snapshotPath,
		byID:         make(map[string]int),
	}
}

func (x *Index) Upsert(_ context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if e.ChunkID == "" {
			return domain.WrapError(domain.ErrInvalidInput, "index upsert", errors.New("entry without chunk id"))
		}
		if len(e.Vector) == 0 {
			return domain.WrapError(domain.ErrInvalidInput, "index upsert", fmt.Errorf("entry %s without vector", e.ChunkID))
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	for _, e := range entries {
		if pos, ok := x.byID[e.ChunkID]; ok {
			x.entries[pos] = e
			continue
		}
		x.byID[e.ChunkID] = len(x.entries)
		x.entries = append(x.entries, e)
	}
	return nil
}

func (x *Index) Search(_ context.Context, vector []float32, k int) (domain.RetrievalResult, error) {
	if k <= 0 || len(vector) == 0 {
		return domain.RetrievalResult{}, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	type scored struct {
		pos   int
		score float64
	}
	candidates := make([]scored, 0, len(x.entries))
	for pos, entry := range x.entries {
		candidates = append(candidates, scored{pos: pos, score: cosine(vector, entry.Vector)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].pos < candidates[j].pos
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]domain.RetrievedChunk, 0, len(candidates))
	for _, c := range candidates {
		entry := x.entries[c.pos]
		out = append(out, domain.RetrievedChunk{
			ChunkID:    entry.ChunkID,
			DocumentID: entry.DocumentID,
			Seq:        entry.Seq,
			Start:      entry.Start,
			End:        entry.End,
			Text:       entry.Text,
			Score:      c.score,
		})
	}
	return domain.RetrievalResult{Chunks: out}, nil
}

// Delete removes a single entry; deleting an absent chunk ID is a no-op.
func (x *Index) Delete(_ context.Context, chunkID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	pos, ok := x.byID[chunkID]
	if !ok {
		return nil
	}
	x.removeAt(pos)
	return nil
}

func (x *Index) DeleteByDocument(_ context.Context, documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	kept := x.entries[:0]
	for _, entry := range x.entries {
		if entry.DocumentID != documentID {
			kept = append(kept, entry)
		}
	}
	x.entries = kept
	x.rebuildPositions()
	return nil
}

func (x *Index) Size(_ context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries), nil
}

type snapshot struct {
	Version int                 `json:"version"`
	Entries []domain.IndexEntry `json:"entries"`
}

// Persist writes the full index to the snapshot file via temp-file rename, so
// a crash mid-write never leaves a torn snapshot behind.
func (x *Index) Persist(_ context.Context) error {
	if x.snapshotPath == "" {
		return nil
	}

	x.mu.RLock()
	snap := snapshot{
		Version: snapshotVersion,
		Entries: make([]domain.IndexEntry, len(x.entries)),
	}
	copy(snap.Entries, x.entries)
	x.mu.RUnlock()

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal index snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(x.snapshotPath), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp := x.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp, x.snapshotPath); err != nil {
		return fmt.Errorf("replace snapshot file: %w", err)
	}
	return nil
}

// Load replaces the in-memory state from the snapshot file. A missing file is
// an empty index. Corrupted or version-mismatched snapshots fail without
// touching the current in-memory state.
func (x *Index) Load(_ context.Context) error {
	if x.snapshotPath == "" {
		return nil
	}

	raw, err := os.ReadFile(x.snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read index snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.WrapError(domain.ErrIndexCorrupted, "load index snapshot", err)
	}
	if snap.Version != snapshotVersion {
		return domain.WrapError(domain.ErrUnsupportedIndexVersion, "load index snapshot",
			fmt.Errorf("snapshot version %d, supported %d", snap.Version, snapshotVersion))
	}

	byID := make(map[string]int, len(snap.Entries))
	for pos, entry := range snap.Entries {
		if entry.ChunkID == "" || len(entry.Vector) == 0 {
			return domain.WrapError(domain.ErrIndexCorrupted, "load index snapshot",
				fmt.Errorf("entry %d missing chunk id or vector", pos))
		}
		if _, dup := byID[entry.ChunkID]; dup {
			return domain.WrapError(domain.ErrIndexCorrupted, "load index snapshot",
				fmt.Errorf("duplicate chunk id %s", entry.ChunkID))
		}
		byID[entry.ChunkID] = pos
	}

	x.mu.Lock()
	x.entries = snap.Entries
	x.byID = byID
	x.mu.Unlock()
	return nil
}

func (x *Index) removeAt(pos int) {
	x.entries = append(x.entries[:pos], x.entries[pos+1:]...)
	x.rebuildPositions()
}

func (x *Index) rebuildPositions() {
	byID := make(map[string]int, len(x.entries))
	for pos, entry := range x.entries {
		byID[entry.ChunkID] = pos
	}
	x.byID = byID
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
