package domain

import "fmt"

// Chunk is the atomic retrievable unit: a contiguous slice of a document's
// text addressed by rune offsets [Start, End).
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Seq        int       `json:"seq"`
	Text       string    `json:"text"`
	Start      int       `json:"start"`
	End        int       `json:"end"`
	Vector     []float32 `json:"vector,omitempty"`
}

// ChunkID derives a stable chunk identity from the owning document and the
// chunk's position. Re-ingesting identical text reproduces identical IDs,
// which keeps decision citations valid across re-indexing.
func ChunkID(documentID string, seq int) string {
	return fmt.Sprintf("%s:%d", documentID, seq)
}

// IndexEntry is what the vector index stores per chunk.
type IndexEntry struct {
	ChunkID    string    `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	Seq        int       `json:"seq"`
	Start      int       `json:"start"`
	End        int       `json:"end"`
	Text       string    `json:"text"`
	Vector     []float32 `json:"vector"`
}
