package domain

// Query is the processed form of a raw user question. Transient, never
// persisted.
type Query struct {
	Raw        string            `json:"raw"`
	Normalized string            `json:"normalized"`
	Entities   map[string]string `json:"entities,omitempty"`
	TopK       int               `json:"top_k"`
}

type RetrievedChunk struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Seq        int     `json:"seq"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// RetrievalResult is ordered by descending similarity, ties broken by
// insertion order.
type RetrievalResult struct {
	Chunks []RetrievedChunk `json:"chunks"`
}

func (r RetrievalResult) Empty() bool {
	return len(r.Chunks) == 0
}
