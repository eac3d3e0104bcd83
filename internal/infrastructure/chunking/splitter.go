package chunking

import (
	"errors"

	"github.com/kirillkom/clausemind/internal/core/domain"
)

// Splitter cuts text into overlapping rune windows. Output is deterministic:
// identical text and parameters always produce byte-identical chunks, which
// makes re-indexing idempotent. Offsets are rune positions in the source, so
// consecutive chunks cover the full text with exactly Overlap runes shared.
type Splitter struct {
	Size    int
	Overlap int
}

func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, domain.WrapError(domain.ErrInvalidConfiguration, "chunking", errors.New("chunk size must be positive"))
	}
	if overlap < 0 || overlap >= size {
		return nil, domain.WrapError(domain.ErrInvalidConfiguration, "chunking", errors.New("overlap must satisfy 0 <= overlap < size"))
	}
	return &Splitter{Size: size, Overlap: overlap}, nil
}

func (s *Splitter) Split(documentID, text string) ([]domain.Chunk, error) {
	if s.Size <= 0 || s.Overlap < 0 || s.Overlap >= s.Size {
		return nil, domain.WrapError(domain.ErrInvalidConfiguration, "chunking", errors.New("splitter misconfigured"))
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := s.Size - s.Overlap
	out := make([]domain.Chunk, 0, len(runes)/step+1)
	for start, seq := 0, 0; start < len(runes); start, seq = start+step, seq+1 {
		end := start + s.Size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, domain.Chunk{
			ID:         domain.ChunkID(documentID, seq),
			DocumentID: documentID,
			Seq:        seq,
			Text:       string(runes[start:end]),
			Start:      start,
			End:        end,
		})
		if end == len(runes) {
			break
		}
	}
	return out, nil
}
