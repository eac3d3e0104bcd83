package usecase

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kirillkom/clausemind/internal/core/domain"
)

// rerankByEntities refines the similarity ranking with the structured
// entities extracted from the query. Chunks that mention entity values move
// up; with no entities the input order is returned untouched, so plain
// similarity ranking is the baseline behavior.
func rerankByEntities(query domain.Query, retrieved []domain.RetrievedChunk) []domain.RetrievedChunk {
	if len(retrieved) == 0 || len(query.Entities) == 0 {
		return retrieved
	}

	entityTokens := make(map[string]struct{})
	for _, value := range query.Entities {
		for token := range toTokenSet(value) {
			entityTokens[token] = struct{}{}
		}
	}
	if len(entityTokens) == 0 {
		return retrieved
	}

	minScore := retrieved[0].Score
	maxScore := retrieved[0].Score
	for _, chunk := range retrieved[1:] {
		if chunk.Score < minScore {
			minScore = chunk.Score
		}
		if chunk.Score > maxScore {
			maxScore = chunk.Score
		}
	}
	rangeScore := maxScore - minScore
	normalize := func(v float64) float64 {
		if rangeScore <= 0 {
			if v > 0 {
				return 1
			}
			return 0
		}
		return (v - minScore) / rangeScore
	}

	out := make([]domain.RetrievedChunk, len(retrieved))
	copy(out, retrieved)
	for i := range out {
		overlap := tokenOverlap(entityTokens, toTokenSet(out[i].Text))
		out[i].Score = 0.75*normalize(out[i].Score) + 0.25*overlap
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].DocumentID != out[j].DocumentID {
			return out[i].DocumentID < out[j].DocumentID
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

func tokenOverlap(query, chunk map[string]struct{}) float64 {
	if len(query) == 0 || len(chunk) == 0 {
		return 0
	}
	matches := 0
	for token := range query {
		if _, ok := chunk[token]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}

func toTokenSet(s string) map[string]struct{} {
	tokens := splitAlphaNumLower(s)
	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		out[token] = struct{}{}
	}
	return out
}

func splitAlphaNumLower(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}
