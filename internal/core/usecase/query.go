package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/clausemind/internal/core/domain"
	"github.com/kirillkom/clausemind/internal/core/ports"
)

const defaultTopK = 5

// DecideUseCase runs the query pipeline: normalize, extract entities
// (advisory), embed, search, decide. No index lock is held while the
// embedding or reasoning collaborators run.
type DecideUseCase struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	entities ports.EntityExtractor
	engine   *DecisionEngine
	topK     int
}

// NewDecideUseCase builds the query pipeline. topK is the retrieval depth
// used when a request does not ask for one; zero or negative falls back to
// the built-in default.
func NewDecideUseCase(
	embedder ports.Embedder,
	index ports.VectorIndex,
	entities ports.EntityExtractor,
	engine *DecisionEngine,
	topK int,
) *DecideUseCase {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &DecideUseCase{
		embedder: embedder,
		index:    index,
		entities: entities,
		engine:   engine,
		topK:     topK,
	}
}

func (uc *DecideUseCase) Decide(ctx context.Context, rawQuery string, topK int) (*domain.Decision, error) {
	if strings.TrimSpace(rawQuery) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decide", errors.New("empty query"))
	}
	if topK <= 0 {
		topK = uc.topK
	}

	query := uc.processQuery(ctx, rawQuery, topK)

	queryVector, err := uc.embedder.EmbedQuery(ctx, query.Normalized)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	retrieved, err := uc.index.Search(ctx, queryVector, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	retrieved.Chunks = rerankByEntities(query, retrieved.Chunks)

	decision, err := uc.engine.Decide(ctx, query, retrieved)
	if err != nil {
		return nil, err
	}
	decision.Retrieved = retrieved.Chunks
	return decision, nil
}

// processQuery normalizes the raw text and attaches extracted entities.
// Entity extraction is advisory: any failure falls back to raw-text search.
func (uc *DecideUseCase) processQuery(ctx context.Context, rawQuery string, topK int) domain.Query {
	query := domain.Query{
		Raw:        rawQuery,
		Normalized: normalizeQuery(rawQuery),
		TopK:       topK,
	}

	if uc.entities == nil {
		return query
	}
	entities, err := uc.entities.ExtractEntities(ctx, query.Normalized)
	if err != nil {
		slog.Warn("entity_extraction_failed", "error", err)
		return query
	}
	query.Entities = entities
	return query
}

// normalizeQuery collapses whitespace and lowercases the text, which keeps
// embeddings stable across trivially different phrasings of the same query.
func normalizeQuery(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}
