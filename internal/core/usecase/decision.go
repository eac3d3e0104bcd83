package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/clausemind/internal/core/domain"
	"github.com/kirillkom/clausemind/internal/core/ports"
)

// DecisionEngine assembles a Decision from retrieved chunks and the reasoning
// collaborator's payload.
//
// A query moves through received -> retrieved -> reasoned -> completed, with
// two deviations: empty retrieval completes immediately with
// insufficient_evidence (the reasoner is never invoked, so there is nothing
// to hallucinate from), and an unusable payload after the single strict
// retry terminates with ErrDecisionUnparseable instead of a fabricated
// decision.
type DecisionEngine struct {
	reasoner ports.Reasoner
}

func NewDecisionEngine(reasoner ports.Reasoner) *DecisionEngine {
	return &DecisionEngine{reasoner: reasoner}
}

func (e *DecisionEngine) Decide(ctx context.Context, query domain.Query, retrieved domain.RetrievalResult) (*domain.Decision, error) {
	if retrieved.Empty() {
		return &domain.Decision{
			Query:         query.Raw,
			Outcome:       domain.OutcomeInsufficientEvidence,
			Justification: "no indexed content matched the query",
			CitedChunkIDs: []string{},
			Confidence:    0,
		}, nil
	}

	payload, err := e.reasonValidated(ctx, query, retrieved, false)
	if err != nil {
		if !domain.IsKind(err, domain.ErrDecisionUnparseable) {
			return nil, err
		}
		payload, err = e.reasonValidated(ctx, query, retrieved, true)
		if err != nil {
			return nil, err
		}
	}

	return &domain.Decision{
		Query:         query.Raw,
		Outcome:       domain.DecisionOutcome(payload.Outcome),
		Amount:        payload.Amount,
		Justification: payload.Justification,
		CitedChunkIDs: citedWithinRetrieved(payload.CitedChunkIDs, retrieved),
		Confidence:    payload.Confidence,
	}, nil
}

func (e *DecisionEngine) reasonValidated(ctx context.Context, query domain.Query, retrieved domain.RetrievalResult, strict bool) (domain.DecisionPayload, error) {
	payload, err := e.reasoner.Reason(ctx, query.Raw, retrieved.Chunks, strict)
	if err != nil {
		return domain.DecisionPayload{}, err
	}
	if err := validateDecisionPayload(payload); err != nil {
		return domain.DecisionPayload{}, domain.WrapError(domain.ErrDecisionUnparseable, "validate decision payload", err)
	}
	return payload, nil
}

// validateDecisionPayload checks the collaborator response against the fixed
// schema at the boundary. Anything off-schema is a typed error, never
// silently coerced.
func validateDecisionPayload(payload domain.DecisionPayload) error {
	switch domain.DecisionOutcome(payload.Outcome) {
	case domain.OutcomeApproved, domain.OutcomeRejected:
	default:
		return fmt.Errorf("unknown outcome %q", payload.Outcome)
	}
	if payload.Justification == "" {
		return errors.New("missing justification")
	}
	if payload.Confidence < 0 || payload.Confidence > 1 {
		return fmt.Errorf("confidence %f out of range", payload.Confidence)
	}
	return nil
}

// citedWithinRetrieved keeps only citations that point at chunks actually
// handed to the reasoner, preserving retrieval order.
func citedWithinRetrieved(cited []string, retrieved domain.RetrievalResult) []string {
	citedSet := make(map[string]struct{}, len(cited))
	for _, id := range cited {
		citedSet[id] = struct{}{}
	}

	out := make([]string, 0, len(cited))
	for _, chunk := range retrieved.Chunks {
		if _, ok := citedSet[chunk.ChunkID]; ok {
			out = append(out, chunk.ChunkID)
		}
	}
	return out
}
