package domain

type DecisionOutcome string

const (
	OutcomeApproved             DecisionOutcome = "approved"
	OutcomeRejected             DecisionOutcome = "rejected"
	OutcomeInsufficientEvidence DecisionOutcome = "insufficient_evidence"
)

// Decision is the structured result of a query: outcome plus a justification
// that cites the exact chunks it was grounded on. Created per query, never
// mutated afterwards.
type Decision struct {
	Query         string          `json:"query"`
	Outcome       DecisionOutcome `json:"outcome"`
	Amount        string          `json:"amount,omitempty"`
	Justification string          `json:"justification"`
	CitedChunkIDs []string        `json:"cited_chunk_ids"`
	Confidence    float64         `json:"confidence"`
	Retrieved     []RetrievedChunk `json:"retrieved_chunks,omitempty"`
}

// DecisionPayload is the raw schema the reasoning collaborator must return.
// It is validated at the boundary before it becomes a Decision.
type DecisionPayload struct {
	Outcome       string   `json:"outcome"`
	Amount        string   `json:"amount"`
	Justification string   `json:"justification"`
	Confidence    float64  `json:"confidence"`
	CitedChunkIDs []string `json:"cited_chunk_ids"`
}
