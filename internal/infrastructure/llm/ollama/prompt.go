package ollama

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/clausemind/internal/core/domain"
)

// maxChunkPromptChars bounds the context each chunk contributes, so prompts
// stay within model limits regardless of chunk configuration.
const maxChunkPromptChars = 2000

func buildDecisionPrompt(query string, chunks []domain.RetrievedChunk, strict bool) string {
	var contextBuilder strings.Builder
	for idx, chunk := range chunks {
		text := truncateAtRuneBoundary(chunk.Text, maxChunkPromptChars)
		contextBuilder.WriteString(fmt.Sprintf(
			"[clause %d] chunk_id=%s document=%s score=%.3f\n%s\n\n",
			idx+1,
			chunk.ChunkID,
			chunk.DocumentID,
			chunk.Score,
			text,
		))
	}

	instruction := `You are a claims analyst. Decide the user's query using only the retrieved policy clauses below.
Return a strict JSON object with exactly these keys:
outcome (string: "approved" or "rejected"), amount (string, "" if not applicable), justification (string), confidence (number from 0 to 1), cited_chunk_ids (array of chunk_id strings copied from the clauses you relied on).
No markdown, no extra keys.`
	if strict {
		instruction += `
Previous response did not match the schema. Respond with ONLY the JSON object, nothing else. Every key is mandatory. cited_chunk_ids must contain chunk_id values exactly as given above.`
	}

	return fmt.Sprintf(`%s

Query:
%s

Retrieved clauses:
%s`, instruction, query, contextBuilder.String())
}

// truncateAtRuneBoundary cuts text to at most max bytes without splitting a
// multi-byte rune, so truncated chunks stay valid UTF-8 in the prompt.
func truncateAtRuneBoundary(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func buildEntityPrompt(query string) string {
	return fmt.Sprintf(`Extract key entities from the insurance query below.
Return a strict JSON object with keys: age, procedure, location, policy_type, duration.
Use "N/A" for anything the query does not mention. No markdown, no extra keys.

Query:
%s`, query)
}
