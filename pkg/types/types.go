// Package types defines the core data structures for the Recall fact
// pipeline: conversation turns, delivery payloads, candidate facts, and the
// durable memory records the pipeline produces.
package types

import "time"

// Role identifies the speaker of a conversation turn.
type Role string

const (
	// RoleUser is the human side of the conversation.
	RoleUser Role = "user"

	// RoleAgent is the assistant side of the conversation.
	RoleAgent Role = "agent"
)

// IsValidRole checks if the given role is a recognized speaker role.
func IsValidRole(r Role) bool {
	return r == RoleUser || r == RoleAgent
}

// ConversationTurn is a single utterance in a two-party exchange.
// Order within a window is semantically load-bearing: the transcript is
// rendered in original order and truncation drops the oldest turns first.
type ConversationTurn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Payload is one inbound delivery unit. HistoricalContext carries the older
// (already summarized) window, CurrentContext the most recent messages.
// Delivery may be at-least-once; the write path tolerates redelivery via
// deterministic record identifiers.
type Payload struct {
	SessionID         string             `json:"sessionId"`
	ActorID           string             `json:"actorId,omitempty"`
	HistoricalContext []ConversationTurn `json:"historicalContext"`
	CurrentContext    []ConversationTurn `json:"currentContext"`
}

// CandidateFact is an unvetted (key, value, confidence) tuple proposed by
// the extraction step. Keys are lower-cased and trimmed at the parse
// boundary; confidence is passed through from the model unmodified.
type CandidateFact struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// SensitivityLabel classifies a candidate fact against high-risk categories.
type SensitivityLabel string

const (
	// SensitivityNone means the fact carries no recognized sensitive pattern.
	SensitivityNone SensitivityLabel = "none"

	// SensitivityIdentifier covers government IDs, emails, phone numbers and
	// similar personally identifying sequences.
	SensitivityIdentifier SensitivityLabel = "identifier"

	// SensitivityCredential covers passwords, secrets, and tokens.
	SensitivityCredential SensitivityLabel = "credential"

	// SensitivityFinancial covers card numbers and account details.
	SensitivityFinancial SensitivityLabel = "financial"
)

// ExtractionResult holds the parsed facts from one completion call plus the
// raw model output for diagnostics.
type ExtractionResult struct {
	Facts          []CandidateFact `json:"facts"`
	RawModelOutput string          `json:"raw_model_output,omitempty"`
}

// MemoryRecord is the only entity that persists beyond a single pipeline
// invocation. Identifier is a deterministic function of (sessionID,
// normalized key), so reprocessing the same session never duplicates a
// logical fact: writes with the same identifier overwrite.
type MemoryRecord struct {
	Identifier string    `json:"identifier"`
	Namespace  string    `json:"namespace"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
