// Package transcript renders ordered conversation windows into the text
// representation used as the extraction prompt's context.
package transcript

import (
	"errors"
	"fmt"
	"strings"

	"github.com/scrypster/recall/pkg/types"
)

// ErrMalformedTurn indicates a conversation turn missing its role or text.
// It is fatal to the pipeline run (malformed payload, surfaced for redrive).
var ErrMalformedTurn = errors.New("conversation turn missing role or text")

// Builder merges historical and current message windows into one transcript.
// A Builder is stateless and safe for concurrent use.
type Builder struct {
	maxTurns int
}

// NewBuilder creates a transcript builder. maxTurns bounds the window size;
// values < 1 disable truncation.
func NewBuilder(maxTurns int) *Builder {
	return &Builder{maxTurns: maxTurns}
}

// Build concatenates the historical window followed by the current window,
// truncates to the configured maximum by dropping the oldest turns, and
// renders role-prefixed lines in original order.
//
// Build is deterministic: identical input windows always yield an identical
// transcript string. Returns ErrMalformedTurn if any turn lacks a role or
// text.
func (b *Builder) Build(historical, current []types.ConversationTurn) (string, error) {
	merged := make([]types.ConversationTurn, 0, len(historical)+len(current))
	merged = append(merged, historical...)
	merged = append(merged, current...)

	for i, turn := range merged {
		if turn.Role == "" || turn.Text == "" {
			return "", fmt.Errorf("%w (turn %d)", ErrMalformedTurn, i)
		}
		if !types.IsValidRole(turn.Role) {
			return "", fmt.Errorf("%w (turn %d: unknown role %q)", ErrMalformedTurn, i, turn.Role)
		}
	}

	// Drop oldest-first; the most recent turns carry the durable facts.
	if b.maxTurns > 0 && len(merged) > b.maxTurns {
		merged = merged[len(merged)-b.maxTurns:]
	}

	var sb strings.Builder
	for i, turn := range merged {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(string(turn.Role))
		sb.WriteString(": ")
		sb.WriteString(turn.Text)
	}
	return sb.String(), nil
}
