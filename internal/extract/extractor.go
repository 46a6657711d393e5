// Package extract turns a rendered transcript into candidate user facts via
// one bounded completion call.
package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/scrypster/recall/internal/llm"
	"github.com/scrypster/recall/pkg/types"
)

// ErrExtractionParse indicates the model's response did not match the
// required fact schema. The orchestrator treats it (and timeouts) as
// non-fatal: the run proceeds with zero facts.
var ErrExtractionParse = errors.New("extraction response did not match fact schema")

// Extractor invokes the completion capability with the fact-extraction
// prompt and parses its structured output into candidate facts.
// The completion call is the only network/suspension point in the pipeline;
// the underlying client bounds it with a request timeout.
type Extractor struct {
	generator llm.TextGenerator
}

// NewExtractor creates a fact extractor bound to the given text generator.
func NewExtractor(generator llm.TextGenerator) *Extractor {
	return &Extractor{generator: generator}
}

// Extract makes one completion call for the transcript and parses the
// response. Keys come back lower-cased and trimmed; confidence values are
// passed through unmodified. The raw model output is retained for
// diagnostics even when parsing fails.
//
// Any returned error is an extraction-quality failure (unreachable model,
// timeout, or schema violation); callers degrade to zero facts rather than
// failing the run.
func (e *Extractor) Extract(ctx context.Context, transcript string) (*types.ExtractionResult, error) {
	prompt := llm.FactExtractionPrompt(transcript)

	raw, err := e.generator.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("completion call failed: %w", err)
	}

	facts, err := llm.ParseFactResponse(raw)
	if err != nil {
		return &types.ExtractionResult{RawModelOutput: raw}, fmt.Errorf("%w: %v", ErrExtractionParse, err)
	}

	return &types.ExtractionResult{
		Facts:          facts,
		RawModelOutput: raw,
	}, nil
}

// Model returns the model identifier behind the bound generator.
func (e *Extractor) Model() string {
	return e.generator.GetModel()
}
