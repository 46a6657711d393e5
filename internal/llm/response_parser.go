package llm

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/scrypster/recall/pkg/types"
)

// FactResponse is the wire shape the extraction prompt demands from the model.
type FactResponse struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// FactExtractionResponse represents the complete fact extraction response.
type FactExtractionResponse struct {
	Facts []FactResponse `json:"facts"`
}

// extractJSON extracts the first valid JSON object from a string that may
// contain extra text. This handles cases where LLMs add explanations
// before/after the JSON despite instructions.
func extractJSON(text string) string {
	// Remove common markdown code block markers
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return text // No JSON found, return as-is and let parser fail
	}

	// Find the matching closing brace
	braceCount := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		char := text[i]

		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}

		if char == '"' {
			inString = !inString
			continue
		}

		// Only count braces outside of strings
		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return text[start : i+1]
				}
			}
		}
	}

	return text // No complete JSON found, return as-is
}

// ParseFactResponse parses fact extraction JSON and filters out invalid
// entries. Keys are lower-cased and trimmed; entries with an empty key or a
// confidence outside [0,1] are skipped rather than failing the batch.
// Confidence values of surviving entries are passed through unmodified.
// An error is returned only when the JSON itself does not match the
// required shape; callers treat that as a degraded (zero facts) extraction.
func ParseFactResponse(jsonStr string) ([]types.CandidateFact, error) {
	cleanJSON := extractJSON(jsonStr)

	var response FactExtractionResponse
	if err := json.Unmarshal([]byte(cleanJSON), &response); err != nil {
		return nil, fmt.Errorf("failed to parse fact JSON: %w", err)
	}
	if response.Facts == nil {
		// An object without a "facts" array does not match the contract;
		// distinguish it from an explicit empty list.
		if !strings.Contains(cleanJSON, `"facts"`) {
			return nil, fmt.Errorf("fact JSON missing required \"facts\" array")
		}
	}

	var valid []types.CandidateFact
	for _, fact := range response.Facts {
		key := strings.ToLower(strings.TrimSpace(fact.Key))
		if key == "" {
			log.Printf("response_parser: skipping fact with empty key (value %q)", fact.Value)
			continue
		}
		if fact.Confidence < 0.0 || fact.Confidence > 1.0 {
			log.Printf("response_parser: skipping fact %q with invalid confidence %f", key, fact.Confidence)
			continue
		}
		valid = append(valid, types.CandidateFact{
			Key:        key,
			Value:      fact.Value,
			Confidence: fact.Confidence,
		})
	}
	return valid, nil
}
