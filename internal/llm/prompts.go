// Package llm provides the completion capability for the Recall pipeline:
// strict JSON-only fact-extraction prompts, response parsing, and HTTP
// clients for Ollama, OpenAI, and Anthropic with circuit breaker protection.
package llm

import "fmt"

// FactExtractionPrompt generates a strict JSON-only prompt that asks the
// model to distill durable user facts from a conversation transcript.
// The prompt instructs the model to omit sensitive categories; the
// sensitive-field filter re-validates independently and never trusts this.
func FactExtractionPrompt(transcript string) string {
	return fmt.Sprintf(`TASK: Extract durable user memory facts from a conversation transcript.
OUTPUT: ONLY valid JSON. NO markdown. NO code blocks. NO backticks. NO ARRAY - MUST BE OBJECT.

REQUIRED JSON STRUCTURE:
Your response MUST start with { and end with }
Your response MUST have a "facts" key with an array value
Each fact MUST have: key, value, confidence

Example structure (EXACT FORMAT REQUIRED):
{
  "facts": [
    {"key":"name","value":"Alice","confidence":0.95},
    {"key":"preferred_contact","value":"email","confidence":0.8}
  ]
}

RULES:
1. Prefer stable long-lived facts (name, preferred contact method, location, interests).
2. Do NOT store secrets or highly sensitive identifiers (SSNs, passwords, full DOB, card numbers).
3. Keys are short lowercase labels; values are plain strings.
4. Confidence 0.0-1.0.
5. No extra fields - only key, value, confidence per fact.
6. No null values. No trailing commas. Valid JSON syntax.
7. If the transcript contains no durable facts, return {"facts":[]}.

TRANSCRIPT:
%s

RESPOND WITH ONLY THIS JSON STRUCTURE (nothing else):
{"facts":[{"key":"x","value":"...","confidence":0.9}]}`, transcript)
}
