// Package sensitive classifies candidate facts against high-risk pattern
// rules and drops anything matching before it reaches storage.
//
// This is a defense-in-depth layer: the extraction prompt already instructs
// the model to omit sensitive categories, but the filter re-validates every
// fact independently and never trusts the model's judgment.
package sensitive

import (
	"regexp"
	"strings"

	"github.com/scrypster/recall/pkg/types"
)

// rule pairs a sensitivity label with the pattern that assigns it.
type rule struct {
	label   types.SensitivityLabel
	pattern *regexp.Regexp
}

var (
	ssnPattern   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)
	longDigits   = regexp.MustCompile(`\b\d{9,}\b`)
)

// credentialTerms are literal substrings that mark a fact as credential
// material regardless of the value's shape.
var credentialTerms = []string{"password", "secret", "passphrase", "api key", "api_key", "access token"}

// identifierTerms mark facts as personal identifiers by name alone.
var identifierTerms = []string{"ssn", "social security", "passport", "driver license", "driver's license"}

// financialTerms mark facts as financial details by name alone.
var financialTerms = []string{"credit card", "card number", "iban", "account number", "routing number", "cvv"}

// Filter drops candidate facts matching high-risk categories. A Filter is
// immutable after construction and safe for concurrent use.
type Filter struct {
	extra []rule
}

// NewFilter creates a filter with the built-in rule set.
func NewFilter() *Filter {
	return &Filter{}
}

// Classify assigns a sensitivity label to a candidate fact by checking both
// its key and value against the pattern rules. Card matching runs before the
// phone pattern so card numbers are not classified as phone identifiers.
func (f *Filter) Classify(fact types.CandidateFact) types.SensitivityLabel {
	key := strings.ToLower(fact.Key)
	value := strings.ToLower(fact.Value)
	combined := key + " " + value

	for _, term := range credentialTerms {
		if strings.Contains(combined, term) {
			return types.SensitivityCredential
		}
	}

	for _, term := range financialTerms {
		if strings.Contains(combined, term) {
			return types.SensitivityFinancial
		}
	}
	if cardPattern.MatchString(fact.Value) {
		return types.SensitivityFinancial
	}

	for _, term := range identifierTerms {
		if strings.Contains(combined, term) {
			return types.SensitivityIdentifier
		}
	}
	if ssnPattern.MatchString(fact.Value) ||
		emailPattern.MatchString(fact.Value) ||
		phonePattern.MatchString(fact.Value) ||
		longDigits.MatchString(fact.Value) {
		return types.SensitivityIdentifier
	}

	for _, r := range f.extra {
		if r.pattern.MatchString(combined) {
			return r.label
		}
	}

	return types.SensitivityNone
}

// Apply classifies each fact and returns the facts labeled none, in input
// order, plus the count of dropped facts for observability. A sensitive fact
// is dropped entirely; no redacted partial survives.
func (f *Filter) Apply(facts []types.CandidateFact) ([]types.CandidateFact, int) {
	kept := make([]types.CandidateFact, 0, len(facts))
	dropped := 0
	for _, fact := range facts {
		if f.Classify(fact) != types.SensitivityNone {
			dropped++
			continue
		}
		kept = append(kept, fact)
	}
	return kept, dropped
}
